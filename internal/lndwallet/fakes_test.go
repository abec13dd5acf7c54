package lndwallet

import (
	"context"
	"encoding/hex"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/lnrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
	"gopkg.in/macaroon.v2"
)

const (
	bufconnSize      = 1 << 20
	bufnetAddress    = "passthrough:///bufnet"
	nodePubkeyValue  = "02abc"
	walletPassphrase = "correct horse"
)

var testMnemonic = strings.TrimSpace(strings.Repeat("abandon ", 23) + "art")

type fakeLightningServer struct {
	lnrpc.UnimplementedLightningServer

	mutex        sync.Mutex
	info         *lnrpc.GetInfoResponse
	balance      *lnrpc.ChannelBalanceResponse
	channels     []*lnrpc.Channel
	payReq       *lnrpc.PayReq
	decodeErr    error
	sendResponse *lnrpc.SendResponse
	payments     []*lnrpc.Payment
	invoices     []*lnrpc.Invoice
	addResponse  *lnrpc.AddInvoiceResponse

	// syncAfter marks the node synced on the syncAfter-th GetInfo call.
	syncAfter int
	infoCalls int

	macaroons        []string
	sendRequests     []*lnrpc.SendRequest
	invoiceRequests  []*lnrpc.Invoice
	paymentsRequests []*lnrpc.ListPaymentsRequest
	invoicesRequests []*lnrpc.ListInvoiceRequest
}

func (server *fakeLightningServer) recordMacaroon(ctx context.Context) {
	md, _ := metadata.FromIncomingContext(ctx)
	server.macaroons = append(server.macaroons, strings.Join(md.Get(macaroonMetadataKey), ","))
}

func (server *fakeLightningServer) GetInfo(ctx context.Context, _ *lnrpc.GetInfoRequest) (*lnrpc.GetInfoResponse, error) {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	server.recordMacaroon(ctx)
	server.infoCalls++
	if server.syncAfter > 0 && server.infoCalls >= server.syncAfter {
		server.info.SyncedToChain = true
	}
	return server.info, nil
}

func (server *fakeLightningServer) ChannelBalance(ctx context.Context, _ *lnrpc.ChannelBalanceRequest) (*lnrpc.ChannelBalanceResponse, error) {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	return server.balance, nil
}

func (server *fakeLightningServer) ListChannels(ctx context.Context, _ *lnrpc.ListChannelsRequest) (*lnrpc.ListChannelsResponse, error) {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	return &lnrpc.ListChannelsResponse{Channels: server.channels}, nil
}

func (server *fakeLightningServer) DecodePayReq(ctx context.Context, _ *lnrpc.PayReqString) (*lnrpc.PayReq, error) {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	return server.payReq, server.decodeErr
}

func (server *fakeLightningServer) SendPaymentSync(ctx context.Context, request *lnrpc.SendRequest) (*lnrpc.SendResponse, error) {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	server.sendRequests = append(server.sendRequests, request)
	return server.sendResponse, nil
}

func (server *fakeLightningServer) AddInvoice(ctx context.Context, request *lnrpc.Invoice) (*lnrpc.AddInvoiceResponse, error) {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	server.invoiceRequests = append(server.invoiceRequests, request)
	return server.addResponse, nil
}

func (server *fakeLightningServer) ListPayments(ctx context.Context, request *lnrpc.ListPaymentsRequest) (*lnrpc.ListPaymentsResponse, error) {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	server.paymentsRequests = append(server.paymentsRequests, request)
	return &lnrpc.ListPaymentsResponse{Payments: server.payments}, nil
}

func (server *fakeLightningServer) ListInvoices(ctx context.Context, request *lnrpc.ListInvoiceRequest) (*lnrpc.ListInvoiceResponse, error) {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	server.invoicesRequests = append(server.invoicesRequests, request)
	return &lnrpc.ListInvoiceResponse{Invoices: server.invoices}, nil
}

type fakeStateServer struct {
	lnrpc.UnimplementedStateServer

	mutex  sync.Mutex
	states []lnrpc.WalletState
	calls  int
}

func (server *fakeStateServer) GetState(context.Context, *lnrpc.GetStateRequest) (*lnrpc.GetStateResponse, error) {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	index := server.calls
	if index >= len(server.states) {
		index = len(server.states) - 1
	}
	server.calls++
	return &lnrpc.GetStateResponse{State: server.states[index]}, nil
}

type fakeUnlockerServer struct {
	lnrpc.UnimplementedWalletUnlockerServer

	mutex          sync.Mutex
	adminMacaroon  []byte
	initRequests   []*lnrpc.InitWalletRequest
	unlockRequests []*lnrpc.UnlockWalletRequest
}

func (server *fakeUnlockerServer) InitWallet(_ context.Context, request *lnrpc.InitWalletRequest) (*lnrpc.InitWalletResponse, error) {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	server.initRequests = append(server.initRequests, request)
	return &lnrpc.InitWalletResponse{AdminMacaroon: server.adminMacaroon}, nil
}

func (server *fakeUnlockerServer) UnlockWallet(_ context.Context, request *lnrpc.UnlockWalletRequest) (*lnrpc.UnlockWalletResponse, error) {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	server.unlockRequests = append(server.unlockRequests, request)
	return &lnrpc.UnlockWalletResponse{}, nil
}

type fakeNode struct {
	lightning *fakeLightningServer
	state     *fakeStateServer
	unlocker  *fakeUnlockerServer
	listener  *bufconn.Listener
	syncWait  time.Duration
}

func newFakeNode() *fakeNode {
	return &fakeNode{
		lightning: &fakeLightningServer{
			info: &lnrpc.GetInfoResponse{
				IdentityPubkey: nodePubkeyValue,
				Alias:          "test-node",
				BlockHeight:    800000,
				SyncedToChain:  true,
				Chains:         []*lnrpc.Chain{{Chain: "bitcoin", Network: "testnet"}},
			},
			balance: &lnrpc.ChannelBalanceResponse{},
		},
		state:    &fakeStateServer{states: []lnrpc.WalletState{lnrpc.WalletState_SERVER_ACTIVE}},
		unlocker: &fakeUnlockerServer{},
		syncWait: 50 * time.Millisecond,
	}
}

// start serves the fake node over bufconn; withState controls whether the
// State service is registered.
func (node *fakeNode) start(test *testing.T, withState bool) {
	test.Helper()
	node.listener = bufconn.Listen(bufconnSize)
	grpcServer := grpc.NewServer()
	lnrpc.RegisterLightningServer(grpcServer, node.lightning)
	lnrpc.RegisterWalletUnlockerServer(grpcServer, node.unlocker)
	if withState {
		lnrpc.RegisterStateServer(grpcServer, node.state)
	}
	go func() {
		if serveErr := grpcServer.Serve(node.listener); serveErr != nil {
			test.Logf("gRPC server error: %v", serveErr)
		}
	}()
	test.Cleanup(grpcServer.Stop)
}

func (node *fakeNode) config() Config {
	dialer := func(ctx context.Context, _ string) (net.Conn, error) {
		return node.listener.DialContext(ctx)
	}
	return Config{
		NodeAddress:       bufnetAddress,
		Insecure:          true,
		ConnectTimeout:    2 * time.Second,
		StatePollInterval: 5 * time.Millisecond,
		SyncWait:          node.syncWait,
		DialOptions:       []grpc.DialOption{grpc.WithContextDialer(dialer)},
	}
}

func mustMacaroonHex(test *testing.T, id string) string {
	test.Helper()
	mac, err := macaroon.New([]byte("root-key"), []byte(id), "lnd", macaroon.LatestVersion)
	if err != nil {
		test.Fatalf("macaroon: %v", err)
	}
	raw, err := mac.MarshalBinary()
	if err != nil {
		test.Fatalf("marshal macaroon: %v", err)
	}
	return hex.EncodeToString(raw)
}
