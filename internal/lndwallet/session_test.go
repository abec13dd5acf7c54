package lndwallet

import (
	"context"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/MarkoPoloResearchLab/lightning-mcp/internal/normalize"
	"github.com/MarkoPoloResearchLab/lightning-mcp/pkg/wallet"
	"github.com/lightningnetwork/lnd/lnrpc"
)

const fixedUnix = 1700000000

func connectSession(test *testing.T, node *fakeNode) *Session {
	test.Helper()
	node.start(test, true)
	session, err := mustConnector(test, node.config()).Connect(context.Background(), connectRequest(test, mustMacaroonHex(test, "admin")))
	if err != nil {
		test.Fatalf("connect failed: %v", err)
	}
	test.Cleanup(func() { _ = session.Disconnect(context.Background()) })
	lndSession, ok := session.(*Session)
	if !ok {
		test.Fatalf("unexpected session type %T", session)
	}
	return lndSession
}

func TestSessionGetInfo(test *testing.T) {
	test.Parallel()
	node := newFakeNode()
	node.lightning.balance = &lnrpc.ChannelBalanceResponse{
		LocalBalance:            &lnrpc.Amount{Sat: 50000},
		UnsettledLocalBalance:   &lnrpc.Amount{Sat: 300},
		UnsettledRemoteBalance:  &lnrpc.Amount{Sat: 200},
		PendingOpenLocalBalance: &lnrpc.Amount{Sat: 1000},
	}
	node.lightning.channels = []*lnrpc.Channel{
		{
			ChanId:            42,
			Capacity:          100000,
			LocalBalance:      50000,
			RemoteBalance:     49000,
			Active:            true,
			LocalConstraints:  &lnrpc.ChannelConstraints{ChanReserveSat: 1000},
			RemoteConstraints: &lnrpc.ChannelConstraints{ChanReserveSat: 1000},
		},
		{ChanId: 43, Capacity: 20000, LocalBalance: 20000, Active: false},
	}
	session := connectSession(test, node)

	info, err := session.GetInfo(context.Background(), wallet.GetInfoRequest{EnsureSynced: true})
	if err != nil {
		test.Fatalf("get info failed: %v", err)
	}
	if info.Identifiers[identifierPubkey] != nodePubkeyValue || info.Identifiers[identifierAlias] != "test-node" {
		test.Fatalf("unexpected identifiers: %v", info.Identifiers)
	}
	if info.Network == nil || *info.Network != wallet.NetworkTestnet {
		test.Fatalf("unexpected network: %v", info.Network)
	}
	if *info.BalanceSat != 50000 || *info.PendingIncomingSat != 1200 || *info.PendingOutgoingSat != 300 {
		test.Fatalf("unexpected balances: %d %d %d", *info.BalanceSat, *info.PendingIncomingSat, *info.PendingOutgoingSat)
	}
	if *info.MaxPayableSat != 49000 || *info.MaxReceivableSat != 48000 {
		test.Fatalf("unexpected limits: %d %d", *info.MaxPayableSat, *info.MaxReceivableSat)
	}
	if len(info.Channels) != 2 || info.Channels[0].ID != "42" || info.Channels[1].Active {
		test.Fatalf("unexpected channels: %+v", info.Channels)
	}
	if !*info.Synced || *info.BlockHeight != 800000 {
		test.Fatalf("unexpected sync state: %v %d", *info.Synced, *info.BlockHeight)
	}
}

func TestSessionGetInfoReportsUnsyncedNode(test *testing.T) {
	test.Parallel()
	node := newFakeNode()
	session := connectSession(test, node)
	node.lightning.mutex.Lock()
	node.lightning.info.SyncedToChain = false
	node.lightning.mutex.Unlock()

	info, err := session.GetInfo(context.Background(), wallet.GetInfoRequest{EnsureSynced: true})
	if err != nil {
		test.Fatalf("expected unsynced info, got %v", err)
	}
	if info.Synced == nil || *info.Synced {
		test.Fatalf("expected synced=false, got %v", info.Synced)
	}
	if record := normalize.NodeInfo(info); record.Synced {
		test.Fatalf("expected node info synced=false, got %+v", record)
	}
}

func TestSessionGetInfoWaitsForSync(test *testing.T) {
	test.Parallel()
	node := newFakeNode()
	node.syncWait = 5 * time.Second
	session := connectSession(test, node)
	node.lightning.mutex.Lock()
	node.lightning.info.SyncedToChain = false
	node.lightning.infoCalls = 0
	node.lightning.syncAfter = 3
	node.lightning.mutex.Unlock()

	info, err := session.GetInfo(context.Background(), wallet.GetInfoRequest{EnsureSynced: true})
	if err != nil {
		test.Fatalf("get info failed: %v", err)
	}
	if info.Synced == nil || !*info.Synced {
		test.Fatalf("expected synced after polling, got %v", info.Synced)
	}
	node.lightning.mutex.Lock()
	defer node.lightning.mutex.Unlock()
	if node.lightning.infoCalls != 3 {
		test.Fatalf("expected 3 GetInfo calls, got %d", node.lightning.infoCalls)
	}
}

func TestSessionGetInfoCanceledWhileWaiting(test *testing.T) {
	test.Parallel()
	node := newFakeNode()
	node.syncWait = 5 * time.Second
	session := connectSession(test, node)
	node.lightning.mutex.Lock()
	node.lightning.info.SyncedToChain = false
	node.lightning.mutex.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := session.GetInfo(ctx, wallet.GetInfoRequest{EnsureSynced: true}); !errors.Is(err, wallet.ErrUpstream) {
		test.Fatalf("expected ErrUpstream after cancel, got %v", err)
	}
}

func TestSessionPrepareSendPayment(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name        string
		payReq      *lnrpc.PayReq
		decodeErr   error
		expectErr   error
		expectFee   uint64
		expectTotal uint64
	}{
		{
			name:        "small amount uses minimum fee limit",
			payReq:      &lnrpc.PayReq{NumSatoshis: 500, Destination: "03dest", PaymentHash: "hash", Timestamp: fixedUnix, Expiry: 3600},
			expectFee:   minFeeLimitSat,
			expectTotal: 500,
		},
		{
			name:        "large amount uses one percent",
			payReq:      &lnrpc.PayReq{NumSatoshis: 250000, Destination: "03dest", PaymentHash: "hash"},
			expectFee:   2500,
			expectTotal: 250000,
		},
		{
			name:      "amountless invoice",
			payReq:    &lnrpc.PayReq{Destination: "03dest"},
			expectErr: wallet.ErrValidation,
		},
		{
			name:      "expired invoice",
			payReq:    &lnrpc.PayReq{NumSatoshis: 500, Timestamp: fixedUnix - 7200, Expiry: 3600},
			expectErr: wallet.ErrValidation,
		},
		{
			name:      "decode failure",
			decodeErr: errors.New("invalid bech32"),
			expectErr: wallet.ErrUpstream,
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			node := newFakeNode()
			node.lightning.payReq = testCase.payReq
			node.lightning.decodeErr = testCase.decodeErr
			session := connectSession(test, node)

			quote, err := session.PrepareSendPayment(context.Background(), wallet.PrepareSendRequest{PaymentRequest: "lnbc1"})
			if testCase.expectErr != nil {
				if !errors.Is(err, testCase.expectErr) {
					test.Fatalf("expected %v, got %v", testCase.expectErr, err)
				}
				return
			}
			if err != nil {
				test.Fatalf("prepare failed: %v", err)
			}
			if quote.PaymentRequest != "lnbc1" || *quote.AmountSat != testCase.expectTotal || *quote.FeeLimitSat != testCase.expectFee {
				test.Fatalf("unexpected quote: %+v", quote)
			}
			if *quote.Destination != "03dest" || *quote.PaymentHash != "hash" {
				test.Fatalf("unexpected quote routing: %+v", quote)
			}
		})
	}
}

func TestSessionSendPayment(test *testing.T) {
	test.Parallel()
	node := newFakeNode()
	node.lightning.sendResponse = &lnrpc.SendResponse{
		PaymentHash:     []byte{0xab, 0xcd},
		PaymentPreimage: []byte{0x01, 0x02},
		PaymentRoute:    &lnrpc.Route{TotalFeesMsat: 3000},
	}
	session := connectSession(test, node)
	amount := uint64(500)
	feeLimit := uint64(10)
	destination := "03dest"

	result, err := session.SendPayment(context.Background(), wallet.SendRequest{Quote: wallet.SendQuote{
		PaymentRequest: "lnbc1",
		AmountSat:      &amount,
		FeeLimitSat:    &feeLimit,
		Destination:    &destination,
	}})
	if err != nil {
		test.Fatalf("send failed: %v", err)
	}
	if *result.PaymentHash != "abcd" || result.Payment.Status != wallet.PaymentStatusCompleted {
		test.Fatalf("unexpected result: %+v", result)
	}
	if *result.Payment.FeesSat != 3 || *result.Payment.AmountSat != 500 || *result.Payment.Details.Preimage != "0102" {
		test.Fatalf("unexpected payment: %+v", result.Payment)
	}
	if *result.Payment.Timestamp != fixedUnix {
		test.Fatalf("expected clock timestamp, got %d", *result.Payment.Timestamp)
	}

	node.lightning.mutex.Lock()
	defer node.lightning.mutex.Unlock()
	if len(node.lightning.sendRequests) != 1 || node.lightning.sendRequests[0].GetFeeLimit().GetFixed() != 10 {
		test.Fatalf("unexpected send requests: %+v", node.lightning.sendRequests)
	}
}

func TestSessionSendPaymentError(test *testing.T) {
	test.Parallel()
	node := newFakeNode()
	node.lightning.sendResponse = &lnrpc.SendResponse{PaymentError: "no route"}
	session := connectSession(test, node)

	_, err := session.SendPayment(context.Background(), wallet.SendRequest{Quote: wallet.SendQuote{PaymentRequest: "lnbc1"}})
	if !errors.Is(err, wallet.ErrUpstream) {
		test.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestSessionReceivePayment(test *testing.T) {
	test.Parallel()
	node := newFakeNode()
	node.lightning.addResponse = &lnrpc.AddInvoiceResponse{RHash: []byte{0xfe}, PaymentRequest: "lntb1invoice"}
	session := connectSession(test, node)

	result, err := session.ReceivePayment(context.Background(), wallet.ReceiveRequest{
		Method: wallet.ReceiveMethodBolt11Invoice{Description: "coffee", AmountSat: 1500},
	})
	if err != nil {
		test.Fatalf("receive failed: %v", err)
	}
	if *result.PaymentRequest != "lntb1invoice" || *result.PaymentHash != "fe" || *result.FeeSat != 0 {
		test.Fatalf("unexpected result: %+v", result)
	}
	if *result.Expiry != int64(defaultInvoiceExpiry/time.Second) {
		test.Fatalf("unexpected expiry: %d", *result.Expiry)
	}

	node.lightning.mutex.Lock()
	defer node.lightning.mutex.Unlock()
	invoice := node.lightning.invoiceRequests[0]
	if invoice.GetMemo() != "coffee" || invoice.GetValue() != 1500 || len(invoice.GetRPreimage()) != preimageBytes {
		test.Fatalf("unexpected invoice request: %+v", invoice)
	}
	if *result.Preimage != hex.EncodeToString(invoice.GetRPreimage()) {
		test.Fatalf("preimage mismatch")
	}
}

type unsupportedMethod struct {
	wallet.ReceiveMethodBolt11Invoice
}

func TestSessionReceiveUnsupportedMethod(test *testing.T) {
	test.Parallel()
	session := connectSession(test, newFakeNode())
	_, err := session.ReceivePayment(context.Background(), wallet.ReceiveRequest{Method: unsupportedMethod{}})
	if !errors.Is(err, wallet.ErrValidation) {
		test.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSessionListPayments(test *testing.T) {
	test.Parallel()
	node := newFakeNode()
	node.lightning.payments = []*lnrpc.Payment{
		{PaymentHash: "old", ValueSat: 100, CreationTimeNs: 100 * int64(time.Second), Status: lnrpc.Payment_SUCCEEDED},
		{PaymentHash: "new", ValueSat: 300, CreationTimeNs: 300 * int64(time.Second), Status: lnrpc.Payment_IN_FLIGHT},
	}
	node.lightning.invoices = []*lnrpc.Invoice{
		{RHash: []byte{0x01}, Value: 200, CreationDate: 200, State: lnrpc.Invoice_OPEN},
		{RHash: []byte{0x02}, Value: 250, CreationDate: 250, State: lnrpc.Invoice_CANCELED},
	}
	session := connectSession(test, node)

	list, err := session.ListPayments(context.Background(), wallet.ListPaymentsRequest{Limit: 2})
	if err != nil {
		test.Fatalf("list failed: %v", err)
	}
	if len(list.Payments) != 2 {
		test.Fatalf("expected 2 payments, got %d", len(list.Payments))
	}
	if *list.Payments[0].ID != "new" || *list.Payments[1].ID != "01" {
		test.Fatalf("unexpected order: %s %s", *list.Payments[0].ID, *list.Payments[1].ID)
	}
	for _, payment := range list.Payments {
		if payment.Status == wallet.PaymentStatusFailed {
			test.Fatalf("expected canceled invoices excluded, got %s", *payment.ID)
		}
	}
	if list.Payments[1].PaymentType != wallet.PaymentTypeReceive {
		test.Fatalf("expected received invoice, got %s", list.Payments[1].PaymentType)
	}

	node.lightning.mutex.Lock()
	defer node.lightning.mutex.Unlock()
	paymentsRequest := node.lightning.paymentsRequests[0]
	if !paymentsRequest.GetReversed() || paymentsRequest.GetMaxPayments() != 2 || !paymentsRequest.GetIncludeIncomplete() {
		test.Fatalf("unexpected payments request: %+v", paymentsRequest)
	}
	if node.lightning.invoicesRequests[0].GetNumMaxInvoices() != 2 {
		test.Fatalf("unexpected invoices request: %+v", node.lightning.invoicesRequests[0])
	}
}

func TestFeeLimitSat(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		amount   uint64
		expected uint64
	}{
		{amount: 0, expected: minFeeLimitSat},
		{amount: 999, expected: minFeeLimitSat},
		{amount: 1000, expected: minFeeLimitSat},
		{amount: 5000, expected: 50},
	}
	for _, testCase := range testCases {
		if got := feeLimitSat(testCase.amount); got != testCase.expected {
			test.Fatalf("feeLimitSat(%d) = %d, expected %d", testCase.amount, got, testCase.expected)
		}
	}
}
