// Package lndwallet implements wallet sessions against an LND node over gRPC.
package lndwallet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/lightning-mcp/pkg/wallet"
	"github.com/lightningnetwork/lnd/lnrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// Option configures a Connector instance.
type Option func(*Connector)

// WithLogger sets the logger used for connection events.
func WithLogger(logger *zap.Logger) Option {
	return func(connector *Connector) {
		if logger != nil {
			connector.logger = logger
		}
	}
}

// WithClock overrides the time source used for locally built payments.
func WithClock(clock func() time.Time) Option {
	return func(connector *Connector) {
		if clock != nil {
			connector.clock = clock
		}
	}
}

// Connector opens LND sessions. It implements wallet.Connector.
type Connector struct {
	cfg    Config
	logger *zap.Logger
	clock  func() time.Time
}

// NewConnector validates cfg and returns a Connector.
func NewConnector(cfg Config, options ...Option) (*Connector, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	connector := &Connector{
		cfg:    cfg,
		logger: zap.NewNop(),
		clock:  func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		if option != nil {
			option(connector)
		}
	}
	return connector, nil
}

// Connect dials the node, initializes or unlocks the wallet when needed and
// checks that the node runs on the requested network. The admin macaroon
// returned by an initialization is kept as admin.macaroon in the storage
// directory and used instead of the api key from then on.
func (connector *Connector) Connect(ctx context.Context, request wallet.ConnectRequest) (wallet.Session, error) {
	words := request.Seed.Words()
	if len(words) != aezeedWordCount {
		return nil, connectionError(errorCodeCredentials, fmt.Errorf("mnemonic must have %d words, got %d", aezeedWordCount, len(words)))
	}
	if err := prepareStorageDir(request.StorageDir); err != nil {
		return nil, connectionError(errorCodeStorage, err)
	}
	mac, err := loadMacaroon(request.StorageDir, request.Config.APIKey)
	if err != nil {
		return nil, connectionError(errorCodeCredentials, err)
	}

	transport, err := connector.transportCredentials(request.StorageDir)
	if err != nil {
		return nil, connectionError(errorCodeCredentials, err)
	}
	macaroonCredential, err := newMacaroonCredential(mac, !connector.cfg.Insecure)
	if err != nil {
		return nil, connectionError(errorCodeCredentials, err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, connector.cfg.ConnectTimeout)
	defer cancel()

	dialOptions := append([]grpc.DialOption{
		grpc.WithTransportCredentials(transport),
		grpc.WithPerRPCCredentials(macaroonCredential),
	}, connector.cfg.DialOptions...)
	conn, err := grpc.NewClient(connector.cfg.NodeAddress, dialOptions...)
	if err != nil {
		return nil, connectionError(errorCodeDial, err)
	}
	conn.Connect()
	if err := waitForClientReady(connectCtx, conn); err != nil {
		_ = conn.Close()
		return nil, connectionError(errorCodeDial, fmt.Errorf("node %s unreachable: %w", connector.cfg.NodeAddress, err))
	}

	session := newSession(conn, connector.cfg, connector.clock)
	if err := connector.ensureWalletActive(connectCtx, conn, macaroonCredential, request); err != nil {
		_ = conn.Close()
		return nil, err
	}

	info, err := session.lightning.GetInfo(connectCtx, &lnrpc.GetInfoRequest{})
	if err != nil {
		_ = conn.Close()
		return nil, connectionError(errorCodeInfo, err)
	}
	reported := chainNetwork(info)
	if reported == nil || *reported != request.Config.Network {
		_ = conn.Close()
		return nil, connectionError(errorCodeNetwork, fmt.Errorf("node reports network %s, configured %s", networkName(reported), request.Config.Network))
	}

	connector.logger.Info("lnd wallet connected",
		zap.String("node_address", connector.cfg.NodeAddress),
		zap.String("pubkey", info.GetIdentityPubkey()),
		zap.String("network", reported.String()),
	)
	return session, nil
}

func (connector *Connector) transportCredentials(storageDir string) (credentials.TransportCredentials, error) {
	if connector.cfg.Insecure {
		return insecure.NewCredentials(), nil
	}
	certPath := connector.cfg.TLSCertPath
	if certPath == "" {
		candidate := filepath.Join(storageDir, defaultTLSCertName)
		if _, err := os.Stat(candidate); err == nil {
			certPath = candidate
		}
	}
	if certPath == "" {
		return credentials.NewClientTLSFromCert(nil, ""), nil
	}
	transport, err := credentials.NewClientTLSFromFile(certPath, "")
	if err != nil {
		return nil, fmt.Errorf("load TLS cert: %w", err)
	}
	return transport, nil
}

// ensureWalletActive drives the node from NON_EXISTING or LOCKED to an
// active RPC server. Nodes without the State service are assumed active.
func (connector *Connector) ensureWalletActive(ctx context.Context, conn *grpc.ClientConn, macaroonCredential *macaroonCredential, request wallet.ConnectRequest) error {
	stateClient := lnrpc.NewStateClient(conn)
	state, err := stateClient.GetState(ctx, &lnrpc.GetStateRequest{})
	if status.Code(err) == codes.Unimplemented {
		return nil
	}
	if err != nil {
		return connectionError(errorCodeState, err)
	}

	password := []byte(request.Seed.Passphrase)
	unlocker := lnrpc.NewWalletUnlockerClient(conn)
	switch state.GetState() {
	case lnrpc.WalletState_NON_EXISTING:
		if len(password) < minWalletPasswordBytes {
			return connectionError(errorCodeCredentials, fmt.Errorf("passphrase must have at least %d bytes to initialize the wallet", minWalletPasswordBytes))
		}
		response, err := unlocker.InitWallet(ctx, &lnrpc.InitWalletRequest{
			WalletPassword:     password,
			CipherSeedMnemonic: request.Seed.Words(),
		})
		if err != nil {
			return connectionError(errorCodeState, fmt.Errorf("init wallet: %w", err))
		}
		if len(response.GetAdminMacaroon()) > 0 {
			adminMacaroon, err := unmarshalMacaroon(response.GetAdminMacaroon())
			if err != nil {
				return connectionError(errorCodeCredentials, err)
			}
			if err := macaroonCredential.replace(adminMacaroon); err != nil {
				return connectionError(errorCodeCredentials, err)
			}
			if err := storeMacaroon(request.StorageDir, response.GetAdminMacaroon()); err != nil {
				return connectionError(errorCodeStorage, err)
			}
		}
		connector.logger.Info("lnd wallet initialized", zap.String("node_address", connector.cfg.NodeAddress))
	case lnrpc.WalletState_LOCKED:
		if _, err := unlocker.UnlockWallet(ctx, &lnrpc.UnlockWalletRequest{WalletPassword: password}); err != nil {
			return connectionError(errorCodeState, fmt.Errorf("unlock wallet: %w", err))
		}
		connector.logger.Info("lnd wallet unlocked", zap.String("node_address", connector.cfg.NodeAddress))
	}

	return connector.waitForWalletActive(ctx, stateClient)
}

func (connector *Connector) waitForWalletActive(ctx context.Context, stateClient lnrpc.StateClient) error {
	ticker := time.NewTicker(connector.cfg.StatePollInterval)
	defer ticker.Stop()
	for {
		state, err := stateClient.GetState(ctx, &lnrpc.GetStateRequest{})
		if err != nil {
			return connectionError(errorCodeState, err)
		}
		switch state.GetState() {
		case lnrpc.WalletState_RPC_ACTIVE, lnrpc.WalletState_SERVER_ACTIVE:
			return nil
		}
		select {
		case <-ctx.Done():
			return connectionError(errorCodeState, fmt.Errorf("wallet stuck in state %s: %w", state.GetState(), ctx.Err()))
		case <-ticker.C:
		}
	}
}

func waitForClientReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		state := conn.GetState()
		if state == connectivity.Ready {
			return nil
		}
		if state == connectivity.Shutdown {
			return errors.New("grpc connection shutdown before ready")
		}
		if !conn.WaitForStateChange(ctx, state) {
			if err := ctx.Err(); err != nil {
				return err
			}
			return errors.New("grpc connection failed to reach ready state")
		}
	}
}

func prepareStorageDir(storageDir string) error {
	storageDir = strings.TrimSpace(storageDir)
	if storageDir == "" {
		return errors.New("storage dir is required")
	}
	if err := os.MkdirAll(storageDir, 0o700); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	marker, err := os.CreateTemp(storageDir, ".write-check-*")
	if err != nil {
		return fmt.Errorf("storage dir not writable: %w", err)
	}
	markerName := marker.Name()
	_ = marker.Close()
	return os.Remove(markerName)
}

func connectionError(code string, err error) error {
	return wallet.WrapError(errorOperationLND, errorSubjectConnection, code, fmt.Errorf("%w: %w", wallet.ErrConnection, err))
}
