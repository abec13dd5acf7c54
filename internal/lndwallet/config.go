package lndwallet

import (
	"fmt"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/lightning-mcp/pkg/wallet"
	"google.golang.org/grpc"
)

const (
	defaultNodeAddress       = "localhost:10009"
	defaultConnectTimeout    = 15 * time.Second
	defaultStatePollInterval = 500 * time.Millisecond
	defaultInvoiceExpiry     = time.Hour
	defaultSyncWait          = 5 * time.Second
	defaultTLSCertName       = "tls.cert"
)

// Config describes how to reach the LND node.
type Config struct {
	NodeAddress string
	// TLSCertPath is the node certificate. When empty, tls.cert in the
	// storage directory is used if present, otherwise the system roots.
	TLSCertPath string
	// Insecure disables transport security. Meant for local regtest nodes.
	Insecure          bool
	ConnectTimeout    time.Duration
	StatePollInterval time.Duration
	InvoiceExpiry     time.Duration
	// SyncWait bounds how long GetInfo polls a node that is behind the
	// chain before reporting it unsynced.
	SyncWait time.Duration
	// DialOptions are appended to the options built from the fields above.
	DialOptions []grpc.DialOption
}

func (cfg Config) withDefaults() Config {
	cfg.NodeAddress = strings.TrimSpace(cfg.NodeAddress)
	if cfg.NodeAddress == "" {
		cfg.NodeAddress = defaultNodeAddress
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.StatePollInterval <= 0 {
		cfg.StatePollInterval = defaultStatePollInterval
	}
	if cfg.InvoiceExpiry <= 0 {
		cfg.InvoiceExpiry = defaultInvoiceExpiry
	}
	if cfg.SyncWait <= 0 {
		cfg.SyncWait = defaultSyncWait
	}
	return cfg
}

// Validate checks the configuration after defaults are applied.
func (cfg Config) Validate() error {
	if strings.Contains(cfg.NodeAddress, " ") {
		return fmt.Errorf("%w: node address %q is invalid", wallet.ErrConfiguration, cfg.NodeAddress)
	}
	if cfg.InvoiceExpiry < time.Second {
		return fmt.Errorf("%w: invoice expiry must be at least one second", wallet.ErrConfiguration)
	}
	return nil
}
