package server

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/lightning-mcp/internal/lndwallet"
	"github.com/MarkoPoloResearchLab/lightning-mcp/pkg/wallet"
	"go.uber.org/zap/zapcore"
)

const (
	defaultDataDir  = "./data"
	defaultHTTPHost = "0.0.0.0"
	defaultHTTPPort = 8000
	defaultHTTPPath = "/mcp"
	defaultLogLevel = "info"
	maxHTTPPort     = 65535

	implementationName    = "lightning-mcp"
	implementationVersion = "0.1.0"

	shutdownTimeout   = 5 * time.Second
	disconnectTimeout = 10 * time.Second
)

// TransportMode selects how MCP traffic reaches the server.
type TransportMode string

const (
	// TransportStdio speaks MCP over stdin/stdout.
	TransportStdio TransportMode = "stdio"
	// TransportHTTP serves the MCP endpoint with CORS and a health route.
	TransportHTTP TransportMode = "http"
	// TransportASGI serves only the bare MCP endpoint for an external proxy.
	TransportASGI TransportMode = "asgi"
)

// ParseTransportMode maps a configured value to a TransportMode. Empty means stdio.
func ParseTransportMode(raw string) (TransportMode, error) {
	switch mode := TransportMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case "":
		return TransportStdio, nil
	case TransportStdio, TransportHTTP, TransportASGI:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: unknown transport mode %q", wallet.ErrConfiguration, raw)
	}
}

// Config aggregates runtime settings for the MCP server.
type Config struct {
	APIKey     string
	Mnemonic   string
	Passphrase string
	Network    wallet.Network
	DataDir    string

	TransportMode TransportMode
	HTTPHost      string
	HTTPPort      int
	HTTPPath      string

	NodeAddress    string
	TLSCertPath    string
	NodeInsecure   bool
	ConnectTimeout time.Duration

	JournalDSN string
	LogLevel   string
}

// Validate applies defaults and checks required settings.
func (cfg *Config) Validate() error {
	cfg.DataDir = defaultIfEmpty(cfg.DataDir, defaultDataDir)
	cfg.HTTPHost = defaultIfEmpty(cfg.HTTPHost, defaultHTTPHost)
	cfg.HTTPPath = defaultIfEmpty(cfg.HTTPPath, defaultHTTPPath)
	if !strings.HasPrefix(cfg.HTTPPath, "/") {
		cfg.HTTPPath = "/" + cfg.HTTPPath
	}
	cfg.LogLevel = defaultIfEmpty(cfg.LogLevel, defaultLogLevel)
	if cfg.HTTPPort == 0 {
		cfg.HTTPPort = defaultHTTPPort
	}
	if cfg.Network == "" {
		cfg.Network = wallet.NetworkMainnet
	}
	mode, err := ParseTransportMode(string(cfg.TransportMode))
	if err != nil {
		return err
	}
	cfg.TransportMode = mode

	if strings.TrimSpace(cfg.APIKey) == "" {
		return fmt.Errorf("%w: api key is required", wallet.ErrConfiguration)
	}
	if strings.TrimSpace(cfg.Mnemonic) == "" {
		return fmt.Errorf("%w: mnemonic is required", wallet.ErrConfiguration)
	}
	if cfg.TransportMode == TransportHTTP && cfg.HTTPPath == healthPath {
		return fmt.Errorf("%w: http path %s is reserved for the health check", wallet.ErrConfiguration, healthPath)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > maxHTTPPort {
		return fmt.Errorf("%w: http port %d out of range", wallet.ErrConfiguration, cfg.HTTPPort)
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("%w: log level: %w", wallet.ErrConfiguration, err)
	}
	return nil
}

// ListenAddr joins the HTTP host and port.
func (cfg Config) ListenAddr() string {
	return net.JoinHostPort(cfg.HTTPHost, strconv.Itoa(cfg.HTTPPort))
}

func (cfg Config) connectRequest() wallet.ConnectRequest {
	return wallet.ConnectRequest{
		Config:     wallet.Config{APIKey: cfg.APIKey, Network: cfg.Network},
		Seed:       wallet.Seed{Mnemonic: cfg.Mnemonic, Passphrase: cfg.Passphrase},
		StorageDir: cfg.DataDir,
	}
}

func (cfg Config) lndConfig() lndwallet.Config {
	return lndwallet.Config{
		NodeAddress:    cfg.NodeAddress,
		TLSCertPath:    cfg.TLSCertPath,
		Insecure:       cfg.NodeInsecure,
		ConnectTimeout: cfg.ConnectTimeout,
	}
}

func defaultIfEmpty(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}
