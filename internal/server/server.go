// Package server wires the wallet session, the tool dispatcher and the MCP
// transports into a runnable process.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/MarkoPoloResearchLab/lightning-mcp/internal/journal"
	"github.com/MarkoPoloResearchLab/lightning-mcp/internal/lndwallet"
	"github.com/MarkoPoloResearchLab/lightning-mcp/internal/tools"
	"github.com/MarkoPoloResearchLab/lightning-mcp/pkg/wallet"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// Run boots the MCP server using the supplied configuration.
func Run(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("zap init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	db, closeDB, err := journal.Open(ctx, cfg.JournalDSN, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("journal open: %w", err)
	}
	defer func() { _ = closeDB() }()
	operationJournal, err := journal.New(db, journal.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("journal init: %w", err)
	}
	if err := operationJournal.Migrate(ctx); err != nil {
		return err
	}

	connector, err := lndwallet.NewConnector(cfg.lndConfig(), lndwallet.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("lnd connector: %w", err)
	}

	server, err := New(cfg, connector, logger, operationJournal)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Server owns the wallet session and the MCP server built on top of it.
type Server struct {
	cfg       Config
	logger    *zap.Logger
	manager   *wallet.Manager
	mcpServer *mcp.Server
}

// New wires the connection manager, the dispatcher and the MCP tool set.
// cfg must already be validated.
func New(cfg Config, connector wallet.Connector, logger *zap.Logger, operationLoggers ...tools.OperationLogger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	manager, err := wallet.NewManager(connector, wallet.WithLifecycleLogger(NewZapLifecycleLogger(logger)))
	if err != nil {
		return nil, fmt.Errorf("connection manager: %w", err)
	}
	loggers := append(tools.OperationLoggers{tools.NewZapOperationLogger(logger)}, operationLoggers...)
	dispatcher, err := tools.NewDispatcher(manager, tools.WithOperationLogger(loggers))
	if err != nil {
		return nil, fmt.Errorf("tool dispatcher: %w", err)
	}
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: implementationName, Version: implementationVersion}, nil)
	dispatcher.Register(mcpServer)

	return &Server{
		cfg:       cfg,
		logger:    logger,
		manager:   manager,
		mcpServer: mcpServer,
	}, nil
}

// Serve connects the wallet, serves the configured transport until ctx is
// done or the client goes away, and disconnects before returning.
func (server *Server) Serve(ctx context.Context) (err error) {
	if err := server.manager.Connect(ctx, server.cfg.connectRequest()); err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), disconnectTimeout)
		defer cancel()
		if disconnectErr := server.manager.Disconnect(disconnectCtx); disconnectErr != nil && err == nil {
			err = disconnectErr
		}
	}()

	server.logger.Info("mcp server starting",
		zap.String("transport", string(server.cfg.TransportMode)),
		zap.String("network", server.cfg.Network.String()),
	)
	defer server.logger.Info("mcp server stopped")

	switch server.cfg.TransportMode {
	case TransportHTTP, TransportASGI:
		return serveHTTP(ctx, server.cfg.ListenAddr(), server.Handler(), server.logger)
	default:
		return server.serveStdio(ctx)
	}
}

// Handler returns the HTTP handler for the configured transport mode.
func (server *Server) Handler() http.Handler {
	mcpHandler := newMCPHandler(server.mcpServer)
	if server.cfg.TransportMode == TransportASGI {
		return newEmbeddedRouter(server.cfg, mcpHandler)
	}
	return newRouter(server.cfg, server.manager, mcpHandler)
}

func (server *Server) serveStdio(ctx context.Context) error {
	err := server.mcpServer.Run(ctx, &mcp.StdioTransport{})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
