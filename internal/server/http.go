package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

const (
	healthPath        = "/health"
	headerSessionID   = "mcp-session-id"
	headerProtocolVer = "mcp-protocol-version"
)

func newMCPHandler(mcpServer *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return mcpServer }, nil)
}

// newRouter serves the MCP endpoint with CORS and the health route.
func newRouter(cfg Config, source HealthSource, mcpHandler http.Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:    []string{headerProtocolVer, headerSessionID, "Authorization", "Content-Type"},
		ExposeHeaders:   []string{headerSessionID},
	}))

	router.GET(healthPath, healthHandler(source, cfg.Network))
	router.Any(cfg.HTTPPath, gin.WrapH(mcpHandler))
	return router
}

// newEmbeddedRouter serves only the MCP endpoint. CORS and health belong to
// the proxy in front of it.
func newEmbeddedRouter(cfg Config, mcpHandler http.Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Any(cfg.HTTPPath, gin.WrapH(mcpHandler))
	return router
}

func serveHTTP(ctx context.Context, listenAddr string, handler http.Handler, logger *zap.Logger) error {
	httpServer := &http.Server{
		Addr:    listenAddr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("mcp http listening", zap.String("addr", listenAddr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
