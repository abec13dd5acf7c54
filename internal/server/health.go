package server

import (
	"fmt"
	"net/http"

	"github.com/MarkoPoloResearchLab/lightning-mcp/pkg/wallet"
	"github.com/gin-gonic/gin"
)

const (
	healthStatusHealthy   = "healthy"
	healthStatusUnhealthy = "unhealthy"
	healthNotConnected    = "SDK not connected"
	healthFailurePrefix   = "Health check failed: "
)

// HealthSource reports whether the wallet session is usable.
type HealthSource interface {
	Connected() bool
}

type healthReport struct {
	Status       string `json:"status"`
	SDKConnected bool   `json:"sdk_connected"`
	Network      string `json:"network"`
	Error        string `json:"error,omitempty"`
}

func checkHealth(source HealthSource, network wallet.Network) (report healthReport, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("%v", recovered)
		}
	}()
	if source == nil {
		return healthReport{}, fmt.Errorf("%w: no health source", wallet.ErrConfiguration)
	}
	report = healthReport{Status: healthStatusHealthy, SDKConnected: true, Network: network.String()}
	if !source.Connected() {
		report.Status = healthStatusUnhealthy
		report.SDKConnected = false
		report.Error = healthNotConnected
	}
	return report, nil
}

func healthHandler(source HealthSource, network wallet.Network) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		report, err := checkHealth(source, network)
		if err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"detail": healthFailurePrefix + err.Error()})
			return
		}
		ctx.JSON(http.StatusOK, report)
	}
}
