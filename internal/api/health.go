package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"archgraph/internal/envelope"
	"archgraph/internal/version"
)

// HealthResponse is the /health payload
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
}

// ReadyResponse is the /ready payload
type ReadyResponse struct {
	Ready      bool   `json:"ready"`
	StoreDir   string `json:"storeDir"`
	Components int    `json:"components"`
	Warnings   int    `json:"warnings,omitempty"`
	Goroutines int    `json:"goroutines"`
}

func (s *Server) handleHealth(c *gin.Context) {
	now := s.opts.Now()
	c.JSON(http.StatusOK, envelope.Operational(HealthResponse{
		Status:    "healthy",
		Timestamp: now.UTC(),
		Version:   version.Info(),
		Uptime:    now.Sub(s.started).Round(time.Second).String(),
	}))
}

// handleReady reports 503 until a scan has created the store
func (s *Server) handleReady(c *gin.Context) {
	store := s.engine.Store()
	resp := ReadyResponse{
		Ready:      store.Exists(),
		StoreDir:   store.Layout().Root,
		Goroutines: runtime.NumGoroutine(),
	}
	if resp.Ready {
		if v, err := s.engine.Load(c.Request.Context()); err == nil {
			resp.Components = len(v.Records.Components)
			resp.Warnings = len(v.Records.Warnings)
		}
	}
	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, envelope.Operational(resp))
}

func (s *Server) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, envelope.Operational(version.Get()))
}
