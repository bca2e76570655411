package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"archgraph/internal/envelope"
	"archgraph/internal/errors"
)

// registerRoutes registers all API routes.
//
//	GET /health                 liveness
//	GET /ready                  store present
//	GET /metrics                Prometheus
//	GET /version
//	GET /v1/components          ?type=&layer=&q=
//	GET /v1/components/:id
//	GET /v1/trace               ?component=&direction=&depth=&classification=&maxPaths=
//	GET /v1/subgraph            ?focus=a,b&depth=&layers=&classification=&maxNodes=&format=mermaid
//	GET /v1/coverage
//	GET /v1/rules
func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/ready", s.handleReady)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/version", s.handleVersion)

	v1 := s.router.Group("/v1")
	{
		v1.GET("/components", s.handleComponents)
		v1.GET("/components/:id", s.handleComponent)
		v1.GET("/trace", s.handleTrace)
		v1.GET("/subgraph", s.handleSubgraph)
		v1.GET("/coverage", s.handleCoverage)
		v1.GET("/rules", s.handleRules)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, envelope.Failure(
			errors.Newf(errors.InvalidArgument, "no route for %s %s", c.Request.Method, c.Request.URL.Path)))
	})
}
