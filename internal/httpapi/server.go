// Package httpapi exposes strategy management and backtesting over REST.
package httpapi

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/chriseid/OptionBot/internal/backtest"
	"github.com/chriseid/OptionBot/internal/data"
	"github.com/chriseid/OptionBot/internal/store"
)

// Server wires the HTTP surface to the engine, chain store and
// repository.
type Server struct {
	engine *backtest.Engine
	chain  *data.Store
	repo   *store.Repository
	router *gin.Engine
}

func NewServer(engine *backtest.Engine, chain *data.Store, repo *store.Repository) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		engine: engine,
		chain:  chain,
		repo:   repo,
		router: gin.New(),
	}
	s.router.Use(gin.Recovery())
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.health)

	api := s.router.Group("/api")
	{
		api.POST("/strategies", s.createStrategy)
		api.GET("/strategies", s.listStrategies)
		api.GET("/strategies/:id", s.getStrategy)
		api.PUT("/strategies/:id", s.updateStrategy)
		api.DELETE("/strategies/:id", s.deleteStrategy)

		api.POST("/backtest/:id", s.runBacktest)
		api.GET("/backtest/results", s.listBacktests)
		api.GET("/backtest/results/:id", s.getBacktest)
	}
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() *gin.Engine {
	return s.router
}

// Run blocks serving HTTP on the given port.
func (s *Server) Run(port int) error {
	return s.router.Run(fmt.Sprintf(":%d", port))
}
