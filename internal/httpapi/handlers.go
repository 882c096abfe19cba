package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/chriseid/OptionBot/internal/backtest"
	"github.com/chriseid/OptionBot/internal/logger"
	"github.com/chriseid/OptionBot/internal/store"
	"github.com/chriseid/OptionBot/internal/strategy"
)

type strategyRequest struct {
	Name       string                    `json:"name" binding:"required"`
	Symbol     string                    `json:"symbol" binding:"required"`
	Kind       strategy.Kind             `json:"strategy" binding:"required"`
	Expiration string                    `json:"expiration" binding:"required"`
	Legs       map[strategy.Role]float64 `json:"legs" binding:"required"`
	Quantity   int                       `json:"quantity" binding:"required"`
}

type backtestRequest struct {
	StartDate      string  `json:"startDate" binding:"required"`
	EndDate        string  `json:"endDate" binding:"required"`
	InitialCapital float64 `json:"initialCapital"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "days": s.chain.Len()})
}

func (s *Server) createStrategy(c *gin.Context) {
	var req strategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	def := &strategy.Definition{
		ID:         uuid.NewString(),
		Name:       req.Name,
		Symbol:     req.Symbol,
		Kind:       req.Kind,
		Expiration: req.Expiration,
		Legs:       req.Legs,
		Quantity:   req.Quantity,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := def.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.repo.SaveStrategy(def); err != nil {
		logger.Errorf("save strategy: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, def)
}

func (s *Server) listStrategies(c *gin.Context) {
	defs, err := s.repo.ListStrategies()
	if err != nil {
		logger.Errorf("list strategies: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, defs)
}

func (s *Server) getStrategy(c *gin.Context) {
	def, err := s.repo.GetStrategy(c.Param("id"))
	if err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, def)
}

func (s *Server) updateStrategy(c *gin.Context) {
	var req strategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing, err := s.repo.GetStrategy(c.Param("id"))
	if err != nil {
		respondRepoError(c, err)
		return
	}

	def := &strategy.Definition{
		ID:         existing.ID,
		Name:       req.Name,
		Symbol:     req.Symbol,
		Kind:       req.Kind,
		Expiration: req.Expiration,
		Legs:       req.Legs,
		Quantity:   req.Quantity,
		CreatedAt:  existing.CreatedAt,
	}
	if err := def.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.repo.UpdateStrategy(def); err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, def)
}

func (s *Server) deleteStrategy(c *gin.Context) {
	if err := s.repo.DeleteStrategy(c.Param("id")); err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

func (s *Server) runBacktest(c *gin.Context) {
	var req backtestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.StartDate > req.EndDate {
		c.JSON(http.StatusBadRequest, gin.H{"error": "startDate must not be after endDate"})
		return
	}
	if req.InitialCapital < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "initialCapital must be non-negative"})
		return
	}

	def, err := s.repo.GetStrategy(c.Param("id"))
	if err != nil {
		respondRepoError(c, err)
		return
	}

	days := s.chain.Days(def.Symbol, req.StartDate, req.EndDate)
	result, err := s.engine.Run(def, req.StartDate, req.EndDate, req.InitialCapital, days)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	if err := s.repo.SaveBacktest(result); err != nil {
		logger.Errorf("save backtest %s: %v", result.BacktestID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) listBacktests(c *gin.Context) {
	results, err := s.repo.ListBacktests(c.Query("strategyId"))
	if err != nil {
		logger.Errorf("list backtests: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, results)
}

func (s *Server) getBacktest(c *gin.Context) {
	result, err := s.repo.GetBacktest(c.Param("id"))
	if err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func respondRepoError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	logger.Errorf("repository: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func respondEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, strategy.ErrInvalidStrategy),
		errors.Is(err, backtest.ErrNoDataInRange),
		errors.Is(err, backtest.ErrInvalidUnderlyingPrice):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Errorf("backtest: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
