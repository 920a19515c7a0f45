package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/inkpost/services"
	"github.com/cppla/inkpost/utils"
)

// StatsController provides site statistics.
type StatsController struct {
	stats  *services.StatsService
	logger *zap.Logger
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(stats *services.StatsService, logger *zap.Logger) *StatsController {
	return &StatsController{stats: stats, logger: logger}
}

// GetStats returns counts of active users, posts and comments.
func (s *StatsController) GetStats(ctx *gin.Context) {
	st, err := s.stats.Get(ctx.Request.Context())
	if err != nil {
		respondError(ctx, s.logger, err)
		return
	}
	utils.Success(ctx, st)
}
