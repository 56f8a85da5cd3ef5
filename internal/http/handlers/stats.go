package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/shopfront-backend/internal/http/response"
	"github.com/yungbote/shopfront-backend/internal/services"
)

type StatsHandler struct {
	statsService services.StatsService
}

func NewStatsHandler(statsService services.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// GET /api/admin/stats
func (sh *StatsHandler) Dashboard(c *gin.Context) {
	stats, err := sh.statsService.Dashboard(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, stats)
}
