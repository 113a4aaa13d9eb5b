package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/imagegenie/internal/services"

	"github.com/gin-gonic/gin"
)

type leaderboardController struct{ svc services.RankingService }

func NewLeaderboardController(svc services.RankingService) *leaderboardController {
	return &leaderboardController{svc: svc}
}

func (h *leaderboardController) Handle(c *gin.Context) {
	board, err := h.svc.ComputeLeaderboard(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": board})
}
