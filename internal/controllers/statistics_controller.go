package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/imagegenie/internal/services"

	"github.com/gin-gonic/gin"
)

type statisticsController struct {
	svc       services.RankingService
	outputDir string
}

func NewStatisticsController(svc services.RankingService, outputDir string) *statisticsController {
	return &statisticsController{svc: svc, outputDir: outputDir}
}

func (h *statisticsController) Handle(c *gin.Context) {
	st, err := h.svc.Statistics(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

type exportReq struct {
	Format string `json:"format,omitempty"`
}

func (h *statisticsController) Export(c *gin.Context) {
	var req exportReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
	}
	paths, err := h.svc.Export(c.Request.Context(), h.outputDir, req.Format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"files": paths})
}
