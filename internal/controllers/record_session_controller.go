package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/imagegenie/internal/services"
	"github.com/osvaldoandrade/imagegenie/internal/sink"

	"github.com/gin-gonic/gin"
)

type recordSessionController struct {
	svc  services.RankingService
	sink *sink.Sink
}

func NewRecordSessionController(svc services.RankingService, s *sink.Sink) *recordSessionController {
	return &recordSessionController{svc: svc, sink: s}
}

type sessionReq struct {
	// Order lists generation names or arena labels, best first.
	Order  []string `json:"order" binding:"required"`
	Prompt string   `json:"prompt,omitempty"`
	UserID string   `json:"userId,omitempty"`
}

func (h *recordSessionController) Handle(c *gin.Context) {
	var req sessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	order, err := services.ResolveOrder(h.sink.Items(), req.Order)
	if err != nil {
		writeError(c, err)
		return
	}
	prompt := req.Prompt
	if prompt == "" && len(order) > 0 {
		prompt = order[0].Prompt
	}
	entries := h.svc.BuildRanking(order)
	session, err := h.svc.RecordSession(c.Request.Context(), req.UserID, prompt, entries)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session, "ranking": entries})
}
