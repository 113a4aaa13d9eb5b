package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/imagegenie/internal/services"

	"github.com/gin-gonic/gin"
)

type enhanceController struct{ svc services.EnhanceService }

func NewEnhanceController(svc services.EnhanceService) *enhanceController {
	return &enhanceController{svc: svc}
}

type enhanceReq struct {
	Prompt string `json:"prompt" binding:"required"`
}

func (h *enhanceController) Handle(c *gin.Context) {
	var req enhanceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	out, err := h.svc.Enhance(c.Request.Context(), req.Prompt)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prompt": out})
}
