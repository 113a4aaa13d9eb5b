package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/osvaldoandrade/imagegenie/internal/services"
	"github.com/osvaldoandrade/imagegenie/pkg/domain"

	"github.com/gin-gonic/gin"
)

type submitBatchController struct {
	svc     services.GenerationService
	catalog []domain.Model
}

func NewSubmitBatchController(svc services.GenerationService, catalog []domain.Model) *submitBatchController {
	return &submitBatchController{svc: svc, catalog: catalog}
}

type submitReq struct {
	Prompt         string   `json:"prompt" binding:"required"`
	Models         []string `json:"models"`
	Replicates     int      `json:"replicates,omitempty"`
	TimeoutSeconds int      `json:"timeoutSeconds,omitempty"`
	Arena          bool     `json:"arena,omitempty"`
	UserID         string   `json:"userId,omitempty"`
}

func (h *submitBatchController) Handle(c *gin.Context) {
	var req submitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if req.TimeoutSeconds < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'timeoutSeconds' (must be >= 0)"})
		return
	}
	models := make([]domain.Model, 0, len(req.Models))
	for _, name := range req.Models {
		m, ok := domain.FindModel(h.catalog, strings.TrimSpace(name))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown model " + name})
			return
		}
		models = append(models, m)
	}

	id, err := h.svc.SubmitBatch(c.Request.Context(), domain.BatchRequest{
		Models:             models,
		Prompt:             req.Prompt,
		ReplicatesPerModel: req.Replicates,
		TaskTimeout:        time.Duration(req.TimeoutSeconds) * time.Second,
		Anonymize:          req.Arena,
		UserID:             req.UserID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	st, _ := h.svc.PollStatus(id)
	c.JSON(http.StatusAccepted, st)
}
