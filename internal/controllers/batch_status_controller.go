package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/imagegenie/internal/services"
	"github.com/osvaldoandrade/imagegenie/pkg/domain"

	"github.com/gin-gonic/gin"
)

type batchStatusController struct{ svc services.GenerationService }

func NewBatchStatusController(svc services.GenerationService) *batchStatusController {
	return &batchStatusController{svc: svc}
}

func (h *batchStatusController) Handle(c *gin.Context) {
	id := domain.BatchID(c.Param("id"))
	st, err := h.svc.PollStatus(id)
	if err != nil {
		writeError(c, err)
		return
	}
	tasks, err := h.svc.Tasks(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  st,
		"summary": st.Summary(),
		"tasks":   tasks,
	})
}
