package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/imagegenie/internal/services"
	"github.com/osvaldoandrade/imagegenie/pkg/domain"

	"github.com/gin-gonic/gin"
)

type cancelBatchController struct{ svc services.GenerationService }

func NewCancelBatchController(svc services.GenerationService) *cancelBatchController {
	return &cancelBatchController{svc: svc}
}

func (h *cancelBatchController) Handle(c *gin.Context) {
	id := domain.BatchID(c.Param("id"))
	if err := h.svc.CancelBatch(id); err != nil {
		writeError(c, err)
		return
	}
	st, err := h.svc.PollStatus(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
