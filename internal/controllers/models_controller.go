package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/imagegenie/pkg/domain"

	"github.com/gin-gonic/gin"
)

type modelsController struct{ catalog []domain.Model }

func NewModelsController(catalog []domain.Model) *modelsController {
	return &modelsController{catalog: catalog}
}

func (h *modelsController) Handle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"models": h.catalog})
}
