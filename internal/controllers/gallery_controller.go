package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/imagegenie/internal/services"

	"github.com/gin-gonic/gin"
)

type galleryController struct{ svc services.GalleryService }

func NewGalleryController(svc services.GalleryService) *galleryController {
	return &galleryController{svc: svc}
}

func (h *galleryController) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": items})
}

func (h *galleryController) Get(c *gin.Context) {
	item, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
