package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/imagegenie/internal/sink"

	"github.com/gin-gonic/gin"
)

type carouselController struct{ sink *sink.Sink }

func NewCarouselController(s *sink.Sink) *carouselController {
	return &carouselController{sink: s}
}

func (h *carouselController) Handle(c *gin.Context) {
	c.JSON(http.StatusOK, carouselBody(h.sink.Snapshot()))
}

type navigateReq struct {
	Delta int  `json:"delta"`
	Index *int `json:"index,omitempty"`
}

// Navigate moves the cursor by delta (-1 or +1) or seeks to index.
func (h *carouselController) Navigate(c *gin.Context) {
	var req navigateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	switch {
	case req.Index != nil:
		if !h.sink.Seek(*req.Index) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "index out of range"})
			return
		}
	case req.Delta == -1 || req.Delta == 1:
		h.sink.Navigate(req.Delta)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "delta must be -1 or 1"})
		return
	}
	c.JSON(http.StatusOK, carouselBody(h.sink.Snapshot()))
}

// CurrentImage serves the file behind the current record.
func (h *carouselController) CurrentImage(c *gin.Context) {
	rec, ok := h.sink.Current()
	if !ok || rec.FilePath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no image"})
		return
	}
	c.File(rec.FilePath)
}

func carouselBody(v sink.View) gin.H {
	body := gin.H{
		"items":  v.Items,
		"cursor": v.Cursor,
		"length": len(v.Items),
	}
	if cur, ok := v.Current(); ok {
		body["current"] = cur
		body["position"] = gin.H{"index": v.Cursor + 1, "of": len(v.Items)}
	}
	return body
}
