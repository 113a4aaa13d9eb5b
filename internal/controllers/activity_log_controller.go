package controllers

import (
	"net/http"
	"strconv"

	"github.com/osvaldoandrade/imagegenie/internal/activity"

	"github.com/gin-gonic/gin"
)

type activityLogController struct{ log *activity.Log }

func NewActivityLogController(log *activity.Log) *activityLogController {
	return &activityLogController{log: log}
}

func (h *activityLogController) Handle(c *gin.Context) {
	tail := 0
	if v := c.Query("tail"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'tail'"})
			return
		}
		tail = n
	}
	c.JSON(http.StatusOK, gin.H{"lines": h.log.Lines(tail)})
}
