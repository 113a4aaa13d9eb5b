package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/imagegenie/internal/services"

	"github.com/gin-gonic/gin"
)

type userController struct{ svc services.UserService }

func NewUserController(svc services.UserService) *userController {
	return &userController{svc: svc}
}

type userReq struct {
	Username string `json:"username"`
}

func (h *userController) Handle(c *gin.Context) {
	var req userReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	u, err := h.svc.SetUsername(c.Request.Context(), req.Username)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
