package controllers

import (
	"errors"
	"net/http"

	"github.com/osvaldoandrade/imagegenie/pkg/domain"

	"github.com/gin-gonic/gin"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyPrompt),
		errors.Is(err, domain.ErrNoModels),
		errors.Is(err, domain.ErrInvalidReplicates),
		errors.Is(err, domain.ErrInvalidRanking),
		errors.Is(err, domain.ErrEmptyUsername),
		errors.Is(err, domain.ErrMissingToken):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrBatchNotFound), errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrBatchInProgress):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
