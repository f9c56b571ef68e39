package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkessler/plantafel/internal/repository"
	"github.com/mkessler/plantafel/internal/service"
)

// Resp is the uniform JSON envelope. Code mirrors the HTTP status so
// clients reading only the body still see the outcome.
type Resp struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func successResp(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Resp{Code: http.StatusOK, Message: "success", Data: data})
}

func errorResp(c *gin.Context, err error) {
	status := statusFor(err)
	c.JSON(status, Resp{Code: status, Message: err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, Resp{Code: http.StatusBadRequest, Message: err.Error()})
}

// statusFor maps the repository/service sentinels onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, repository.ErrDuplicateDependency),
		errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrCyclicParent):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
