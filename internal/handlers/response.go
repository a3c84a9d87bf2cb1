package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contractsense/contractsense-backend/internal/pkg/errors"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondTaxonomy maps the error taxonomy onto HTTP statuses so every
// handler fails the same way.
func RespondTaxonomy(c *gin.Context, err error) {
	kind := errors.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case errors.KindInvalidInput:
		status = http.StatusBadRequest
	case errors.KindNotFound:
		status = http.StatusNotFound
	case errors.KindConfigMismatch:
		status = http.StatusConflict
	case errors.KindExternalService, errors.KindPartialFailure:
		status = http.StatusBadGateway
	}
	RespondError(c, status, string(kind), err)
}
