package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"StockDash/internal/account"
	"StockDash/internal/auth"
	"StockDash/internal/collector"
	"StockDash/internal/forecast"
)

// ServiceResponse is the envelope of every JSON reply.
type ServiceResponse[T any] struct {
	Data   *T                `json:"data"`
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func respondOK[T any](c *gin.Context, data T) {
	c.JSON(http.StatusOK, ServiceResponse[T]{Data: &data})
}

func respondError(c *gin.Context, err error) {
	status, fields := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, ServiceResponse[any]{Error: msg, Fields: fields})
}

// classify maps an error to an HTTP status and, for validation failures, a
// field to message map.
func classify(err error) (int, map[string]string) {
	var authVE *auth.ValidationError
	var acctVE *account.ValidationError
	switch {
	case errors.As(err, &authVE):
		return http.StatusBadRequest, map[string]string{authVE.Field: authVE.Err.Error()}
	case errors.As(err, &acctVE):
		return http.StatusBadRequest, map[string]string{acctVE.Field: acctVE.Err.Error()}
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, nil
	case errors.Is(err, forecast.ErrInsufficientData), errors.Is(err, forecast.ErrInvalidHorizon):
		return http.StatusUnprocessableEntity, nil
	case errors.Is(err, collector.ErrDataUnavailable):
		return http.StatusServiceUnavailable, nil
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, fieldOf(err)
	case errors.Is(err, errNotFound):
		return http.StatusNotFound, nil
	default:
		return http.StatusInternalServerError, nil
	}
}

var (
	errBadRequest = errors.New("bad request")
	errNotFound   = errors.New("not found")
)

// fieldError is a request parameter problem outside the service packages.
type fieldError struct {
	Field string
	Msg   string
}

func (e *fieldError) Error() string { return e.Field + ": " + e.Msg }

func (e *fieldError) Unwrap() error { return errBadRequest }

func badParam(field, msg string) error { return &fieldError{Field: field, Msg: msg} }

func fieldOf(err error) map[string]string {
	var fe *fieldError
	if errors.As(err, &fe) {
		return map[string]string{fe.Field: fe.Msg}
	}
	return nil
}
