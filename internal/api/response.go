package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/trailquest/internal/engine"
	"github.com/abhisek/trailquest/internal/progression"
	"github.com/abhisek/trailquest/internal/store"
)

type APIError struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
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
			Message:   msg,
			Code:      code,
			Retryable: status == http.StatusServiceUnavailable,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// classify maps a domain error to an HTTP status and error code.
func classify(err error) (int, string) {
	var (
		locked     *progression.ErrPhaseLocked
		unknown    *progression.ErrUnknownPhase
		ordering   *progression.ErrInvalidOrdering
		rating     *progression.ErrInvalidRating
		transition *progression.ErrInvalidTransition
		incomplete *engine.ErrModuleIncomplete
	)
	switch {
	case errors.As(err, &locked):
		return http.StatusConflict, "phase_locked"
	case errors.As(err, &incomplete):
		return http.StatusConflict, "module_incomplete"
	case errors.As(err, &transition):
		return http.StatusConflict, "invalid_transition"
	case errors.As(err, &rating):
		return http.StatusBadRequest, "invalid_rating"
	case errors.As(err, &unknown):
		return http.StatusNotFound, "unknown_phase"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &ordering):
		return http.StatusInternalServerError, "invalid_ordering"
	case store.IsTransient(err):
		return http.StatusServiceUnavailable, "unavailable"
	}
	return http.StatusInternalServerError, "internal"
}
