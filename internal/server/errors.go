package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/incentra/internal/audit/domain"
	dealdomain "github.com/smallbiznis/incentra/internal/deal/domain"
	payoutdomain "github.com/smallbiznis/incentra/internal/payout/domain"
	performancedomain "github.com/smallbiznis/incentra/internal/performance/domain"
	policydomain "github.com/smallbiznis/incentra/internal/policy/domain"
	ruledomain "github.com/smallbiznis/incentra/internal/rule/domain"
	targetdomain "github.com/smallbiznis/incentra/internal/target/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInternal       = errors.New("internal_error")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   "request",
					Code:    err.Error(),
					Message: err.Error(),
				},
			},
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case errors.Is(err, policydomain.ErrInvalidOrganization),
		errors.Is(err, policydomain.ErrInvalidID),
		errors.Is(err, policydomain.ErrInvalidTitle),
		errors.Is(err, policydomain.ErrInvalidCommissionRate),
		errors.Is(err, policydomain.ErrInvalidRange),
		errors.Is(err, policydomain.ErrInvalidBonus),
		errors.Is(err, policydomain.ErrInvalidAmount):
		return true
	case errors.Is(err, dealdomain.ErrInvalidOrganization),
		errors.Is(err, dealdomain.ErrInvalidID),
		errors.Is(err, dealdomain.ErrInvalidTitle),
		errors.Is(err, dealdomain.ErrInvalidOwner),
		errors.Is(err, dealdomain.ErrInvalidAmount),
		errors.Is(err, dealdomain.ErrInvalidDiscount),
		errors.Is(err, dealdomain.ErrInvalidRiskLevel),
		errors.Is(err, dealdomain.ErrEmptyReason):
		return true
	case errors.Is(err, payoutdomain.ErrInvalidOrganization),
		errors.Is(err, payoutdomain.ErrEmptyBatch):
		return true
	case errors.Is(err, performancedomain.ErrInvalidOrganization),
		errors.Is(err, performancedomain.ErrInvalidOwner),
		errors.Is(err, performancedomain.ErrInvalidPeriod):
		return true
	case errors.Is(err, targetdomain.ErrInvalidOrganization),
		errors.Is(err, targetdomain.ErrInvalidOwner),
		errors.Is(err, targetdomain.ErrInvalidAmount):
		return true
	case errors.Is(err, ruledomain.ErrInvalidOrganization),
		errors.Is(err, ruledomain.ErrInvalidID),
		errors.Is(err, ruledomain.ErrInvalidName),
		errors.Is(err, ruledomain.ErrInvalidMetric),
		errors.Is(err, ruledomain.ErrInvalidOperator),
		errors.Is(err, ruledomain.ErrInvalidAction):
		return true
	case errors.Is(err, auditdomain.ErrInvalidOrganization),
		errors.Is(err, auditdomain.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidTimeRange),
		errors.Is(err, auditdomain.ErrInvalidAction):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	return errors.Is(err, dealdomain.ErrInvalidTransition) ||
		errors.Is(err, payoutdomain.ErrRunInProgress)
}

func isNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) ||
		errors.Is(err, policydomain.ErrNotFound) ||
		errors.Is(err, dealdomain.ErrNotFound) ||
		errors.Is(err, targetdomain.ErrNotFound) ||
		errors.Is(err, ruledomain.ErrNotFound)
}

// classifyErrorForLog tags request log lines with a coarse error type.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	switch {
	case asValidationErrors(err) != nil, isValidationError(err):
		return "validation_error", err.Error()
	case isConflictError(err):
		return "conflict", err.Error()
	case isNotFoundError(err):
		return "not_found", err.Error()
	default:
		return "internal_error", err.Error()
	}
}
