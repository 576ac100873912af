package handlers

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nfrund/kpiboard/internal/domain"
)

// CustomValidator wraps the go-playground/validator library to implement Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new CustomValidator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// LoginRequest is the login form. Any non-empty pair is accepted.
type LoginRequest struct {
	Email    string `form:"email" validate:"required,max=254"`
	Password string `form:"password" validate:"required"`
}

// RefreshRequest is the date range form. Empty fields are reported by the
// refresh itself; only the format is checked here.
type RefreshRequest struct {
	Start string `form:"start" validate:"omitempty,datetime=2006-01-02"`
	End   string `form:"end" validate:"omitempty,datetime=2006-01-02"`
}

// Range parses the request into a domain.DateRange.
func (r RefreshRequest) Range() (domain.DateRange, error) {
	return domain.ParseDateRange(r.Start, r.End)
}

// validationMessage turns validator errors into one user-facing sentence.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "The form could not be read."
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, "The "+field+" is required.")
		case "datetime":
			msgs = append(msgs, "The "+field+" date must look like YYYY-MM-DD.")
		default:
			msgs = append(msgs, "The "+field+" is invalid.")
		}
	}
	return strings.Join(msgs, " ")
}
