package validators

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Validator adapts go-playground/validator to echo.Validator
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate implements echo.Validator; failures become 400 responses
func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// Struct validates without translating the error, for use outside handlers
func (v *Validator) Struct(i interface{}) error {
	return v.validate.Struct(i)
}
