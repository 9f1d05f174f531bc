package httpserver

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Validator plugs go-playground/validator into echo's c.Validate.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (cv *Validator) Validate(i any) error {
	return cv.v.Struct(i)
}

// bindAndValidate decodes the request into req and runs its validate tags.
// On failure it returns the reason to show the client.
func bindAndValidate(c echo.Context, req any) (string, error) {
	if err := c.Bind(req); err != nil {
		return "invalid body", err
	}
	if err := c.Validate(req); err != nil {
		return "invalid body: " + err.Error(), err
	}
	return "", nil
}
