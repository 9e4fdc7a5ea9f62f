package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	playgroundvalidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// ValidationErrors wraps the validator's ValidationErrors
type ValidationErrors []playgroundvalidator.FieldError

// CustomValidator wraps go-playground/validator
type CustomValidator struct {
	validator *playgroundvalidator.Validate
}

// NewValidator creates a new validator instance
func NewValidator() echo.Validator {
	v := playgroundvalidator.New()

	// Register custom validation tags
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Register custom validations
	err := v.RegisterValidation("user_role", validateUserRole)
	if err != nil {
		return nil
	}
	err = v.RegisterValidation("user_status", validateUserStatus)
	if err != nil {
		return nil
	}
	err = v.RegisterValidation("ad_type", validateAdType)
	if err != nil {
		return nil
	}

	return &CustomValidator{validator: v}
}

// Custom validation functions
func validateUserRole(fl playgroundvalidator.FieldLevel) bool {
	role := fl.Field().String()
	return role == "admin" || role == "user" || role == "viewer" || role == "visitor"
}

func validateUserStatus(fl playgroundvalidator.FieldLevel) bool {
	status := fl.Field().String()
	return status == "pending" || status == "active" || status == "disabled"
}

func validateAdType(fl playgroundvalidator.FieldLevel) bool {
	t := fl.Field().String()
	validTypes := map[string]bool{
		"kampány":      true,
		"post":         true,
		"kiemelt post": true,
		"Profession":   true,
	}
	return validTypes[t]
}

// Validate implements echo.Validator interface
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		var validationErrors playgroundvalidator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return ValidationErrors(validationErrors)
		}
		return err
	}
	return nil
}

// Error implements the error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}
	var fields []string
	for _, err := range ve {
		fields = append(fields, err.Field())
	}
	return fmt.Sprintf("validation failed on fields: %s", strings.Join(fields, ", "))
}
