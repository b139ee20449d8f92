package middleware

import (
	"fmt"

	"github.com/attachtrack/attachtrack/internal/pkg/validation"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the custom binding tags used by request types
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
	}
	return v.RegisterValidation("kephone", validateKePhone)
}

// validateKePhone accepts Kenyan mobile numbers in any of the formats
// FormatKePhone understands
func validateKePhone(fl validator.FieldLevel) bool {
	return validation.IsKePhoneNo(fl.Field().String())
}
