package handler

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var codePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// customercode restricts codes to letters, digits, underscore and hyphen
// so malformed input is rejected at the binding layer already.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("customercode", func(fl validator.FieldLevel) bool {
			return codePattern.MatchString(fl.Field().String())
		})
	}
}
