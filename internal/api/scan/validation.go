package scan

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var zoneIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// RegisterValidations adds the scan domain tags to v.
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation("zone_id", func(fl validator.FieldLevel) bool {
		return zoneIDPattern.MatchString(fl.Field().String())
	})
}
