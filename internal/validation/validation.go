// Package validation wires the format contracts for enrollment payloads into
// a shared validator instance.
package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	nimPattern          = regexp.MustCompile(`^\d{8,12}$`)
	courseCodePattern   = regexp.MustCompile(`^[A-Z]{2,4}[0-9]{3}$`)
	academicYearPattern = regexp.MustCompile(`^\d{4}/\d{4}$`)
)

// New returns a validator with the domain format tags registered:
// nim, course_code and academic_year.
func New() *validator.Validate {
	v := validator.New()
	// registration only fails for empty tag names
	_ = v.RegisterValidation("nim", matches(nimPattern))
	_ = v.RegisterValidation("course_code", matches(courseCodePattern))
	_ = v.RegisterValidation("academic_year", matches(academicYearPattern))
	return v
}

func matches(pattern *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return pattern.MatchString(fl.Field().String())
	}
}
