package handlers

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validationErrorMessage returns a user-friendly validation error message.
func validationErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, ve := range verrs {
			field := strings.ToLower(ve.Field())
			switch ve.Tag() {
			case "required":
				return fmt.Sprintf("%s is required", field)
			case "min":
				return fmt.Sprintf("%s must be at least %s", field, ve.Param())
			case "max":
				return fmt.Sprintf("%s must be at most %s", field, ve.Param())
			case "gt":
				return fmt.Sprintf("%s must be greater than %s", field, ve.Param())
			case "oneof":
				return fmt.Sprintf("%s must be one of: %s", field, ve.Param())
			case "hexcolor":
				return fmt.Sprintf("%s must be a hex colour such as #1a2b3c", field)
			case "url":
				return fmt.Sprintf("%s must be a valid URL", field)
			}
		}
	}
	if err != nil {
		return "Invalid request: " + err.Error()
	}
	return "Invalid request"
}

var paletteNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// ValidatePaletteName checks a name for a new saved palette
func ValidatePaletteName(name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if !paletteNameRegex.MatchString(name) {
		return errors.New("palette name must be 1-64 characters of letters, digits, '-' or '_'")
	}
	return nil
}
