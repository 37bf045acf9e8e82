package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateConfig checks struct-level rules plus the cross-field requirements
// of the configured environment. All problems are reported at once.
func ValidateConfig(cfg *Config) error {
	var problems []ValidationError

	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			problems = append(problems, ValidationError{
				Field:   fe.Field(),
				Message: describe(fe),
			})
		}
	}

	if cfg.Environment == Production && cfg.DBDriver == DriverPostgres && cfg.DBPassword == "" {
		problems = append(problems, ValidationError{
			Field:   "DBPassword",
			Message: "db_password secret is required in production",
		})
	}

	if cfg.RedisURL != "" && cfg.RateLimit > 0 && cfg.RateLimitWindow <= 0 {
		problems = append(problems, ValidationError{
			Field:   "RateLimitWindow",
			Message: "must be positive when rate limiting is enabled",
		})
	}

	if len(problems) == 0 {
		return nil
	}

	lines := make([]string, len(problems))
	for i, p := range problems {
		lines[i] = p.Error()
	}
	return fmt.Errorf("configuration validation failed:\n%s", strings.Join(lines, "\n"))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fe.Value())
	case "numeric":
		return fmt.Sprintf("must be numeric, got %q", fe.Value())
	case "url":
		return fmt.Sprintf("must be a URL, got %q", fe.Value())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
