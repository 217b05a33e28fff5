package routertools

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/germanamz/openrouter-mcp/pkg/config"
)

// ValidationError reports a malformed tool parameter. It is raised before any
// upstream call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid arguments: " + e.Reason
	}

	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConfigurationError reports a call that omitted the model while no default
// is configured for the tool's capability.
type ConfigurationError struct {
	Kind   config.Kind
	EnvVar string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("no %s model specified: pass the 'model' parameter or set %s", e.Kind, e.EnvVar)
}

// IOError reports a failure to write a generated file.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("write %s: %v", e.Path, e.Err) }

func (e *IOError) Unwrap() error { return e.Err }

// fromValidator converts the first validator failure into a ValidationError.
func fromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Reason: err.Error()}
	}

	fe := verrs[0]

	// Namespace is "<struct>.<json path>"; drop the struct name.
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	return &ValidationError{Field: field, Reason: reason(fe)}
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "url":
		return fmt.Sprintf("must be a URL, got %q", fe.Value())
	case "abspath":
		return fmt.Sprintf("must be an absolute path, got %q", fe.Value())
	case "notblank":
		return "must not be blank"
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
