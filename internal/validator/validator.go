package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/quiz-access-service/internal/accessrules"
)

// Validator wraps go-playground/validator with the quiz specific tags
type Validator struct {
	validate *validator.Validate
}

// ValidationError represents a single field validation failure
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// New creates a validator with every custom rule registered
func New() *Validator {
	validate := validator.New()

	// Report json names instead of Go field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v := &Validator{validate: validate}
	v.registerRules()
	return v
}

// Validate validates a struct. The returned error is ValidationErrors when fields fail.
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ToValidationErrors converts validator errors into ValidationErrors
func ToValidationErrors(err error) ValidationErrors {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return ValidationErrors{{Field: "", Message: err.Error(), Rule: "invalid"}}
	}

	out := make(ValidationErrors, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: errorMessage(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return out
}

func (v *Validator) registerRules() {
	v.validate.RegisterValidation("overdue_handling", func(fl validator.FieldLevel) bool {
		switch accessrules.OverdueHandling(fl.Field().String()) {
		case accessrules.OverdueAutoSubmit, accessrules.OverdueGracePeriod, accessrules.OverdueAutoAbandon:
			return true
		}
		return false
	})

	v.validate.RegisterValidation("browser_security", func(fl validator.FieldLevel) bool {
		switch accessrules.BrowserSecurity(fl.Field().String()) {
		case accessrules.BrowserSecurityNone, accessrules.BrowserSecuritySecureWindow:
			return true
		}
		return false
	})

	// Every entry must be a full address, a CIDR block, a dotted prefix or a last-octet range
	v.validate.RegisterValidation("subnet_list", func(fl validator.FieldLevel) bool {
		return accessrules.ValidSubnetList(fl.Field().String())
	})
}

func errorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gtfield":
		return fmt.Sprintf("must be after %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "overdue_handling":
		return "must be autosubmit, graceperiod or autoabandon"
	case "browser_security":
		return "must be empty or securewindow"
	case "subnet_list":
		return "contains an invalid address or range"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
