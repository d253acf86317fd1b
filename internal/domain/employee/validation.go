package employee

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func formValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})
		_ = v.RegisterValidation("hrdate", func(fl validator.FieldLevel) bool {
			return validDate(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// validDate accepts YYYY-MM-DD or RFC3339.
func validDate(value string) bool {
	value = strings.TrimSpace(value)
	if _, err := time.Parse("2006-01-02", value); err == nil {
		return true
	}
	_, err := time.Parse(time.RFC3339, value)
	return err == nil
}

// ValidateForm normalizes the form and checks it, returning the normalized
// copy. Failures are reported as *ValidationError.
func ValidateForm(form FormData) (FormData, error) {
	normalized := form.Normalize()
	if err := formValidator().Struct(normalized); err != nil {
		return normalized, toValidationError(err)
	}
	return normalized, nil
}

func ValidateFilter(filter FilterOptions) (FilterOptions, error) {
	normalized := filter.Normalize()
	if err := formValidator().Struct(normalized); err != nil {
		verr := toValidationError(err)
		if v, ok := verr.(*ValidationError); ok {
			v.Err = ErrInvalidFilter
		}
		return normalized, verr
	}
	return normalized, nil
}

func toValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	issues := make([]FieldIssue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, FieldIssue{Field: issueField(fe), Reason: issueReason(fe)})
	}
	return &ValidationError{Issues: issues}
}

// issueField strips the struct name from the namespace so nested list
// entries read as phoneNumbers[1].
func issueField(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func issueReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		if fe.Kind() == reflect.Slice {
			return "must have at most " + fe.Param() + " entries"
		}
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "hrdate":
		return "must be a valid date in YYYY-MM-DD format"
	case "excludesall":
		return "must not contain a comma"
	}
	return "is invalid"
}
