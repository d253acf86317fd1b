package employee

import (
	"errors"
	"strings"
)

var (
	ErrNotFound        = errors.New("employee not found")
	ErrDuplicateESSID  = errors.New("employee with the same essid already exists")
	ErrInvalidStatus   = errors.New("invalid employment status")
	ErrNoPhoto         = errors.New("employee has no photo")
	ErrInvalidFilter   = errors.New("invalid filter")
	ErrFieldUnreadable = errors.New("encrypted field cannot be opened")
)

type FieldIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError reports every field that failed validation.
type ValidationError struct {
	Issues []FieldIssue
	Err    error
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Field+": "+issue.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
