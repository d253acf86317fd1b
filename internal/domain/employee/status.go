package employee

import (
	"fmt"
	"strings"
)

// EmploymentStatus classifies a person's relationship to the organization.
type EmploymentStatus string

const (
	StatusApplied EmploymentStatus = "applied"
	StatusCurrent EmploymentStatus = "current"
	StatusPast    EmploymentStatus = "past"
)

// Statuses lists every status in display order.
var Statuses = []EmploymentStatus{StatusApplied, StatusCurrent, StatusPast}

func ParseEmploymentStatus(value string) (EmploymentStatus, error) {
	normalized := EmploymentStatus(strings.ToLower(strings.TrimSpace(value)))
	if normalized.Valid() {
		return normalized, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, value)
}

func (s EmploymentStatus) Valid() bool {
	switch s {
	case StatusApplied, StatusCurrent, StatusPast:
		return true
	}
	return false
}

func (s EmploymentStatus) String() string {
	return string(s)
}

func (s EmploymentStatus) MarshalText() ([]byte, error) {
	return []byte(s), nil
}

// UnmarshalText leaves the value empty for blank input so that a missing
// status is reported by validation rather than by the decoder.
func (s *EmploymentStatus) UnmarshalText(text []byte) error {
	if strings.TrimSpace(string(text)) == "" {
		*s = ""
		return nil
	}
	parsed, err := ParseEmploymentStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
