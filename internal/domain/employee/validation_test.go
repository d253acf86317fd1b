package employee

import (
	"errors"
	"strings"
	"testing"
)

func validForm() FormData {
	return FormData{
		Name:             "  Asha Rao ",
		FatherName:       strPtr("Ravi Rao"),
		SpouseName:       strPtr("   "),
		PhoneNumbers:     []string{"9876543210", " "},
		EmploymentStatus: StatusCurrent,
		JoiningDate:      strPtr("2023-04-01"),
		ESSID:            strPtr(" ES-100 "),
	}
}

func TestValidateFormNormalizes(t *testing.T) {
	got, err := ValidateForm(validForm())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Asha Rao" {
		t.Fatalf("expected trimmed name, got %q", got.Name)
	}
	if got.SpouseName != nil {
		t.Fatal("expected blank spouse name to become nil")
	}
	if got.ESSID == nil || *got.ESSID != "ES-100" {
		t.Fatalf("expected trimmed essid, got %v", got.ESSID)
	}
	if len(got.PhoneNumbers) != 1 {
		t.Fatalf("expected blank phone to be dropped, got %v", got.PhoneNumbers)
	}
}

func TestValidateFormReportsEveryIssue(t *testing.T) {
	form := FormData{
		Name:         " ",
		PhoneNumbers: []string{"123,456"},
		JoiningDate:  strPtr("01/04/2023"),
	}

	_, err := ValidateForm(form)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}

	fields := map[string]string{}
	for _, issue := range verr.Issues {
		fields[issue.Field] = issue.Reason
	}
	for _, want := range []string{"name", "employmentStatus", "joiningDate", "phoneNumbers[0]"} {
		if _, ok := fields[want]; !ok {
			t.Fatalf("expected issue for %s, got %v", want, verr.Issues)
		}
	}
	if !strings.Contains(fields["phoneNumbers[0]"], "comma") {
		t.Fatalf("unexpected phone reason %q", fields["phoneNumbers[0]"])
	}
}

func TestValidateFormAcceptsRFC3339Dates(t *testing.T) {
	form := validForm()
	form.DateOfBirth = strPtr("1990-05-17T00:00:00Z")
	if _, err := ValidateForm(form); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateFilter(t *testing.T) {
	got, err := ValidateFilter(FilterOptions{Query: "  asha ", EmploymentStatus: " Past "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Query != "asha" || got.EmploymentStatus != "past" {
		t.Fatalf("unexpected normalized filter %+v", got)
	}

	_, err = ValidateFilter(FilterOptions{EmploymentStatus: "retired"})
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidateFilterWrapsInvalidFilter(t *testing.T) {
	_, err := ValidateFilter(FilterOptions{EmploymentStatus: "unknown"})
	if !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter, got %v", err)
	}
	_, err = ValidateForm(FormData{})
	if errors.Is(err, ErrInvalidFilter) {
		t.Fatal("form errors must not report as filter errors")
	}
}
