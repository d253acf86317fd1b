package employee

import (
	"strings"
	"time"
)

// Employee is the stored HR record. ID and the timestamps are assigned by
// the store and are never taken from client input.
type Employee struct {
	ID                       int64            `json:"id"`
	Name                     string           `json:"name"`
	FatherName               *string          `json:"fatherName,omitempty"`
	SpouseName               *string          `json:"spouseName,omitempty"`
	CurrentPlace             *string          `json:"currentPlace,omitempty"`
	CurrentPost              *string          `json:"currentPost,omitempty"`
	CurrentAddress           *string          `json:"currentAddress,omitempty"`
	PhoneNumbers             *string          `json:"phoneNumbers,omitempty"`
	PermanentSameAsCurrent   int              `json:"permanentSameAsCurrent"`
	PermanentPlace           *string          `json:"permanentPlace,omitempty"`
	PermanentPost            *string          `json:"permanentPost,omitempty"`
	PermanentAddress         *string          `json:"permanentAddress,omitempty"`
	EmergencyContactName     *string          `json:"emergencyContactName,omitempty"`
	EmergencyContactRelation *string          `json:"emergencyContactRelation,omitempty"`
	EmergencyContactPhone    *string          `json:"emergencyContactPhone,omitempty"`
	PoliceStation            *string          `json:"policeStation,omitempty"`
	Experience               *string          `json:"experience,omitempty"`
	JobPost                  *string          `json:"jobPost,omitempty"`
	EmploymentStatus         EmploymentStatus `json:"employmentStatus"`
	JoiningDate              *string          `json:"joiningDate,omitempty"`
	ExitDate                 *string          `json:"exitDate,omitempty"`
	ESSID                    *string          `json:"essid,omitempty"`
	PhotoPath                *string          `json:"photoPath,omitempty"`
	DateOfBirth              *string          `json:"dateOfBirth,omitempty"`
	UAN                      *string          `json:"uan,omitempty"`
	ESIIP                    *string          `json:"esiip,omitempty"`
	CreatedAt                time.Time        `json:"createdAt"`
	UpdatedAt                time.Time        `json:"updatedAt"`
}

// FormData is the create/edit input. It has no id or timestamps and carries
// phone numbers as a list, one entry per number.
type FormData struct {
	Name                     string           `json:"name" validate:"required,max=200"`
	FatherName               *string          `json:"fatherName,omitempty" validate:"omitempty,max=200"`
	SpouseName               *string          `json:"spouseName,omitempty" validate:"omitempty,max=200"`
	CurrentPlace             *string          `json:"currentPlace,omitempty" validate:"omitempty,max=200"`
	CurrentPost              *string          `json:"currentPost,omitempty" validate:"omitempty,max=200"`
	CurrentAddress           *string          `json:"currentAddress,omitempty" validate:"omitempty,max=1000"`
	PhoneNumbers             []string         `json:"phoneNumbers" validate:"max=10,dive,max=32,excludesall=0x2C"`
	PermanentSameAsCurrent   int              `json:"permanentSameAsCurrent"`
	PermanentPlace           *string          `json:"permanentPlace,omitempty" validate:"omitempty,max=200"`
	PermanentPost            *string          `json:"permanentPost,omitempty" validate:"omitempty,max=200"`
	PermanentAddress         *string          `json:"permanentAddress,omitempty" validate:"omitempty,max=1000"`
	EmergencyContactName     *string          `json:"emergencyContactName,omitempty" validate:"omitempty,max=200"`
	EmergencyContactRelation *string          `json:"emergencyContactRelation,omitempty" validate:"omitempty,max=100"`
	EmergencyContactPhone    *string          `json:"emergencyContactPhone,omitempty" validate:"omitempty,max=32"`
	PoliceStation            *string          `json:"policeStation,omitempty" validate:"omitempty,max=200"`
	Experience               *string          `json:"experience,omitempty" validate:"omitempty,max=1000"`
	JobPost                  *string          `json:"jobPost,omitempty" validate:"omitempty,max=200"`
	EmploymentStatus         EmploymentStatus `json:"employmentStatus" validate:"required,oneof=applied current past"`
	JoiningDate              *string          `json:"joiningDate,omitempty" validate:"omitempty,hrdate"`
	ExitDate                 *string          `json:"exitDate,omitempty" validate:"omitempty,hrdate"`
	ESSID                    *string          `json:"essid,omitempty" validate:"omitempty,max=64"`
	PhotoPath                *string          `json:"photoPath,omitempty" validate:"omitempty,max=500"`
	DateOfBirth              *string          `json:"dateOfBirth,omitempty" validate:"omitempty,hrdate"`
	UAN                      *string          `json:"uan,omitempty" validate:"omitempty,max=64"`
	ESIIP                    *string          `json:"esiip,omitempty" validate:"omitempty,max=64"`
}

// ListResponse is one page of employees. TotalCount is the number of records
// matching the filter and may exceed len(Employees).
type ListResponse struct {
	Employees  []Employee `json:"employees"`
	TotalCount int64      `json:"totalCount"`
}

// FilterOptions narrows a listing. Absent or blank fields do not constrain
// the result, so the zero value matches every record.
type FilterOptions struct {
	Query            string `json:"query,omitempty" validate:"max=200"`
	Post             string `json:"post,omitempty" validate:"max=200"`
	JobPost          string `json:"jobPost,omitempty" validate:"max=200"`
	ExitDate         string `json:"exitDate,omitempty" validate:"max=32"`
	JoiningDate      string `json:"joiningDate,omitempty" validate:"max=32"`
	EmploymentStatus string `json:"employmentStatus,omitempty" validate:"omitempty,oneof=applied current past"`
}

func (f FilterOptions) Normalize() FilterOptions {
	return FilterOptions{
		Query:            strings.TrimSpace(f.Query),
		Post:             strings.TrimSpace(f.Post),
		JobPost:          strings.TrimSpace(f.JobPost),
		ExitDate:         strings.TrimSpace(f.ExitDate),
		JoiningDate:      strings.TrimSpace(f.JoiningDate),
		EmploymentStatus: strings.ToLower(strings.TrimSpace(f.EmploymentStatus)),
	}
}

func (f FilterOptions) IsEmpty() bool {
	return f.Normalize() == FilterOptions{}
}

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Page selects a window of rows. Skip, when positive, is an explicit row
// offset and takes precedence over Page.
type Page struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Skip  int `json:"offset,omitempty"`
}

// Normalize clamps the page to >= 1 and the limit to (0, MaxPageLimit].
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

func (p Page) Offset() int {
	n := p.Normalize()
	if n.Skip > 0 {
		return n.Skip
	}
	return (n.Page - 1) * n.Limit
}

// Stats summarises the stored records.
type Stats struct {
	Total    int64                      `json:"total"`
	ByStatus map[EmploymentStatus]int64 `json:"byStatus"`
}

// HasSamePermanentAddress reports whether the permanent address fields are
// flagged as equal to the current ones. Nothing copies the values across.
func (e Employee) HasSamePermanentAddress() bool {
	return e.PermanentSameAsCurrent != 0
}

// ToFormData returns the editable view of a stored record.
func (e Employee) ToFormData() FormData {
	return FormData{
		Name:                     e.Name,
		FatherName:               e.FatherName,
		SpouseName:               e.SpouseName,
		CurrentPlace:             e.CurrentPlace,
		CurrentPost:              e.CurrentPost,
		CurrentAddress:           e.CurrentAddress,
		PhoneNumbers:             SplitPhoneNumbers(e.PhoneNumbers),
		PermanentSameAsCurrent:   e.PermanentSameAsCurrent,
		PermanentPlace:           e.PermanentPlace,
		PermanentPost:            e.PermanentPost,
		PermanentAddress:         e.PermanentAddress,
		EmergencyContactName:     e.EmergencyContactName,
		EmergencyContactRelation: e.EmergencyContactRelation,
		EmergencyContactPhone:    e.EmergencyContactPhone,
		PoliceStation:            e.PoliceStation,
		Experience:               e.Experience,
		JobPost:                  e.JobPost,
		EmploymentStatus:         e.EmploymentStatus,
		JoiningDate:              e.JoiningDate,
		ExitDate:                 e.ExitDate,
		ESSID:                    e.ESSID,
		PhotoPath:                e.PhotoPath,
		DateOfBirth:              e.DateOfBirth,
		UAN:                      e.UAN,
		ESIIP:                    e.ESIIP,
	}
}

// ToEmployee converts form input into a record ready for the store. The id
// and timestamps stay zero.
func (f FormData) ToEmployee() Employee {
	return Employee{
		Name:                     f.Name,
		FatherName:               f.FatherName,
		SpouseName:               f.SpouseName,
		CurrentPlace:             f.CurrentPlace,
		CurrentPost:              f.CurrentPost,
		CurrentAddress:           f.CurrentAddress,
		PhoneNumbers:             JoinPhoneNumbers(f.PhoneNumbers),
		PermanentSameAsCurrent:   f.PermanentSameAsCurrent,
		PermanentPlace:           f.PermanentPlace,
		PermanentPost:            f.PermanentPost,
		PermanentAddress:         f.PermanentAddress,
		EmergencyContactName:     f.EmergencyContactName,
		EmergencyContactRelation: f.EmergencyContactRelation,
		EmergencyContactPhone:    f.EmergencyContactPhone,
		PoliceStation:            f.PoliceStation,
		Experience:               f.Experience,
		JobPost:                  f.JobPost,
		EmploymentStatus:         f.EmploymentStatus,
		JoiningDate:              f.JoiningDate,
		ExitDate:                 f.ExitDate,
		ESSID:                    f.ESSID,
		PhotoPath:                f.PhotoPath,
		DateOfBirth:              f.DateOfBirth,
		UAN:                      f.UAN,
		ESIIP:                    f.ESIIP,
	}
}

// Normalize trims every string and turns blank optional fields into nil.
func (f FormData) Normalize() FormData {
	out := f
	out.Name = strings.TrimSpace(f.Name)
	for _, field := range []**string{
		&out.FatherName, &out.SpouseName, &out.CurrentPlace, &out.CurrentPost, &out.CurrentAddress,
		&out.PermanentPlace, &out.PermanentPost, &out.PermanentAddress,
		&out.EmergencyContactName, &out.EmergencyContactRelation, &out.EmergencyContactPhone,
		&out.PoliceStation, &out.Experience, &out.JobPost, &out.JoiningDate, &out.ExitDate,
		&out.ESSID, &out.PhotoPath, &out.DateOfBirth, &out.UAN, &out.ESIIP,
	} {
		*field = trimmedOrNil(*field)
	}
	phones := make([]string, 0, len(f.PhoneNumbers))
	for _, phone := range f.PhoneNumbers {
		if trimmed := strings.TrimSpace(phone); trimmed != "" {
			phones = append(phones, trimmed)
		}
	}
	out.PhoneNumbers = phones
	return out
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// StringValue dereferences an optional field, returning "" when absent.
func StringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
