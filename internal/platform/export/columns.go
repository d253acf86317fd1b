package export

import (
	"strconv"
	"time"

	"hrrecords/internal/domain/employee"
)

type column struct {
	header string
	value  func(employee.Employee) string
}

func optional(get func(employee.Employee) *string) func(employee.Employee) string {
	return func(e employee.Employee) string { return employee.StringValue(get(e)) }
}

var columns = []column{
	{"ID", func(e employee.Employee) string { return strconv.FormatInt(e.ID, 10) }},
	{"Name", func(e employee.Employee) string { return e.Name }},
	{"ESSID", optional(func(e employee.Employee) *string { return e.ESSID })},
	{"Employment Status", func(e employee.Employee) string { return e.EmploymentStatus.String() }},
	{"Father Name", optional(func(e employee.Employee) *string { return e.FatherName })},
	{"Spouse Name", optional(func(e employee.Employee) *string { return e.SpouseName })},
	{"Date Of Birth", optional(func(e employee.Employee) *string { return e.DateOfBirth })},
	{"Phone Numbers", optional(func(e employee.Employee) *string { return e.PhoneNumbers })},
	{"Current Place", optional(func(e employee.Employee) *string { return e.CurrentPlace })},
	{"Current Post", optional(func(e employee.Employee) *string { return e.CurrentPost })},
	{"Current Address", optional(func(e employee.Employee) *string { return e.CurrentAddress })},
	{"Permanent Same As Current", func(e employee.Employee) string { return strconv.FormatBool(e.HasSamePermanentAddress()) }},
	{"Permanent Place", optional(func(e employee.Employee) *string { return e.PermanentPlace })},
	{"Permanent Post", optional(func(e employee.Employee) *string { return e.PermanentPost })},
	{"Permanent Address", optional(func(e employee.Employee) *string { return e.PermanentAddress })},
	{"Emergency Contact Name", optional(func(e employee.Employee) *string { return e.EmergencyContactName })},
	{"Emergency Contact Relation", optional(func(e employee.Employee) *string { return e.EmergencyContactRelation })},
	{"Emergency Contact Phone", optional(func(e employee.Employee) *string { return e.EmergencyContactPhone })},
	{"Police Station", optional(func(e employee.Employee) *string { return e.PoliceStation })},
	{"Experience", optional(func(e employee.Employee) *string { return e.Experience })},
	{"Job Post", optional(func(e employee.Employee) *string { return e.JobPost })},
	{"Joining Date", optional(func(e employee.Employee) *string { return e.JoiningDate })},
	{"Exit Date", optional(func(e employee.Employee) *string { return e.ExitDate })},
	{"UAN", optional(func(e employee.Employee) *string { return e.UAN })},
	{"ESIIP", optional(func(e employee.Employee) *string { return e.ESIIP })},
	{"Created At", func(e employee.Employee) string { return e.CreatedAt.UTC().Format(time.RFC3339) }},
	{"Updated At", func(e employee.Employee) string { return e.UpdatedAt.UTC().Format(time.RFC3339) }},
}

func headers() []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.header
	}
	return out
}

func row(e employee.Employee) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.value(e)
	}
	return out
}
