package shared

import (
	"net/http"
	"sort"

	"hrrecords/internal/domain/employee"
	"hrrecords/internal/transport/http/api"
)

// FailValidation writes a 400 listing every failing field, sorted by field
// name so responses are stable.
func FailValidation(w http.ResponseWriter, requestID, code string, issues []employee.FieldIssue) {
	out := make([]employee.FieldIssue, len(issues))
	copy(out, issues)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Field == out[j].Field {
			return out[i].Reason < out[j].Reason
		}
		return out[i].Field < out[j].Field
	})
	message := "payload validation failed"
	if code == "invalid_filter" {
		message = "invalid filter"
	}
	api.FailWithDetails(w, http.StatusBadRequest, code, message, map[string]any{"fields": out}, requestID)
}
