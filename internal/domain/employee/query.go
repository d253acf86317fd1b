package employee

import (
	"fmt"
	"strings"
)

// buildFilter renders the WHERE clause for a normalized filter. Every
// user-supplied value is passed as a positional argument starting at $1.
func buildFilter(filter FilterOptions) (string, []any) {
	filter = filter.Normalize()
	clauses := []string{"1=1"}
	args := []any{}
	next := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Query != "" {
		p := next(likePattern(filter.Query))
		clauses = append(clauses, fmt.Sprintf("(name ILIKE %s ESCAPE '\\' OR COALESCE(essid, '') ILIKE %s ESCAPE '\\')", p, p))
	}
	if filter.Post != "" {
		p := next(likePattern(filter.Post))
		clauses = append(clauses, fmt.Sprintf("(COALESCE(current_post, '') ILIKE %s ESCAPE '\\' OR COALESCE(permanent_post, '') ILIKE %s ESCAPE '\\')", p, p))
	}
	if filter.JobPost != "" {
		clauses = append(clauses, fmt.Sprintf("COALESCE(job_post, '') ILIKE %s ESCAPE '\\'", next(likePattern(filter.JobPost))))
	}
	if filter.EmploymentStatus != "" {
		clauses = append(clauses, "employment_status = "+next(filter.EmploymentStatus))
	}
	if filter.JoiningDate != "" {
		clauses = append(clauses, "joining_date = "+next(filter.JoiningDate))
	}
	if filter.ExitDate != "" {
		clauses = append(clauses, "exit_date = "+next(filter.ExitDate))
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(value string) string {
	return "%" + likeEscaper.Replace(value) + "%"
}
