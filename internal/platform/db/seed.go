package db

import (
	"context"

	"hrrecords/internal/platform/querier"
)

type seedEmployee struct {
	name, currentPlace, currentPost, jobPost, status, joiningDate, essid, phones string
}

var demoEmployees = []seedEmployee{
	{"Asha Rao", "Hyderabad", "Head Office", "Accountant", "current", "2021-06-01", "ES-1001", "9876543210"},
	{"Imran Shaikh", "Pune", "Warehouse", "Supervisor", "current", "2019-11-15", "ES-1002", "9123456780, 020-2554433"},
	{"Meera Iyer", "Chennai", "Branch Office", "Clerk", "applied", "", "", ""},
}

// Seed inserts a few demo employees into an empty table. It is a no-op once
// any record exists.
func Seed(ctx context.Context, q querier.Querier) (int, error) {
	var existing int
	if err := q.QueryRow(ctx, "SELECT COUNT(1) FROM employees").Scan(&existing); err != nil {
		return 0, err
	}
	if existing > 0 {
		return 0, nil
	}
	for _, e := range demoEmployees {
		if _, err := q.Exec(ctx, `
      INSERT INTO employees (name, current_place, current_post, job_post, employment_status, joining_date, essid, phone_numbers)
      VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''))
    `, e.name, e.currentPlace, e.currentPost, e.jobPost, e.status, e.joiningDate, e.essid, e.phones); err != nil {
			return 0, err
		}
	}
	return len(demoEmployees), nil
}
