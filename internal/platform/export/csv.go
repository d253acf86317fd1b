package export

import (
	"encoding/csv"
	"io"

	"hrrecords/internal/domain/employee"
)

func WriteCSV(w io.Writer, employees []employee.Employee) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(headers()); err != nil {
		return err
	}
	for _, e := range employees {
		if err := writer.Write(row(e)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
