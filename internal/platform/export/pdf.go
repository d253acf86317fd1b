package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"hrrecords/internal/domain/employee"
)

// WriteProfilePDF renders a one-page profile sheet for a single employee.
func WriteProfilePDF(w io.Writer, e employee.Employee) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr("Employee Profile"))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, tr(e.Name))
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Record #%d  |  Status: %s", e.ID, strings.ToUpper(e.EmploymentStatus.String()))))
	pdf.Ln(10)

	for _, c := range columns {
		switch c.header {
		case "ID", "Name", "Employment Status":
			continue
		}
		value := c.value(e)
		if value == "" {
			value = "-"
		}
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(60, 6, tr(c.header), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 6, tr(value), "", "L", false)
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}
