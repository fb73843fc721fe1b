package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lounge/internal/models"

	"github.com/xuri/excelize/v2"
)

// Exporter writes archived booking requests to Excel files for the
// lounge staff.
type Exporter struct {
	path string
}

func NewExporter(path string) *Exporter {
	return &Exporter{path: path}
}

// ExportRequests создает Excel файл с заявками за период
func (e *Exporter) ExportRequests(requests []*models.BookingRequest, start, end time.Time) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Requests"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Period: %s - %s",
		start.Format("2006-01-02"), end.Format("2006-01-02")))

	headers := []string{"Submitted", "Name", "Phone", "Email", "Service", "Preferred Date", "Preferred Time", "Notes"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, h)
	}

	for row, req := range requests {
		values := []any{
			req.SubmittedAt.Format("2006-01-02 15:04"),
			req.Name,
			req.Phone,
			req.Email,
			req.Service,
			req.Date,
			req.Time,
			req.Notes,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+3)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 18)
	_ = f.SetColWidth(sheetName, "B", "E", 22)
	_ = f.SetColWidth(sheetName, "F", "G", 14)
	_ = f.SetColWidth(sheetName, "H", "H", 40)

	filename := filepath.Join(e.path, fmt.Sprintf("requests_%s.xlsx", time.Now().Format("20060102_150405")))
	if err := f.SaveAs(filename); err != nil {
		return "", fmt.Errorf("error saving export file: %v", err)
	}

	return filename, nil
}
