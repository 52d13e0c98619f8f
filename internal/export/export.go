package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"deskbook/internal/config"
	"deskbook/internal/models"

	"github.com/xuri/excelize/v2"
)

// Display headers match what the UI shows for each table.
var (
	reservationHeaders = []string{"ID", "Desk", "Date", "Start Time", "End Time", "Reserved By", "Student ID", "Canceled"}
	userHeaders        = []string{"Student ID", "Password", "Name"}
)

// Exporter writes on-demand dumps of the reservation and user tables to the
// configured exports directory.
type Exporter struct {
	path string
}

func NewExporter(cfg config.ExportConfig) *Exporter {
	return &Exporter{path: cfg.Path}
}

// ReservationsCSV dumps reservations to a named CSV file and returns its path.
func (e *Exporter) ReservationsCSV(reservations []*models.Reservation, fileName string) (string, error) {
	rows := make([][]string, 0, len(reservations))
	for _, r := range reservations {
		rows = append(rows, reservationRow(r))
	}
	return e.writeCSV(fileName, reservationHeaders, rows)
}

// UsersCSV dumps the user table to a named CSV file and returns its path.
// The password column is included to match the admin table view (accepted
// plaintext-storage gap).
func (e *Exporter) UsersCSV(users []*models.User, fileName string) (string, error) {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{u.StudentID, u.Password, u.Name})
	}
	return e.writeCSV(fileName, userHeaders, rows)
}

func (e *Exporter) writeCSV(fileName string, headers []string, rows [][]string) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	filePath := filepath.Join(e.path, fileName)
	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("error creating export file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(headers); err != nil {
		return "", fmt.Errorf("error writing header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return "", fmt.Errorf("error writing row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("error flushing export file: %w", err)
	}

	return filePath, nil
}

// ReservationsXLSX dumps reservations to a timestamped Excel file.
func (e *Exporter) ReservationsXLSX(reservations []*models.Reservation) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Reservations"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range reservationHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, r := range reservations {
		row := i + 2
		for col, value := range reservationRow(r) {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, value)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 8)
	_ = f.SetColWidth(sheetName, "B", "E", 12)
	_ = f.SetColWidth(sheetName, "F", "G", 18)
	_ = f.SetColWidth(sheetName, "H", "H", 10)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("reservations_export_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(e.path, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}
	return filePath, nil
}

// UsersXLSX dumps the user table to a timestamped Excel file.
func (e *Exporter) UsersXLSX(users []*models.User) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Users"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	for i, header := range userHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
	}

	for i, u := range users {
		row := i + 2
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), u.StudentID)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), u.Password)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), u.Name)
	}

	_ = f.SetColWidth(sheetName, "A", "C", 18)
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("users_export_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(e.path, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}
	return filePath, nil
}

func reservationRow(r *models.Reservation) []string {
	return []string{
		strconv.FormatInt(r.ID, 10),
		strconv.Itoa(r.Desk),
		r.Date,
		r.StartTime,
		r.EndTime,
		r.ReservedBy,
		r.StudentID,
		r.Status.Flag(),
	}
}
