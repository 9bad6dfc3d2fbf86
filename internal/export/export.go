// Package export writes ticket listings to JSON and spreadsheet files.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/afterdarksys/helpdesk/internal/models"
)

// Format is an export file format
type Format string

const (
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// ParseFormat parses a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatXLSX:
		return f, nil
	case "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want json or xlsx)", s)
	}
}

// Extension returns the file extension of the format
func (f Format) Extension() string {
	return "." + string(f)
}

// SheetName is the worksheet tickets are written to
const SheetName = "Tickets"

// Columns are the spreadsheet header cells
var Columns = []string{
	"Ticket No", "Subject", "Status", "User", "Category", "Type", "Priority",
	"Support By", "Date", "Rate", "Remark", "Team", "Team Member",
}

const dateLayout = "2006-01-02 15:04"

// Row returns the spreadsheet cells of a ticket in Columns order
func Row(t models.Ticket) []interface{} {
	date := ""
	if !t.Date.IsZero() {
		date = t.Date.UTC().Format(dateLayout)
	}
	return []interface{}{
		t.TicketNo, t.Subject, t.Status.String(), t.UserUsername, t.Category, t.Type, t.Priority,
		t.SupportBy, date, t.Rate, models.StringValue(t.Remark),
		models.StringValue(t.TeamName), models.StringValue(t.TeamMember),
	}
}

// Write writes ts to w in format f
func Write(w io.Writer, f Format, ts []models.Ticket) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, ts)
	case FormatXLSX:
		return WriteXLSX(w, ts)
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}

// WriteJSON writes ts as an indented JSON array
func WriteJSON(w io.Writer, ts []models.Ticket) error {
	if ts == nil {
		ts = []models.Ticket{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ts); err != nil {
		return fmt.Errorf("encode tickets: %w", err)
	}
	return nil
}

// WriteXLSX writes ts as a workbook with a bold header row
func WriteXLSX(w io.Writer, ts []models.Ticket) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	last, err := excelize.CoordinatesToCellName(len(Columns), 1)
	if err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", last, style); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, t := range ts {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := Row(t)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write ticket %s: %w", t.TicketNo, err)
		}
	}

	_ = f.SetColWidth(SheetName, "B", "B", 40)
	_ = f.SetColWidth(SheetName, "C", "H", 18)
	_ = f.SetColWidth(SheetName, "K", "K", 40)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ErrExists is returned when an export file exists and overwrite is off
var ErrExists = errors.New("file already exists")

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName returns the per-ticket file name for t
func FileName(t models.Ticket, f Format) string {
	name := unsafeChars.ReplaceAllString(strings.TrimSpace(t.TicketNo), "_")
	if name == "" || name == "." || name == ".." {
		name = fmt.Sprintf("ticket-%d", t.ID)
	}
	return name + f.Extension()
}

// Result counts the outcome of a directory export
type Result struct {
	Exported int
	Skipped  int
}

// ToDir writes one JSON file per ticket under dir. Existing files are
// skipped unless overwrite is set.
func ToDir(dir string, ts []models.Ticket, overwrite bool) (Result, error) {
	var res Result
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return res, fmt.Errorf("create export directory: %w", err)
	}

	for _, t := range ts {
		path := filepath.Join(dir, FileName(t, FormatJSON))
		if _, err := os.Stat(path); err == nil && !overwrite {
			res.Skipped++
			continue
		}

		data, err := json.MarshalIndent(t, "", "  ")
		if err != nil {
			return res, fmt.Errorf("encode ticket %s: %w", t.TicketNo, err)
		}
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
			return res, fmt.Errorf("write %s: %w", path, err)
		}
		res.Exported++
	}
	return res, nil
}

// ToFile writes ts to path in format f
func ToFile(path string, f Format, ts []models.Ticket, overwrite bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}
	out, err := os.OpenFile(path, flags, 0o644)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%s: %w", path, ErrExists)
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := Write(out, f, ts); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
