package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/afterdarksys/helpdesk/internal/models"
)

func str(s string) *string { return &s }

func sample() []models.Ticket {
	return []models.Ticket{
		{
			ID: 1, TicketNo: "T-1", Subject: "Printer jam", Status: models.TicketStatusClosed,
			UserUsername: "alice", Category: "Hardware", Priority: "High", SupportBy: models.DefaultSupportBy,
			Date: time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC), Rate: 4,
			Remark: str("Cleared"), TeamName: str("Desk"), TeamMember: str("eve"),
		},
		{ID: 2, TicketNo: "T/2", Subject: "VPN", Status: models.TicketStatusInProgress, UserUsername: "bob"},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{" xlsx ", FormatXLSX, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sample()))

	var got []models.Ticket
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sample(), got)
	assert.Contains(t, buf.String(), `"status": "Closed"`)

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sample()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, []string{
		"T-1", "Printer jam", "Closed", "alice", "Hardware", "", "High",
		"Tech support", "2026-03-04 09:30", "4", "Cleared", "Desk", "eve",
	}, rows[1])
	assert.Equal(t, "In Progress", rows[2][2])

	styleID, err := f.GetCellStyle(SheetName, "A1")
	require.NoError(t, err)
	assert.NotZero(t, styleID)
}

func TestToDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	res, err := ToDir(dir, sample(), false)
	require.NoError(t, err)
	assert.Equal(t, Result{Exported: 2}, res)
	assert.FileExists(t, filepath.Join(dir, "T-1.json"))
	assert.FileExists(t, filepath.Join(dir, "T_2.json"))

	res, err = ToDir(dir, sample(), false)
	require.NoError(t, err)
	assert.Equal(t, Result{Skipped: 2}, res)

	res, err = ToDir(dir, sample()[:1], true)
	require.NoError(t, err)
	assert.Equal(t, Result{Exported: 1}, res)
}

func TestToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets.json")

	require.NoError(t, ToFile(path, FormatJSON, sample(), false))
	err := ToFile(path, FormatJSON, sample(), false)
	assert.ErrorIs(t, err, ErrExists)
	require.NoError(t, ToFile(path, FormatJSON, nil, true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "T-1.json", FileName(models.Ticket{TicketNo: "T-1"}, FormatJSON))
	assert.Equal(t, "ticket-7.xlsx", FileName(models.Ticket{ID: 7, TicketNo: "  "}, FormatXLSX))
	assert.Equal(t, "a_b.json", FileName(models.Ticket{TicketNo: "a b"}, FormatJSON))
}
