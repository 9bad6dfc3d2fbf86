// Package output renders command results as tables or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/microcosm-cc/bluemonday"
)

// Printer writes results in the configured format
type Printer struct {
	w      io.Writer
	json   bool
	policy *bluemonday.Policy
}

// New creates a printer. format is "table" or "json".
func New(w io.Writer, format string) *Printer {
	return &Printer{
		w:      w,
		json:   strings.EqualFold(format, "json"),
		policy: bluemonday.StrictPolicy(),
	}
}

// JSONMode returns true if the printer emits JSON
func (p *Printer) JSONMode() bool {
	return p.json
}

// Clean strips markup and control characters from server-provided text
func (p *Printer) Clean(s string) string {
	s = html.UnescapeString(p.policy.Sanitize(s))
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return ' '
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, s)
}

// JSON writes v as indented JSON
func (p *Printer) JSON(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table writes rows under headers, cleaning every cell
func (p *Printer) Table(headers []string, rows [][]string) error {
	w := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	rule := make([]string, len(headers))
	for i, h := range headers {
		rule[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(w, strings.Join(rule, "\t"))
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = p.Clean(c)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	return w.Flush()
}

// Fields writes label/value pairs, one per line
func (p *Printer) Fields(pairs [][2]string) error {
	w := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	for _, kv := range pairs {
		fmt.Fprintf(w, "%s:\t%s\n", kv[0], p.Clean(kv[1]))
	}
	return w.Flush()
}

// Printf writes a formatted line in table mode only
func (p *Printer) Printf(format string, args ...any) {
	if p.json {
		return
	}
	fmt.Fprintf(p.w, format, args...)
}
