package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	p := New(&bytes.Buffer{}, "table")

	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"<b>bold</b> text", "bold text"},
		{`<script>alert("x")</script>ok`, "ok"},
		{"Tom &amp; Jerry", "Tom & Jerry"},
		{"line\nbreak", "line break"},
		{"bell\x07", "bell"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Clean(tt.in))
		})
	}
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, "table")

	require.NoError(t, p.Table([]string{"ID", "SUBJECT"}, [][]string{{"1", "<i>VPN</i>"}}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ID  SUBJECT", lines[0])
	assert.Equal(t, "--  -------", lines[1])
	assert.Equal(t, "1   VPN", lines[2])
}

func TestJSONMode(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, "JSON")
	assert.True(t, p.JSONMode())

	p.Printf("hidden %d\n", 1)
	require.NoError(t, p.JSON(map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}
