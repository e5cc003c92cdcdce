package output_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/multisecret/internal/output"
)

type stringer struct{}

func (stringer) String() string { return "recovered" }

func TestFormatter_JSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	f := output.NewFormatter(output.FormatJSON, &buf)

	require.NoError(t, f.Print(map[string]string{"secret": "1234"}))

	var got map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "1234", got["secret"])
	assert.Contains(t, buf.String(), "\n  \"secret\"")
}

func TestFormatter_Text(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "hello world", "hello world\n"},
		{"stringer", stringer{}, "recovered\n"},
		{"other", 42, "42\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			require.NoError(t, output.NewFormatter(output.FormatText, &buf).Print(tc.in))
			assert.Equal(t, tc.want, buf.String())
		})
	}
}

func TestFormatter_Accessors(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	f := output.NewFormatter(output.FormatText, &buf)

	assert.Equal(t, output.FormatText, f.Format())
	assert.Same(t, &buf, f.Writer())
	assert.False(t, f.IsJSON())

	require.NoError(t, f.Printf("secret %d: %s\n", 0, "ok"))
	require.NoError(t, f.Println("done"))
	assert.Equal(t, "secret 0: ok\ndone\n", buf.String())
}

func TestNewFormatter_AutoResolves(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	assert.Equal(t, output.FormatJSON, output.NewFormatter(output.FormatAuto, &buf).Format())
}

func TestParseFormat(t *testing.T) {
	t.Parallel()
	assert.Equal(t, output.FormatJSON, output.ParseFormat(" JSON "))
	assert.Equal(t, output.FormatText, output.ParseFormat("text"))
	assert.Equal(t, output.FormatAuto, output.ParseFormat("auto"))
	assert.Equal(t, output.FormatAuto, output.ParseFormat("yaml"))
}

func TestDetectFormat(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	assert.Equal(t, output.FormatText, output.DetectFormat(&buf, output.FormatText))
	assert.Equal(t, output.FormatJSON, output.DetectFormat(&buf, output.FormatAuto))
	assert.Equal(t, output.FormatJSON, output.DetectFormat(nil, output.Format("")))
	assert.False(t, output.IsTerminal(&buf))
}

func TestTable(t *testing.T) {
	t.Parallel()

	tbl := output.NewTable("SECRET", "GROUP", "VALUE")
	tbl.AlignRight(2)
	tbl.AddRow("0", "0", "5")
	tbl.AddRow("1", "2", "12345")

	lines := strings.Split(strings.TrimRight(tbl.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "SECRET  GROUP  VALUE", lines[0])
	assert.Equal(t, "------  -----  -----", lines[1])
	assert.Equal(t, "0       0          5", lines[2])
	assert.Equal(t, "1       2      12345", lines[3])
}

func TestTable_EdgeCases(t *testing.T) {
	t.Parallel()

	assert.Empty(t, output.NewTable().String())

	tbl := output.NewTable("A")
	tbl.SetNoHeader(true)
	tbl.AddRow("x", "long")
	tbl.AddRow("yy")
	assert.Equal(t, "x   long\nyy\n", tbl.String())

	tbl = output.NewTable("NAME")
	tbl.AddRow("ℤₚ")
	lines := strings.Split(strings.TrimRight(tbl.String(), "\n"), "\n")
	assert.Equal(t, "----", lines[1])
	assert.Equal(t, "ℤₚ", lines[2])
}
