package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/panbanda/ctrlmetrics/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleReport(t *testing.T) *models.Report {
	t.Helper()
	report, err := models.NewReport([]models.Record{
		{Name: "BarController", Path: "/p/BarController.kt", Dependencies: 1, Streams: 0},
		{Name: "FooController", Path: "/p/FooController.kt", Dependencies: 2, Streams: 2},
		{Name: "BazController", Path: "/p/BazController.kt", Dependencies: 3, Streams: 1},
	})
	require.NoError(t, err)
	return report
}

func TestRenderCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewControllerReport(sampleReport(t)).RenderCSV(&buf))

	want := "Name,Dependencies,Rx Streams,Overall complexity\n" +
		"FooController,2,2,4\n" +
		"BazController,3,1,3\n" +
		"BarController,1,0,1\n" +
		"\n" +
		"Overall Complexity (Sum of complexity / Number of classes)\n" +
		"2.6666667"
	assert.Equal(t, want, buf.String())
}

func TestRenderCSVSingleRecord(t *testing.T) {
	report, err := models.NewReport([]models.Record{{Name: "FooController", Dependencies: 2, Streams: 2}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewControllerReport(report).RenderCSV(&buf))

	assert.Equal(t, "Name,Dependencies,Rx Streams,Overall complexity\n"+
		"FooController,2,2,4\n\n"+
		"Overall Complexity (Sum of complexity / Number of classes)\n4.0", buf.String())
}

func TestFormatMean(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{4, "4.0"},
		{1, "1.0"},
		{2.5, "2.5"},
		{10.0 / 3.0, "3.3333333"},
		{12, "12.0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatMean(tt.in))
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatCSV},
		{"csv", FormatCSV},
		{"CSV", FormatCSV},
		{"text", FormatText},
		{"md", FormatMarkdown},
		{"markdown", FormatMarkdown},
		{"json", FormatJSON},
		{"yml", FormatYAML},
		{"yaml", FormatYAML},
		{"toon", FormatTOON},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestOutputText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriterFormatter(FormatText, &buf, false).Output(NewControllerReport(sampleReport(t))))

	out := buf.String()
	assert.Contains(t, out, "Controller Complexity")
	assert.Contains(t, out, "FooController")
	assert.Contains(t, out, "2.6666667")
	assert.Contains(t, out, "Max complexity:    4")
	assert.Less(t, strings.Index(out, "FooController"), strings.Index(out, "BarController"))
}

func TestOutputMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriterFormatter(FormatMarkdown, &buf, false).Output(NewControllerReport(sampleReport(t))))

	out := buf.String()
	assert.Contains(t, out, "## Controller Complexity")
	assert.Contains(t, out, "| Name | Dependencies | Rx Streams | Overall complexity |")
	assert.Contains(t, out, "| FooController | 2 | 2 | 4 |")
	assert.Contains(t, out, "| Overall |  |  | 2.6666667 |")
	assert.Contains(t, out, "- **Controllers:** 3")
}

func TestOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriterFormatter(FormatJSON, &buf, false).Output(NewControllerReport(sampleReport(t))))

	var decoded models.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Records, 3)
	assert.Equal(t, "FooController", decoded.Records[0].Name)
	assert.Equal(t, 4, decoded.Records[0].Complexity)
	assert.Equal(t, 3, decoded.Summary.Controllers)
	assert.Contains(t, buf.String(), `"rx_streams": 2`)
}

func TestOutputYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriterFormatter(FormatYAML, &buf, false).Output(NewControllerReport(sampleReport(t))))

	var decoded models.Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Records, 3)
	assert.Equal(t, "BazController", decoded.Records[1].Name)
	assert.Equal(t, 6, decoded.Summary.TotalDependencies)
}

func TestOutputTOON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriterFormatter(FormatTOON, &buf, false).Output(NewControllerReport(sampleReport(t))))

	out := buf.String()
	assert.NotEmpty(t, out)
	assert.Contains(t, out, "FooController")
}

func TestNewFormatterWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")

	f, err := NewFormatter(FormatCSV, path, true)
	require.NoError(t, err)
	assert.False(t, f.Colored(), "file output is never colored")
	require.NoError(t, f.Output(NewControllerReport(sampleReport(t))))
	require.NoError(t, f.Close())

	var buf bytes.Buffer
	require.NoError(t, NewControllerReport(sampleReport(t)).RenderCSV(&buf))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, buf.String(), string(data))
}
