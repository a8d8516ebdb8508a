package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/panbanda/ctrlmetrics/pkg/models"
)

// CSV layout of results.csv.
var csvHeader = []string{"Name", "Dependencies", "Rx Streams", "Overall complexity"}

const overallLabel = "Overall Complexity (Sum of complexity / Number of classes)"

// ControllerReport renders a models.Report.
type ControllerReport struct {
	Report *models.Report
}

// NewControllerReport wraps report for rendering.
func NewControllerReport(report *models.Report) *ControllerReport {
	return &ControllerReport{Report: report}
}

// RenderCSV writes the header, one row per record, a blank line and the
// labeled overall complexity. There is no trailing newline.
func (c *ControllerReport) RenderCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range c.Report.Records {
		if err := cw.Write(row(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%s\n%s", overallLabel, FormatMean(c.Report.OverallComplexity()))
	return err
}

func (c *ControllerReport) RenderText(w io.Writer, colored bool) error {
	rows := make([][]string, len(c.Report.Records))
	for i, r := range c.Report.Records {
		rows[i] = row(r)
		if colored {
			rows[i][3] = complexityColor(r.Complexity, c.Report.Summary.MedianComplexity)
		}
	}
	if err := c.table(rows).RenderText(w, colored); err != nil {
		return err
	}

	s := c.Report.Summary
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Median complexity: %s\n", FormatMean(s.MedianComplexity))
	fmt.Fprintf(w, "Max complexity:    %d\n", s.MaxComplexity)
	fmt.Fprintf(w, "Total dependencies: %d, total Rx streams: %d\n", s.TotalDependencies, s.TotalStreams)
	return nil
}

func (c *ControllerReport) RenderMarkdown(w io.Writer) error {
	rows := make([][]string, len(c.Report.Records))
	for i, r := range c.Report.Records {
		rows[i] = row(r)
	}
	if err := c.table(rows).RenderMarkdown(w); err != nil {
		return err
	}

	s := c.Report.Summary
	fmt.Fprintf(w, "- **Controllers:** %d\n", s.Controllers)
	fmt.Fprintf(w, "- **Median complexity:** %s\n", FormatMean(s.MedianComplexity))
	fmt.Fprintf(w, "- **Max complexity:** %d\n", s.MaxComplexity)
	return nil
}

func (c *ControllerReport) RenderData() any {
	return c.Report
}

func (c *ControllerReport) table(rows [][]string) *Table {
	footer := []string{"Overall", "", "", FormatMean(c.Report.OverallComplexity())}
	return NewTable("Controller Complexity", csvHeader, rows, footer)
}

func row(r models.ScoredRecord) []string {
	return []string{
		r.Name,
		strconv.Itoa(r.Dependencies),
		strconv.Itoa(r.Streams),
		strconv.Itoa(r.Complexity),
	}
}

func complexityColor(complexity int, median float64) string {
	text := strconv.Itoa(complexity)
	switch {
	case float64(complexity) > 2*median:
		return color.RedString(text)
	case float64(complexity) > median:
		return color.YellowString(text)
	default:
		return color.GreenString(text)
	}
}

// FormatMean renders v with single precision and always includes a
// decimal point: 4 -> "4.0", 10/3 -> "3.3333333".
func FormatMean(v float64) string {
	s := strconv.FormatFloat(float64(float32(v)), 'f', -1, 32)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
