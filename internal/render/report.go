package render

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"newsbrief/internal/core"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var reportHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))

// TopicReportRow is one line of the run report.
type TopicReportRow struct {
	Topic     string
	Found     int
	Extracted int
	Chunks    int
	Status    string
}

// BuildReport converts run results into report rows sorted by topic name.
func BuildReport(results map[string]core.TopicResult) []TopicReportRow {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]TopicReportRow, 0, len(names))
	for _, name := range names {
		result := results[name]
		rows = append(rows, TopicReportRow{
			Topic:     name,
			Found:     result.CandidateCount,
			Extracted: len(result.Articles),
			Chunks:    result.Digest.ChunkCount,
			Status:    statusFor(result),
		})
	}

	return rows
}

func statusFor(result core.TopicResult) string {
	switch {
	case len(result.Articles) == 0:
		return "no articles"
	case result.Digest.Usable():
		return "ok"
	default:
		return "failed"
	}
}

// FormatTable renders report rows as a plain-text table. Column widths are
// display widths, so wide characters in topic names keep columns aligned.
func FormatTable(rows []TopicReportRow) string {
	cells := [][]string{{"TOPIC", "FOUND", "EXTRACTED", "CHUNKS", "STATUS"}}
	for _, row := range rows {
		cells = append(cells, []string{
			row.Topic,
			strconv.Itoa(row.Found),
			strconv.Itoa(row.Extracted),
			strconv.Itoa(row.Chunks),
			row.Status,
		})
	}

	widths := make([]int, len(cells[0]))
	for _, row := range cells {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	for _, row := range cells {
		for i, cell := range row {
			b.WriteString(cell)
			if i < len(row)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)+2))
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}

// Summary renders the styled header plus the report table for the terminal.
func Summary(rows []TopicReportRow) string {
	header := reportHeaderStyle.Render(fmt.Sprintf("Run complete: %d topics", len(rows)))
	return header + "\n\n" + FormatTable(rows)
}
