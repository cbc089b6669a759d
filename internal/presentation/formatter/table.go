package formatter

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/penwyp/go-mc-playtime/internal/core/model"
	"github.com/penwyp/go-mc-playtime/internal/util"
)

const onlineMarker = " *"

type TableFormatter struct {
	out        io.Writer
	headers    []string
	header     lipgloss.Style
	markOnline bool
	limit      int
}

// NewTableFormatter writes to out. Bold is emitted only when out is a
// terminal that supports it.
func NewTableFormatter(out io.Writer) *TableFormatter {
	renderer := lipgloss.NewRenderer(out)
	return &TableFormatter{
		out:     out,
		headers: []string{"Player", "Time DD:HH:MM:SS"},
		header:  renderer.NewStyle().Bold(true),
	}
}

// WithOnlineMarker appends " *" to players still connected at report time.
func (f *TableFormatter) WithOnlineMarker(enabled bool) *TableFormatter {
	f.markOnline = enabled
	return f
}

// WithLimit keeps only the first n rows. Zero means unlimited.
func (f *TableFormatter) WithLimit(n int) *TableFormatter {
	f.limit = n
	return f
}

// BuildRows orders players by playtime, longest first. Equal totals are
// ordered by name.
func BuildRows(totals model.Totals) []ReportRow {
	seconds := totals.Map()
	rows := make([]ReportRow, 0, len(seconds))
	for player, s := range seconds {
		rows = append(rows, ReportRow{
			Player:   player,
			Seconds:  s,
			Duration: util.FormatPlaytime(s),
			Online:   totals.Online(player),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Seconds != rows[j].Seconds {
			return rows[i].Seconds > rows[j].Seconds
		}
		return rows[i].Player < rows[j].Player
	})
	return rows
}

func (f *TableFormatter) Format(totals model.Totals) error {
	rows := BuildRows(totals)
	if f.limit > 0 && len(rows) > f.limit {
		rows = rows[:f.limit]
	}

	cells := make([][]string, len(rows))
	for i, row := range rows {
		name := row.Player
		if f.markOnline && row.Online {
			name += onlineMarker
		}
		cells[i] = []string{name, row.Duration}
	}

	widths := f.calculateColumnWidths(cells)

	var b strings.Builder
	f.writeBorder(&b, widths, "top")
	f.writeRow(&b, f.headers, widths, true)
	f.writeBorder(&b, widths, "middle")
	for _, row := range cells {
		f.writeRow(&b, row, widths, false)
	}
	f.writeBorder(&b, widths, "bottom")

	_, err := io.WriteString(f.out, b.String())
	return err
}

// calculateColumnWidths sizes each column to its widest cell in display cells.
func (f *TableFormatter) calculateColumnWidths(rows [][]string) []int {
	widths := make([]int, len(f.headers))
	for i, header := range f.headers {
		widths[i] = util.GetDisplayWidth(header)
	}
	for _, row := range rows {
		for i, value := range row {
			if w := util.GetDisplayWidth(value); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

func (f *TableFormatter) writeBorder(b *strings.Builder, widths []int, borderType string) {
	var left, middle, right string

	switch borderType {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	case "bottom":
		left, middle, right = "└", "┴", "┘"
	}

	b.WriteString(left)
	for i, width := range widths {
		b.WriteString(strings.Repeat("─", width+2))
		if i < len(widths)-1 {
			b.WriteString(middle)
		}
	}
	b.WriteString(right)
	b.WriteString("\n")
}

// writeRow left-aligns the player column and right-aligns the duration.
func (f *TableFormatter) writeRow(b *strings.Builder, values []string, widths []int, header bool) {
	b.WriteString("│")
	for i, value := range values {
		cell := util.PadString(value, widths[i], i == 0)
		if header {
			cell = f.header.Render(cell)
		}
		fmt.Fprintf(b, " %s │", cell)
	}
	b.WriteString("\n")
}
