package output

import (
	"fmt"
	"io"
	"strings"

	"osintrecon/pkg/parsers"
	"osintrecon/pkg/tools"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const maxCellWidth = 80

// WriteFindingsTable renders one row per extracted entry, grouped by category.
func WriteFindingsTable(w io.Writer, findings parsers.Findings, noColor bool) {
	rows := findingRows(findings)
	if len(rows) == 0 {
		fmt.Fprintln(w, "\nNo findings extracted.")
		return
	}

	headers := []string{"Category", "Value"}
	fmt.Fprintln(w)
	writeTable(w, headers, rows, noColor)
	fmt.Fprintf(w, "\n%d findings\n", findings.Total())
}

// WriteToolsTable lists the catalog entries.
func WriteToolsTable(w io.Writer, configs []tools.ToolConfig, noColor bool) {
	if len(configs) == 0 {
		fmt.Fprintln(w, "No tools registered.")
		return
	}

	headers := []string{"Tool", "Image", "Options", "Description"}
	var rows [][]string
	for _, cfg := range configs {
		var opts []string
		for _, option := range []string{"Limit", "Sources"} {
			if cfg.SupportsOption(option) {
				opts = append(opts, strings.ToLower(option))
			}
		}
		rows = append(rows, []string{
			cfg.Name.String(),
			cfg.Image,
			strings.Join(opts, ","),
			truncate(cfg.Description, 50),
		})
	}
	writeTable(w, headers, rows, noColor)
}

func findingRows(f parsers.Findings) [][]string {
	groups := []struct {
		category string
		values   []string
	}{
		{"email", f.Emails},
		{"host", f.Hosts},
		{"subdomain", f.Subdomains},
		{"ip", f.IPs},
		{"linkedin", f.LinkedIn},
	}

	var rows [][]string
	for _, g := range groups {
		for _, v := range g.values {
			rows = append(rows, []string{g.category, truncate(v, maxCellWidth)})
		}
	}
	return rows
}

func writeTable(w io.Writer, headers []string, rows [][]string, noColor bool) {
	if noColor {
		writeSimpleTable(w, headers, rows)
		return
	}

	t := table.New().
		Headers(headers...).
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(lipgloss.Color("111"))
			}
			return lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
		})

	for _, row := range rows {
		t.Row(row...)
	}

	fmt.Fprintln(w, t.Render())
}

func writeSimpleTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	writeSimpleRow(w, widths, headers)

	for i, width := range widths {
		if i > 0 {
			fmt.Fprint(w, "-+-")
		}
		fmt.Fprint(w, strings.Repeat("-", width))
	}
	fmt.Fprintln(w)

	for _, row := range rows {
		writeSimpleRow(w, widths, row)
	}
}

func writeSimpleRow(w io.Writer, widths []int, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			fmt.Fprint(w, " | ")
		}
		if i == len(cells)-1 {
			fmt.Fprint(w, cell)
			continue
		}
		fmt.Fprintf(w, "%-*s", widths[i], cell)
	}
	fmt.Fprintln(w)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
