package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	sdk "github.com/autorovers/autorovers/pkg/sdk"
)

// Color palette
var (
	colorPrimary = lipgloss.Color("#7aa2f7")
	colorWarning = lipgloss.Color("#e0af68")
	colorError   = lipgloss.Color("#f7768e")
	colorMuted   = lipgloss.Color("#565f89")
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	warnStyle   = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle  = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSelection(w io.Writer, s sdk.Selection) error {
	if outputJSON {
		return printJSON(w, s)
	}

	line := string(s.VehicleType)
	if line == "" {
		line = "any"
	}
	fmt.Fprintf(w, "%s %s\n",
		titleStyle.Render(fmt.Sprintf("Selection %d/%d", len(s.Items), sdk.Capacity)),
		labelStyle.Render("("+line+")"))
	if len(s.Items) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  nothing selected"))
		return nil
	}
	for _, v := range s.Items {
		fmt.Fprintf(w, "  %s %s\n", v.Title(), mutedStyle.Render(v.Slug))
	}
	return nil
}

func printLine(w io.Writer, l sdk.Line) error {
	if outputJSON {
		return printJSON(w, map[string]sdk.Line{"vehicleType": l})
	}
	if l == "" {
		fmt.Fprintln(w, mutedStyle.Render("no vehicle type set"))
		return nil
	}
	fmt.Fprintln(w, titleStyle.Render(string(l)))
	return nil
}

func printComparison(w io.Writer, c sdk.Comparison) error {
	if outputJSON {
		return printJSON(w, c)
	}

	if c.Insufficient {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("Select at least two %s to compare.", pluralLine(c.VehicleType))))
	} else {
		fmt.Fprintln(w, renderTable(c.Table))
	}

	for _, d := range c.Dropped {
		msg := fmt.Sprintf("dropped %s (%s)", d.Slug, d.Cause)
		if d.Transient {
			msg = fmt.Sprintf("skipped %s for now (%s)", d.Slug, d.Cause)
		}
		if d.Reason != "" {
			msg += ": " + d.Reason
		}
		fmt.Fprintln(w, warnStyle.Render(msg))
	}
	return nil
}

func printHealth(w io.Writer, h sdk.HealthStatus) error {
	if outputJSON {
		return printJSON(w, h)
	}

	status := titleStyle
	switch h.Status {
	case sdk.HealthDegraded:
		status = warnStyle
	case sdk.HealthError:
		status = errorStyle
	}
	fmt.Fprintln(w, status.Render(h.Status))
	for _, name := range []string{"database", "catalog"} {
		if res, ok := h.Checks[name]; ok {
			fmt.Fprintf(w, "  %s %s\n", labelStyle.Render(name+":"), res)
		}
	}
	return nil
}

// renderTable lays the comparison out with one column per vehicle.
func renderTable(t sdk.Table) string {
	headers := make([]string, 0, len(t.Columns)+1)
	headers = append(headers, "")
	for _, col := range t.Columns {
		h := col.Title
		if col.Year > 0 {
			h = fmt.Sprintf("%s (%d)", h, col.Year)
		}
		headers = append(headers, h)
	}

	rows := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		rows = append(rows, append([]string{r.Label}, r.Cells...))
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(labelStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return cellStyle.Foreground(colorMuted)
			default:
				return cellStyle
			}
		}).
		Render()
}

func pluralLine(l sdk.Line) string {
	if l == "" {
		return "vehicles"
	}
	return strings.ToLower(string(l)) + "s"
}
