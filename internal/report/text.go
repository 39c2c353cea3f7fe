package report

import (
	"fmt"
	"strings"

	"github.com/seenimoa/sovwatch/internal/rating"
	"github.com/seenimoa/sovwatch/internal/region"
	"github.com/seenimoa/sovwatch/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Plain-text renderers (CLI)
// ════════════════════════════════════════════════════════════════════

// CountryText renders the cards and rating history of a country.
func CountryText(v *CountryView) string {
	var sb strings.Builder
	line := strings.Repeat("═", 60)
	thinLine := strings.Repeat("─", 60)

	sb.WriteString("\n" + line + "\n")
	sb.WriteString(fmt.Sprintf("  %s (%s)\n", v.Country.Name, v.Country.Code))
	sb.WriteString(line + "\n")

	for _, c := range v.Cards {
		value := c.Value
		if c.Delta != "" {
			value += " (" + c.Delta + ")"
		}
		sb.WriteString(fmt.Sprintf("  %-16s %s\n", c.Label, value))
	}

	for _, p := range v.Panels {
		sb.WriteString(thinLine + "\n")
		sb.WriteString(fmt.Sprintf("  ■ %s\n", p.Agency.DisplayName()))
		if !p.Available {
			sb.WriteString(fmt.Sprintf("    N/A (%s)\n", p.Reason))
			continue
		}
		for _, h := range p.History {
			mark := ""
			if !h.OnScale {
				mark = "  [not on scale]"
			}
			sb.WriteString(fmt.Sprintf("    %-8s %-6s %s%s\n", h.Period, h.Rating, h.Outlook, mark))
		}
	}

	sb.WriteString(line + "\n")
	sb.WriteString("  " + v.Caption + "\n")
	return sb.String()
}

// MatrixText renders the rank matrix, or the letter table when letters is set.
func MatrixText(m region.Matrix, letters bool) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-22s", "Country"))
	for _, a := range m.Agencies {
		sb.WriteString(fmt.Sprintf(" %-16s", a.DisplayName()))
	}
	sb.WriteString("\n" + strings.Repeat("─", 22+17*len(m.Agencies)) + "\n")

	for i, c := range m.Countries {
		sb.WriteString(fmt.Sprintf("%-22s", c.Name))
		for _, cell := range m.Cells[i] {
			text := cell.Text()
			if !letters {
				text = "N/A"
				if cell.Status == region.StatusOK && cell.Rank != nil {
					text = fmt.Sprintf("%d", *cell.Rank)
				}
			}
			sb.WriteString(fmt.Sprintf(" %-16s", text))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// ScalesText lists both rating scales and the outlook values.
func ScalesText() string {
	var sb strings.Builder
	for _, a := range []models.Agency{models.AgencyFitch, models.AgencyMoodys} {
		scale := rating.ScaleFor(a)
		name := "Fitch / S&P"
		if a == models.AgencyMoodys {
			name = "Moody's"
		}
		sb.WriteString(fmt.Sprintf("  ■ %s (%d grades)\n", name, scale.Len()))
		grades := scale.Grades()
		for i := len(grades) - 1; i >= 0; i-- {
			sb.WriteString(fmt.Sprintf("    %3d  %s\n", grades[i].Rank, grades[i].Token))
		}
	}
	sb.WriteString("  ■ Outlook\n")
	for i, label := range rating.OutlookLabels() {
		sb.WriteString(fmt.Sprintf("    %3d  %s\n", i, label))
	}
	sb.WriteString(fmt.Sprintf("      -  %s (not provided)\n", rating.OutlookNotProvided))
	return sb.String()
}
