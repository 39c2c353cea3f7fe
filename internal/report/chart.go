package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/seenimoa/sovwatch/internal/rating"
	"github.com/seenimoa/sovwatch/internal/region"
	"github.com/seenimoa/sovwatch/pkg/models"
	"github.com/seenimoa/sovwatch/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// SVG Chart Generator
// ════════════════════════════════════════════════════════════════════

// ChartConfig holds rendering parameters for SVG charts.
type ChartConfig struct {
	Width        int    // SVG width in pixels (default: 420)
	Height       int    // SVG height in pixels (default: 320)
	MarginTop    int    // top margin (default: 36)
	MarginRight  int    // right margin (default: 20)
	MarginBottom int    // bottom margin (default: 56)
	MarginLeft   int    // left margin (default: 64)
	BgColor      string // background color (default: "#ffffff")
	GridColor    string // grid line color (default: "#e8e8e8")
	TextColor    string // axis label color (default: "#333333")
	FontSize     int    // axis label font size (default: 10)
	Title        string // chart title
}

// DefaultChartConfig returns sensible defaults for chart rendering.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        420,
		Height:       320,
		MarginTop:    36,
		MarginRight:  20,
		MarginBottom: 56,
		MarginLeft:   64,
		BgColor:      "#ffffff",
		GridColor:    "#e8e8e8",
		TextColor:    "#333333",
		FontSize:     10,
	}
}

// plotArea returns the usable drawing area dimensions.
func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

const (
	ratingColor  = "#1f77b4"
	outlookColor = "#ff7f0e"
	missingColor = "#d1d5db"
)

// point is a plotted observation: its index on the period axis and value.
type point struct {
	i int
	v int
}

// ════════════════════════════════════════════════════════════════════
// Rating history (line)
// ════════════════════════════════════════════════════════════════════

// RatingChart plots the rating rank of each observation on the agency scale.
// Every grade of the scale is a y tick. Observations whose rating is not on
// the scale leave a gap in the markers but keep their period on the axis.
func RatingChart(s *models.Series, cfg ChartConfig) string {
	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
	}
	if s.Len() == 0 {
		return emptySVG(cfg, "No data")
	}
	if cfg.Title == "" {
		cfg.Title = s.Agency.DisplayName() + ": Rating"
	}

	scale := rating.ScaleFor(s.Agency)
	var pts []point
	for i, o := range s.Observations {
		if o.RatingRank != nil {
			pts = append(pts, point{i: i, v: *o.RatingRank})
		}
	}

	ticks := make([]string, 0, scale.Len())
	for _, g := range scale.Grades() {
		ticks = append(ticks, g.Token)
	}

	return seriesSVG(cfg, s.Periods(), pts, 1, scale.Len(), ticks, false, ratingColor)
}

// ════════════════════════════════════════════════════════════════════
// Outlook history (step)
// ════════════════════════════════════════════════════════════════════

// OutlookChart plots the outlook as a step line centred between periods.
// Observations without a known outlook ("n.p" or unrecognized) are dropped.
func OutlookChart(s *models.Series, cfg ChartConfig) string {
	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
	}
	if s.Len() == 0 {
		return emptySVG(cfg, "No data")
	}
	if cfg.Title == "" {
		cfg.Title = s.Agency.DisplayName() + ": Outlook"
	}

	var pts []point
	for i, o := range s.Observations {
		if o.OutlookRank != nil {
			pts = append(pts, point{i: i, v: *o.OutlookRank})
		}
	}
	if len(pts) == 0 {
		return emptySVG(cfg, "No outlook published")
	}

	return seriesSVG(cfg, s.Periods(), pts, 0, 2, rating.OutlookLabels(), true, outlookColor)
}

// seriesSVG draws points over a categorical period axis. ticks[k] labels the
// value lo+k.
func seriesSVG(cfg ChartConfig, periods []string, pts []point, lo, hi int, ticks []string, step bool, color string) string {
	px, py, pw, ph := cfg.plotArea()
	n := len(periods)

	xAt := func(i int) float64 {
		if n == 1 {
			return float64(px) + float64(pw)/2
		}
		return float64(px) + float64(i)*float64(pw)/float64(n-1)
	}
	yAt := func(v int) float64 {
		span := hi - lo
		if span == 0 {
			return float64(py) + float64(ph)/2
		}
		return float64(py+ph) - float64(v-lo)/float64(span)*float64(ph)
	}

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.BgColor))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="20" font-size="13" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title)))

	// Y-axis grid, one line per grade
	for k, label := range ticks {
		y := yAt(lo + k)
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="%s" stroke-dasharray="3,3"/>`,
			px, y, px+pw, y, cfg.GridColor))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			px-5, y+3, cfg.FontSize, cfg.TextColor, escapeXML(label)))
	}

	// Line
	if len(pts) > 1 {
		var parts []string
		for k, p := range pts {
			x, y := xAt(p.i), yAt(p.v)
			switch {
			case k == 0:
				parts = append(parts, fmt.Sprintf("M%.1f,%.1f", x, y))
			case step:
				prev := pts[k-1]
				mid := (xAt(prev.i) + x) / 2
				parts = append(parts,
					fmt.Sprintf("H%.1f", mid),
					fmt.Sprintf("V%.1f", y),
					fmt.Sprintf("H%.1f", x))
			default:
				parts = append(parts, fmt.Sprintf("L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString(fmt.Sprintf(`<path d="%s" fill="none" stroke="%s" stroke-width="2"/>`,
			strings.Join(parts, " "), color))
	}

	// Markers: circles for ratings, squares for outlooks
	for _, p := range pts {
		x, y := xAt(p.i), yAt(p.v)
		if step {
			sb.WriteString(fmt.Sprintf(`<rect class="marker" x="%.1f" y="%.1f" width="7" height="7" fill="%s"/>`,
				x-3.5, y-3.5, color))
		} else {
			sb.WriteString(fmt.Sprintf(`<circle class="marker" cx="%.1f" cy="%.1f" r="3.5" fill="%s"/>`,
				x, y, color))
		}
	}

	// X-axis period labels
	interval := int(math.Ceil(float64(n) / 12))
	if interval < 1 {
		interval = 1
	}
	for i := 0; i < n; i += interval {
		x := xAt(i)
		y := py + ph + 14
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="end" transform="rotate(-90,%.1f,%d)">%s</text>`,
			x, y, cfg.FontSize-1, cfg.TextColor, x, y, escapeXML(periods[i])))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// Regional heatmap
// ════════════════════════════════════════════════════════════════════

// Heatmap renders the country × agency matrix. Cell colour is the rank as a
// share of the agency scale (red for low, green for high); absent cells are
// grey and labelled N/A.
func Heatmap(m region.Matrix, cfg ChartConfig) string {
	if len(m.Countries) == 0 || len(m.Agencies) == 0 {
		return emptySVG(cfg, "No data")
	}
	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
		cfg.Width = 520
		cfg.MarginLeft = 150
		cfg.MarginBottom = 20
		cfg.Height = cfg.MarginTop + 24 + 40*len(m.Countries) + cfg.MarginBottom
	}
	if cfg.Title == "" {
		cfg.Title = "Current rating by country and agency"
	}

	px, py, pw, ph := cfg.plotArea()
	headH := 24
	cellW := float64(pw) / float64(len(m.Agencies))
	cellH := float64(ph-headH) / float64(len(m.Countries))

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.BgColor))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="20" font-size="13" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title)))

	for j, a := range m.Agencies {
		x := float64(px) + cellW*float64(j) + cellW/2
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="%d" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
			x, py+16, cfg.FontSize+1, cfg.TextColor, escapeXML(a.DisplayName())))
	}

	for i, c := range m.Countries {
		y := float64(py+headH) + cellH*float64(i)
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			px-8, y+cellH/2+4, cfg.FontSize+1, cfg.TextColor, escapeXML(c.Name)))

		for j := range m.Agencies {
			cell := m.Cells[i][j]
			x := float64(px) + cellW*float64(j)
			fill, label := missingColor, utils.NotAvailable
			if cell.Status == region.StatusOK && cell.Rank != nil {
				ratio := float64(*cell.Rank) / float64(rating.ScaleFor(cell.Agency).Len())
				fill, label = heatColor(ratio), cell.Rating
			}
			sb.WriteString(fmt.Sprintf(`<rect class="cell %s" x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" stroke="#ffffff" stroke-width="2"/>`,
				cell.Status, x, y, cellW, cellH, fill))
			sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-size="%d" fill="#111111" text-anchor="middle">%s</text>`,
				x+cellW/2, y+cellH/2+4, cfg.FontSize+1, escapeXML(label)))
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// heatColor interpolates red → yellow → green for ratio in [0, 1].
func heatColor(ratio float64) string {
	ratio = math.Max(0, math.Min(1, ratio))
	type rgb struct{ r, g, b float64 }
	low, mid, high := rgb{215, 48, 39}, rgb{254, 224, 139}, rgb{26, 152, 80}

	from, to, t := low, mid, ratio*2
	if ratio > 0.5 {
		from, to, t = mid, high, (ratio-0.5)*2
	}
	lerp := func(a, b float64) int { return int(math.Round(a + (b-a)*t)) }
	return fmt.Sprintf("#%02x%02x%02x", lerp(from.r, to.r), lerp(from.g, to.g), lerp(from.b, to.b))
}

// ════════════════════════════════════════════════════════════════════
// SVG Helpers
// ════════════════════════════════════════════════════════════════════

func svgHeader(cfg ChartConfig) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
}

func emptySVG(cfg ChartConfig, msg string) string {
	if cfg.Width == 0 {
		cfg.Width = 400
	}
	if cfg.Height == 0 {
		cfg.Height = 200
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#f5f5f5"/><text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
