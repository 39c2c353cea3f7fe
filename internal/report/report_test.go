package report

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/sovwatch/internal/loader"
	"github.com/seenimoa/sovwatch/internal/rating"
	"github.com/seenimoa/sovwatch/internal/region"
	"github.com/seenimoa/sovwatch/internal/source"
	"github.com/seenimoa/sovwatch/pkg/models"
)

const tag = "11042025"

func newBuilder(t *testing.T) *Builder {
	t.Helper()
	fsys := fstest.MapFS{
		"FitchCR_11042025.csv":  {Data: []byte("period,rating,outlook\n2024Q1,BB,Estable\n2024Q2,BB+,Positiva\n")},
		"S&PCR_11042025.csv":    {Data: []byte("period,rating,outlook\n2023Q4,BB-,n.p\n2024Q1,BB-,Estable\n2024Q2,BB,Negativa\n")},
		"MoodysHN_11042025.csv": {Data: []byte("period,rating,outlook\n2024Q1,B1,Estable\n")},
		"S&PHN_11042025.csv":    {Data: []byte("period,rating,outlook\n2024Q1,BB-,Positiva\n")},
	}
	l, err := loader.New(source.NewFSStore(fsys, "mem"), loader.Config{BuildTag: tag, Format: "csv"}, zerolog.Nop())
	require.NoError(t, err)
	agg := region.New(l, 2, zerolog.Nop())
	return NewBuilder(l, agg, rating.DefaultCatalog(), tag, zerolog.Nop())
}

func doc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return d
}

// ── Cards ──

func TestToneFor(t *testing.T) {
	assert.Equal(t, ToneNeutral, ToneFor("Estable"))
	assert.Equal(t, ToneNegative, ToneFor("Negativa"))
	assert.Equal(t, TonePositive, ToneFor("Positiva"))
	assert.Equal(t, ToneMuted, ToneFor("n.p"))
	assert.Equal(t, ToneMuted, ToneFor("Watch"))
}

func TestCountryReportCR(t *testing.T) {
	b := newBuilder(t)
	v, err := b.CountryReport(context.Background(), "Costa Rica")
	require.NoError(t, err)

	assert.Equal(t, "CR", v.Country.Code)
	require.Len(t, v.Cards, 3)
	require.Len(t, v.Panels, 3)

	fitch := v.Cards[0]
	assert.Equal(t, models.AgencyFitch, fitch.Agency)
	assert.Equal(t, "BB+", fitch.Value)
	assert.Equal(t, "Positiva", fitch.Delta)
	assert.Equal(t, TonePositive, fitch.Tone)
	assert.Equal(t, "2024Q2", fitch.Period)

	moodys := v.Cards[1]
	assert.Equal(t, "N/A", moodys.Value)
	assert.Equal(t, region.StatusUnavailable, moodys.Status)
	assert.Equal(t, "missing", moodys.Reason)
	assert.False(t, v.Panels[1].Available)

	sp := v.Cards[2]
	assert.Equal(t, "BB", sp.Value)
	assert.Equal(t, ToneNegative, sp.Tone)

	assert.Contains(t, v.Caption, "Fitch, Moody's and S&P")
	assert.Contains(t, v.Caption, "11 Apr 2025")
}

func TestCountryReportHonduras(t *testing.T) {
	v, err := newBuilder(t).CountryReport(context.Background(), "hn")
	require.NoError(t, err)

	require.Len(t, v.Cards, 3)
	assert.Equal(t, "Not rated", v.Cards[0].Value)
	assert.Equal(t, region.StatusNotCovered, v.Cards[0].Status)
	assert.Equal(t, "B1", v.Cards[1].Value)
	assert.Len(t, v.Panels, 2)
}

func TestCountryReportUnknown(t *testing.T) {
	_, err := newBuilder(t).CountryReport(context.Background(), "Atlantis")
	var uc *UnknownCountryError
	require.ErrorAs(t, err, &uc)
	assert.Equal(t, "Atlantis", uc.Query)
}

// ── Charts ──

func series(agency models.Agency, rows ...[3]string) *models.Series {
	s := &models.Series{Agency: agency, Country: "CR"}
	scale := rating.ScaleFor(agency)
	for _, r := range rows {
		o := models.Observation{Period: r[0], Rating: r[1], Outlook: r[2]}
		if rank, ok := scale.Rank(r[1]); ok {
			o.RatingRank = &rank
		}
		out := rating.OutlookValue(r[2])
		o.OutlookRank = out.Ptr()
		o.OutlookStatus = out.Status
		s.Observations = append(s.Observations, o)
	}
	return s
}

func TestRatingChart(t *testing.T) {
	s := series(models.AgencyFitch,
		[3]string{"2024Q1", "BB", "Estable"},
		[3]string{"2024Q2", "XX", "Estable"},
		[3]string{"2024Q3", "BB+", "Positiva"},
	)
	svg := RatingChart(s, ChartConfig{})

	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.Equal(t, 2, strings.Count(svg, `class="marker"`))
	assert.Contains(t, svg, "Fitch: Rating")
	assert.Contains(t, svg, ">AAA<")
	assert.Contains(t, svg, ">2024Q3<")
}

func TestOutlookChartDropsAbsent(t *testing.T) {
	s := series(models.AgencySP,
		[3]string{"2024Q1", "BB", "n.p"},
		[3]string{"2024Q2", "BB", "Estable"},
		[3]string{"2024Q3", "BB", "Positiva"},
	)
	svg := OutlookChart(s, ChartConfig{})
	assert.Equal(t, 2, strings.Count(svg, `class="marker"`))
	assert.Contains(t, svg, ">Negativa<")
	assert.Contains(t, svg, " H") // step segments

	only := series(models.AgencySP, [3]string{"2024Q1", "BB", "n.p"})
	assert.Contains(t, OutlookChart(only, ChartConfig{}), "No outlook published")
}

func TestChartsEmpty(t *testing.T) {
	assert.Contains(t, RatingChart(nil, ChartConfig{}), "No data")
	assert.Contains(t, OutlookChart(&models.Series{}, ChartConfig{}), "No data")
	assert.Contains(t, Heatmap(region.Matrix{}, ChartConfig{}), "No data")
}

func TestHeatColor(t *testing.T) {
	assert.Equal(t, "#d73027", heatColor(0))
	assert.Equal(t, "#fee08b", heatColor(0.5))
	assert.Equal(t, "#1a9850", heatColor(1))
	assert.Equal(t, "#1a9850", heatColor(3))
}

func TestEscapeXML(t *testing.T) {
	assert.Equal(t, "S&amp;P &lt;b&gt; &quot;x&quot;", escapeXML(`S&P <b> "x"`))
}

// ── Pages ──

func TestCountryPage(t *testing.T) {
	b := newBuilder(t)
	v, err := b.CountryReport(context.Background(), "CR")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, CountryPage(&buf, v, b.Catalog().Countries(), ServerLinks))
	d := doc(t, buf.String())

	assert.Equal(t, 3, d.Find(".card").Length())
	assert.Equal(t, "BB+", strings.TrimSpace(d.Find(`.card[data-agency="Fitch"] .value`).Text()))
	assert.Equal(t, "N/A", strings.TrimSpace(d.Find(`.card[data-agency="Moodys"] .value`).Text()))
	assert.True(t, d.Find(`.card[data-agency="Fitch"]`).HasClass("positive"))
	assert.Equal(t, 4, d.Find(".panel svg").Length())
	assert.Equal(t, 3, d.Find(`.panel[data-agency="S&P"] table.history tbody tr`).Length())
	assert.Equal(t, "/countries/cr", d.Find("nav.countries a.active").AttrOr("href", ""))
	assert.Contains(t, d.Find("footer .caption").Text(), "as of 11 Apr 2025")
	assert.Equal(t, "/static/style.css", d.Find(`link[rel="stylesheet"]`).AttrOr("href", ""))
}

func TestRegionPage(t *testing.T) {
	b := newBuilder(t)
	v := b.RegionReport(context.Background())

	var buf bytes.Buffer
	require.NoError(t, RegionPage(&buf, v, b.Catalog().Countries(), StaticLinks))
	d := doc(t, buf.String())

	rows := d.Find("table.letters tbody tr")
	assert.Equal(t, 7, rows.Length())
	first := rows.First().Find("td")
	assert.Equal(t, "Costa Rica", first.Eq(0).Text())
	assert.Equal(t, "BB+ (Positiva)", first.Eq(1).Text())
	assert.Equal(t, "N/A", first.Eq(2).Text())
	assert.Equal(t, "cr.html", rows.First().Find("a").AttrOr("href", ""))
	assert.Equal(t, 1, d.Find(".heatmap svg").Length())
	assert.Equal(t, 21, d.Find(".heatmap rect.cell").Length())
}

// ── Export ──

func TestExport(t *testing.T) {
	b := newBuilder(t)
	dir := filepath.Join(t.TempDir(), "site")

	res, err := b.Export(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, res.Files, 10)

	for _, name := range []string{"index.html", "cr.html", "do.html", "matrix.json", "static/style.css"} {
		_, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name)))
		assert.NoError(t, err, name)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "matrix.json"))
	require.NoError(t, err)
	var m struct {
		BuildTag string `json:"build_tag"`
		Cells    []struct {
			Country string `json:"country"`
			Agency  string `json:"agency"`
			Status  string `json:"status"`
			Text    string `json:"text"`
		} `json:"cells"`
	}
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, tag, m.BuildTag)
	assert.Len(t, m.Cells, 21)
	assert.Equal(t, "BB+ (Positiva)", m.Cells[0].Text)
}

// ── Text ──

func TestCountryText(t *testing.T) {
	v, err := newBuilder(t).CountryReport(context.Background(), "HN")
	require.NoError(t, err)
	out := CountryText(v)
	assert.Contains(t, out, "Honduras (HN)")
	assert.Contains(t, out, "Not rated")
	assert.Contains(t, out, "B1")
}

func TestMatrixText(t *testing.T) {
	v := newBuilder(t).RegionReport(context.Background())
	letters := MatrixText(v.Matrix, true)
	assert.Contains(t, letters, "BB+ (Positiva)")
	ranks := MatrixText(v.Matrix, false)
	assert.Contains(t, ranks, "12")
	assert.NotContains(t, ranks, "Positiva")
}

func TestScalesText(t *testing.T) {
	out := ScalesText()
	assert.Contains(t, out, "22  AAA")
	assert.Contains(t, out, "21  Aaa")
	assert.Contains(t, out, "n.p")
}
