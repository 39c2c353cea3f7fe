// Package report assembles the country and regional dashboards from loaded
// rating series: metric cards, SVG charts, letter tables and the static site
// export.
package report

import (
	"context"
	"fmt"
	"html/template"

	"github.com/rs/zerolog"

	"github.com/seenimoa/sovwatch/internal/loader"
	"github.com/seenimoa/sovwatch/internal/rating"
	"github.com/seenimoa/sovwatch/internal/region"
	"github.com/seenimoa/sovwatch/pkg/models"
	"github.com/seenimoa/sovwatch/pkg/utils"
)

// Tone drives the colour of a card's outlook line.
type Tone string

const (
	ToneNeutral  Tone = "neutral"
	ToneNegative Tone = "negative" // shown with the inverse delta colour
	TonePositive Tone = "positive"
	ToneMuted    Tone = "muted"
)

// ToneFor maps the latest outlook to a card tone.
func ToneFor(outlook string) Tone {
	o := rating.OutlookValue(outlook)
	if !o.Known() {
		return ToneMuted
	}
	switch o.Value {
	case 0:
		return ToneNegative
	case 2:
		return TonePositive
	default:
		return ToneNeutral
	}
}

// Card is the "latest rating" metric of one agency for a country.
type Card struct {
	Agency models.Agency `json:"agency"`
	Label  string        `json:"label"`
	Value  string        `json:"value"` // rating letter, "Not rated" or "N/A"
	Delta  string        `json:"delta,omitempty"`
	Tone   Tone          `json:"tone"`
	Period string        `json:"period,omitempty"`
	Status region.Status `json:"status"`
	Reason string        `json:"reason,omitempty"`
}

// HistoryRow is one line of the history table.
type HistoryRow struct {
	Period  string `json:"period"`
	Rating  string `json:"rating"`
	Outlook string `json:"outlook"`
	OnScale bool   `json:"on_scale"`
}

// Panel holds the charts and history of one covered agency.
type Panel struct {
	Agency     models.Agency  `json:"agency"`
	Available  bool           `json:"available"`
	Reason     string         `json:"reason,omitempty"`
	Series     *models.Series `json:"series,omitempty"`
	History    []HistoryRow   `json:"history,omitempty"`
	RatingSVG  template.HTML  `json:"-"`
	OutlookSVG template.HTML  `json:"-"`
}

// CountryView is the per-country dashboard.
type CountryView struct {
	Country  models.Country `json:"country"`
	Cards    []Card         `json:"cards"`
	Panels   []Panel        `json:"panels"`
	BuildTag string         `json:"build_tag"`
	Caption  string         `json:"caption"`
}

// RegionView is the regional comparison dashboard.
type RegionView struct {
	Matrix     region.Matrix       `json:"matrix"`
	Letters    region.LetterMatrix `json:"letters"`
	BuildTag   string              `json:"build_tag"`
	Caption    string              `json:"caption"`
	HeatmapSVG template.HTML       `json:"-"`
}

// UnknownCountryError is returned for a country outside the catalog.
type UnknownCountryError struct {
	Query string
}

func (e *UnknownCountryError) Error() string {
	return fmt.Sprintf("unknown country %q", e.Query)
}

// Caption is the source line printed under every dashboard.
func Caption(buildTag string) string {
	return fmt.Sprintf("Source: own elaboration based on Fitch, Moody's and S&P reports as of %s.",
		utils.FormatBuildTag(buildTag))
}

// Builder renders views from the loader and the aggregator.
type Builder struct {
	loader   region.SeriesLoader
	agg      *region.Aggregator
	catalog  *rating.Catalog
	buildTag string
	log      zerolog.Logger
}

// NewBuilder creates a report builder.
func NewBuilder(l region.SeriesLoader, agg *region.Aggregator, catalog *rating.Catalog, buildTag string, log zerolog.Logger) *Builder {
	return &Builder{
		loader:   l,
		agg:      agg,
		catalog:  catalog,
		buildTag: buildTag,
		log:      log.With().Str("component", "report").Logger(),
	}
}

// Catalog returns the country catalog the builder reports on.
func (b *Builder) Catalog() *rating.Catalog { return b.catalog }

// CountryReport builds the dashboard of one country. Every agency gets a
// card: uncovered agencies read "Not rated" and failed loads read "N/A".
func (b *Builder) CountryReport(ctx context.Context, codeOrName string) (*CountryView, error) {
	country, ok := b.catalog.Lookup(codeOrName)
	if !ok {
		return nil, &UnknownCountryError{Query: codeOrName}
	}

	v := &CountryView{
		Country:  country,
		BuildTag: b.buildTag,
		Caption:  Caption(b.buildTag),
	}
	for _, agency := range models.AllAgencies() {
		if !country.Covers(agency) {
			v.Cards = append(v.Cards, NotCoveredCard(agency))
			continue
		}
		s, err := b.loader.Load(ctx, agency, country.Code)
		v.Cards = append(v.Cards, CardFor(agency, s, err))
		v.Panels = append(v.Panels, panelFor(agency, s, err))
	}
	return v, nil
}

// NotCoveredCard is the card of an agency that does not rate the country.
func NotCoveredCard(agency models.Agency) Card {
	return Card{
		Agency: agency,
		Label:  "Latest " + agency.DisplayName(),
		Value:  utils.NotRated,
		Tone:   ToneMuted,
		Status: region.StatusNotCovered,
	}
}

// CardFor builds the card of a covered agency from a load result.
func CardFor(agency models.Agency, s *models.Series, err error) Card {
	c := Card{
		Agency: agency,
		Label:  "Latest " + agency.DisplayName(),
		Value:  utils.NotAvailable,
		Tone:   ToneMuted,
		Status: region.StatusUnavailable,
	}
	if err != nil {
		c.Reason = string(loader.ReasonOf(err))
		return c
	}
	last, ok := s.Latest()
	if !ok || last.Rating == "" {
		return c
	}
	c.Value = last.Rating
	c.Delta = last.Outlook
	c.Tone = ToneFor(last.Outlook)
	c.Period = last.Period
	c.Status = region.StatusOK
	return c
}

func panelFor(agency models.Agency, s *models.Series, err error) Panel {
	p := Panel{Agency: agency}
	if err != nil {
		p.Reason = string(loader.ReasonOf(err))
		return p
	}
	p.Available = true
	p.Series = s
	p.RatingSVG = template.HTML(RatingChart(s, ChartConfig{}))
	p.OutlookSVG = template.HTML(OutlookChart(s, ChartConfig{}))
	for _, o := range s.Observations {
		p.History = append(p.History, HistoryRow{
			Period:  o.Period,
			Rating:  o.Rating,
			Outlook: o.Outlook,
			OnScale: o.RatingRank != nil,
		})
	}
	return p
}

// RegionReport builds the regional heatmap and letter table.
func (b *Builder) RegionReport(ctx context.Context) *RegionView {
	m := b.agg.BuildMatrix(ctx, b.catalog)
	return &RegionView{
		Matrix:     m,
		Letters:    region.Letters(m),
		BuildTag:   b.buildTag,
		Caption:    Caption(b.buildTag),
		HeatmapSVG: template.HTML(Heatmap(m, ChartConfig{})),
	}
}
