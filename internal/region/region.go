// Package region builds the country × agency comparison matrices shown on the
// regional dashboard.
package region

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/sovwatch/internal/loader"
	"github.com/seenimoa/sovwatch/internal/rating"
	"github.com/seenimoa/sovwatch/pkg/models"
	"github.com/seenimoa/sovwatch/pkg/utils"
)

// DefaultConcurrency is the number of loads run at once.
const DefaultConcurrency = 4

// Status of one matrix cell.
type Status string

const (
	StatusOK          Status = "ok"
	StatusNotCovered  Status = "not_covered"
	StatusUnavailable Status = "unavailable"
)

// SeriesLoader is the subset of *loader.Loader the aggregator needs.
type SeriesLoader interface {
	Load(ctx context.Context, agency models.Agency, code string) (*models.Series, error)
}

// Cell is one country × agency entry.
type Cell struct {
	Country string        `json:"country"`
	Agency  models.Agency `json:"agency"`
	Status  Status        `json:"status"`
	Rank    *int          `json:"rank"` // latest rating rank; nil when absent or unmapped
	Rating  string        `json:"rating,omitempty"`
	Outlook string        `json:"outlook,omitempty"`
	Period  string        `json:"period,omitempty"`
	Reason  string        `json:"reason,omitempty"`
}

// Text returns the letter-table rendering of the cell.
func (c Cell) Text() string {
	if c.Status != StatusOK {
		return utils.NotAvailable
	}
	return utils.FormatRatingCell(c.Rating, c.Outlook)
}

// Matrix holds the latest rating rank per country and agency. Rows follow
// catalog order; columns follow models.AllAgencies.
type Matrix struct {
	Agencies  []models.Agency  `json:"agencies"`
	Countries []models.Country `json:"countries"`
	Cells     [][]Cell         `json:"cells"`
}

func (m Matrix) index(code string) int {
	for i, c := range m.Countries {
		if c.Code == code {
			return i
		}
	}
	return -1
}

func (m Matrix) agencyIndex(a models.Agency) int {
	for j, ag := range m.Agencies {
		if ag == a {
			return j
		}
	}
	return -1
}

// Cell returns the entry for a country code and agency.
func (m Matrix) Cell(code string, agency models.Agency) (Cell, bool) {
	i, j := m.index(code), m.agencyIndex(agency)
	if i < 0 || j < 0 {
		return Cell{}, false
	}
	return m.Cells[i][j], true
}

// Value returns the latest rank of a cell, false when the cell is absent.
func (m Matrix) Value(code string, agency models.Agency) (int, bool) {
	c, ok := m.Cell(code, agency)
	if !ok || c.Status != StatusOK || c.Rank == nil {
		return 0, false
	}
	return *c.Rank, true
}

// Absent counts cells without a value, for the whole matrix or, when codes
// are given, for those rows only.
func (m Matrix) Absent(codes ...string) int {
	n := 0
	for i, country := range m.Countries {
		if len(codes) > 0 && !contains(codes, country.Code) {
			continue
		}
		for j := range m.Agencies {
			c := m.Cells[i][j]
			if c.Status != StatusOK || c.Rank == nil {
				n++
			}
		}
	}
	return n
}

// LetterMatrix is the display-text companion of Matrix.
type LetterMatrix struct {
	Agencies  []models.Agency  `json:"agencies"`
	Countries []models.Country `json:"countries"`
	Rows      [][]string       `json:"rows"`
}

// Text returns the display text of a cell, or N/A for unknown coordinates.
func (m LetterMatrix) Text(code string, agency models.Agency) string {
	for i, c := range m.Countries {
		if c.Code != code {
			continue
		}
		for j, a := range m.Agencies {
			if a == agency {
				return m.Rows[i][j]
			}
		}
	}
	return utils.NotAvailable
}

// Aggregator builds matrices through a SeriesLoader.
type Aggregator struct {
	loader      SeriesLoader
	concurrency int
	log         zerolog.Logger
}

// New creates an aggregator. concurrency <= 0 uses DefaultConcurrency.
func New(l SeriesLoader, concurrency int, log zerolog.Logger) *Aggregator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Aggregator{
		loader:      l,
		concurrency: concurrency,
		log:         log.With().Str("component", "region").Logger(),
	}
}

// BuildMatrix loads every covered pair and returns the latest ranks.
// Uncovered pairs are never loaded. It never fails: load failures become
// unavailable cells.
func (a *Aggregator) BuildMatrix(ctx context.Context, catalog *rating.Catalog) Matrix {
	countries := catalog.Countries()
	agencies := models.AllAgencies()

	m := Matrix{
		Agencies:  agencies,
		Countries: countries,
		Cells:     make([][]Cell, len(countries)),
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(a.concurrency)

	for i, country := range countries {
		m.Cells[i] = make([]Cell, len(agencies))
		for j, agency := range agencies {
			m.Cells[i][j] = Cell{Country: country.Code, Agency: agency, Status: StatusNotCovered}
			if !country.Covers(agency) {
				continue
			}

			g.Go(func() error {
				cell := a.cell(ctx, country.Code, agency)
				mu.Lock()
				m.Cells[i][j] = cell
				mu.Unlock()
				return nil
			})
		}
	}
	// The closures record failures in the cells and never return an error.
	g.Wait()

	a.log.Debug().
		Int("countries", len(countries)).
		Int("absent", m.Absent()).
		Msg("matrix built")
	return m
}

func (a *Aggregator) cell(ctx context.Context, code string, agency models.Agency) Cell {
	c := Cell{Country: code, Agency: agency}
	s, err := a.loader.Load(ctx, agency, code)
	if err != nil {
		c.Status = StatusUnavailable
		c.Reason = string(loader.ReasonOf(err))
		if c.Reason == "" {
			c.Reason = err.Error()
		}
		return c
	}
	last, ok := s.Latest()
	if !ok {
		c.Status = StatusUnavailable
		c.Reason = string(loader.ReasonMalformed)
		return c
	}
	c.Status = StatusOK
	c.Rank = last.RatingRank
	c.Rating = last.Rating
	c.Outlook = last.Outlook
	c.Period = last.Period
	return c
}

// BuildLetterMatrix runs the same traversal as BuildMatrix and renders each
// cell as "<rating> (<outlook>)", or N/A when absent.
func (a *Aggregator) BuildLetterMatrix(ctx context.Context, catalog *rating.Catalog) LetterMatrix {
	return Letters(a.BuildMatrix(ctx, catalog))
}

// Letters converts a rank matrix to its letter table.
func Letters(m Matrix) LetterMatrix {
	lm := LetterMatrix{
		Agencies:  m.Agencies,
		Countries: m.Countries,
		Rows:      make([][]string, len(m.Cells)),
	}
	for i, row := range m.Cells {
		lm.Rows[i] = make([]string, len(row))
		for j, c := range row {
			lm.Rows[i][j] = c.Text()
		}
	}
	return lm
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
