// Package loader retrieves, decodes and caches the rating history of each
// (agency, country) pair. A pair is fetched from the store at most once per
// Loader; failures are cached too and surface as *UnavailableError.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/sovwatch/internal/infra"
	"github.com/seenimoa/sovwatch/internal/rating"
	"github.com/seenimoa/sovwatch/internal/source"
	"github.com/seenimoa/sovwatch/internal/table"
	"github.com/seenimoa/sovwatch/pkg/models"
	"github.com/seenimoa/sovwatch/pkg/utils"
)

// DefaultMaxBytes caps the size of a single dataset.
const DefaultMaxBytes = 16 << 20

// State is the cache state of one (agency, country) pair.
type State string

const (
	StateUnrequested State = "unrequested"
	StateAvailable   State = "available"
	StateUnavailable State = "unavailable"
)

// Config holds the loader settings.
type Config struct {
	BuildTag string        // suffix of every dataset name, e.g. "11042025"
	Format   string        // file extension, selects the table decoder
	Timeout  time.Duration // bound on one shared load, 0 = none
	MaxBytes int64         // 0 = DefaultMaxBytes
}

// Event describes the population of one cache entry.
type Event struct {
	Agency       models.Agency `json:"agency"`
	Country      string        `json:"country"`
	State        State         `json:"state"`
	Reason       Reason        `json:"reason,omitempty"`
	Observations int           `json:"observations"`
	Address      string        `json:"address"`
	Duration     time.Duration `json:"duration"`
}

// outcome is what the cache stores per key: a series or the failure.
type outcome struct {
	series *models.Series
	err    *UnavailableError
	addr   string
}

// Loader is the country rating loader. It is safe for concurrent use.
type Loader struct {
	store   source.Store
	decoder table.Decoder
	cfg     Config
	log     zerolog.Logger
	cache   *infra.Cache[outcome]

	hookMu sync.RWMutex
	hooks  []func(Event)
}

// New creates a loader reading from store.
func New(store source.Store, cfg Config, log zerolog.Logger) (*Loader, error) {
	if store == nil {
		return nil, fmt.Errorf("loader: nil store")
	}
	if cfg.BuildTag == "" {
		return nil, fmt.Errorf("loader: build tag is required")
	}
	dec, err := table.ForFormat(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	cfg.Format = strings.ToLower(strings.TrimPrefix(cfg.Format, "."))
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	return &Loader{
		store:   store,
		decoder: dec,
		cfg:     cfg,
		log:     log.With().Str("component", "loader").Logger(),
		cache:   infra.NewCache[outcome](),
	}, nil
}

// BuildTag returns the data build tag this loader reads.
func (l *Loader) BuildTag() string { return l.cfg.BuildTag }

// Store returns the underlying store.
func (l *Loader) Store() source.Store { return l.store }

// OnLoad registers fn to be called once per populated entry, from the
// goroutine that performed the load.
func (l *Loader) OnLoad(fn func(Event)) {
	l.hookMu.Lock()
	l.hooks = append(l.hooks, fn)
	l.hookMu.Unlock()
}

func cacheKey(agency models.Agency, code string) string {
	return string(agency) + "/" + code
}

// Address returns the dataset name for a pair.
func (l *Loader) Address(agency models.Agency, code string) string {
	return source.Address(agency, code, l.cfg.BuildTag, l.cfg.Format)
}

// Load returns the rating history of a country from one agency. The result
// is cached for the lifetime of the Loader; the returned series is a copy.
// Every failure is an *UnavailableError.
func (l *Loader) Load(ctx context.Context, agency models.Agency, code string) (*models.Series, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !agency.Valid() {
		return nil, &UnavailableError{
			Agency: agency, Country: code, Reason: ReasonMissing,
			Err: fmt.Errorf("unknown agency %q", agency),
		}
	}

	out, err := l.cache.GetOrLoad(ctx, cacheKey(agency, code), func(ctx context.Context) (outcome, bool) {
		o := l.fetch(ctx, agency, code)
		return o, o.err == nil || o.err.Reason != ReasonCanceled
	})
	if err != nil {
		return nil, &UnavailableError{
			Agency: agency, Country: code, Address: l.Address(agency, code),
			Reason: ReasonCanceled, Err: err,
		}
	}
	if out.err != nil {
		return nil, out.err
	}
	return out.series.Clone(), nil
}

// fetch performs one retrieval and decode. It never panics on bad input.
func (l *Loader) fetch(ctx context.Context, agency models.Agency, code string) (o outcome) {
	start := time.Now()
	name := l.Address(agency, code)
	o.addr = source.Locate(l.store, name)

	defer func() {
		if r := recover(); r != nil {
			o.series = nil
			o.err = l.unavailable(agency, code, o.addr, ReasonMalformed, fmt.Errorf("decode panic: %v", r))
		}
		l.emit(agency, code, o, time.Since(start))
	}()

	if l.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.Timeout)
		defer cancel()
	}

	data, err := l.read(ctx, name)
	if err != nil {
		reason := ReasonUnreachable
		if source.IsNotFound(err) {
			reason = ReasonMissing
		}
		o.err = l.unavailable(agency, code, o.addr, reason, err)
		return o
	}

	tbl, err := l.decoder.Decode(bytes.NewReader(data))
	if err != nil {
		o.err = l.unavailable(agency, code, o.addr, ReasonMalformed, err)
		return o
	}

	series, err := buildSeries(agency, code, tbl)
	if err != nil {
		o.err = l.unavailable(agency, code, o.addr, ReasonMalformed, err)
		return o
	}
	series.BuildTag = l.cfg.BuildTag
	series.Source = o.addr
	o.series = series
	return o
}

func (l *Loader) read(ctx context.Context, name string) ([]byte, error) {
	rc, err := l.store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, l.cfg.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if int64(len(data)) > l.cfg.MaxBytes {
		return nil, fmt.Errorf("read %s: larger than %d bytes", name, l.cfg.MaxBytes)
	}
	return data, nil
}

func (l *Loader) unavailable(agency models.Agency, code, addr string, reason Reason, err error) *UnavailableError {
	return &UnavailableError{Agency: agency, Country: code, Address: addr, Reason: reason, Err: err}
}

// buildSeries normalizes periods and maps tokens through the agency scale.
// A row whose period cannot be read makes the whole table malformed; an
// unknown rating or outlook token only leaves that rank empty.
func buildSeries(agency models.Agency, code string, tbl *table.Table) (*models.Series, error) {
	scale := rating.ScaleFor(agency)
	obs := make([]models.Observation, 0, tbl.Len())
	for i, row := range tbl.Rows {
		period, err := utils.NormalizePeriod(row.Period)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		ob := models.Observation{
			Period:  period,
			Rating:  row.Rating,
			Outlook: row.Outlook,
		}
		if r, ok := scale.Rank(row.Rating); ok {
			ob.RatingRank = &r
		}
		out := rating.OutlookValue(row.Outlook)
		ob.OutlookRank = out.Ptr()
		ob.OutlookStatus = out.Status
		obs = append(obs, ob)
	}
	return &models.Series{Agency: agency, Country: code, Observations: obs}, nil
}

func (l *Loader) emit(agency models.Agency, code string, o outcome, took time.Duration) {
	ev := Event{Agency: agency, Country: code, Address: o.addr, Duration: took}
	if o.err != nil {
		ev.State = StateUnavailable
		ev.Reason = o.err.Reason
		l.log.Warn().
			Str("agency", string(agency)).
			Str("country", code).
			Str("reason", string(o.err.Reason)).
			Err(o.err.Err).
			Msg("series unavailable")
	} else {
		ev.State = StateAvailable
		ev.Observations = o.series.Len()
		unmapped := 0
		for _, ob := range o.series.Observations {
			if ob.RatingRank == nil {
				unmapped++
			}
		}
		evt := l.log.Info()
		if unmapped > 0 {
			evt = l.log.Warn().Int("unmapped_ratings", unmapped)
		}
		evt.Str("agency", string(agency)).
			Str("country", code).
			Int("observations", ev.Observations).
			Dur("took", took).
			Msg("series loaded")
	}

	l.hookMu.RLock()
	hooks := l.hooks
	l.hookMu.RUnlock()
	for _, fn := range hooks {
		fn(ev)
	}
}

// Entry is a populated cache entry as listed by Snapshot.
type Entry struct {
	Agency       models.Agency `json:"agency"`
	Country      string        `json:"country"`
	State        State         `json:"state"`
	Reason       Reason        `json:"reason,omitempty"`
	Error        string        `json:"error,omitempty"`
	Observations int           `json:"observations"`
	Address      string        `json:"address"`
	LoadedAt     time.Time     `json:"loaded_at"`
}

// State returns the cache state of a pair without triggering a load.
func (l *Loader) State(agency models.Agency, code string) State {
	o, ok := l.cache.Get(cacheKey(agency, strings.ToUpper(strings.TrimSpace(code))))
	switch {
	case !ok:
		return StateUnrequested
	case o.err != nil:
		return StateUnavailable
	default:
		return StateAvailable
	}
}

// Snapshot lists all populated entries sorted by agency then country.
func (l *Loader) Snapshot() []Entry {
	items := l.cache.Items()
	out := make([]Entry, 0, len(items))
	for _, it := range items {
		agency, code, _ := strings.Cut(it.Key, "/")
		e := Entry{
			Agency:   models.Agency(agency),
			Country:  code,
			Address:  it.Value.addr,
			LoadedAt: it.StoredAt,
		}
		if it.Value.err != nil {
			e.State = StateUnavailable
			e.Reason = it.Value.err.Reason
			if it.Value.err.Err != nil {
				e.Error = it.Value.err.Err.Error()
			}
		} else {
			e.State = StateAvailable
			e.Observations = it.Value.series.Len()
		}
		out = append(out, e)
	}
	return out
}

// Counts returns how many entries are in each state.
func (l *Loader) Counts() map[State]int {
	counts := map[State]int{StateAvailable: 0, StateUnavailable: 0}
	for _, e := range l.Snapshot() {
		counts[e.State]++
	}
	return counts
}

// IsUnavailable reports whether err came from Load.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrNotAvailable)
}
