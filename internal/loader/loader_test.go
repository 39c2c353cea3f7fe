package loader

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/sovwatch/internal/source"
	"github.com/seenimoa/sovwatch/pkg/models"
)

const tag = "11042025"

// countingStore wraps a store and counts Open calls per name.
type countingStore struct {
	source.Store
	mu    sync.Mutex
	opens map[string]int
	delay time.Duration
	fail  map[string]error
}

func newCountingStore(files map[string]string) *countingStore {
	fsys := fstest.MapFS{}
	for name, body := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(body)}
	}
	return &countingStore{
		Store: source.NewFSStore(fsys, "fixtures"),
		opens: make(map[string]int),
		fail:  make(map[string]error),
	}
}

func (s *countingStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	s.mu.Lock()
	s.opens[name]++
	err := s.fail[name]
	s.mu.Unlock()
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if err != nil {
		return nil, err
	}
	return s.Store.Open(ctx, name)
}

func (s *countingStore) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens[name]
}

func fixtureStore() *countingStore {
	s := newCountingStore(map[string]string{
		"FitchCR_" + tag + ".csv":  "period,rating,outlook\n2024Q1,BB,Estable\n2024Q2,BB+,Positiva\n",
		"S&PCR_" + tag + ".csv":    "Fecha,Calificación,Perspectiva\n2023-12-31,BB-,n.p\n2024-06-30,BB,Estable\n",
		"MoodysCR_" + tag + ".csv": "period,rating,outlook\n2024Q1,Ba3,Watch\n2024Q2,Ba9,Estable\n",
		"FitchGT_" + tag + ".csv":  "period,rating\n2024Q1,BB\n",
		"FitchSV_" + tag + ".csv":  "period,rating,outlook\nsometime,B-,Estable\n",
	})
	s.fail["MoodysNI_"+tag+".csv"] = errors.New("connection reset by peer")
	return s
}

func newTestLoader(t *testing.T, store source.Store) *Loader {
	t.Helper()
	l, err := New(store, Config{BuildTag: tag, Format: "csv"}, zerolog.Nop())
	require.NoError(t, err)
	return l
}

// ── Load ──

func TestLoadFitchCR(t *testing.T) {
	l := newTestLoader(t, fixtureStore())

	s, err := l.Load(context.Background(), models.AgencyFitch, "CR")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024Q1", "2024Q2"}, s.Periods())
	assert.Equal(t, tag, s.BuildTag)
	assert.Equal(t, "fixtures/FitchCR_11042025.csv", s.Source)

	last, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, "BB+", last.Rating)
	require.NotNil(t, last.RatingRank)
	assert.Equal(t, 12, *last.RatingRank)
	assert.Equal(t, "Positiva", last.Outlook)
	require.NotNil(t, last.OutlookRank)
	assert.Equal(t, 2, *last.OutlookRank)
	assert.Equal(t, models.OutlookKnown, last.OutlookStatus)
}

func TestLoadNormalizesPeriodsAndNotProvided(t *testing.T) {
	l := newTestLoader(t, fixtureStore())

	s, err := l.Load(context.Background(), models.AgencySP, "cr")
	require.NoError(t, err)
	assert.Equal(t, "CR", s.Country)
	assert.Equal(t, []string{"2023Q4", "2024Q2"}, s.Periods())
	assert.Nil(t, s.Observations[0].OutlookRank)
	assert.Equal(t, models.OutlookNotProvided, s.Observations[0].OutlookStatus)
	require.NotNil(t, s.Observations[0].RatingRank)
	assert.Equal(t, 10, *s.Observations[0].RatingRank)
}

func TestLoadUnmappedTokensKeepSeries(t *testing.T) {
	l := newTestLoader(t, fixtureStore())

	s, err := l.Load(context.Background(), models.AgencyMoodys, "CR")
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	assert.NotNil(t, s.Observations[0].RatingRank)
	assert.Nil(t, s.Observations[0].OutlookRank)
	assert.Equal(t, models.OutlookUnrecognized, s.Observations[0].OutlookStatus)
	assert.Nil(t, s.Observations[1].RatingRank)
	assert.Equal(t, "Ba9", s.Observations[1].Rating)
}

func TestLoadFailures(t *testing.T) {
	tests := []struct {
		name   string
		agency models.Agency
		code   string
		reason Reason
	}{
		{"absent file", models.AgencyFitch, "HN", ReasonMissing},
		{"store outage", models.AgencyMoodys, "NI", ReasonUnreachable},
		{"missing column", models.AgencyFitch, "GT", ReasonMalformed},
		{"bad period", models.AgencyFitch, "SV", ReasonMalformed},
		{"unknown agency", models.Agency("DBRS"), "CR", ReasonMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLoader(t, fixtureStore())
			var (
				s   *models.Series
				err error
			)
			assert.NotPanics(t, func() {
				s, err = l.Load(context.Background(), tt.agency, tt.code)
			})
			assert.Nil(t, s)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNotAvailable)
			assert.True(t, IsUnavailable(err))
			assert.Equal(t, tt.reason, ReasonOf(err))
		})
	}
}

// ── Caching ──

func TestLoadIdempotent(t *testing.T) {
	store := fixtureStore()
	l := newTestLoader(t, store)
	ctx := context.Background()

	first, err := l.Load(ctx, models.AgencyFitch, "CR")
	require.NoError(t, err)
	second, err := l.Load(ctx, models.AgencyFitch, "CR")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.count("FitchCR_"+tag+".csv"))

	// Mutating a returned series does not leak into the cache.
	*first.Observations[0].RatingRank = 99
	third, err := l.Load(ctx, models.AgencyFitch, "CR")
	require.NoError(t, err)
	assert.Equal(t, 11, *third.Observations[0].RatingRank)
}

func TestLoadCachesFailures(t *testing.T) {
	store := fixtureStore()
	l := newTestLoader(t, store)
	ctx := context.Background()

	for range 3 {
		_, err := l.Load(ctx, models.AgencyMoodys, "NI")
		assert.Equal(t, ReasonUnreachable, ReasonOf(err))
	}
	assert.Equal(t, 1, store.count("MoodysNI_"+tag+".csv"))
	assert.Equal(t, StateUnavailable, l.State(models.AgencyMoodys, "NI"))
}

func TestLoadConcurrentSingleFlight(t *testing.T) {
	store := fixtureStore()
	store.delay = 30 * time.Millisecond
	l := newTestLoader(t, store)

	var wg sync.WaitGroup
	var ok atomic.Int32
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Load(context.Background(), models.AgencyFitch, "CR"); err == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), ok.Load())
	assert.Equal(t, 1, store.count("FitchCR_"+tag+".csv"))
}

func TestLoadCanceledNotCached(t *testing.T) {
	store := fixtureStore()
	store.delay = 50 * time.Millisecond
	l := newTestLoader(t, store)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, err := l.Load(ctx, models.AgencyFitch, "CR")
	assert.Equal(t, ReasonCanceled, ReasonOf(err))

	// The shared load still completes and is cached for later callers.
	s, err := l.Load(context.Background(), models.AgencyFitch, "CR")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 1, store.count("FitchCR_"+tag+".csv"))
}

// ── States & events ──

func TestStatesAndSnapshot(t *testing.T) {
	l := newTestLoader(t, fixtureStore())
	ctx := context.Background()

	var events []Event
	var mu sync.Mutex
	l.OnLoad(func(e Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	assert.Equal(t, StateUnrequested, l.State(models.AgencyFitch, "CR"))
	_, _ = l.Load(ctx, models.AgencyFitch, "CR")
	_, _ = l.Load(ctx, models.AgencyFitch, "CR")
	_, _ = l.Load(ctx, models.AgencyFitch, "HN")

	assert.Equal(t, StateAvailable, l.State(models.AgencyFitch, "cr"))
	assert.Equal(t, StateUnavailable, l.State(models.AgencyFitch, "HN"))

	snap := l.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "CR", snap[0].Country)
	assert.Equal(t, StateAvailable, snap[0].State)
	assert.Equal(t, 2, snap[0].Observations)
	assert.Equal(t, "HN", snap[1].Country)
	assert.Equal(t, ReasonMissing, snap[1].Reason)
	assert.NotEmpty(t, snap[1].Error)

	counts := l.Counts()
	assert.Equal(t, 1, counts[StateAvailable])
	assert.Equal(t, 1, counts[StateUnavailable])

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)
	assert.Equal(t, StateAvailable, events[0].State)
	assert.Equal(t, ReasonMissing, events[1].Reason)
}

func TestNewValidates(t *testing.T) {
	store := fixtureStore()
	_, err := New(nil, Config{BuildTag: tag, Format: "csv"}, zerolog.Nop())
	assert.Error(t, err)
	_, err = New(store, Config{Format: "csv"}, zerolog.Nop())
	assert.Error(t, err)
	_, err = New(store, Config{BuildTag: tag, Format: "pdf"}, zerolog.Nop())
	assert.Error(t, err)
}
