package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seenimoa/sovwatch/internal/loader"
	"github.com/seenimoa/sovwatch/internal/rating"
	"github.com/seenimoa/sovwatch/internal/report"
	"github.com/seenimoa/sovwatch/pkg/models"
)

// ── Health ──

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"status":    "ok",
			"version":   Version,
			"build_tag": s.loader.BuildTag(),
			"store":     s.loader.Store().Info().Kind,
			"uptime":    time.Since(s.started).Round(time.Second).String(),
			"time":      time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// ── Catalog ──

// countryInfo is a catalog entry annotated with the cache state of each
// covered agency.
type countryInfo struct {
	models.Country
	States map[models.Agency]loader.State `json:"states"`
}

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	countries := s.catalog.Countries()
	out := make([]countryInfo, 0, len(countries))
	for _, c := range countries {
		info := countryInfo{Country: c, States: make(map[models.Agency]loader.State, len(c.Agencies))}
		for _, a := range c.Agencies {
			info.States[a] = s.loader.State(a, c.Code)
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: out})
}

func (s *Server) handleCountry(w http.ResponseWriter, r *http.Request) {
	v, err := s.reports.CountryReport(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.writeReportError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: v})
}

// seriesResponse is the body of the per-agency endpoint. A failed load is
// still a 200: unavailability is data, not a server error.
type seriesResponse struct {
	Agency    models.Agency  `json:"agency"`
	Country   string         `json:"country"`
	Available bool           `json:"available"`
	Reason    loader.Reason  `json:"reason,omitempty"`
	Address   string         `json:"address"`
	Series    *models.Series `json:"series,omitempty"`
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	country, ok := s.catalog.Lookup(chi.URLParam(r, "code"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown country: "+chi.URLParam(r, "code"))
		return
	}
	agency, err := models.ParseAgency(chi.URLParam(r, "agency"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !country.Covers(agency) {
		writeError(w, http.StatusNotFound, "not_covered: "+agency.DisplayName()+" does not rate "+country.Name)
		return
	}

	resp := seriesResponse{
		Agency:  agency,
		Country: country.Code,
		Address: s.loader.Address(agency, country.Code),
	}
	series, err := s.loader.Load(r.Context(), agency, country.Code)
	switch {
	case err == nil:
		resp.Available = true
		resp.Series = series
	case loader.ReasonOf(err) == loader.ReasonCanceled:
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	default:
		resp.Reason = loader.ReasonOf(err)
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: resp})
}

// ── Scales ──

func (s *Server) handleScales(w http.ResponseWriter, r *http.Request) {
	outlooks := make(map[string]int)
	for _, label := range rating.OutlookLabels() {
		outlooks[label] = rating.OutlookValue(label).Value
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"fitch_sp":     rating.ScaleFor(models.AgencyFitch).Grades(),
			"moodys":       rating.ScaleFor(models.AgencyMoodys).Grades(),
			"outlook":      outlooks,
			"not_provided": rating.OutlookNotProvided,
		},
	})
}

// ── Matrices ──

func (s *Server) handleMatrix(w http.ResponseWriter, r *http.Request) {
	m := s.agg.BuildMatrix(r.Context(), s.catalog)
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: m})
}

func (s *Server) handleLetterMatrix(w http.ResponseWriter, r *http.Request) {
	m := s.agg.BuildLetterMatrix(r.Context(), s.catalog)
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: m})
}

// ── Status ──

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	store := map[string]any{
		"info":      s.loader.Store().Info(),
		"reachable": true,
	}
	if err := s.loader.Store().Ping(ctx); err != nil {
		store["reachable"] = false
		store["error"] = err.Error()
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"build_tag":  s.loader.BuildTag(),
			"store":      store,
			"counts":     s.loader.Counts(),
			"entries":    s.loader.Snapshot(),
			"ws_clients": s.wsHub.ClientCount(),
		},
	})
}

// ── HTML pages ──

func (s *Server) handleRegionPage(w http.ResponseWriter, r *http.Request) {
	v := s.reports.RegionReport(r.Context())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.RegionPage(w, v, s.catalog.Countries(), report.ServerLinks); err != nil {
		s.log.Error().Err(err).Msg("render region page")
	}
}

func (s *Server) handleCountryPage(w http.ResponseWriter, r *http.Request) {
	v, err := s.reports.CountryReport(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		var unknown *report.UnknownCountryError
		if errors.As(err, &unknown) {
			http.Error(w, "unknown country: "+strings.ToUpper(unknown.Query), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.CountryPage(w, v, s.catalog.Countries(), report.ServerLinks); err != nil {
		s.log.Error().Err(err).Str("country", v.Country.Code).Msg("render country page")
	}
}

func (s *Server) writeReportError(w http.ResponseWriter, err error) {
	var unknown *report.UnknownCountryError
	if errors.As(err, &unknown) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.log.Error().Err(err).Msg("build report")
	writeError(w, http.StatusInternalServerError, err.Error())
}
