package models

// Country is an entry of the country catalog.
type Country struct {
	Name     string   `json:"name"`
	Code     string   `json:"code"` // two-letter code, e.g. "CR"
	Agencies []Agency `json:"agencies"`
}

// Covers reports whether the agency publishes a rating for this country.
func (c Country) Covers(a Agency) bool {
	for _, ag := range c.Agencies {
		if ag == a {
			return true
		}
	}
	return false
}

// OutlookStatus tags how an outlook token was interpreted.
type OutlookStatus string

const (
	OutlookKnown        OutlookStatus = "known"
	OutlookNotProvided  OutlookStatus = "not_provided" // explicit "n.p" in the source
	OutlookUnrecognized OutlookStatus = "unrecognized"
)

// Observation is one row of a rating history.
type Observation struct {
	Period        string        `json:"period"` // "YYYYQn"
	Rating        string        `json:"rating"`
	RatingRank    *int          `json:"rating_rank"` // nil when the token is not in the agency scale
	Outlook       string        `json:"outlook"`
	OutlookRank   *int          `json:"outlook_rank"` // nil for "n.p" and unrecognized tokens
	OutlookStatus OutlookStatus `json:"outlook_status"`
}

// Series is the rating history of one (agency, country) pair, in source order.
type Series struct {
	Agency       Agency        `json:"agency"`
	Country      string        `json:"country"`
	BuildTag     string        `json:"build_tag"`
	Source       string        `json:"source"`
	Observations []Observation `json:"observations"`
}

// Len returns the number of observations.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Observations)
}

// Latest returns the last observation, which is the current rating.
func (s *Series) Latest() (Observation, bool) {
	if s.Len() == 0 {
		return Observation{}, false
	}
	return s.Observations[len(s.Observations)-1], true
}

// Periods returns the period labels in order.
func (s *Series) Periods() []string {
	out := make([]string, 0, s.Len())
	for _, o := range s.Observations {
		out = append(out, o.Period)
	}
	return out
}

// Clone returns a deep copy so cached series are never mutated through callers.
func (s *Series) Clone() *Series {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Observations = make([]Observation, len(s.Observations))
	for i, o := range s.Observations {
		cp.Observations[i] = o
		if o.RatingRank != nil {
			v := *o.RatingRank
			cp.Observations[i].RatingRank = &v
		}
		if o.OutlookRank != nil {
			v := *o.OutlookRank
			cp.Observations[i].OutlookRank = &v
		}
	}
	return &cp
}
