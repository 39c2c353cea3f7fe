// Package rating holds the static ordinal tables that make agency rating
// letters and outlooks comparable, and the catalog of monitored countries.
package rating

import (
	"strings"

	"github.com/seenimoa/sovwatch/pkg/models"
)

// Scale is an ordinal bijection from rating letters to consecutive positive
// integers. A higher rank means lower credit risk.
type Scale struct {
	name   string
	tokens []string // ascending by rank; tokens[i] has rank i+1
	ranks  map[string]int
}

func newScale(name string, tokens ...string) *Scale {
	s := &Scale{
		name:   name,
		tokens: tokens,
		ranks:  make(map[string]int, len(tokens)),
	}
	for i, t := range tokens {
		if _, dup := s.ranks[t]; dup {
			panic("rating: duplicate token " + t + " in scale " + name)
		}
		s.ranks[t] = i + 1
	}
	return s
}

// Name identifies the scale ("fitch_sp" or "moodys").
func (s *Scale) Name() string { return s.name }

// Len returns the number of grades; it is also the highest rank.
func (s *Scale) Len() int { return len(s.tokens) }

// Rank returns the ordinal value of a rating letter. Surrounding whitespace is
// ignored; the comparison is otherwise exact.
func (s *Scale) Rank(token string) (int, bool) {
	r, ok := s.ranks[strings.TrimSpace(token)]
	return r, ok
}

// Token returns the rating letter for a rank.
func (s *Scale) Token(rank int) (string, bool) {
	if rank < 1 || rank > len(s.tokens) {
		return "", false
	}
	return s.tokens[rank-1], true
}

// Tokens returns the letters in ascending rank order.
func (s *Scale) Tokens() []string {
	out := make([]string, len(s.tokens))
	copy(out, s.tokens)
	return out
}

// Grade is a (token, rank) pair, used for chart axes and the scales endpoint.
type Grade struct {
	Token string `json:"token"`
	Rank  int    `json:"rank"`
}

// Grades returns the scale as ascending (token, rank) pairs.
func (s *Scale) Grades() []Grade {
	out := make([]Grade, len(s.tokens))
	for i, t := range s.tokens {
		out[i] = Grade{Token: t, Rank: i + 1}
	}
	return out
}

var (
	sharedScale = newScale("fitch_sp",
		"D", "C", "CC", "CCC-", "CCC", "CCC+", "B-", "B", "B+",
		"BB-", "BB", "BB+", "BBB-", "BBB", "BBB+", "A-",
		"A", "A+", "AA-", "AA", "AA+", "AAA",
	)

	moodysScale = newScale("moodys",
		"C", "Ca", "Caa3", "Caa2", "Caa1", "B3", "B2", "B1",
		"Ba3", "Ba2", "Ba1", "Baa3", "Baa2", "Baa1", "A3",
		"A2", "A1", "Aa3", "Aa2", "Aa1", "Aaa",
	)
)

// ScaleFor returns the scale an agency rates with. Moody's has its own
// vocabulary; every other agency shares the Fitch/S&P scale.
func ScaleFor(agency models.Agency) *Scale {
	if agency == models.AgencyMoodys {
		return moodysScale
	}
	return sharedScale
}
