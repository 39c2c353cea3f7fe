package models

import (
	"encoding/json"
	"testing"
)

// ── Agency Tests ──

func TestParseAgency(t *testing.T) {
	tests := []struct {
		in      string
		want    Agency
		wantErr bool
	}{
		{"Fitch", AgencyFitch, false},
		{" fitch ratings ", AgencyFitch, false},
		{"Moody's", AgencyMoodys, false},
		{"MOODYS", AgencyMoodys, false},
		{"S&P", AgencySP, false},
		{"sp", AgencySP, false},
		{"Standard & Poor's", AgencySP, false},
		{"DBRS", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseAgency(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAgency(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAgency(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAgencyNames(t *testing.T) {
	tests := []struct {
		a       Agency
		display string
		slug    string
	}{
		{AgencyFitch, "Fitch", "fitch"},
		{AgencyMoodys, "Moody's", "moodys"},
		{AgencySP, "S&P", "sp"},
	}
	for _, tt := range tests {
		if got := tt.a.DisplayName(); got != tt.display {
			t.Errorf("%s.DisplayName() = %q, want %q", tt.a, got, tt.display)
		}
		if got := tt.a.Slug(); got != tt.slug {
			t.Errorf("%s.Slug() = %q, want %q", tt.a, got, tt.slug)
		}
		if !tt.a.Valid() {
			t.Errorf("%s should be valid", tt.a)
		}
	}
	if Agency("DBRS").Valid() {
		t.Error("DBRS should not be valid")
	}
	if len(AllAgencies()) != 3 {
		t.Errorf("AllAgencies() = %v", AllAgencies())
	}
}

// ── Country Tests ──

func TestCountryCovers(t *testing.T) {
	hn := Country{Name: "Honduras", Code: "HN", Agencies: []Agency{AgencyMoodys, AgencySP}}
	if hn.Covers(AgencyFitch) {
		t.Error("Honduras should not be covered by Fitch")
	}
	if !hn.Covers(AgencySP) {
		t.Error("Honduras should be covered by S&P")
	}
}

// ── Series Tests ──

func intPtr(v int) *int { return &v }

func TestSeriesLatest(t *testing.T) {
	var empty *Series
	if _, ok := empty.Latest(); ok {
		t.Error("nil series should have no latest observation")
	}

	s := &Series{
		Agency:  AgencyFitch,
		Country: "CR",
		Observations: []Observation{
			{Period: "2024Q1", Rating: "BB", RatingRank: intPtr(11)},
			{Period: "2024Q2", Rating: "BB+", RatingRank: intPtr(12)},
		},
	}
	last, ok := s.Latest()
	if !ok || last.Rating != "BB+" {
		t.Errorf("Latest() = %+v, %v", last, ok)
	}
	if got := s.Periods(); len(got) != 2 || got[0] != "2024Q1" {
		t.Errorf("Periods() = %v", got)
	}
}

func TestSeriesCloneIsDeep(t *testing.T) {
	s := &Series{Observations: []Observation{
		{Period: "2024Q1", Rating: "Ba1", RatingRank: intPtr(11), OutlookRank: intPtr(1)},
	}}
	cp := s.Clone()
	*cp.Observations[0].RatingRank = 99
	cp.Observations[0].Rating = "C"

	if *s.Observations[0].RatingRank != 11 || s.Observations[0].Rating != "Ba1" {
		t.Error("Clone shares state with the original")
	}
	if (*Series)(nil).Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}

func TestObservationJSONNullRanks(t *testing.T) {
	o := Observation{Period: "2024Q1", Rating: "Ba9", Outlook: "n.p", OutlookStatus: OutlookNotProvided}
	data, err := json.Marshal(o)
	if err != nil {
		t.Fatalf("json.Marshal(Observation) error: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal error: %v", err)
	}
	if decoded["rating_rank"] != nil || decoded["outlook_rank"] != nil {
		t.Errorf("absent ranks should encode as null: %s", data)
	}
	if decoded["outlook_status"] != "not_provided" {
		t.Errorf("outlook_status = %v", decoded["outlook_status"])
	}
}
