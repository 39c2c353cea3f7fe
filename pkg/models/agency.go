package models

import (
	"fmt"
	"strings"
)

// Agency identifies a credit rating agency. The string value doubles as the
// file-name prefix of the agency's datasets in the source store.
type Agency string

const (
	AgencyFitch  Agency = "Fitch"
	AgencyMoodys Agency = "Moodys"
	AgencySP     Agency = "S&P"
)

// AllAgencies returns every known agency in display order.
func AllAgencies() []Agency {
	return []Agency{AgencyFitch, AgencyMoodys, AgencySP}
}

var agencyAliases = map[string]Agency{
	"fitch":              AgencyFitch,
	"fitch ratings":      AgencyFitch,
	"moodys":             AgencyMoodys,
	"moody's":            AgencyMoodys,
	"moody":              AgencyMoodys,
	"s&p":                AgencySP,
	"sp":                 AgencySP,
	"snp":                AgencySP,
	"s&p global":         AgencySP,
	"standard & poor's":  AgencySP,
	"standard and poors": AgencySP,
}

// ParseAgency resolves a user-supplied agency name (case-insensitive, common
// aliases accepted) to an Agency.
func ParseAgency(s string) (Agency, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if a, ok := agencyAliases[key]; ok {
		return a, nil
	}
	return "", fmt.Errorf("unknown agency %q", s)
}

// Valid reports whether a is one of the known agencies.
func (a Agency) Valid() bool {
	switch a {
	case AgencyFitch, AgencyMoodys, AgencySP:
		return true
	}
	return false
}

// DisplayName returns the agency name as printed on the dashboard.
func (a Agency) DisplayName() string {
	if a == AgencyMoodys {
		return "Moody's"
	}
	return string(a)
}

// Slug is a URL-safe identifier for the agency ("fitch", "moodys", "sp").
func (a Agency) Slug() string {
	if a == AgencySP {
		return "sp"
	}
	return strings.ToLower(string(a))
}

func (a Agency) String() string { return string(a) }
