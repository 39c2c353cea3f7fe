package rating

import (
	"strings"

	"github.com/seenimoa/sovwatch/pkg/models"
)

// OutlookNotProvided is the token the source uses when an agency published
// no outlook.
const OutlookNotProvided = "n.p"

var outlookRanks = map[string]int{
	"Negativa": 0,
	"Estable":  1,
	"Positiva": 2,
}

// Outlook is the tagged result of an outlook lookup. Value is meaningful only
// when Status is models.OutlookKnown.
type Outlook struct {
	Value  int
	Status models.OutlookStatus
}

// Known reports whether the outlook has a numeric value.
func (o Outlook) Known() bool { return o.Status == models.OutlookKnown }

// Ptr returns the value as a pointer, nil when absent.
func (o Outlook) Ptr() *int {
	if !o.Known() {
		return nil
	}
	v := o.Value
	return &v
}

// OutlookValue maps an outlook token to its ordinal value. "n.p" and
// unrecognized tokens are absent and carry distinct statuses, so neither can
// be mistaken for Negativa (0).
func OutlookValue(token string) Outlook {
	t := strings.TrimSpace(token)
	if t == OutlookNotProvided {
		return Outlook{Status: models.OutlookNotProvided}
	}
	if v, ok := outlookRanks[t]; ok {
		return Outlook{Value: v, Status: models.OutlookKnown}
	}
	return Outlook{Status: models.OutlookUnrecognized}
}

// OutlookLabels returns the outlook tokens ordered by value.
func OutlookLabels() []string {
	return []string{"Negativa", "Estable", "Positiva"}
}
