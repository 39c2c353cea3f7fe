package utils

import "strings"

// Country name, ISO3 and common spelling aliases for the monitored countries.
var countryAliases = map[string]string{
	"costa rica":           "CR",
	"cri":                  "CR",
	"el salvador":          "SV",
	"salvador":             "SV",
	"slv":                  "SV",
	"guatemala":            "GT",
	"gtm":                  "GT",
	"honduras":             "HN",
	"hnd":                  "HN",
	"nicaragua":            "NI",
	"nic":                  "NI",
	"panama":               "PA",
	"pan":                  "PA",
	"republica dominicana": "DO",
	"dominican republic":   "DO",
	"rep. dominicana":      "DO",
	"dom":                  "DO",
}

var accentFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ñ", "n",
	"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u", "Ñ", "n",
)

// FoldAccents lowercases s and strips Spanish diacritics.
func FoldAccents(s string) string {
	return strings.ToLower(accentFolder.Replace(strings.TrimSpace(s)))
}

// NormalizeCountryCode resolves a country name, ISO3 code or two-letter code
// to the upper-case two-letter code used by the catalog and the data files.
// Unknown inputs are returned trimmed and upper-cased.
func NormalizeCountryCode(input string) string {
	key := FoldAccents(input)
	if code, ok := countryAliases[key]; ok {
		return code
	}
	return strings.ToUpper(strings.TrimSpace(input))
}
