// Package utils provides small formatting and parsing helpers shared by the
// loader, the report renderer and the CLI.
package utils

import (
	"strings"
	"time"
)

const (
	// NotAvailable marks a value that should exist but could not be loaded.
	NotAvailable = "N/A"
	// NotRated marks an agency that does not cover a country.
	NotRated = "Not rated"
)

// FormatRatingCell renders a rating letter with its outlook, e.g. "BB+ (Estable)".
// The outlook is omitted when it is empty or the "n.p" sentinel.
func FormatRatingCell(rating, outlook string) string {
	rating = strings.TrimSpace(rating)
	outlook = strings.TrimSpace(outlook)
	if rating == "" {
		return NotAvailable
	}
	if outlook == "" || outlook == "n.p" {
		return rating
	}
	return rating + " (" + outlook + ")"
}

// FormatBuildTag renders a ddmmyyyy dataset tag as "11 Apr 2025". Tags in any
// other shape are returned unchanged.
func FormatBuildTag(tag string) string {
	t, err := time.Parse("02012006", tag)
	if err != nil {
		return tag
	}
	return t.Format("02 Jan 2006")
}
