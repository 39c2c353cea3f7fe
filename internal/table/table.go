// Package table decodes the raw rating tables read from a source store into
// rows of (period, rating, outlook) text, in source order.
package table

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/seenimoa/sovwatch/pkg/utils"
)

// Column identifiers of the three required columns.
const (
	ColPeriod  = "period"
	ColRating  = "rating"
	ColOutlook = "outlook"
)

var requiredColumns = []string{ColPeriod, ColRating, ColOutlook}

// headerAliases maps folded header text to a required column.
var headerAliases = map[string]string{
	"period":       ColPeriod,
	"periodo":      ColPeriod,
	"fecha":        ColPeriod,
	"date":         ColPeriod,
	"quarter":      ColPeriod,
	"trimestre":    ColPeriod,
	"rating":       ColRating,
	"calificacion": ColRating,
	"calif":        ColRating,
	"calif.":       ColRating,
	"outlook":      ColOutlook,
	"perspectiva":  ColOutlook,
}

// ErrEmptyTable is returned when a table has a header but no data rows.
var ErrEmptyTable = errors.New("table has no data rows")

// MissingColumnError is returned when a required column is not in the header.
type MissingColumnError struct {
	Missing []string
	Header  []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column(s) %s in header [%s]",
		strings.Join(e.Missing, ", "), strings.Join(e.Header, ", "))
}

// Row is one observation as text, trimmed of surrounding whitespace.
type Row struct {
	Period  string
	Rating  string
	Outlook string
}

// Table holds decoded rows in source order.
type Table struct {
	Rows []Row
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Decoder turns raw file content into a Table.
type Decoder interface {
	Decode(r io.Reader) (*Table, error)
}

var decoders = map[string]Decoder{
	"xlsx":   XLSXDecoder{},
	"csv":    CSVDecoder{},
	"html":   HTMLDecoder{},
	"htm":    HTMLDecoder{},
	"sqlite": SQLiteDecoder{},
	"db":     SQLiteDecoder{},
}

// ForFormat returns the decoder for a file extension (with or without dot).
func ForFormat(ext string) (Decoder, error) {
	d, ok := decoders[strings.ToLower(strings.TrimPrefix(ext, "."))]
	if !ok {
		return nil, fmt.Errorf("unsupported table format %q", ext)
	}
	return d, nil
}

// Formats lists the supported extensions.
func Formats() []string {
	out := make([]string, 0, len(decoders))
	for k := range decoders {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// columnIndex maps each required column to its position in header.
func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(requiredColumns))
	for i, h := range header {
		col, ok := headerAliases[utils.FoldAccents(h)]
		if !ok {
			continue
		}
		if _, seen := idx[col]; !seen {
			idx[col] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		clean := make([]string, len(header))
		for i, h := range header {
			clean[i] = strings.TrimSpace(h)
		}
		return nil, &MissingColumnError{Missing: missing, Header: clean}
	}
	return idx, nil
}

// fromRecords builds a table from a header and data records. Records shorter
// than the header yield empty cells; fully blank records are skipped.
func fromRecords(header []string, records [][]string) (*Table, error) {
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	cell := func(rec []string, col string) string {
		i := idx[col]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	t := &Table{Rows: make([]Row, 0, len(records))}
	for _, rec := range records {
		row := Row{
			Period:  cell(rec, ColPeriod),
			Rating:  cell(rec, ColRating),
			Outlook: cell(rec, ColOutlook),
		}
		if row == (Row{}) {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	if len(t.Rows) == 0 {
		return nil, ErrEmptyTable
	}
	return t, nil
}

// splitHeader returns the first non-blank record as header and the rest.
func splitHeader(records [][]string) ([]string, [][]string, error) {
	for i, rec := range records {
		if !blank(rec) {
			return rec, records[i+1:], nil
		}
	}
	return nil, nil, fmt.Errorf("no header row: %w", ErrEmptyTable)
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
