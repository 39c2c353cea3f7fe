package table

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLDecoder reads the first <table> of an HTML document. The header comes
// from the first row; its cells may be th or td.
type HTMLDecoder struct{}

// Decode implements Decoder.
func (HTMLDecoder) Decode(r io.Reader) (*Table, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	tbl := doc.Find("table").First()
	if tbl.Length() == 0 {
		return nil, fmt.Errorf("no <table> element: %w", ErrEmptyTable)
	}

	var records [][]string
	tbl.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var rec []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			rec = append(rec, strings.TrimSpace(cell.Text()))
		})
		records = append(records, rec)
	})

	header, rest, err := splitHeader(records)
	if err != nil {
		return nil, err
	}
	return fromRecords(header, rest)
}
