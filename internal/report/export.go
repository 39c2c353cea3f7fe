package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/seenimoa/sovwatch/internal/region"
	"github.com/seenimoa/sovwatch/web"
)

// ExportResult lists what Export wrote.
type ExportResult struct {
	Dir   string   `json:"dir"`
	Files []string `json:"files"`
}

// matrixDocument is the machine-readable companion of the static site.
type matrixDocument struct {
	BuildTag string              `json:"build_tag"`
	Caption  string              `json:"caption"`
	Matrix   region.Matrix       `json:"matrix"`
	Letters  region.LetterMatrix `json:"letters"`
	Cells    []cellEntry         `json:"cells"`
}

type cellEntry struct {
	Country string `json:"country"`
	Agency  string `json:"agency"`
	Status  string `json:"status"`
	Text    string `json:"text"`
	Reason  string `json:"reason,omitempty"`
}

// Export writes the dashboard as a static site: index.html with the regional
// comparison, one page per country, matrix.json and the stylesheet.
func (b *Builder) Export(ctx context.Context, dir string) (*ExportResult, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	res := &ExportResult{Dir: dir}
	countries := b.catalog.Countries()

	write := func(name string, data []byte) error {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		res.Files = append(res.Files, name)
		return nil
	}

	// Regional page
	rv := b.RegionReport(ctx)
	var buf bytes.Buffer
	if err := RegionPage(&buf, rv, countries, StaticLinks); err != nil {
		return nil, fmt.Errorf("render index: %w", err)
	}
	if err := write(StaticLinks.Home, buf.Bytes()); err != nil {
		return nil, err
	}

	// Country pages
	for _, c := range countries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cv, err := b.CountryReport(ctx, c.Code)
		if err != nil {
			return nil, err
		}
		buf.Reset()
		if err := CountryPage(&buf, cv, countries, StaticLinks); err != nil {
			return nil, fmt.Errorf("render %s: %w", c.Code, err)
		}
		if err := write(StaticLinks.Country(c.Code), buf.Bytes()); err != nil {
			return nil, err
		}
	}

	// Matrix JSON
	doc := matrixDocument{
		BuildTag: rv.BuildTag,
		Caption:  rv.Caption,
		Matrix:   rv.Matrix,
		Letters:  rv.Letters,
	}
	for _, row := range rv.Matrix.Cells {
		for _, cell := range row {
			doc.Cells = append(doc.Cells, cellEntry{
				Country: cell.Country,
				Agency:  string(cell.Agency),
				Status:  string(cell.Status),
				Text:    cell.Text(),
				Reason:  cell.Reason,
			})
		}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode matrix: %w", err)
	}
	if err := write("matrix.json", data); err != nil {
		return nil, err
	}

	// Stylesheet
	css, err := fs.ReadFile(web.StaticFS(), "style.css")
	if err != nil {
		return nil, fmt.Errorf("read stylesheet: %w", err)
	}
	if err := write(StaticLinks.Stylesheet, css); err != nil {
		return nil, err
	}

	b.log.Info().
		Str("dir", dir).
		Int("files", len(res.Files)).
		Msg("static site exported")
	return res, nil
}
