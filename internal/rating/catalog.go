package rating

import (
	"fmt"
	"strings"

	"github.com/seenimoa/sovwatch/pkg/models"
	"github.com/seenimoa/sovwatch/pkg/utils"
)

// Catalog is the ordered set of monitored countries and their coverage.
type Catalog struct {
	countries []models.Country
}

// NewCatalog builds a catalog from countries, preserving their order.
func NewCatalog(countries ...models.Country) *Catalog {
	cp := make([]models.Country, len(countries))
	for i, c := range countries {
		c.Agencies = append([]models.Agency(nil), c.Agencies...)
		cp[i] = c
	}
	return &Catalog{countries: cp}
}

// DefaultCatalog returns the seven Central American and Caribbean sovereigns.
// Honduras is not rated by Fitch.
func DefaultCatalog() *Catalog {
	all := models.AllAgencies()
	return NewCatalog(
		models.Country{Name: "Costa Rica", Code: "CR", Agencies: all},
		models.Country{Name: "El Salvador", Code: "SV", Agencies: all},
		models.Country{Name: "Guatemala", Code: "GT", Agencies: all},
		models.Country{Name: "Honduras", Code: "HN", Agencies: []models.Agency{models.AgencyMoodys, models.AgencySP}},
		models.Country{Name: "Nicaragua", Code: "NI", Agencies: all},
		models.Country{Name: "Panamá", Code: "PA", Agencies: all},
		models.Country{Name: "República Dominicana", Code: "DO", Agencies: all},
	)
}

// Countries returns a copy of the catalog entries in display order.
func (c *Catalog) Countries() []models.Country {
	out := make([]models.Country, len(c.countries))
	copy(out, c.countries)
	return out
}

// Len returns the number of countries.
func (c *Catalog) Len() int { return len(c.countries) }

// Lookup finds a country by two-letter code, ISO3 code or name.
func (c *Catalog) Lookup(codeOrName string) (models.Country, bool) {
	code := utils.NormalizeCountryCode(codeOrName)
	for _, country := range c.countries {
		if country.Code == code || utils.FoldAccents(country.Name) == utils.FoldAccents(codeOrName) {
			return country, true
		}
	}
	return models.Country{}, false
}

// CatalogError lists configuration-time inconsistencies in a catalog.
type CatalogError struct {
	Problems []string
}

func (e *CatalogError) Error() string {
	return "catalog mismatch: " + strings.Join(e.Problems, "; ")
}

// Validate checks that every country has a unique two-letter code and at least
// one agency, and that every agency has a rating convention. A non-nil result
// is a *CatalogError and should stop the process.
func (c *Catalog) Validate() error {
	var problems []string
	seen := make(map[string]bool, len(c.countries))

	for _, country := range c.countries {
		if len(country.Code) != 2 || strings.ToUpper(country.Code) != country.Code {
			problems = append(problems, fmt.Sprintf("%s: code %q is not a two-letter upper-case code", country.Name, country.Code))
		}
		if seen[country.Code] {
			problems = append(problems, fmt.Sprintf("%s: duplicate code %q", country.Name, country.Code))
		}
		seen[country.Code] = true

		if len(country.Agencies) == 0 {
			problems = append(problems, fmt.Sprintf("%s: no rating agency", country.Name))
		}
		for _, a := range country.Agencies {
			if !a.Valid() {
				problems = append(problems, fmt.Sprintf("%s: agency %q has no rating scale", country.Name, a))
			}
		}
	}

	if len(problems) > 0 {
		return &CatalogError{Problems: problems}
	}
	return nil
}
