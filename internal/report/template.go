package report

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/seenimoa/sovwatch/pkg/models"
	"github.com/seenimoa/sovwatch/pkg/utils"
)

// Links decides how pages reference each other: absolute routes when served
// by the API, relative files in a static export.
type Links struct {
	Home           string
	Stylesheet     string
	CountryPattern string // fmt pattern taking the lower-case country code
}

// Country returns the link to a country page.
func (l Links) Country(code string) string {
	return fmt.Sprintf(l.CountryPattern, strings.ToLower(code))
}

var (
	// ServerLinks are the routes mounted by the API server.
	ServerLinks = Links{Home: "/", Stylesheet: "/static/style.css", CountryPattern: "/countries/%s"}
	// StaticLinks are the file names written by Export.
	StaticLinks = Links{Home: "index.html", Stylesheet: "static/style.css", CountryPattern: "%s.html"}
)

// page is the data handed to the layout.
type page struct {
	Title     string
	Links     Links
	Countries []models.Country
	Active    string
	Caption   string
	Country   *CountryView
	Region    *RegionView
}

var pageFuncs = template.FuncMap{
	"agencyName": func(a models.Agency) string { return a.DisplayName() },
	"na":         func() string { return utils.NotAvailable },
}

// CountryPage renders the dashboard of one country.
func CountryPage(w io.Writer, v *CountryView, countries []models.Country, links Links) error {
	return pages.ExecuteTemplate(w, "layout", page{
		Title:     v.Country.Name,
		Links:     links,
		Countries: countries,
		Active:    v.Country.Code,
		Caption:   v.Caption,
		Country:   v,
	})
}

// RegionPage renders the regional comparison.
func RegionPage(w io.Writer, v *RegionView, countries []models.Country, links Links) error {
	return pages.ExecuteTemplate(w, "layout", page{
		Title:     "Regional comparison",
		Links:     links,
		Countries: countries,
		Caption:   v.Caption,
		Region:    v,
	})
}

var pages = template.Must(template.New("pages").Funcs(pageFuncs).Parse(pageTemplates))

// pageTemplates holds the dashboard layout and its two bodies.
const pageTemplates = `
{{define "layout"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}} · Sovereign Risk Monitor</title>
<link rel="stylesheet" href="{{.Links.Stylesheet}}">
</head>
<body>
<div class="header">
  <div>
    <h1>Sovereign Risk Monitor</h1>
    <p class="muted">Central America and the Dominican Republic</p>
  </div>
  <a href="{{.Links.Home}}">Regional comparison</a>
</div>
<nav class="countries">
{{- range .Countries}}
  <a href="{{$.Links.Country .Code}}"{{if eq .Code $.Active}} class="active"{{end}}>{{.Name}}</a>
{{- end}}
</nav>
{{if .Country}}{{template "country" .Country}}{{end}}
{{- if .Region}}{{template "region" .}}{{end}}
<footer><p class="muted caption">{{.Caption}}</p></footer>
</body>
</html>
{{end}}

{{define "country"}}
<h2 id="summary">{{.Country.Name}}: current ratings</h2>
<div class="cards">
{{- range .Cards}}
  <div class="card {{.Tone}}" data-agency="{{.Agency}}" data-status="{{.Status}}">
    <div class="label">{{.Label}}</div>
    <div class="value">{{.Value}}</div>
    {{- if .Delta}}
    <div class="delta">{{.Delta}}</div>
    {{- end}}
  </div>
{{- end}}
</div>

<h2>History</h2>
<div class="panels">
{{- range .Panels}}
  <div class="panel" data-agency="{{.Agency}}">
  {{- if .Available}}
    {{.RatingSVG}}
    {{.OutlookSVG}}
    <table class="history">
      <thead><tr><th>Period</th><th>Rating</th><th>Outlook</th></tr></thead>
      <tbody>
      {{- range .History}}
        <tr><td>{{.Period}}</td><td{{if not .OnScale}} class="off-scale"{{end}}>{{.Rating}}</td><td>{{.Outlook}}</td></tr>
      {{- end}}
      </tbody>
    </table>
  {{- else}}
    <h3>{{agencyName .Agency}}</h3>
    <div class="unavailable">{{na}}</div>
  {{- end}}
  </div>
{{- end}}
</div>
{{end}}

{{define "region"}}
<h2>Regional comparison</h2>
<div class="panel heatmap">{{.Region.HeatmapSVG}}</div>
<h2>Current rating and outlook</h2>
<table class="letters">
  <thead><tr><th>Country</th>{{range .Region.Letters.Agencies}}<th>{{agencyName .}}</th>{{end}}</tr></thead>
  <tbody>
  {{- range $i, $c := .Region.Letters.Countries}}
    <tr>
      <td><a href="{{$.Links.Country $c.Code}}">{{$c.Name}}</a></td>
      {{- range index $.Region.Letters.Rows $i}}
      <td{{if eq . na}} class="na"{{end}}>{{.}}</td>
      {{- end}}
    </tr>
  {{- end}}
  </tbody>
</table>
{{end}}
`
