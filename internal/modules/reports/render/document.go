package render

import (
	"bytes"
	"html/template"

	"github.com/yungbote/claimpacket-backend/internal/modules/reports/templates"
)

type renderedSection struct {
	Key         string
	Card        bool
	BreakBefore bool
	BreakAfter  bool
	Body        template.HTML
}

type documentData struct {
	Title    string
	Branding templates.Branding
	Page     templates.PageSpec
	Sections []renderedSection
}

// Card sections, and elements a generator marks data-card, carry
// break-inside: avoid so print engines keep them whole. The native backend
// reads the same hints from the data attributes.
var documentTmpl = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
@page { size: {{.Page.Size}} {{.Page.Orientation}}; margin: 15mm; }
body { font-family: Helvetica, Arial, sans-serif; font-size: 10pt; color: #111827; margin: 0; }
header.doc { background: {{.Branding.PrimaryColor}}; color: #ffffff; padding: 6mm 8mm; }
h1 { color: {{.Branding.PrimaryColor}}; font-size: 20pt; }
h2 { color: {{.Branding.SecondaryColor}}; font-size: 14pt; border-bottom: 1px solid {{.Branding.AccentColor}}; }
section.card { break-inside: avoid; page-break-inside: avoid; border: 1px solid #E5E7EB; border-radius: 4px; padding: 4mm; margin: 4mm 0; }
section[data-break-before="page"] { break-before: page; page-break-before: always; }
section[data-break-after="page"] { break-after: page; page-break-after: always; }
dl.kv { display: grid; grid-template-columns: 40mm 1fr; gap: 1mm 4mm; }
dt { font-weight: bold; }
[data-card="true"] { break-inside: avoid; page-break-inside: avoid; }
figure { margin: 3mm 0; }
figure img { max-width: 100%; max-height: 90mm; }
.empty { color: #6B7280; font-style: italic; }
</style>
</head>
<body data-title="{{.Title}}" data-company="{{.Branding.CompanyName}}" data-primary-color="{{.Branding.PrimaryColor}}" data-secondary-color="{{.Branding.SecondaryColor}}" data-accent-color="{{.Branding.AccentColor}}" data-page-size="{{.Page.Size}}" data-orientation="{{.Page.Orientation}}">
<header class="doc">{{.Branding.CompanyName}}</header>
{{range .Sections}}<section data-section="{{.Key}}"{{if .Card}} class="card" data-card="true"{{end}}{{if .BreakBefore}} data-break-before="page"{{end}}{{if .BreakAfter}} data-break-after="page"{{end}}>
{{.Body}}
</section>
{{end}}</body>
</html>
`))

func assembleDocument(d documentData) (string, error) {
	var buf bytes.Buffer
	if err := documentTmpl.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}
