package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	markdown  = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))
	ugcPolicy = bluemonday.UGCPolicy()
)

// Markdown renders user-authored markdown to sanitised HTML.
func Markdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(ugcPolicy.SanitizeBytes(buf.Bytes())), nil
}

var sectionFuncs = template.FuncMap{
	"s": func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	},
	"i": func(p *int) string {
		if p == nil {
			return ""
		}
		return fmt.Sprintf("%d", *p)
	},
	"f": func(p *float64, unit string) string {
		if p == nil {
			return ""
		}
		return strings.TrimSpace(fmt.Sprintf("%.2f %s", *p, unit))
	},
	"money": func(p *int64) string {
		if p == nil {
			return ""
		}
		return formatCents(*p)
	},
}

var sectionTmpl = template.Must(template.New("sections").Funcs(sectionFuncs).Parse(`
{{define "cover"}}{{with .Branding.LogoURL}}<figure class="logo"><img src="{{.}}" alt="logo"></figure>{{end}}
<h1>{{.Title}}</h1>
<p class="company">{{.Branding.CompanyName}}</p>
{{with .Context.Property.Address}}<p class="address">{{.}}</p>{{end}}
<dl class="kv">
<dt>Claim</dt><dd>{{.Context.Claim.Number}}</dd>
{{with .Context.Claim.Carrier}}<dt>Carrier</dt><dd>{{.}}</dd>{{end}}
{{with .Context.Claim.DateOfLoss}}<dt>Date of loss</dt><dd>{{.}}</dd>{{end}}
{{with .Context.Client.Name}}<dt>Prepared for</dt><dd>{{.}}</dd>{{end}}
</dl>{{end}}

{{define "claim_summary"}}<h2>{{.Section.Title}}</h2>
<dl class="kv">
<dt>Claim number</dt><dd>{{.Context.Claim.Number}}</dd>
{{with .Context.Claim.PolicyNumber}}<dt>Policy</dt><dd>{{.}}</dd>{{end}}
{{with .Context.Claim.Carrier}}<dt>Carrier</dt><dd>{{.}}</dd>{{end}}
{{with .Context.Claim.LossType}}<dt>Loss type</dt><dd>{{.}}</dd>{{end}}
{{with .Context.Claim.DateOfLoss}}<dt>Date of loss</dt><dd>{{.}}</dd>{{end}}
{{with .Context.Claim.AdjusterName}}<dt>Adjuster</dt><dd>{{.}}</dd>{{end}}
<dt>Status</dt><dd>{{.Context.Claim.Status}}</dd>
</dl>
{{with .Context.Claim.Description}}<p>{{.}}</p>{{end}}{{end}}

{{define "property"}}<h2>{{.Section.Title}}</h2>
{{if .Context.Property.Address}}<dl class="kv">
<dt>Address</dt><dd>{{s .Context.Property.Address}}</dd>
{{with .Context.Property.YearBuilt}}<dt>Year built</dt><dd>{{i .}}</dd>{{end}}
{{with .Context.Property.RoofType}}<dt>Roof</dt><dd>{{.}}</dd>{{end}}
{{with .Context.Property.RoofAgeYears}}<dt>Roof age (years)</dt><dd>{{i .}}</dd>{{end}}
{{with .Context.Property.Stories}}<dt>Stories</dt><dd>{{i .}}</dd>{{end}}
{{with .Context.Property.SquareFeet}}<dt>Square feet</dt><dd>{{i .}}</dd>{{end}}
</dl>{{else}}<p class="empty">No property on file.</p>{{end}}{{end}}

{{define "weather"}}<h2>{{.Section.Title}}</h2>
{{with .Context.Weather.Events}}<ul>
{{range .}}<li>{{.Date}} {{.Type}}{{with .HailSizeInches}}, hail {{f . "in"}}{{end}}{{with .WindSpeedMph}}, wind {{f . "mph"}}{{end}}{{with .DistanceMiles}}, {{f . "mi"}} away{{end}}{{with .Source}} ({{.}}){{end}}</li>
{{end}}</ul>{{else}}<p class="empty">No storm events on record.</p>{{end}}{{end}}

{{define "findings"}}<h2>{{.Section.Title}}</h2>
{{with .Context.Findings}}<ul>
{{range .}}<li>{{with .Severity}}[{{.}}] {{end}}{{with .Area}}{{.}}: {{end}}{{.Statement}}</li>
{{end}}</ul>{{else}}<p class="empty">No findings recorded.</p>{{end}}{{end}}

{{define "photos"}}<h2>{{.Section.Title}}</h2>
{{with .Context.Media.Photos}}{{range .}}<figure data-card="true"><img src="{{.URL}}" alt="{{s .Caption}}"><figcaption>{{s .Caption}}{{with .Area}} ({{.}}){{end}}</figcaption></figure>
{{end}}{{else}}<p class="empty">No photos attached.</p>{{end}}{{end}}

{{define "estimate"}}<h2>{{.Section.Title}}</h2>
{{if .Context.Claim.EstimateTotalCents}}<dl class="kv">
<dt>Version</dt><dd>{{i .Context.Claim.EstimateVersion}}</dd>
<dt>Total</dt><dd>{{money .Context.Claim.EstimateTotalCents}}</dd>
<dt>Line items</dt><dd>{{i .Context.Claim.EstimateLineItems}}</dd>
</dl>{{else}}<p class="empty">No estimate on file.</p>{{end}}{{end}}

{{define "company_contact"}}<h2>{{.Section.Title}}</h2>
<dl class="kv">
<dt>Company</dt><dd>{{.Branding.CompanyName}}</dd>
{{with .Branding.Phone}}<dt>Phone</dt><dd>{{.}}</dd>{{end}}
{{with .Branding.Email}}<dt>Email</dt><dd>{{.}}</dd>{{end}}
{{with .Branding.Website}}<dt>Website</dt><dd>{{.}}</dd>{{end}}
{{with .Branding.Address}}<dt>Address</dt><dd>{{.}}</dd>{{end}}
{{with .Branding.LicenseNumber}}<dt>License</dt><dd>{{.}}</dd>{{end}}
</dl>{{end}}

{{define "notes"}}<h2>{{.Section.Title}}</h2>
{{with .Notes}}{{range .}}<div class="note" data-card="true"><p class="meta">{{.CreatedAt}}</p>{{.Body}}</div>
{{end}}{{else}}<p class="empty">No notes.</p>{{end}}{{end}}

{{define "body"}}{{.}}{{end}}
`))

func execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := sectionTmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return template.HTML(strings.TrimSpace(buf.String())), nil
}

func coverSection(in SectionInput) (template.HTML, error)        { return execute("cover", in) }
func claimSummarySection(in SectionInput) (template.HTML, error) { return execute("claim_summary", in) }
func propertySection(in SectionInput) (template.HTML, error)     { return execute("property", in) }
func weatherSection(in SectionInput) (template.HTML, error)      { return execute("weather", in) }
func findingsSection(in SectionInput) (template.HTML, error)     { return execute("findings", in) }
func photosSection(in SectionInput) (template.HTML, error)       { return execute("photos", in) }
func estimateSection(in SectionInput) (template.HTML, error)     { return execute("estimate", in) }
func companyContactSection(in SectionInput) (template.HTML, error) {
	return execute("company_contact", in)
}

type renderedNote struct {
	CreatedAt string
	Body      template.HTML
}

func notesSection(in SectionInput) (template.HTML, error) {
	notes := make([]renderedNote, 0, len(in.Context.Notes))
	for _, n := range in.Context.Notes {
		body, err := Markdown(n.Body)
		if err != nil {
			return "", fmt.Errorf("note markdown: %w", err)
		}
		notes = append(notes, renderedNote{CreatedAt: n.CreatedAt, Body: body})
	}
	return execute("notes", struct {
		SectionInput
		Notes []renderedNote
	}{in, notes})
}

func formatCents(c int64) string {
	neg := c < 0
	if neg {
		c = -c
	}
	whole := fmt.Sprintf("%d", c/100)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := fmt.Sprintf("$%s.%02d", b.String(), c%100)
	if neg {
		return "-" + out
	}
	return out
}
