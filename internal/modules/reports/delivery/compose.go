package delivery

import (
	"bytes"
	"html/template"
	"strings"
	"unicode/utf8"

	"github.com/yungbote/claimpacket-backend/internal/modules/reports/render"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/templates"
)

// previewRunes bounds the message body copied into the timeline.
const previewRunes = 280

type emailData struct {
	Branding templates.Branding
	Title    string
	Body     template.HTML
	LinkURL  string
}

var emailTmpl = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html><body style="margin:0;font-family:Helvetica,Arial,sans-serif;color:#111827">
<table role="presentation" width="100%" cellpadding="0" cellspacing="0">
<tr><td style="background:{{.Branding.PrimaryColor}};color:#ffffff;padding:16px 24px;font-size:18px;font-weight:bold">{{.Branding.CompanyName}}</td></tr>
<tr><td style="padding:24px">
{{.Body}}
<p style="margin:24px 0"><a href="{{.LinkURL}}" style="background:{{.Branding.AccentColor}};color:#ffffff;padding:10px 18px;border-radius:4px;text-decoration:none">View {{.Title}}</a></p>
<p style="color:#6B7280;font-size:12px">{{with .Branding.Phone}}{{.}} {{end}}{{with .Branding.Email}}{{.}} {{end}}{{with .Branding.Website}}{{.}}{{end}}</p>
</td></tr>
</table>
</body></html>
`))

// composeEmail renders the user's markdown message into the branded HTML
// body and a plain-text alternative.
func composeEmail(b templates.Branding, title, message, linkURL string) (html, text string, err error) {
	body, err := render.Markdown(message)
	if err != nil {
		return "", "", err
	}
	var buf bytes.Buffer
	if err := emailTmpl.Execute(&buf, emailData{Branding: b, Title: title, Body: body, LinkURL: linkURL}); err != nil {
		return "", "", err
	}
	text = strings.TrimSpace(message) + "\n\n" + title + ": " + linkURL + "\n\n" + b.CompanyName
	return buf.String(), text, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}
