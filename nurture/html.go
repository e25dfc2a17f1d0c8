package nurture

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
)

var layout = template.Must(template.New("nurture").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; background: #f5f7fa; margin: 0; padding: 0; }
        .container { max-width: 600px; margin: 0 auto; background: #ffffff; padding: 32px; }
        .preheader { display: none; max-height: 0; overflow: hidden; }
        h1 { color: #1a2b4c; font-size: 24px; }
        h2 { color: #1a2b4c; font-size: 18px; }
        .button { display: inline-block; padding: 12px 24px; background-color: #2563eb; color: #ffffff; text-decoration: none; border-radius: 6px; font-weight: bold; }
        .tip-box { background: #eff6ff; border-left: 4px solid #2563eb; padding: 16px; margin: 20px 0; }
        .value-box { background: #f0fdf4; border: 1px solid #bbf7d0; border-radius: 6px; padding: 16px; margin: 20px 0; }
        .footer { margin-top: 32px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <span class="preheader">{{.Preheader}}</span>
    <div class="container">
        {{.Body}}
        <div class="footer">
            <p>You are receiving this because you completed the AI Readiness Assessment.</p>
            {{if .UnsubscribeURL}}<p><a href="{{.UnsubscribeURL}}">Unsubscribe</a></p>{{end}}
            <p>© {{.Year}} All rights reserved.</p>
        </div>
    </div>
</body>
</html>`))

type layoutData struct {
	Subject        string
	Preheader      string
	Body           template.HTML
	UnsubscribeURL string
	Year           int
}

// wrapper renders a full HTML document around body. Subject and preheader
// are escaped by the template; body must already be safe.
func wrapper(subject, preheader string, body template.HTML, unsubscribeURL string) string {
	var buf bytes.Buffer
	err := layout.Execute(&buf, layoutData{
		Subject:        subject,
		Preheader:      preheader,
		Body:           body,
		UnsubscribeURL: unsubscribeURL,
		Year:           time.Now().Year(),
	})
	if err != nil {
		// The layout is static, so this only happens on a broken writer.
		return string(body)
	}
	return buf.String()
}

// esc escapes user supplied text before it is concatenated into markup.
func esc(s string) string {
	return template.HTMLEscapeString(s)
}

func paragraph(format string, args ...interface{}) string {
	return "<p>" + fmt.Sprintf(format, args...) + "</p>\n"
}

func heading(text string) string {
	return "<h2>" + esc(text) + "</h2>\n"
}

func button(label, href string) string {
	if href == "" {
		return ""
	}
	return fmt.Sprintf(`<p style="text-align: center;"><a href="%s" class="button">%s</a></p>`+"\n", esc(href), esc(label))
}

func tipBox(title, body string) string {
	return fmt.Sprintf(`<div class="tip-box"><strong>%s</strong><br>%s</div>`+"\n", esc(title), body)
}

func valueBox(title string, items []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="value-box"><strong>%s</strong><ul>`, esc(title))
	for _, item := range items {
		b.WriteString("<li>" + esc(item) + "</li>")
	}
	b.WriteString("</ul></div>\n")
	return b.String()
}

func orderedList(items []string) string {
	var b strings.Builder
	b.WriteString("<ol>")
	for _, item := range items {
		b.WriteString("<li>" + esc(item) + "</li>")
	}
	b.WriteString("</ol>\n")
	return b.String()
}
