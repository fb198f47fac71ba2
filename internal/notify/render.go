// Package notify turns booking events into e-mails.  Event descriptions
// are written in markdown and rendered with goldmark; mail is delivered
// through Resend.
package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/iliyamo/events-booking/internal/queue"
)

// md renders descriptions.  Raw HTML in the markdown is escaped
// (WithUnsafe is not set).
var md = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!doctype html>
<html><body>
<p>Hi {{.UserName}},</p>
<p>Your booking for <strong>{{.EventTitle}}</strong> is confirmed.</p>
<ul>
<li>When: {{.EventDate}} {{.EventTime}}</li>
<li>Where: {{.Location}}</li>
<li>Seats held: {{.SeatsHeld}}</li>
</ul>
{{if .Description}}<div>{{.Description}}</div>{{end}}
</body></html>
`))

// RenderMarkdown converts a markdown description to safe HTML.  On a
// render failure the escaped source is returned.
func RenderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

// Confirmation builds the subject and HTML body of the mail sent for a
// new registration.
func Confirmation(ev queue.BookingEvent) (string, string, error) {
	data := struct {
		queue.BookingEvent
		Description template.HTML
	}{BookingEvent: ev}
	if ev.Description != "" {
		data.Description = RenderMarkdown(ev.Description)
	}
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render confirmation: %w", err)
	}
	return "Booking confirmed: " + ev.EventTitle, buf.String(), nil
}
