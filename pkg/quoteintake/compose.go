package quoteintake

import (
	"strings"
)

const defaultServiceLabel = "General"

func serviceLabel(service string) string {
	if service == "" {
		return defaultServiceLabel
	}
	return service
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// composeMessage renders the notification email. Field values are escaped
// in the HTML body and left raw in the text body.
func composeMessage(f Fields, links []string, from string, to []string) *EmailMessage {
	label := serviceLabel(f.Service)

	text := []string{
		"New quote request",
		"",
		"Name: " + f.Name,
		"Phone: " + orDash(f.Phone),
		"Email: " + orDash(f.Email),
		"Service: " + label,
		"",
		"Message:",
		f.Message,
		"",
	}
	if len(links) > 0 {
		text = append(text, "Photos:")
		text = append(text, links...)
		text = append(text, "")
	}
	text = append(text, "Website: "+orDash(f.Website))

	var html strings.Builder
	html.WriteString("<p><strong>New quote request</strong></p>")
	html.WriteString("<p><strong>Name:</strong> " + EscapeHTML(f.Name) + "</p>")
	html.WriteString("<p><strong>Phone:</strong> " + EscapeHTML(orDash(f.Phone)) + "</p>")
	html.WriteString("<p><strong>Email:</strong> " + EscapeHTML(orDash(f.Email)) + "</p>")
	html.WriteString("<p><strong>Service:</strong> " + EscapeHTML(label) + "</p>")
	html.WriteString("<p><strong>Message:</strong><br>" + strings.ReplaceAll(EscapeHTML(f.Message), "\n", "<br>") + "</p>")
	if len(links) > 0 {
		anchors := make([]string, 0, len(links))
		for _, link := range links {
			escaped := EscapeHTML(link)
			anchors = append(anchors, `<a href="`+escaped+`">`+escaped+`</a>`)
		}
		html.WriteString("<p><strong>Photos:</strong><br>" + strings.Join(anchors, "<br>") + "</p>")
	}
	html.WriteString("<p><strong>Website:</strong> " + EscapeHTML(orDash(f.Website)) + "</p>")

	return &EmailMessage{
		From:    from,
		To:      to,
		Subject: "New quote request - " + label,
		Text:    strings.Join(text, "\n"),
		HTML:    html.String(),
		ReplyTo: f.Email,
	}
}
