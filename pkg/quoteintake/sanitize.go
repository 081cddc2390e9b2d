package quoteintake

import "strings"

// SanitizeField normalizes an untrusted form value. Non-string input yields
// the empty string; strings are trimmed of surrounding whitespace only.
func SanitizeField(raw any) string {
	s, ok := raw.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// htmlEscaper replaces the five HTML-significant characters. The replacer
// scans the input once, so an ampersand it emits is never escaped again.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML makes s safe to embed in HTML text or a quoted attribute.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// ParseRecipients splits a comma-delimited address list. Entries are trimmed,
// empty entries are dropped and duplicates keep their first position.
func ParseRecipients(raw string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		addr := strings.TrimSpace(part)
		if addr == "" {
			continue
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}
