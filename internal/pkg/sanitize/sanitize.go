package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text strips every tag from user-supplied input before it is echoed into a
// Slack message or alert email. bluemonday escapes what it keeps, so the
// result is unescaped once to keep "&" readable in plain-text channels.
func Text(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
