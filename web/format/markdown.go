package format

import (
	"strings"

	"github.com/gomarkdown/markdown"
)

// InsightToHTML renders a plain-text or markdown insight string to HTML for
// display alongside the figure.
func InsightToHTML(insight string) string {
	insight = strings.TrimSpace(insight)
	if insight == "" {
		return ""
	}
	return string(markdown.ToHTML([]byte(insight), nil, nil))
}
