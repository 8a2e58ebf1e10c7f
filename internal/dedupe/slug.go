package dedupe

import (
	"regexp"
	"strings"
)

var nonSlugExpr = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateID slugifies a title into a stable identifier. maxLen <= 0 means no cap.
// The result only holds [a-z0-9] separated by single dashes, with no dash at
// either end; it is empty when the title has no usable characters.
func GenerateID(title string, maxLen int) string {
	id := nonSlugExpr.ReplaceAllString(strings.ToLower(title), "-")
	id = strings.Trim(id, "-")
	if maxLen > 0 && len(id) > maxLen {
		id = strings.TrimRight(id[:maxLen], "-")
	}
	return id
}
