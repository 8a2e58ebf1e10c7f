package classify

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Ellipsis is appended to text cut by CleanText.
const Ellipsis = "..."

var (
	tagExpr        = regexp.MustCompile(`<[^>]*>`)
	whitespaceExpr = regexp.MustCompile(`\s+`)
)

// CleanText strips markup, squeezes whitespace and truncates to maxLength runes.
// A non-positive maxLength disables truncation.
func CleanText(text string, maxLength int) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	plain := text
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(text)); err == nil {
		doc.Find("script, style, noscript").Remove()
		plain = doc.Text()
	}
	// Entities decoded by the parser may spell out new tags.
	plain = tagExpr.ReplaceAllString(plain, " ")
	plain = strings.TrimSpace(whitespaceExpr.ReplaceAllString(plain, " "))

	if maxLength <= 0 || utf8.RuneCountInString(plain) <= maxLength {
		return plain
	}
	runes := []rune(plain)
	return strings.TrimSpace(string(runes[:maxLength])) + Ellipsis
}

// ReadTime estimates minutes to read: one minute per thousand characters, at least one.
func ReadTime(content string) int {
	n := utf8.RuneCountInString(content)
	minutes := (n + 999) / 1000
	if minutes < 1 {
		return 1
	}
	return minutes
}
