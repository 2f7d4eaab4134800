package stringutils

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	citationPattern     = regexp.MustCompile(`\{\{[^{}]*\}\}`)
	urlPattern          = regexp.MustCompile(`(?i)(https?://|www\.)[^\s]+`)
	markdownLinkPattern = regexp.MustCompile(`\[([^\]]*)\]\([^)]+\)`)
	multiSpacePattern   = regexp.MustCompile(`\s+`)
)

const ellipsis = "..."

// SanitizeTitleContent strips citation markers, links and markdown symbols and
// collapses whitespace. Letters of any script are kept.
func SanitizeTitleContent(content string) string {
	content = citationPattern.ReplaceAllString(content, " ")
	content = markdownLinkPattern.ReplaceAllString(content, "$1")
	content = urlPattern.ReplaceAllString(content, "")

	var b strings.Builder
	for _, r := range content {
		switch {
		case unicode.IsLetter(r), unicode.IsNumber(r), unicode.IsSpace(r):
			b.WriteRune(r)
		case strings.ContainsRune(".,!?-'()/%", r):
			b.WriteRune(r)
		}
	}

	content = multiSpacePattern.ReplaceAllString(b.String(), " ")
	return strings.TrimSpace(content)
}

// TruncateTitle cuts title to at most maxLen runes, preferring a word boundary,
// and appends an ellipsis when anything was removed.
func TruncateTitle(title string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(title) <= maxLen {
		return title
	}

	limit := maxLen - len(ellipsis)
	if limit < 1 {
		limit = 1
	}
	runes := []rune(title)
	truncated := string(runes[:limit])

	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > 0 && utf8.RuneCountInString(truncated[:lastSpace]) > limit/2 {
		truncated = truncated[:lastSpace]
	}
	return strings.TrimRight(truncated, " .,-") + ellipsis
}

// GenerateTitle creates a clean, truncated title from content.
func GenerateTitle(content string, maxLen int) string {
	sanitized := SanitizeTitleContent(content)
	if sanitized == "" {
		return ""
	}
	return TruncateTitle(sanitized, maxLen)
}

// HasControlChars reports whether s contains non-printable runes other than
// ordinary spaces.
func HasControlChars(s string) bool {
	for _, r := range s {
		if r == ' ' {
			continue
		}
		if unicode.IsControl(r) || !unicode.IsPrint(r) {
			return true
		}
	}
	return false
}
