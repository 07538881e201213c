package index

import (
	"regexp"
	"strings"
)

var (
	fenceLine    = regexp.MustCompile("(?m)^\\s*```.*$")
	image        = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	link         = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	inlineCode   = regexp.MustCompile("`([^`]*)`")
	heading      = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+`)
	blockquote   = regexp.MustCompile(`(?m)^\s*>\s?`)
	listMarker   = regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+\.)\s+`)
	htmlTag      = regexp.MustCompile(`(?i)</?(?:a|abbr|b|blockquote|br|code|details|div|em|h[1-6]|hr|i|img|kbd|li|ol|p|pre|span|strong|sub|summary|sup|table|tbody|td|th|thead|tr|ul)\b[^>]*>`)
	horizontal   = regexp.MustCompile(`(?m)^\s*(?:-{3,}|\*{3,}|_{3,})\s*$`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

var emphasis = []*regexp.Regexp{
	regexp.MustCompile(`\*\*([^*\n]+)\*\*`),
	regexp.MustCompile(`__([^_\n]+)__`),
	regexp.MustCompile(`\*([^*\n]+)\*`),
	regexp.MustCompile(`\b_([^_\n]+)_\b`),
	regexp.MustCompile(`~~([^~\n]+)~~`),
}

// StripMarkdown renders markdown as plain text. Code inside fences and
// backticks is kept; markup is dropped and whitespace collapsed.
func StripMarkdown(md string) string {
	s := fenceLine.ReplaceAllString(md, "")
	s = horizontal.ReplaceAllString(s, "")
	s = image.ReplaceAllString(s, "$1")
	s = link.ReplaceAllString(s, "$1")
	s = inlineCode.ReplaceAllString(s, "$1")
	s = heading.ReplaceAllString(s, "")
	s = blockquote.ReplaceAllString(s, "")
	s = listMarker.ReplaceAllString(s, "")
	for _, re := range emphasis {
		s = re.ReplaceAllString(s, "$1")
	}
	s = htmlTag.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
