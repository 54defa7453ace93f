package enrichment

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

var (
	whitespace   = regexp.MustCompile(`\s+`)
	htmlTag      = regexp.MustCompile(`(?i)</?[a-z][a-z0-9]*(\s[^>]*)?/?>`)
	htmlDocument = regexp.MustCompile(`(?i)^\s*(<!doctype\s+html|<html[\s>]|<body[\s>])`)
	fenceLine    = regexp.MustCompile("^\\s*(```|~~~)")
	heading      = regexp.MustCompile(`^(#{1,6})\s+(.*?)\s*#*\s*$`)
)

// PlainText strips HTML markup from content. Full HTML documents are reduced to
// their visible text. Markdown keeps its lines: tags are removed outside fenced
// blocks and inline code spans, and everything else is returned unchanged.
func PlainText(content string) string {
	if htmlDocument.MatchString(content) {
		return documentText(content)
	}
	if !htmlTag.MatchString(content) {
		return content
	}

	lines := strings.Split(content, "\n")
	fenced := false
	for i, line := range lines {
		if fenceLine.MatchString(line) {
			fenced = !fenced
			continue
		}
		if !fenced {
			lines[i] = stripTags(line)
		}
	}
	return strings.Join(lines, "\n")
}

func documentText(content string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return content
	}

	doc.Find("script, style, nav, footer, header, aside").Remove()

	text := whitespace.ReplaceAllString(doc.Text(), " ")
	return strings.TrimSpace(text)
}

// stripTags removes tags from the parts of line outside backtick code spans.
func stripTags(line string) string {
	parts := strings.Split(line, "`")
	changed := false
	for i := 0; i < len(parts); i += 2 {
		if stripped := htmlTag.ReplaceAllString(parts[i], ""); stripped != parts[i] {
			parts[i] = stripped
			changed = true
		}
	}
	if !changed {
		return line
	}
	return strings.TrimRight(strings.Join(parts, "`"), " \t")
}

// Words lowercases text and splits it into alphanumeric tokens.
func Words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

// SectionText extracts the body under the markdown heading named section, up to
// the next heading of the same or higher level.
func SectionText(content, section string) (string, bool) {
	want := normalizeHeading(section)
	if want == "" {
		return "", false
	}

	lines := strings.Split(content, "\n")
	start, level := -1, 0

	for i, line := range lines {
		m := heading.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}

		if start >= 0 {
			if len(m[1]) <= level {
				return strings.TrimSpace(strings.Join(lines[start:i], "\n")), true
			}
			continue
		}

		if normalizeHeading(m[2]) == want {
			start, level = i+1, len(m[1])
		}
	}

	if start < 0 {
		return "", false
	}
	return strings.TrimSpace(strings.Join(lines[start:], "\n")), true
}

func normalizeHeading(s string) string {
	s = strings.TrimLeft(strings.TrimSpace(s), "#")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
