// Package formatting recovers structured values from free-form model output.
package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParseFailed is returned when content cannot be parsed as JSON by any recovery strategy.
var ErrParseFailed = errors.New("failed to parse response")

var (
	jsonBlockRegex    = regexp.MustCompile(`(?s)` + "```" + `(?:json)?\s*\n?(.*?)\n?` + "```")
	trailingCommaExpr = regexp.MustCompile(`,\s*([}\]])`)
	wholeFenceRegex   = regexp.MustCompile("(?s)^```[a-zA-Z0-9_+-]*[ \t]*\n(.*?)\n?```$")
)

const excerptLimit = 200

// Parse unmarshals content as JSON into T. When the content is not bare JSON it
// tries, in order, a markdown code fence, the outermost object or array embedded
// in surrounding prose, and finally the same candidates with trailing commas removed.
func Parse[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(content)

	for _, candidate := range candidates(content) {
		if err := json.Unmarshal([]byte(candidate), &result); err == nil {
			return result, nil
		}
		cleaned := trailingCommaExpr.ReplaceAllString(candidate, "$1")
		if cleaned != candidate {
			if err := json.Unmarshal([]byte(cleaned), &result); err == nil {
				return result, nil
			}
		}
	}

	return result, fmt.Errorf("%w: %s", ErrParseFailed, Excerpt(content, excerptLimit))
}

// UnwrapFence strips a code fence that wraps the entire text. It reports
// whether a fence was removed. Fences embedded inside prose are left alone.
func UnwrapFence(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	m := wholeFenceRegex.FindStringSubmatch(trimmed)
	if len(m) < 2 {
		return text, false
	}
	return m[1], true
}

// Excerpt shortens s to at most limit runes, appending an ellipsis when cut.
func Excerpt(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}

func candidates(content string) []string {
	if content == "" {
		return nil
	}

	out := []string{content}

	if m := jsonBlockRegex.FindStringSubmatch(content); len(m) >= 2 {
		out = append(out, strings.TrimSpace(m[1]))
	}

	if s := span(content, '{', '}'); s != "" {
		out = append(out, s)
	}
	if s := span(content, '[', ']'); s != "" {
		out = append(out, s)
	}

	return out
}

func span(content string, open, close byte) string {
	start := strings.IndexByte(content, open)
	end := strings.LastIndexByte(content, close)
	if start < 0 || end <= start {
		return ""
	}
	return content[start : end+1]
}
