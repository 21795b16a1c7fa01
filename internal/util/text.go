package util

import (
	"regexp"
	"strings"
)

const excerptLength = 200

var (
	markdownSyntax = regexp.MustCompile("[#*`\\[\\]]")
	newlineRuns    = regexp.MustCompile(`\n+`)
	nonSlugChars   = regexp.MustCompile(`[^a-z0-9]+`)
)

// Excerpt derives the denormalized post summary stored at creation time:
// markdown syntax stripped, newline runs collapsed to a single space,
// trimmed, and truncated to 200 characters.
func Excerpt(content string) string {
	s := markdownSyntax.ReplaceAllString(content, "")
	s = newlineRuns.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	runes := []rune(s)
	if len(runes) > excerptLength {
		return string(runes[:excerptLength])
	}
	return s
}

// Slugify lowercases a name and squeezes everything that isn't [a-z0-9]
// into single hyphens. Used for category and tag slugs.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonSlugChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// UsernameFromEmail derives a default username from the email local-part.
func UsernameFromEmail(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		return "user"
	}
	return strings.ToLower(local)
}
