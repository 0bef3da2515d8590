package pattern

import (
	"regexp"
	"strings"
)

// Pattern is the compiled matcher built from a keyword set.
// A nil or empty Pattern matches nothing.
type Pattern struct {
	re           *regexp.Regexp
	alternatives int
}

// Compile builds a case-insensitive substring matcher from keywords.
// Each keyword contributes a literal-escaped alternative; keywords containing
// whitespace contribute a second, whitespace-stripped alternative so that
// "stranger things" also matches "strangerthings". An empty keyword set
// compiles to an empty pattern without error.
func Compile(keywords []string) *Pattern {
	var alts []string

	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}

		alts = append(alts, regexp.QuoteMeta(kw))

		// Whitespace-stripped variant for multi-word keywords
		if stripped := strings.Join(strings.Fields(kw), ""); stripped != kw {
			alts = append(alts, regexp.QuoteMeta(stripped))
		}
	}

	if len(alts) == 0 {
		return &Pattern{}
	}

	// QuoteMeta output is always a valid expression
	re := regexp.MustCompile(`(?i)` + strings.Join(alts, "|"))

	return &Pattern{re: re, alternatives: len(alts)}
}

// Empty reports whether the pattern can never match
func (p *Pattern) Empty() bool {
	return p == nil || p.re == nil
}

// Alternatives returns the number of compiled alternatives
func (p *Pattern) Alternatives() int {
	if p == nil {
		return 0
	}
	return p.alternatives
}

// Match reports whether s contains any keyword as a case-insensitive substring
func (p *Pattern) Match(s string) bool {
	if p.Empty() || s == "" {
		return false
	}
	return p.re.MatchString(s)
}
