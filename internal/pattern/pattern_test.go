package pattern

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompileAndMatch(t *testing.T) {
	tests := []struct {
		name     string
		keywords []string
		text     string
		expected bool
	}{
		{
			name:     "exact keyword",
			keywords: []string{"potter"},
			text:     "potter",
			expected: true,
		},
		{
			name:     "substring semantics",
			keywords: []string{"potter"},
			text:     "Harry Potter and the Goblet of Fire",
			expected: true,
		},
		{
			name:     "case-insensitive",
			keywords: []string{"Stranger Things"},
			text:     "STRANGER THINGS season 5",
			expected: true,
		},
		{
			name:     "whitespace-stripped variant",
			keywords: []string{"stranger things"},
			text:     "watch strangerthings tonight",
			expected: true,
		},
		{
			name:     "whitespace-stripped variant across tabs",
			keywords: []string{"stranger \t things"},
			text:     "strangerthings",
			expected: true,
		},
		{
			name:     "no match",
			keywords: []string{"potter"},
			text:     "The Goblet of Fire",
			expected: false,
		},
		{
			name:     "empty keyword set matches nothing",
			keywords: nil,
			text:     "anything at all",
			expected: false,
		},
		{
			name:     "blank keywords are dropped",
			keywords: []string{"", "   "},
			text:     "anything at all",
			expected: false,
		},
		{
			name:     "empty text never matches",
			keywords: []string{"potter"},
			text:     "",
			expected: false,
		},
		{
			name:     "regex metacharacters are literal",
			keywords: []string{"c++ (2024)"},
			text:     "learn C++ (2024) today",
			expected: true,
		},
		{
			name:     "dot is not a wildcard",
			keywords: []string{"s.e"},
			text:     "sue",
			expected: false,
		},
		{
			name:     "second keyword matches",
			keywords: []string{"dune", "potter"},
			text:     "Potter marathon",
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Compile(tt.keywords)
			assert.Equal(t, tt.expected, p.Match(tt.text))
		})
	}
}

func TestCompileAlternatives(t *testing.T) {
	tests := []struct {
		name     string
		keywords []string
		expected int
	}{
		{
			name:     "single word keyword",
			keywords: []string{"potter"},
			expected: 1,
		},
		{
			name:     "multi-word keyword adds stripped variant",
			keywords: []string{"stranger things"},
			expected: 2,
		},
		{
			name:     "mixed",
			keywords: []string{"dune", "stranger things"},
			expected: 3,
		},
		{
			name:     "empty",
			keywords: nil,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Compile(tt.keywords).Alternatives())
		})
	}
}

func TestEmptyPattern(t *testing.T) {
	assert.True(t, Compile(nil).Empty())
	assert.True(t, (&Pattern{}).Empty())

	var p *Pattern
	assert.True(t, p.Empty())
	assert.False(t, p.Match("anything"))
}

func TestParseList(t *testing.T) {
	input := strings.Join([]string{
		"# spoiler list",
		"! also a comment",
		"stranger things",
		"",
		"Potter",
		"potter",
		"POTTER",
		strings.Repeat("x", MaxKeywordLength+1),
		"dune",
	}, "\n")

	keywords, stats, err := ParseList(strings.NewReader(input))
	assert.NoError(t, err)

	assert.Equal(t, []string{"stranger things", "Potter", "dune"}, keywords)
	assert.Equal(t, 3, stats.Loaded)
	assert.Equal(t, 2, stats.Comments)
	assert.Equal(t, 2, stats.SkipReasons[SkipDuplicate])
	assert.Equal(t, 1, stats.SkipReasons[SkipEmpty])
	assert.Equal(t, 1, stats.SkipReasons[SkipTooLong])
}

func TestParseListEmpty(t *testing.T) {
	keywords, stats, err := ParseList(strings.NewReader(""))
	assert.NoError(t, err)
	assert.Empty(t, keywords)
	assert.Equal(t, 0, stats.Total)
}
