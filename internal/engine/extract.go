package engine

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/bnema/content-shield/internal/dom"
)

// Tags likely to carry the visible label of a block of content
var shortTextTags = map[string]bool{
	"a": true, "p": true, "span": true, "div": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"figcaption": true, "yt-formatted-string": true,
}

// Attributes that label an element for accessibility or hover text
var labelAttrs = []string{"aria-label", "title", "alt"}

// extractRelevantText gathers the text worth matching for a candidate.
// Full recursive text content is too slow and too broad, it would match
// unrelated nested content, so the heuristic goes in priority order:
// direct text plus leaf-only descendant text, then labelling attributes,
// then a bounded-depth search for the first short descendant text of a
// common content tag, and finally a truncated full-text fallback.
// Any failure yields "".
func (e *Engine) extractRelevantText(el *html.Node) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	if el == nil {
		return ""
	}

	var parts []string
	if t := strings.TrimSpace(dom.DirectText(el)); t != "" {
		parts = append(parts, t)
	}
	for c := el.FirstChild; c != nil; c = c.NextSibling {
		if dom.IsElement(c) && dom.IsLeaf(c) {
			if t := strings.TrimSpace(dom.DirectText(c)); t != "" {
				parts = append(parts, t)
			}
		}
	}
	for _, name := range labelAttrs {
		if v := strings.TrimSpace(dom.Attr(el, name)); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}

	if t := e.firstShortText(el, 0); t != "" {
		return t
	}

	full := strings.TrimSpace(dom.FullText(el))
	if r := []rune(full); len(r) > e.opts.FallbackTextLimit {
		full = string(r[:e.opts.FallbackTextLimit])
	}
	return full
}

// firstShortText searches a few levels down for the first short text carried
// by a common content tag.
func (e *Engine) firstShortText(n *html.Node, depth int) string {
	if depth >= e.opts.LeafSearchDepth {
		return ""
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !dom.IsElement(c) {
			continue
		}
		if shortTextTags[dom.Tag(c)] {
			if t := strings.TrimSpace(dom.DirectText(c)); t != "" && utf8.RuneCountInString(t) < e.opts.ShortTextLimit {
				return t
			}
		}
		if t := e.firstShortText(c, depth+1); t != "" {
			return t
		}
	}
	return ""
}
