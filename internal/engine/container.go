package engine

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/bnema/content-shield/internal/dom"
)

// Signatures of video and short-form content containers, where the spoiler is
// the surrounding thumbnail rather than the matched text itself
var (
	mediaTagFragments   = []string{"video", "reel", "short"}
	mediaClassFragments = []string{"video", "thumbnail", "reel", "short", "tile"}
)

// Signatures of post/article/card containers
var (
	postTags           = map[string]bool{"article": true, "li": true}
	postClassFragments = []string{"post", "card", "item", "feed", "story", "tweet"}
)

// inferContainer picks the element to obscure for a matched candidate.
// Ancestors are searched in priority order: video/short-form containers,
// then post/card containers, then the first ancestor with a usefully large
// bounding box, then the candidate itself.
func (e *Engine) inferContainer(el *html.Node) *html.Node {
	if n := e.findAncestor(el, e.isMediaContainer); n != nil {
		return n
	}
	if n := e.findAncestor(el, e.isPostContainer); n != nil {
		return n
	}
	if n := e.findAncestor(el, e.isLargeEnough); n != nil {
		return n
	}
	return el
}

// findAncestor walks from el upward, bounded by MaxAncestorDepth, stopping
// short of body
func (e *Engine) findAncestor(el *html.Node, match func(*html.Node) bool) *html.Node {
	n := el
	for depth := 0; n != nil && depth < e.opts.MaxAncestorDepth; depth++ {
		if !dom.IsElement(n) {
			return nil
		}
		switch dom.Tag(n) {
		case "body", "html":
			return nil
		}
		if match(n) {
			return n
		}
		n = n.Parent
	}
	return nil
}

func (e *Engine) isMediaContainer(n *html.Node) bool {
	tag := dom.Tag(n)
	for _, f := range mediaTagFragments {
		if strings.Contains(tag, f) {
			return true
		}
	}
	hint := classIDHint(n)
	if hint == "" {
		return false
	}
	for _, f := range mediaClassFragments {
		if strings.Contains(hint, f) {
			return true
		}
	}
	return false
}

func (e *Engine) isPostContainer(n *html.Node) bool {
	if postTags[dom.Tag(n)] {
		return true
	}
	hint := classIDHint(n)
	if hint == "" {
		return false
	}
	for _, f := range postClassFragments {
		if strings.Contains(hint, f) {
			return true
		}
	}
	return false
}

func (e *Engine) isLargeEnough(n *html.Node) bool {
	box := e.doc.BoundingBox(n)
	return box.Width >= e.opts.MinContainerWidth && box.Height >= e.opts.MinContainerHeight
}

func classIDHint(n *html.Node) string {
	hint := dom.Attr(n, "class") + " " + dom.Attr(n, "id")
	if hint == " " {
		return ""
	}
	return strings.ToLower(hint)
}
