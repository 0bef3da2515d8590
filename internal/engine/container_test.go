package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bnema/content-shield/internal/dom"
)

func TestInferContainer(t *testing.T) {
	tests := []struct {
		name        string
		html        string
		selector    string
		expectedSel string // "" means the candidate itself
	}{
		{
			name:        "media container beats closer post container",
			html:        `<html><body><div class="video-tile"><div class="post"><h2 id="c">kw</h2></div></div></body></html>`,
			selector:    "#c",
			expectedSel: ".video-tile",
		},
		{
			name:        "custom video tag",
			html:        `<html><body><ytd-video-renderer id="v"><span id="c">kw</span></ytd-video-renderer></body></html>`,
			selector:    "#c",
			expectedSel: "#v",
		},
		{
			name:        "thumbnail class",
			html:        `<html><body><div class="ShortsThumbnail"><a id="c">kw</a></div></body></html>`,
			selector:    "#c",
			expectedSel: ".ShortsThumbnail",
		},
		{
			name:        "article tag",
			html:        `<html><body><article><h2 id="c">kw</h2></article></body></html>`,
			selector:    "#c",
			expectedSel: "article",
		},
		{
			name:        "feed list item",
			html:        `<html><body><ul><li><span id="c">kw</span></li></ul></body></html>`,
			selector:    "#c",
			expectedSel: "li",
		},
		{
			name:        "card class fragment",
			html:        `<html><body><div class="result-card"><p id="c">kw</p></div></body></html>`,
			selector:    "#c",
			expectedSel: ".result-card",
		},
		{
			name:        "large bounding box fallback",
			html:        `<html><body><div id="big" width="300" height="300"><div><p id="c">kw</p></div></div></body></html>`,
			selector:    "#c",
			expectedSel: "#big",
		},
		{
			name:        "too-small box is ignored",
			html:        `<html><body><div width="300" height="100"><p id="c">kw</p></div></body></html>`,
			selector:    "#c",
			expectedSel: "",
		},
		{
			name:        "nothing qualifies, candidate itself",
			html:        `<html><body><div><h1 id="c">kw</h1></div></body></html>`,
			selector:    "#c",
			expectedSel: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustDoc(t, tt.html)
			e := newTestEngine(t, doc, nil)

			el := firstMatch(t, doc, tt.selector)
			got := e.inferContainer(el)

			if tt.expectedSel == "" {
				assert.Equal(t, el, got)
			} else {
				assert.Equal(t, firstMatch(t, doc, tt.expectedSel), got)
			}
		})
	}
}

func TestInferContainerDepthBound(t *testing.T) {
	// post container sits beyond the ancestor depth bound
	var b strings.Builder
	b.WriteString(`<html><body><article>`)
	for i := 0; i < 16; i++ {
		b.WriteString("<div>")
	}
	b.WriteString(`<h2 id="c">kw</h2>`)
	for i := 0; i < 16; i++ {
		b.WriteString("</div>")
	}
	b.WriteString(`</article></body></html>`)

	doc := mustDoc(t, b.String())
	e := newTestEngine(t, doc, nil)

	el := firstMatch(t, doc, "#c")
	assert.Equal(t, el, e.inferContainer(el), "out-of-reach article must not be chosen")
}

func TestInferContainerDetachedElement(t *testing.T) {
	doc := mustDoc(t, `<html><body></body></html>`)
	e := newTestEngine(t, doc, nil)

	el := dom.CreateElement("h2", nil, "kw")
	assert.Equal(t, el, e.inferContainer(el))
}
