package engine

import (
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/bnema/content-shield/internal/dom"
)

// Candidate allow-list: headings, links, paragraphs, spans, articles, plus
// title/headline/post-like classes and labelled elements. Bounding the
// candidate set keeps scans cheap and avoids matching unrelated page chrome.
const candidateSelector = `h1, h2, h3, h4, h5, h6, a, p, span, article, [class*="title"], [class*="headline"], [class*="post"], [aria-label]`

var candidates = cascadia.MustCompile(candidateSelector)

// Scan walks the candidate elements of the whole document and filters those
// whose relevant text matches the active pattern.
func (e *Engine) Scan() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pat.Empty() {
		return
	}
	for _, el := range e.doc.QueryAll(candidates) {
		e.processCandidateLocked(el)
	}
}

func (e *Engine) processCandidateLocked(el *html.Node) {
	if _, ok := e.processed[el]; ok {
		return
	}
	e.processed[el] = struct{}{}

	// a prior remove-mode filter may have detached this candidate mid-scan
	if !e.doc.Contains(el) {
		return
	}
	e.stats.Candidates++

	text := e.extractRelevantText(el)
	if text == "" {
		e.stats.SkipReasons[SkipEmptyText]++
		return
	}
	if !e.pat.Match(text) {
		return
	}

	e.stats.Matched++
	e.applyFilterLocked(e.inferContainer(el))
}

// observeMutations registers for added-node batches; new nodes and their
// descendants run through the same candidate selection and match logic as a
// full scan, so dynamically inserted content is filtered without a reload.
func (e *Engine) observeMutations() {
	e.mu.Lock()
	if e.observing {
		e.mu.Unlock()
		return
	}
	e.observing = true
	e.mu.Unlock()

	id := e.doc.Observe(e.onMutation)

	e.mu.Lock()
	e.obsID = id
	e.mu.Unlock()
}

func (e *Engine) onMutation(m dom.Mutation) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pat.Empty() {
		return
	}
	for _, n := range m.Added {
		if !dom.IsElement(n) {
			continue
		}
		for _, el := range candidates.MatchAll(n) {
			e.processCandidateLocked(el)
		}
	}
}
