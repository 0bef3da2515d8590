package engine

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/bnema/content-shield/internal/dom"
	"github.com/bnema/content-shield/internal/models"
)

// Visual effect styles
const (
	blurStyle   = "filter: blur(18px);"
	censorStyle = "background-color: #000; color: #000;"
)

// applyFilterLocked obscures target according to the active mode. It is
// idempotent (marker check first) and re-verifies the match immediately
// before acting, so a stale detection from an earlier trigger cannot tag a
// container that no longer matches.
func (e *Engine) applyFilterLocked(target *html.Node) {
	if target == nil {
		return
	}
	if dom.HasAttr(target, models.AttrFiltered) {
		e.stats.SkipReasons[SkipAlreadyFiltered]++
		return
	}
	if !e.doc.Contains(target) || !e.matchesSubtreeLocked(target) {
		e.stats.SkipReasons[SkipMatchGone]++
		return
	}

	switch e.mode {
	case models.ModeRemove:
		e.doc.Remove(target)
		e.forgetSubtreeLocked(target)
		e.log.Debug("removed element", zap.String("tag", dom.Tag(target)))
	case models.ModeCensor:
		e.obscureLocked(target, censorStyle)
		e.log.Debug("censored element", zap.String("tag", dom.Tag(target)))
	default:
		e.obscureLocked(target, blurStyle)
		e.log.Debug("blurred element", zap.String("tag", dom.Tag(target)))
	}
	e.stats.Filtered++
}

func (e *Engine) obscureLocked(target *html.Node, style string) {
	orig := dom.Attr(target, "style")
	had := dom.HasAttr(target, "style")

	applied := style
	if orig != "" {
		applied = strings.TrimRight(strings.TrimSpace(orig), ";") + "; " + style
	}
	dom.SetAttr(target, "style", applied)
	dom.SetAttr(target, models.AttrFiltered, string(e.mode))

	e.filtered[target] = &appliedFilter{
		mode:          e.mode,
		originalStyle: orig,
		hadStyle:      had,
	}

	// one-shot reveal, permanent for the element until reload
	e.doc.OnClick(target, func() { e.Reveal(target) })
}

// Reveal undoes the effect on target after user interaction and untags it
func (e *Engine) Reveal(target *html.Node) {
	e.mu.Lock()
	defer e.mu.Unlock()

	af, ok := e.filtered[target]
	if !ok {
		return
	}
	e.restoreLocked(target, af)
	delete(e.filtered, target)
	e.stats.Revealed++
}

// restoreLocked puts the element's pre-filter appearance back exactly
func (e *Engine) restoreLocked(target *html.Node, af *appliedFilter) {
	if af.hadStyle {
		dom.SetAttr(target, "style", af.originalStyle)
	} else {
		dom.RemoveAttr(target, "style")
	}
	dom.RemoveAttr(target, models.AttrFiltered)
	e.doc.ClearClick(target)
}

// Revise re-validates every tagged element; a container that no longer
// matches, typically because a feed recycled its contents under the same
// node, is unfiltered. Afterwards every tagged element currently matches.
func (e *Engine) Revise() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for target, af := range e.filtered {
		if !e.doc.Contains(target) {
			e.doc.ClearClick(target)
			delete(e.filtered, target)
			continue
		}
		if !e.matchesSubtreeLocked(target) {
			e.restoreLocked(target, af)
			delete(e.filtered, target)
			e.stats.Revised++
		}
	}

	// prune tracking for detached nodes so it does not outlive the content
	for n := range e.processed {
		if !e.doc.Contains(n) {
			delete(e.processed, n)
		}
	}
}

// matchesSubtreeLocked reports whether target or a candidate descendant
// still matches the active pattern
func (e *Engine) matchesSubtreeLocked(target *html.Node) bool {
	if e.pat.Empty() {
		return false
	}
	if e.pat.Match(e.extractRelevantText(target)) {
		return true
	}
	for _, el := range candidates.MatchAll(target) {
		if el == target {
			continue
		}
		if e.pat.Match(e.extractRelevantText(el)) {
			return true
		}
	}
	return false
}

func (e *Engine) forgetSubtreeLocked(n *html.Node) {
	delete(e.processed, n)
	delete(e.filtered, n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		e.forgetSubtreeLocked(c)
	}
}
