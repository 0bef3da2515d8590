// Package engine implements the content filter engine: it scans a document
// for elements whose relevant text matches the configured keywords, obscures
// the inferred container with the configured effect, keeps up with added
// content through mutation observation, and re-validates applied filters when
// the virtual location changes.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/bnema/content-shield/internal/dom"
	"github.com/bnema/content-shield/internal/models"
	"github.com/bnema/content-shield/internal/pattern"
)

// SettingsStore provides the persisted keyword configuration
type SettingsStore interface {
	Load() (models.Settings, error)
}

// Options contains engine tuning knobs
type Options struct {
	MaxAncestorDepth   int
	MinContainerWidth  int
	MinContainerHeight int
	LeafSearchDepth    int
	ShortTextLimit     int
	FallbackTextLimit  int
	PollInterval       time.Duration
	SettleDelay        time.Duration
}

// DefaultOptions returns the production tuning
func DefaultOptions() Options {
	return Options{
		MaxAncestorDepth:   15,
		MinContainerWidth:  200,
		MinContainerHeight: 200,
		LeafSearchDepth:    4,
		ShortTextLimit:     400,
		FallbackTextLimit:  500,
		PollInterval:       500 * time.Millisecond,
		SettleDelay:        300 * time.Millisecond,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MaxAncestorDepth <= 0 {
		o.MaxAncestorDepth = def.MaxAncestorDepth
	}
	if o.MinContainerWidth <= 0 {
		o.MinContainerWidth = def.MinContainerWidth
	}
	if o.MinContainerHeight <= 0 {
		o.MinContainerHeight = def.MinContainerHeight
	}
	if o.LeafSearchDepth <= 0 {
		o.LeafSearchDepth = def.LeafSearchDepth
	}
	if o.ShortTextLimit <= 0 {
		o.ShortTextLimit = def.ShortTextLimit
	}
	if o.FallbackTextLimit <= 0 {
		o.FallbackTextLimit = def.FallbackTextLimit
	}
	if o.PollInterval <= 0 {
		o.PollInterval = def.PollInterval
	}
	if o.SettleDelay <= 0 {
		o.SettleDelay = def.SettleDelay
	}
	return o
}

// Stats tracks filtering statistics
type Stats struct {
	Candidates  int
	Matched     int
	Filtered    int
	Revealed    int
	Revised     int
	SkipReasons map[string]int // breakdown of candidates that matched but were not filtered
}

// Skip reason constants
const (
	SkipAlreadyFiltered = "already-filtered"
	SkipMatchGone       = "match-gone"
	SkipEmptyText       = "empty-text"
)

// appliedFilter remembers what an effect replaced, for exact restore
type appliedFilter struct {
	mode          models.FilterMode
	originalStyle string
	hadStyle      bool
}

// Engine filters one document. All trigger sources (initial scan, mutation
// batches, the navigation poller, reveal clicks, refilter requests) serialize
// on one mutex, so scan -> infer -> verify -> apply never interleaves for the
// same element.
type Engine struct {
	doc   *dom.Document
	store SettingsStore
	opts  Options
	log   *zap.Logger

	mu        sync.Mutex
	pat       *pattern.Pattern
	mode      models.FilterMode
	processed map[*html.Node]struct{}
	filtered  map[*html.Node]*appliedFilter
	lastLoc   string
	stats     Stats

	obsID      int
	observing  bool
	navID      int
	runCtx     context.Context
	cancelPoll context.CancelFunc
	pollDone   chan struct{}
}

// New creates an engine for doc backed by store
func New(doc *dom.Document, store SettingsStore, opts Options, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		doc:       doc,
		store:     store,
		opts:      opts.withDefaults(),
		log:       log,
		pat:       &pattern.Pattern{},
		mode:      models.DefaultMode,
		processed: make(map[*html.Node]struct{}),
		filtered:  make(map[*html.Node]*appliedFilter),
		stats:     Stats{SkipReasons: make(map[string]int)},
	}
}

// Start loads configuration, performs the initial scan and begins mutation
// observation and navigation monitoring. With no keywords configured the
// engine stays idle: no scan, no observer, no poller.
func (e *Engine) Start(ctx context.Context) error {
	if e.doc == nil {
		return errors.New("engine: nil document")
	}
	e.runCtx = ctx

	e.loadConfiguration()

	e.mu.Lock()
	idle := e.pat.Empty()
	e.lastLoc = e.doc.Location()
	e.mu.Unlock()

	if idle {
		e.log.Debug("no keywords configured, engine idle")
		return nil
	}

	e.Scan()
	e.observeMutations()
	e.monitorNavigation(ctx)
	return nil
}

// RunOnce loads configuration and performs a single scan without registering
// any observer or poller. Used for one-shot filtering of static documents.
func (e *Engine) RunOnce(ctx context.Context) error {
	if e.doc == nil {
		return errors.New("engine: nil document")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e.loadConfiguration()

	e.mu.Lock()
	idle := e.pat.Empty()
	e.mu.Unlock()
	if idle {
		return nil
	}

	e.Scan()
	return nil
}

// Stop tears down the mutation observer and the navigation poller
func (e *Engine) Stop() {
	e.teardown()
}

func (e *Engine) teardown() {
	e.mu.Lock()
	id, observing := e.obsID, e.observing
	e.observing = false
	cancel, done, navID := e.cancelPoll, e.pollDone, e.navID
	e.cancelPoll, e.pollDone, e.navID = nil, nil, 0
	e.mu.Unlock()

	if observing {
		e.doc.Disconnect(id)
	}
	if cancel != nil {
		cancel()
		<-done
		e.doc.DisconnectNavigation(navID)
	}
}

// loadConfiguration reads the settings store. A missing or unreadable store
// degrades to defaults; it is never an error.
func (e *Engine) loadConfiguration() {
	s, err := e.store.Load()
	if err != nil {
		e.log.Warn("settings unavailable, using defaults", zap.Error(err))
		s = models.DefaultSettings()
	}

	mode, ok := models.ParseMode(string(s.FilterMode))
	if !ok && s.FilterMode != "" {
		e.log.Warn("unknown filter mode, using default",
			zap.String("mode", string(s.FilterMode)))
	}

	e.mu.Lock()
	e.pat = pattern.Compile(s.Keywords)
	e.mode = mode
	e.mu.Unlock()

	e.log.Debug("configuration loaded",
		zap.Int("keywords", len(s.Keywords)),
		zap.String("mode", string(mode)))
}

// Refilter clears every applied effect and tag, reloads configuration, and
// restarts scanning and observation from a clean state. The old observer and
// poller are disposed before new ones are created so handlers never
// accumulate across resets.
func (e *Engine) Refilter() error {
	e.teardown()

	e.mu.Lock()
	for target, af := range e.filtered {
		e.restoreLocked(target, af)
	}
	e.filtered = make(map[*html.Node]*appliedFilter)
	e.processed = make(map[*html.Node]struct{})
	e.mu.Unlock()

	e.loadConfiguration()

	e.mu.Lock()
	idle := e.pat.Empty()
	e.lastLoc = e.doc.Location()
	e.mu.Unlock()
	if idle {
		return nil
	}

	e.Scan()
	e.observeMutations()
	if e.runCtx != nil {
		e.monitorNavigation(e.runCtx)
	}
	return nil
}

// Stats returns a snapshot of the filtering statistics
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := e.stats
	out.SkipReasons = make(map[string]int, len(e.stats.SkipReasons))
	for k, v := range e.stats.SkipReasons {
		out.SkipReasons[k] = v
	}
	return out
}

// FilteredCount returns the number of currently tagged elements
func (e *Engine) FilteredCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.filtered)
}

// Mode returns the active filter mode
func (e *Engine) Mode() models.FilterMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}
