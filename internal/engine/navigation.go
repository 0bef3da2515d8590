package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// monitorNavigation watches the virtual location by polling in addition to
// consuming explicit navigation events; client-side route changes do not
// reliably announce themselves. Both sources converge on checkNavigation,
// which de-duplicates against the last-known location.
func (e *Engine) monitorNavigation(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	navCh, navID := e.doc.NavigationEvents()

	e.mu.Lock()
	e.cancelPoll = cancel
	e.pollDone = done
	e.navID = navID
	e.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(e.opts.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.checkNavigation(ctx)
			case <-navCh:
				e.checkNavigation(ctx)
			}
		}
	}()
}

// checkNavigation re-validates and rescans after a location change. The
// settle delay gives the new content time to render before rescanning; at the
// instant the location changes it typically is not there yet.
func (e *Engine) checkNavigation(ctx context.Context) {
	loc := e.doc.Location()

	e.mu.Lock()
	changed := loc != e.lastLoc
	if changed {
		e.lastLoc = loc
	}
	e.mu.Unlock()
	if !changed {
		return
	}

	e.log.Debug("location changed", zap.String("location", loc))

	if e.opts.SettleDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(e.opts.SettleDelay):
		}
	}

	e.Revise()

	// recycled containers keep their node identity across a route change, so
	// the processed set must be dropped or the rescan would skip content that
	// newly matches
	e.mu.Lock()
	e.processed = make(map[*html.Node]struct{})
	e.mu.Unlock()

	e.Scan()
}
