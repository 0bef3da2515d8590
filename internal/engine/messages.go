package engine

import (
	"context"
	"fmt"

	"github.com/bnema/content-shield/internal/bus"
)

// HandleMessage implements bus.Handler. Only the refilter action is known.
func (e *Engine) HandleMessage(_ context.Context, msg bus.Message) (bus.Response, error) {
	if msg.Action != bus.ActionRefilter {
		return bus.Response{}, fmt.Errorf("engine: unknown action %q", msg.Action)
	}
	if err := e.Refilter(); err != nil {
		return bus.Response{}, err
	}
	return bus.Response{Success: true}, nil
}
