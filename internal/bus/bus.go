// Package bus carries requests from a settings surface to every active
// engine instance and collects their responses.
package bus

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// ActionRefilter asks an engine to restart filtering from a clean state
const ActionRefilter = "refilter"

// Message is a cross-surface request
type Message struct {
	Action string `json:"action"`
}

// Response acknowledges a message
type Response struct {
	Success bool `json:"success"`
}

// Handler processes bus messages
type Handler interface {
	HandleMessage(ctx context.Context, msg Message) (Response, error)
}

// Dispatcher broadcasts messages to registered handlers
type Dispatcher struct {
	log *zap.Logger

	mu       sync.Mutex
	handlers map[int]Handler
	next     int
}

// NewDispatcher creates a dispatcher
func NewDispatcher(log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		log:      log,
		handlers: make(map[int]Handler),
	}
}

// Register adds a handler and returns its id
func (d *Dispatcher) Register(h Handler) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.next++
	d.handlers[d.next] = h
	return d.next
}

// Unregister removes a handler
func (d *Dispatcher) Unregister(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.handlers, id)
}

// Broadcast delivers msg to every registered handler. A handler that errors
// is recorded as unsuccessful without blocking delivery to the others.
func (d *Dispatcher) Broadcast(ctx context.Context, msg Message) []Response {
	d.mu.Lock()
	hs := make([]Handler, 0, len(d.handlers))
	for _, h := range d.handlers {
		hs = append(hs, h)
	}
	d.mu.Unlock()

	responses := make([]Response, 0, len(hs))
	for _, h := range hs {
		resp, err := h.HandleMessage(ctx, msg)
		if err != nil {
			d.log.Warn("message handler failed",
				zap.String("action", msg.Action), zap.Error(err))
			responses = append(responses, Response{Success: false})
			continue
		}
		responses = append(responses, resp)
	}
	return responses
}
