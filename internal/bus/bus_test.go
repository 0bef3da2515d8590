package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubHandler struct {
	calls int
	err   error
}

func (h *stubHandler) HandleMessage(_ context.Context, msg Message) (Response, error) {
	h.calls++
	if h.err != nil {
		return Response{}, h.err
	}
	return Response{Success: true}, nil
}

func TestBroadcastReachesAllHandlers(t *testing.T) {
	d := NewDispatcher(nil)
	a := &stubHandler{}
	b := &stubHandler{}
	d.Register(a)
	d.Register(b)

	responses := d.Broadcast(context.Background(), Message{Action: ActionRefilter})

	assert.Len(t, responses, 2)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
	for _, r := range responses {
		assert.True(t, r.Success)
	}
}

func TestBroadcastSkipsFailingHandler(t *testing.T) {
	d := NewDispatcher(nil)
	bad := &stubHandler{err: errors.New("no engine in this context")}
	good := &stubHandler{}
	d.Register(bad)
	d.Register(good)

	responses := d.Broadcast(context.Background(), Message{Action: ActionRefilter})

	assert.Len(t, responses, 2)
	assert.Equal(t, 1, good.calls, "failure on one target does not block the others")

	successes := 0
	for _, r := range responses {
		if r.Success {
			successes++
		}
	}
	assert.Equal(t, 1, successes)
}

func TestUnregister(t *testing.T) {
	d := NewDispatcher(nil)
	h := &stubHandler{}
	id := d.Register(h)
	d.Unregister(id)

	responses := d.Broadcast(context.Background(), Message{Action: ActionRefilter})
	assert.Empty(t, responses)
	assert.Equal(t, 0, h.calls)
}

func TestBroadcastNoHandlers(t *testing.T) {
	d := NewDispatcher(nil)
	assert.Empty(t, d.Broadcast(context.Background(), Message{Action: ActionRefilter}))
}
