// ABOUTME: Owned coordinator for pending operations and buffered changes
// ABOUTME: Sole mutator of both queues; enqueue deep-copies payloads via JSON

package syncer

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// OpType identifies how a pending operation is replayed.
type OpType string

const (
	OpPushState   OpType = "push-full-state"
	OpStarDelta   OpType = "star-delta"
	OpHiddenDelta OpType = "hidden-delta"
)

// PendingOp is a queued unit of work whose network send failed or was
// attempted while offline. Data is deep-copied at enqueue time so later
// mutation of the source cannot alias into the queue.
type PendingOp struct {
	ID       string
	Type     OpType
	Data     json.RawMessage
	Attempts int
}

// coordinator owns the pending-operation queue and the buffered-change
// list. Both are process-wide in-memory state; all mutation goes through
// its mutex so sync passes and user-triggered toggles can interleave
// safely.
type coordinator struct {
	mu       sync.Mutex
	pending  []PendingOp
	buffered map[string]json.RawMessage
}

func newCoordinator() *coordinator {
	return &coordinator{buffered: make(map[string]json.RawMessage)}
}

// enqueue appends a new pending operation, JSON-encoding data as the
// deep copy.
func (c *coordinator) enqueue(t OpType, data any) (PendingOp, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return PendingOp{}, fmt.Errorf("encode pending %s: %w", t, err)
	}
	op := PendingOp{ID: uuid.New().String(), Type: t, Data: raw}

	c.mu.Lock()
	c.pending = append(c.pending, op)
	c.mu.Unlock()
	return op, nil
}

// requeue returns a failed operation to the back of the queue.
func (c *coordinator) requeue(op PendingOp) {
	c.mu.Lock()
	c.pending = append(c.pending, op)
	c.mu.Unlock()
}

// drain removes and returns every pending operation.
func (c *coordinator) drain() []PendingOp {
	c.mu.Lock()
	defer c.mu.Unlock()
	ops := c.pending
	c.pending = nil
	return ops
}

func (c *coordinator) pendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// buffer records a locally changed state key for the next push cycle.
// The value is JSON-encoded immediately, which also decouples it from
// the caller's copy.
func (c *coordinator) buffer(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode buffered change %q: %w", key, err)
	}
	c.mu.Lock()
	c.buffered[key] = raw
	c.mu.Unlock()
	return nil
}

// takeBuffered removes and returns all buffered changes.
func (c *coordinator) takeBuffered() map[string]json.RawMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.buffered) == 0 {
		return nil
	}
	changes := c.buffered
	c.buffered = make(map[string]json.RawMessage)
	return changes
}

// restoreBuffered merges a failed push's changes back, keeping any value
// buffered again since the take (the newer write wins).
func (c *coordinator) restoreBuffered(changes map[string]json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, raw := range changes {
		if _, exists := c.buffered[key]; !exists {
			c.buffered[key] = raw
		}
	}
}

func (c *coordinator) bufferedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffered)
}
