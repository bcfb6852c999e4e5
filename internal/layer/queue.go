package layer

import (
	"fmt"
	"sync"
)

// OpKind identifies a deferred structural change.
type OpKind int

const (
	// OpPush pushes Op.Layer.
	OpPush OpKind = iota + 1
	// OpPop pops the top layer.
	OpPop
	// OpSwap swaps the top layer for Op.Layer.
	OpSwap
)

// String returns "push", "pop" or "swap".
func (k OpKind) String() string {
	switch k {
	case OpPush:
		return "push"
	case OpPop:
		return "pop"
	case OpSwap:
		return "swap"
	default:
		return fmt.Sprintf("op(%d)", int(k))
	}
}

// Op is a structural change requested from inside a sweep and applied by
// Flush.
type Op struct {
	Kind  OpKind
	Layer Layer

	// Done, if set, receives the layer removed by a Pop or Swap (nil when
	// the stack was empty). Ownership of that layer passes to Done.
	Done func(removed Layer)
}

// PushOp requests Push(l).
func PushOp(l Layer) Op { return Op{Kind: OpPush, Layer: l} }

// PopOp requests Pop().
func PopOp() Op { return Op{Kind: OpPop} }

// SwapOp requests Swap(l).
func SwapOp(l Layer) Op { return Op{Kind: OpSwap, Layer: l} }

// Enqueue queues op for the next Flush. Safe to call from inside a sweep
// and from any goroutine. Returns false once the queue has been closed.
func (s *Stack) Enqueue(op Op) bool {
	return s.ops.Enqueue(op)
}

// Pending returns the number of queued ops.
func (s *Stack) Pending() int {
	return s.ops.Len()
}

// Flush applies queued ops in FIFO order and returns how many were applied.
// Ops enqueued while flushing (for example by OnPush hooks) are applied in
// the same call. Must not be called from inside a sweep.
func (s *Stack) Flush() int {
	applied := 0
	for {
		op, ok := s.ops.TryDequeue()
		if !ok {
			return applied
		}
		s.apply(op)
		applied++
	}
}

// Close rejects further Enqueue calls. Already queued ops can still be flushed.
func (s *Stack) Close() {
	s.ops.Close()
}

func (s *Stack) apply(op Op) {
	var removed Layer
	switch op.Kind {
	case OpPush:
		if op.Layer == nil {
			s.log.Warning(logSource, "ignoring push of nil layer")
			return
		}
		s.Push(op.Layer)
		return
	case OpPop:
		removed, _ = s.Pop()
	case OpSwap:
		if op.Layer == nil {
			s.log.Warning(logSource, "ignoring swap to nil layer")
			return
		}
		removed, _ = s.Swap(op.Layer)
	default:
		s.log.Warning(logSource, fmt.Sprintf("ignoring unknown %s", op.Kind))
		return
	}
	if op.Done != nil {
		op.Done(removed)
	}
}

// opQueue is a thread-safe unbounded FIFO of ops.
type opQueue struct {
	mu     sync.Mutex
	ops    []Op
	closed bool
}

func newOpQueue() *opQueue {
	return &opQueue{ops: make([]Op, 0, 8)}
}

// Enqueue adds an op to the back of the queue.
// Returns false if the queue is closed.
func (q *opQueue) Enqueue(op Op) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.ops = append(q.ops, op)
	return true
}

// TryDequeue removes the front op without blocking.
func (q *opQueue) TryDequeue() (Op, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.ops) == 0 {
		return Op{}, false
	}
	op := q.ops[0]

	// Release the layer reference held by the backing array.
	q.ops[0] = Op{}
	if len(q.ops) == 1 {
		q.ops = q.ops[:0]
	} else {
		q.ops = q.ops[1:]
	}
	return op, true
}

func (q *opQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}

func (q *opQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}
