package renderer

import (
	"context"

	"github.com/KCuppens/bedrock-cms-sub001/internal/types"
)

// BlockHandle tracks one block type's journey from pending to resolved
// or failed. The renderer memoizes handles per implementation name, so
// every block of a type shares the same handle until it fails; a
// failed handle is replaced on the next Resolve, which retries the
// load.
//
// impl and err are written exactly once, before done is closed.
// Readers must observe done first.
type BlockHandle struct {
	name string
	done chan struct{}
	impl types.Implementation
	err  error
}

func newHandle(name string) *BlockHandle {
	return &BlockHandle{name: name, done: make(chan struct{})}
}

// failedHandle returns a handle already settled with err. Used for
// descriptors that cannot name an implementation at all.
func failedHandle(name string, err error) *BlockHandle {
	h := newHandle(name)
	h.settle(nil, err)
	return h
}

func (h *BlockHandle) settle(impl types.Implementation, err error) {
	h.impl = impl
	h.err = err
	close(h.done)
}

// Name returns the implementation name the handle resolves.
func (h *BlockHandle) Name() string {
	return h.name
}

// State reports the handle's current position without blocking.
func (h *BlockHandle) State() types.BlockState {
	select {
	case <-h.done:
		if h.err != nil {
			return types.StateFailed
		}
		return types.StateResolved
	default:
		return types.StatePending
	}
}

// Settled returns a channel closed when the handle leaves pending.
func (h *BlockHandle) Settled() <-chan struct{} {
	return h.done
}

// Await blocks until the handle settles or ctx ends. Once State
// reports settled, Await returns immediately.
func (h *BlockHandle) Await(ctx context.Context) (types.Implementation, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.done:
		return h.impl, h.err
	}
}
