package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrHandleReleased is returned when a released Handle is used.
var ErrHandleReleased = errors.New("rate limit handle released")

// Handle is a reference-counted reference to one shared Governor. Every
// sub-client of a client holds its own Handle; all of them resolve to the same
// quota.
type Handle struct {
	shared   *sharedGovernor
	released atomic.Bool
}

type sharedGovernor struct {
	governor *Governor
	refs     atomic.Int64
	closed   atomic.Bool
	onClose  sync.Once
	closeFn  func()
}

// NewHandle wraps governor in a new shared cell with a reference count of one.
// onLastRelease, if set, runs once when the last handle is released.
func NewHandle(governor *Governor, onLastRelease func()) *Handle {
	if governor == nil {
		governor = NewGovernor()
	}
	shared := &sharedGovernor{governor: governor, closeFn: onLastRelease}
	shared.refs.Store(1)
	return &Handle{shared: shared}
}

// Clone returns a new handle to the same governor.
func (h *Handle) Clone() (*Handle, error) {
	if h == nil || h.released.Load() {
		return nil, ErrHandleReleased
	}
	if h.shared.closed.Load() {
		return nil, ErrHandleReleased
	}
	h.shared.refs.Add(1)
	return &Handle{shared: h.shared}, nil
}

// Release drops this handle. Other handles are unaffected. Releasing the same
// handle twice is a no-op.
func (h *Handle) Release() {
	if h == nil || !h.released.CompareAndSwap(false, true) {
		return
	}
	if h.shared.refs.Add(-1) == 0 {
		h.shared.closed.Store(true)
		h.shared.onClose.Do(func() {
			if h.shared.closeFn != nil {
				h.shared.closeFn()
			}
		})
	}
}

// Refs returns the number of live handles sharing the governor.
func (h *Handle) Refs() int64 {
	if h == nil {
		return 0
	}
	return h.shared.refs.Load()
}

// PreAdmit forwards to the shared Governor.
func (h *Handle) PreAdmit(ctx context.Context) error {
	governor, err := h.governor()
	if err != nil {
		return err
	}
	return governor.PreAdmit(ctx)
}

// Snapshot forwards to the shared Governor.
func (h *Handle) Snapshot() (Snapshot, error) {
	governor, err := h.governor()
	if err != nil {
		return Snapshot{}, err
	}
	return governor.Snapshot(), nil
}

// SameGovernor reports whether both handles refer to the same shared state.
func (h *Handle) SameGovernor(other *Handle) bool {
	if h == nil || other == nil {
		return false
	}
	return h.shared == other.shared
}

func (h *Handle) governor() (*Governor, error) {
	if h == nil || h.released.Load() {
		return nil, ErrHandleReleased
	}
	return h.shared.governor, nil
}
