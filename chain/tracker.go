// Package chain tracks the chain head announced by the external chain process.
package chain

import (
	"git.gammaspectra.live/IronFish/network/types"
	"git.gammaspectra.live/IronFish/network/utils"
	"sync/atomic"
)

// Tracker holds the latest known chain head. The zero value has no head.
type Tracker struct {
	head atomic.Pointer[types.ChainHead]
}

func NewTracker(genesis *types.ChainHead) *Tracker {
	t := &Tracker{}
	if genesis != nil {
		t.head.Store(genesis)
	}
	return t
}

func (t *Tracker) Head() *types.ChainHead {
	return t.head.Load()
}

// Update replaces the head when the new one carries at least as much cumulative work.
// It reports whether the head changed.
func (t *Tracker) Update(head *types.ChainHead) bool {
	if head == nil {
		return false
	}
	for {
		current := t.head.Load()
		if current != nil {
			if current.Hash == head.Hash {
				return false
			}
			if head.Work.Cmp(current.Work) < 0 {
				utils.Debugf("[Chain] Ignoring head %s at %d, less work than current %s", utils.Shorten(head.Hash.String(), 8), head.Sequence, utils.Shorten(current.Hash.String(), 8))
				return false
			}
		}
		if t.head.CompareAndSwap(current, head) {
			utils.Logf("[Chain] New head %s at %d, work %s", utils.Shorten(head.Hash.String(), 8), head.Sequence, head.Work.String())
			return true
		}
	}
}
