// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"sync"

	"github.com/stakevault/stakevault/ledger"
)

// eventBuf collects events emitted during a single operation. The buffer is
// drained only after the operation commits, so a reverted operation leaks
// nothing to persistence or subscribers.
type eventBuf struct {
	events []*ledger.Event
}

func (b *eventBuf) Notify(ev *ledger.Event) {
	b.events = append(b.events, ev)
}

func (b *eventBuf) reset() {
	b.events = b.events[:0]
}

func (b *eventBuf) drain() []*ledger.Event {
	drained := make([]*ledger.Event, len(b.events))
	copy(drained, b.events)
	b.events = b.events[:0]
	return drained
}

// subscribers fans committed events out to live feeds. Slow consumers are
// skipped rather than blocking the operation path.
type subscribers struct {
	mu    sync.Mutex
	chans map[chan *ledger.Event]struct{}
}

func (s *subscribers) subscribe() (<-chan *ledger.Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chans == nil {
		s.chans = make(map[chan *ledger.Event]struct{})
	}
	ch := make(chan *ledger.Event, 64)
	s.chans[ch] = struct{}{}

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.chans[ch]; ok {
			delete(s.chans, ch)
			close(ch)
		}
	}
	return ch, cancel
}

func (s *subscribers) broadcast(events []*ledger.Event) {
	if len(events) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.chans {
		for _, ev := range events {
			select {
			case ch <- ev:
			default:
			}
		}
	}
}
