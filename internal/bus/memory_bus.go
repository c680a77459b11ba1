// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bus

import (
	"context"
	"sync"

	"github.com/ManuGH/syncd/internal/metrics"
)

// MemoryBus is an in-memory pub/sub. It is not durable and provides
// best-effort delivery: a slow subscriber drops messages rather than
// blocking the single-threaded orchestrator that publishes them.
type MemoryBus struct {
	mu   sync.RWMutex
	subs map[string][]chan Event
}

// NewMemoryBus returns an empty MemoryBus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string][]chan Event)}
}

// Publish delivers ev to every current subscriber of topic, dropping it for
// any subscriber whose channel is full.
func (b *MemoryBus) Publish(_ context.Context, topic string, ev Event) error {
	b.mu.RLock()
	chs := append([]chan Event(nil), b.subs[topic]...)
	b.mu.RUnlock()
	for _, ch := range chs {
		select {
		case ch <- ev:
		default:
			metrics.IncBusDrop(topic)
		}
	}
	return nil
}

// Subscribe opens a new subscription to topic.
func (b *MemoryBus) Subscribe(_ context.Context, topic string) (Subscriber, error) {
	ch := make(chan Event, 64)

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], ch)
	b.mu.Unlock()

	return &memSub{b: b, topic: topic, ch: ch}, nil
}

type memSub struct {
	b     *MemoryBus
	topic string
	ch    chan Event
}

func (s *memSub) C() <-chan Event {
	return s.ch
}

func (s *memSub) Close() error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	lst := s.b.subs[s.topic]
	out := lst[:0]
	for _, c := range lst {
		if c != s.ch {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		delete(s.b.subs, s.topic)
	} else {
		s.b.subs[s.topic] = out
	}
	close(s.ch)
	return nil
}

var _ Bus = (*MemoryBus)(nil)
