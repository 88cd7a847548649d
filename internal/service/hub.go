// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"iter"
	"sync"
)

// Hub fans published values out to any number of subscribers. Each
// subscriber gets its own unbounded queue, so a slow reader never blocks
// the publisher and never misses a value published after it subscribed.
type Hub[T any] struct {
	mu     sync.Mutex
	subs   map[*subscriber[T]]struct{}
	closed bool
}

type subscriber[T any] struct {
	mu     sync.Mutex
	queue  []T
	notify chan struct{}
	done   chan struct{}
}

// NewHub creates an empty hub.
func NewHub[T any]() *Hub[T] {
	return &Hub[T]{subs: make(map[*subscriber[T]]struct{})}
}

// Publish delivers v to every current subscriber.
func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subs {
		s.mu.Lock()
		s.queue = append(s.queue, v)
		s.mu.Unlock()

		select {
		case s.notify <- struct{}{}:
		default:
		}
	}
}

// Subscribe returns a lazy sequence of values published after the sequence
// starts being iterated. Iteration ends when ctx is done, the consumer
// breaks out of the loop, or the hub is closed. Each iteration is a fresh
// subscription, so the sequence can be ranged over again.
func (h *Hub[T]) Subscribe(ctx context.Context) iter.Seq[T] {
	return func(yield func(T) bool) {
		s := h.add()
		if s == nil {
			return
		}
		defer h.remove(s)

		for {
			for {
				v, ok := s.pop()
				if !ok {
					break
				}
				if !yield(v) {
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-s.done:
				// drain what was published before close
				for {
					v, ok := s.pop()
					if !ok || !yield(v) {
						return
					}
				}
			case <-s.notify:
			}
		}
	}
}

// Close ends every active subscription. Later subscriptions end at once.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for s := range h.subs {
		close(s.done)
		delete(h.subs, s)
	}
}

// Subscribers returns the number of active subscriptions.
func (h *Hub[T]) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub[T]) add() *subscriber[T] {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	s := &subscriber[T]{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	h.subs[s] = struct{}{}
	return s
}

func (h *Hub[T]) remove(s *subscriber[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, s)
}

func (s *subscriber[T]) pop() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	if len(s.queue) == 0 {
		return zero, false
	}
	v := s.queue[0]
	s.queue[0] = zero
	s.queue = s.queue[1:]
	return v, true
}
