package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collect ranges over seq in the background until n values arrive.
func collect[T any](t *testing.T, ctx context.Context, h *Hub[T], n int) <-chan []T {
	t.Helper()
	before := h.Subscribers()
	out := make(chan []T, 1)
	go func() {
		var got []T
		for v := range h.Subscribe(ctx) {
			got = append(got, v)
			if len(got) == n {
				break
			}
		}
		out <- got
	}()
	require.Eventually(t, func() bool { return h.Subscribers() > before }, time.Second, time.Millisecond)
	return out
}

func TestHub_FanOut(t *testing.T) {
	h := NewHub[int]()
	ctx := context.Background()

	a := collect(t, ctx, h, 3)
	b := collect(t, ctx, h, 3)

	for i := range 3 {
		h.Publish(i)
	}

	assert.Equal(t, []int{0, 1, 2}, <-a)
	assert.Equal(t, []int{0, 1, 2}, <-b)
	require.Eventually(t, func() bool { return h.Subscribers() == 0 }, time.Second, time.Millisecond)
}

func TestHub_RestartableSequence(t *testing.T) {
	h := NewHub[string]()
	seq := h.Subscribe(context.Background())

	first := make(chan string, 1)
	go func() {
		for v := range seq {
			first <- v
			return
		}
	}()
	require.Eventually(t, func() bool { return h.Subscribers() == 1 }, time.Second, time.Millisecond)
	h.Publish("one")
	assert.Equal(t, "one", <-first)
	require.Eventually(t, func() bool { return h.Subscribers() == 0 }, time.Second, time.Millisecond)

	second := make(chan string, 1)
	go func() {
		for v := range seq {
			second <- v
			return
		}
	}()
	require.Eventually(t, func() bool { return h.Subscribers() == 1 }, time.Second, time.Millisecond)
	h.Publish("two")
	assert.Equal(t, "two", <-second)
}

func TestHub_ContextEndsIteration(t *testing.T) {
	h := NewHub[int]()
	ctx, cancel := context.WithCancel(context.Background())

	out := collect(t, ctx, h, 10)
	h.Publish(1)
	cancel()

	select {
	case got := <-out:
		assert.LessOrEqual(t, len(got), 1)
	case <-time.After(time.Second):
		t.Fatal("iteration did not stop")
	}
}

func TestHub_CloseDrainsAndEnds(t *testing.T) {
	h := NewHub[int]()
	out := collect(t, context.Background(), h, 10)

	h.Publish(1)
	h.Publish(2)
	h.Close()

	assert.Equal(t, []int{1, 2}, <-out)

	for range h.Subscribe(context.Background()) {
		t.Fatal("closed hub must not yield")
	}
}
