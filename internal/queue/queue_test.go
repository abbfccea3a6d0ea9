package queue

import (
	"errors"
	"sync"
	"testing"
)

// launch is a small stand-in for a queued spawn request
type launch struct {
	Frame string
	At    float64
}

func TestQueue_New(t *testing.T) {
	q := New[launch](0)
	if q == nil {
		t.Fatal("expected non-nil queue")
	}
	if !q.Empty() {
		t.Error("expected empty queue")
	}
	if q.Len() != 0 {
		t.Errorf("expected length 0, got %d", q.Len())
	}
	if q.Limit() != 0 {
		t.Errorf("expected unbounded queue, got limit %d", q.Limit())
	}
}

func TestQueue_Push(t *testing.T) {
	q := New[launch](0)

	if err := q.Push(launch{Frame: "launch", At: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Len() != 1 {
		t.Errorf("expected length 1, got %d", q.Len())
	}

	_ = q.Push(launch{At: 2}, launch{At: 3})
	if q.Len() != 3 {
		t.Errorf("expected length 3, got %d", q.Len())
	}
}

func TestQueue_PushLimit(t *testing.T) {
	q := New[launch](2)

	if err := q.Push(launch{At: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// both items would not fit, so neither is queued
	if err := q.Push(launch{At: 2}, launch{At: 3}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
	if q.Len() != 1 {
		t.Errorf("expected length 1, got %d", q.Len())
	}
	if err := q.Push(launch{At: 2}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := q.Push(launch{At: 4}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
}

func TestQueue_Pop(t *testing.T) {
	q := New[launch](0)

	if _, ok := q.Pop(); ok {
		t.Error("expected no item from empty queue")
	}

	_ = q.Push(launch{Frame: "a", At: 1}, launch{Frame: "b", At: 2})
	first, ok := q.Pop()
	if !ok || first.Frame != "a" {
		t.Errorf("expected {a 1}, got %+v", first)
	}
	if q.Len() != 1 {
		t.Errorf("expected length 1, got %d", q.Len())
	}
}

func TestQueue_Clear(t *testing.T) {
	q := New[launch](0)
	_ = q.Push(launch{At: 1}, launch{At: 2}, launch{At: 3})

	q.Clear()

	if !q.Empty() {
		t.Error("expected empty queue after clear")
	}
}

func TestQueue_GetAndEmpty(t *testing.T) {
	q := New[launch](0)
	_ = q.Push(launch{At: 1}, launch{At: 2}, launch{At: 3})

	result := q.GetAndEmpty()

	if len(result) != 3 {
		t.Fatalf("expected 3 items, got %d", len(result))
	}
	if result[0].At != 1 || result[1].At != 2 || result[2].At != 3 {
		t.Errorf("unexpected items: %+v", result)
	}
	if !q.Empty() {
		t.Error("expected empty queue after GetAndEmpty")
	}
}

func TestQueue_Concurrent(t *testing.T) {
	q := New[launch](64)
	var wg sync.WaitGroup
	var mu sync.Mutex
	rejected := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(at int) {
			defer wg.Done()
			if err := q.Push(launch{At: float64(at)}); err != nil {
				mu.Lock()
				rejected++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if q.Len() != 64 {
		t.Errorf("expected 64 items, got %d", q.Len())
	}
	if rejected != 36 {
		t.Errorf("expected 36 rejected pushes, got %d", rejected)
	}

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Pop()
		}()
	}
	wg.Wait()

	if q.Len() != 32 {
		t.Errorf("expected 32 items after pops, got %d", q.Len())
	}
}
