package control

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// testLogger implements Logger for testing
type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) Debug(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("DEBUG: %s %v", msg, keysAndValues))
}

func (l *testLogger) Info(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("INFO: %s %v", msg, keysAndValues))
}

func (l *testLogger) Error(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("ERROR: %s %v", msg, keysAndValues))
}

func (l *testLogger) count(prefix string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, m := range l.messages {
		if strings.HasPrefix(m, prefix) {
			n++
		}
	}
	return n
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *testLogger) {
	logger := &testLogger{}

	d, err := New(logger)
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}
	t.Cleanup(d.Close)

	return d, logger
}

func TestParseLine(t *testing.T) {
	now := time.Unix(100, 0)
	e, ok := ParseLine("  LAUNCH  transitVehicle ", now)
	if !ok {
		t.Fatal("expected an event")
	}
	if e.Command != "launch" {
		t.Errorf("expected 'launch', got %q", e.Command)
	}
	if len(e.Args) != 1 || e.Args[0] != "transitVehicle" {
		t.Errorf("unexpected args %v", e.Args)
	}
	if !e.Timestamp.Equal(now) {
		t.Errorf("unexpected timestamp %v", e.Timestamp)
	}

	if _, ok := ParseLine("   ", now); ok {
		t.Error("blank line should not parse")
	}
}

func TestDispatcher_SyncHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	called := false
	d.Register("status", func(e Event) (any, error) {
		called = true
		return "result", nil
	})

	result, err := d.Dispatch(Event{Command: "status", Args: []string{"arg1"}})

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !called {
		t.Error("handler was not called")
	}
	if result != "result" {
		t.Errorf("expected 'result', got %v", result)
	}
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	d, _ := newTestDispatcher(t)

	_, err := d.Dispatch(Event{Command: "warp"})

	if !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("expected ErrUnknownCommand, got %v", err)
	}
}

func TestDispatcher_BufferedHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var processed atomic.Int32
	d.Register("launch", func(e Event) (any, error) {
		processed.Add(1)
		return nil, nil
	}, Buffered(100))

	for i := 0; i < 3; i++ {
		result, err := d.Dispatch(Event{Command: "launch"})
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if result != "queued" {
			t.Errorf("expected 'queued', got %v", result)
		}
	}

	// Close drains the queue
	d.Close()

	if processed.Load() != 3 {
		t.Errorf("expected 3 processed, got %d", processed.Load())
	}

	if _, err := d.Dispatch(Event{Command: "launch"}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected closed dispatcher to refuse events, got %v", err)
	}
}

func TestDispatcher_BufferedDropsWhenFull(t *testing.T) {
	d, _ := newTestDispatcher(t)

	block := make(chan struct{})
	started := make(chan struct{}, 1)
	d.Register("launch", func(e Event) (any, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
		return nil, nil
	}, Buffered(2))
	defer close(block)

	d.Dispatch(Event{Command: "launch"}) // being processed
	<-started
	d.Dispatch(Event{Command: "launch"}) // queued
	d.Dispatch(Event{Command: "launch"}) // queued

	_, err := d.Dispatch(Event{Command: "launch"})

	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
}

func TestDispatcher_BufferedBlocking(t *testing.T) {
	d, _ := newTestDispatcher(t)

	block := make(chan struct{})
	started := make(chan struct{}, 1)
	d.Register("launch", func(e Event) (any, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
		return nil, nil
	}, Buffered(1), Blocking())

	d.Dispatch(Event{Command: "launch"})
	<-started
	d.Dispatch(Event{Command: "launch"})

	done := make(chan struct{})
	go func() {
		d.Dispatch(Event{Command: "launch"})
		close(done)
	}()

	select {
	case <-done:
		t.Error("dispatch should have blocked")
	case <-time.After(50 * time.Millisecond):
	}

	close(block)
	<-done
}

func TestDispatcher_LoggedHandler(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register("camera", func(e Event) (any, error) {
		return "ok", nil
	}, Logged())

	d.Dispatch(Event{Command: "camera", Args: []string{"a", "b"}})

	if n := logger.count("DEBUG"); n != 2 {
		t.Errorf("expected 2 debug messages, got %d", n)
	}
}

func TestDispatcher_LoggedHandlerError(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register("camera", func(e Event) (any, error) {
		return nil, fmt.Errorf("test error")
	}, Logged())

	d.Dispatch(Event{Command: "camera"})

	if logger.count("ERROR") != 1 {
		t.Error("expected error log message")
	}
}

func TestDispatcher_QueuedErrorLogged(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register("launch", func(e Event) (any, error) {
		return nil, fmt.Errorf("no such class")
	}, Buffered(4))

	d.Dispatch(Event{Command: "launch"})
	d.Close()

	if logger.count("ERROR: queued command failed") != 1 {
		t.Error("expected the queued failure to be logged")
	}
}

func TestDispatcher_HasHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Register("status", func(e Event) (any, error) { return nil, nil })

	if !d.HasHandler("status") {
		t.Error("expected handler to exist")
	}

	if d.HasHandler("warp") {
		t.Error("expected handler to not exist")
	}
}

func TestDispatcher_CombinedOptions(t *testing.T) {
	d, logger := newTestDispatcher(t)

	var processed atomic.Int32
	d.Register("launch", func(e Event) (any, error) {
		processed.Add(1)
		return "done", nil
	}, Buffered(100), Logged())

	result, err := d.Dispatch(Event{Command: "launch"})

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if result != "queued" {
		t.Errorf("expected 'queued', got %v", result)
	}

	d.Close()

	if processed.Load() != 1 {
		t.Errorf("expected 1 processed, got %d", processed.Load())
	}
	if n := logger.count("DEBUG"); n < 2 {
		t.Errorf("expected log messages, got %d", n)
	}
}
