package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestPublishExactMatch(t *testing.T) {
	bus := NewBus(testLogger())

	var got Event
	bus.Subscribe(CompileFinished, func(ctx context.Context, e Event) error {
		got = e
		return nil
	})

	bus.Publish(context.Background(), Event{
		Name:    CompileFinished,
		Runtime: "Runtime",
		Source:  "node.runtime",
		Data:    map[string]any{"modules": 5},
	})

	if got.Runtime != "Runtime" || got.Source != "node.runtime" {
		t.Errorf("handler received %+v", got)
	}
	if got.Data["modules"] != 5 {
		t.Errorf("Data[modules] = %v, want 5", got.Data["modules"])
	}
}

func TestPublishWildcards(t *testing.T) {
	bus := NewBus(testLogger())

	var order []string
	bus.Subscribe("*", func(ctx context.Context, e Event) error {
		order = append(order, "global")
		return nil
	})
	bus.Subscribe("compile.*", func(ctx context.Context, e Event) error {
		order = append(order, "prefix")
		return nil
	})
	bus.Subscribe(CompileFailed, func(ctx context.Context, e Event) error {
		order = append(order, "exact")
		return nil
	})

	bus.Publish(context.Background(), Event{Name: CompileFailed})
	want := []string{"exact", "prefix", "global"}
	if len(order) != len(want) {
		t.Fatalf("handlers called = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}

	order = nil
	bus.Publish(context.Background(), Event{Name: PassFinished})
	if len(order) != 1 || order[0] != "global" {
		t.Errorf("pass.finished reached %v, want only global", order)
	}
}

func TestPublishHandlerErrorContinues(t *testing.T) {
	bus := NewBus(testLogger())

	calls := 0
	bus.Subscribe(BuildSaved, func(ctx context.Context, e Event) error {
		calls++
		return errors.New("store offline")
	})
	bus.Subscribe(BuildSaved, func(ctx context.Context, e Event) error {
		calls++
		return nil
	})

	bus.Publish(context.Background(), Event{Name: BuildSaved})
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestHasSubscribers(t *testing.T) {
	bus := NewBus(testLogger())
	if bus.HasSubscribers(CompileStarted) {
		t.Error("empty bus reports subscribers")
	}

	bus.Subscribe("compile.*", func(ctx context.Context, e Event) error { return nil })
	if !bus.HasSubscribers(CompileStarted) {
		t.Error("prefix wildcard not considered")
	}
	if bus.HasSubscribers(PassFinished) {
		t.Error("pass.finished should have no subscribers")
	}
}

func TestNilBus(t *testing.T) {
	var bus *Bus
	bus.Publish(context.Background(), Event{Name: CompileStarted})
	if bus.HasSubscribers(CompileStarted) {
		t.Error("nil bus reports subscribers")
	}
}

func TestPrefixWildcard(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"compile.finished", "compile.*"},
		{"pass.finished.event", "pass.*"},
		{"single", "single.*"},
	}
	for _, tt := range tests {
		if got := prefixWildcard(tt.name); got != tt.want {
			t.Errorf("prefixWildcard(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestConcurrentSubscribeAndPublish(t *testing.T) {
	bus := NewBus(testLogger())

	var count atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			bus.Subscribe(PassFinished, func(ctx context.Context, e Event) error {
				count.Add(1)
				return nil
			})
		}()
		go func() {
			defer wg.Done()
			bus.Publish(context.Background(), Event{Name: PassFinished})
		}()
	}
	wg.Wait()

	count.Store(0)
	bus.Publish(context.Background(), Event{Name: PassFinished})
	if count.Load() != 10 {
		t.Errorf("handlers called = %d, want 10", count.Load())
	}
}
