package logging_test

import (
	"context"
	"testing"
	"time"

	"gridwalk/server/logging"
	"gridwalk/server/logging/sinks"
)

func newMemoryRouter(t *testing.T, cfg logging.Config) (*logging.Router, *sinks.Memory) {
	t.Helper()
	memory := sinks.NewMemory()
	cfg.EnabledSinks = []string{"memory"}
	router, err := logging.NewRouter(nil, cfg, nil, map[string]logging.Sink{"memory": memory})
	if err != nil {
		t.Fatalf("NewRouter failed: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		router.Close(ctx)
	})
	return router, memory
}

func waitForEvents(t *testing.T, memory *sinks.Memory, count int) []logging.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		events := memory.Events()
		if len(events) >= count {
			return events
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events, have %d", count, len(memory.Events()))
	return nil
}

func TestRouterDeliversToEnabledSink(t *testing.T) {
	router, memory := newMemoryRouter(t, logging.DefaultConfig())

	router.Publish(context.Background(), logging.Event{
		Type:     logging.EventType("navigation.route_computed"),
		Tick:     7,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNavigation,
	})

	events := waitForEvents(t, memory, 1)
	if events[0].Type != "navigation.route_computed" {
		t.Fatalf("unexpected event type %q", events[0].Type)
	}
	if events[0].Tick != 7 {
		t.Fatalf("expected tick 7, got %d", events[0].Tick)
	}
	if events[0].Time.IsZero() {
		t.Fatal("router should stamp events that arrive without a timestamp")
	}
}

func TestRouterFiltersBySeverity(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.MinimumSeverity = logging.SeverityWarn
	router, memory := newMemoryRouter(t, cfg)

	router.Publish(context.Background(), logging.Event{
		Type:     logging.EventType("system.debug_noise"),
		Severity: logging.SeverityInfo,
	})
	router.Publish(context.Background(), logging.Event{
		Type:     logging.EventType("system.alert"),
		Severity: logging.SeverityError,
	})

	events := waitForEvents(t, memory, 1)
	for _, event := range events {
		if event.Severity < logging.SeverityWarn {
			t.Fatalf("event %q leaked through the severity filter", event.Type)
		}
	}
}

func TestRouterMergesStaticFields(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.Fields = map[string]any{"region": "playground", "shared": "router"}
	router, memory := newMemoryRouter(t, cfg)

	router.Publish(context.Background(), logging.Event{
		Type:     logging.EventType("session.join"),
		Severity: logging.SeverityInfo,
		Extra:    map[string]any{"shared": "event"},
	})

	events := waitForEvents(t, memory, 1)
	if got := events[0].Extra["region"]; got != "playground" {
		t.Fatalf("expected static field to be merged, got %v", got)
	}
	if got := events[0].Extra["shared"]; got != "event" {
		t.Fatalf("event-level fields must win over static fields, got %v", got)
	}
}

func TestRouterIgnoresUntypedEvents(t *testing.T) {
	router, memory := newMemoryRouter(t, logging.DefaultConfig())

	router.Publish(context.Background(), logging.Event{Severity: logging.SeverityInfo})
	router.Publish(context.Background(), logging.Event{
		Type:     logging.EventType("session.join"),
		Severity: logging.SeverityInfo,
	})

	events := waitForEvents(t, memory, 1)
	if len(events) != 1 {
		t.Fatalf("expected only the typed event, got %d", len(events))
	}
	if events[0].Type != "session.join" {
		t.Fatalf("unexpected event type %q", events[0].Type)
	}
}

func TestRouterCloseIsIdempotent(t *testing.T) {
	router, _ := newMemoryRouter(t, logging.DefaultConfig())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := router.Close(ctx); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := router.Close(ctx); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	router.Publish(context.Background(), logging.Event{
		Type:     logging.EventType("session.join"),
		Severity: logging.SeverityInfo,
	})
	if stats := router.Stats(); stats.EventsTotal != 0 {
		t.Fatalf("closed router must not accept events, stats=%+v", stats)
	}
}
