package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"siapcheck/internal/resolve"
)

// EventType classifies traversal events.
type EventType string

const (
	EventQuestion   EventType = "question"
	EventAnswer     EventType = "answer"
	EventTransition EventType = "transition"
	EventEarlyStop  EventType = "early_stop"
	EventComplete   EventType = "complete"
	EventError      EventType = "error"
)

// Event is a single observation from a traversal.
type Event struct {
	Type       EventType
	DocumentID string
	ScenarioID string
	Node       string
	Next       string
	Answer     resolve.Answer
	Tier       resolve.Tier
	Elapsed    time.Duration
	Error      error
}

// Observer receives events during a traversal. Observers shared across a
// batch must be safe for concurrent use.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

// MultiObserver fans out events to multiple observers.
type MultiObserver []Observer

func (m MultiObserver) OnEvent(e Event) {
	for _, o := range m {
		if o != nil {
			o.OnEvent(e)
		}
	}
}

// LogObserver writes events as structured slog lines: early stops and
// errors at warn, everything else at debug.
type LogObserver struct {
	Logger *slog.Logger
}

func (o *LogObserver) OnEvent(e Event) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []slog.Attr{
		slog.String("event", string(e.Type)),
		slog.String("document", e.DocumentID),
	}
	if e.ScenarioID != "" {
		attrs = append(attrs, slog.String("scenario", e.ScenarioID))
	}
	if e.Node != "" {
		attrs = append(attrs, slog.String("node", e.Node))
	}
	if e.Next != "" {
		attrs = append(attrs, slog.String("next", e.Next))
	}
	if e.Answer != "" {
		attrs = append(attrs, slog.String("answer", string(e.Answer)), slog.String("tier", string(e.Tier)))
	}
	if e.Elapsed > 0 {
		attrs = append(attrs, slog.Duration("elapsed", e.Elapsed))
	}
	if e.Error != nil {
		attrs = append(attrs, slog.String("error", e.Error.Error()))
	}

	level := slog.LevelDebug
	if e.Type == EventEarlyStop || e.Type == EventError {
		level = slog.LevelWarn
	}
	logger.LogAttrs(context.Background(), level, "traversal", attrs...)
}

// TraceCollector accumulates events in memory. Safe for concurrent use.
type TraceCollector struct {
	mu     sync.Mutex
	events []Event
}

func (t *TraceCollector) OnEvent(e Event) {
	t.mu.Lock()
	t.events = append(t.events, e)
	t.mu.Unlock()
}

// Events returns a copy of all collected events.
func (t *TraceCollector) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Event(nil), t.events...)
}

// EventsOfType returns only events matching the given type.
func (t *TraceCollector) EventsOfType(typ EventType) []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Event
	for _, e := range t.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func emit(obs Observer, e Event) {
	if obs != nil {
		obs.OnEvent(e)
	}
}
