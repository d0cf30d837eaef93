package domain

import (
	"context"
	"encoding/json"
	"time"
)

// EventType identifies the kind of event being published.
type EventType string

const (
	EventSearchStarted   EventType = "run.search.started"
	EventCandidatesFound EventType = "run.candidates.found"
	EventPageStarted     EventType = "run.page.started"
	EventPageCompleted   EventType = "run.page.completed"
	EventRunCompleted    EventType = "run.completed"
	EventRunFailed       EventType = "run.failed"
	EventRunCancelled    EventType = "run.cancelled"
)

// Event is the envelope published on the event bus.
type Event struct {
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	RunID     string          `json:"run_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// SearchStartedPayload accompanies EventSearchStarted.
type SearchStartedPayload struct {
	Query string `json:"query"`
}

// CandidatesFoundPayload accompanies EventCandidatesFound. Count may be
// zero; the event is still published so subscribers see the stage pass.
type CandidatesFoundPayload struct {
	Count int      `json:"count"`
	URLs  []string `json:"urls,omitempty"`
}

// PageStartedPayload accompanies EventPageStarted.
type PageStartedPayload struct {
	URL  string `json:"url"`
	Rank int    `json:"rank"`
}

// PageCompletedPayload accompanies EventPageCompleted.
type PageCompletedPayload struct {
	URL     string      `json:"url"`
	Rank    int         `json:"rank"`
	Outcome PageOutcome `json:"outcome"`
}

// RunCompletedPayload accompanies EventRunCompleted. Answer is nil when
// the run finished with no relevant verdicts.
type RunCompletedPayload struct {
	Answer *Answer `json:"answer,omitempty"`
}

// RunFailedPayload accompanies EventRunFailed.
type RunFailedPayload struct {
	Code   ErrorCode `json:"code"`
	Detail string    `json:"detail,omitempty"`
}

// EventHandler is a callback invoked when an event is received.
type EventHandler func(ctx context.Context, event Event)

// EventBus provides a publish/subscribe mechanism for run progress
// events. Publish is fire-and-forget: a slow or panicking subscriber
// never blocks or fails a run.
type EventBus interface {
	// Publish sends an event to all matching subscribers.
	Publish(ctx context.Context, event Event)
	// Subscribe registers a handler for a specific event type.
	// Returns an unsubscribe function.
	Subscribe(eventType EventType, handler EventHandler) func()
	// SubscribeAll registers a handler that receives every event.
	// Returns an unsubscribe function.
	SubscribeAll(handler EventHandler) func()
	// Close drains in-flight handlers and prevents new publishes.
	Close()
}
