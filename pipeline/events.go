package pipeline

import (
	"log/slog"
	"sync"
	"time"

	"github.com/bosley/huddle/review"
)

// EventType keys the subscription registry.
type EventType string

const (
	EventStatusChanged       EventType = "status_changed"
	EventParticipantDetected EventType = "participant_detected"
	EventTranscriptSegment   EventType = "transcript_segment"
	EventExpressionUpdate    EventType = "expression_update"
	EventReviewReady         EventType = "review_ready"
	EventError               EventType = "error"
)

// Event is one typed notification with a payload and emission time.
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

type ParticipantDetectedPayload struct {
	Count        int      `json:"count"`
	Participants []string `json:"participants"`
}

type ExpressionUpdatePayload struct {
	ParticipantID   string `json:"participantId"`
	ParticipantName string `json:"participantName"`
	Expression      string `json:"expression"`
	IsSpeaking      bool   `json:"isSpeaking"`
}

type ReviewReadyPayload struct {
	ReviewID string                `json:"reviewId"`
	Review   *review.MeetingReview `json:"review"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// Handler receives emitted events. Handlers run on the emitting
// goroutine and should return quickly.
type Handler func(Event)

type listener struct {
	id int
	fn Handler
}

// Bus is a publish/subscribe registry keyed by event type. A handler
// that panics is recovered and logged so it can never block delivery to
// the remaining listeners.
type Bus struct {
	mu        sync.Mutex
	nextID    int
	listeners map[EventType][]listener
}

func NewBus() *Bus {
	return &Bus{listeners: make(map[EventType][]listener)}
}

// Subscribe registers a handler for one event type and returns an id
// usable with Unsubscribe.
func (b *Bus) Subscribe(t EventType, fn Handler) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.listeners[t] = append(b.listeners[t], listener{id: b.nextID, fn: fn})
	return b.nextID
}

func (b *Bus) Unsubscribe(t EventType, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ls := b.listeners[t]
	for i, l := range ls {
		if l.id == id {
			b.listeners[t] = append(ls[:i], ls[i+1:]...)
			return
		}
	}
}

// Emit delivers the payload to every listener registered for the type.
func (b *Bus) Emit(t EventType, payload interface{}) {
	b.mu.Lock()
	ls := make([]listener, len(b.listeners[t]))
	copy(ls, b.listeners[t])
	b.mu.Unlock()

	ev := Event{Type: t, Timestamp: time.Now(), Payload: payload}
	for _, l := range ls {
		deliver(l, ev)
	}
}

func deliver(l listener, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event listener panicked",
				"event", ev.Type,
				"listener", l.id,
				"panic", r)
		}
	}()
	l.fn(ev)
}
