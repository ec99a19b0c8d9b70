package review

import (
	"context"
	"time"
)

// TranscriptLine is one diarized utterance as handed to the analyzer.
// Internal confidence fields stay out of the analysis input.
type TranscriptLine struct {
	Speaker string  `json:"speaker"`
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// ExpressionEvent is one point of the flattened expression history.
type ExpressionEvent struct {
	Timestamp   float64 `json:"timestamp"`
	Participant string  `json:"participant"`
	Expression  string  `json:"expression"`
}

// AnalysisInput is everything the semantic analyzer needs to produce a
// review for one meeting.
type AnalysisInput struct {
	Title             string            `json:"title"`
	Date              time.Time         `json:"date"`
	Duration          float64           `json:"duration"`
	Platform          string            `json:"platform"`
	Participants      []string          `json:"participants"`
	Transcript        []TranscriptLine  `json:"transcript"`
	ExpressionHistory []ExpressionEvent `json:"expressionHistory"`
}

// ActionItem is a follow-up extracted from the meeting.
type ActionItem struct {
	Description string `json:"description"`
	Owner       string `json:"owner,omitempty"`
	Due         string `json:"due,omitempty"`
}

// MeetingReview is the semantic artifact produced for one meeting.
type MeetingReview struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Date        time.Time    `json:"date"`
	Summary     string       `json:"summary"`
	KeyPoints   []string     `json:"keyPoints,omitempty"`
	ActionItems []ActionItem `json:"actionItems,omitempty"`
	Sentiment   string       `json:"sentiment,omitempty"`
}

// Generator turns an analysis input into a meeting review.
type Generator interface {
	GenerateReview(ctx context.Context, in AnalysisInput) (*MeetingReview, error)
}

// Store persists finished reviews in the knowledge store. Failures are
// treated as best-effort by callers.
type Store interface {
	SaveReview(ctx context.Context, r *MeetingReview) error
}
