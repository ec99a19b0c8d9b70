package pipeline

import "time"

// Status is the orchestrator's lifecycle state.
type Status string

const (
	StatusIdle             Status = "idle"
	StatusBotJoining       Status = "bot_joining"
	StatusCapturing        Status = "capturing"
	StatusBotProcessing    Status = "bot_processing"
	StatusTranscribing     Status = "transcribing"
	StatusAnalyzing        Status = "analyzing"
	StatusGeneratingReview Status = "generating_review"
	StatusComplete         Status = "complete"
	StatusError            Status = "error"
)

// Active reports whether a session currently owns the pipeline. A new
// session may only start from idle or a terminal state.
func (s Status) Active() bool {
	switch s {
	case StatusIdle, StatusComplete, StatusError, "":
		return false
	}
	return true
}

// State is a snapshot of the pipeline, handed to observers by value.
// Only the pipeline itself mutates the live copy.
type State struct {
	Status           Status     `json:"status"`
	MeetingTitle     string     `json:"meetingTitle"`
	MeetingURL       string     `json:"meetingUrl,omitempty"`
	Platform         string     `json:"platform"`
	BotID            string     `json:"botId,omitempty"`
	CaptureActive    bool       `json:"captureActive"`
	ParticipantCount int        `json:"participantCount"`
	SegmentCount     int        `json:"segmentCount"`
	Duration         float64    `json:"duration"`
	Error            string     `json:"error,omitempty"`
	ReviewID         string     `json:"reviewId,omitempty"`
	StartedAt        *time.Time `json:"startedAt,omitempty"`
}
