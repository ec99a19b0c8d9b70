package pipeline

import (
	"time"

	"github.com/bosley/huddle/diarize"
)

// Frame is one raw captured video frame.
type Frame struct {
	Timestamp time.Time
	Data      []byte
}

// FaceParticipant is the per-participant result of analyzing a frame.
type FaceParticipant struct {
	ID                   string
	Name                 string
	IsSpeaking           bool
	SpeakingConfidence   float64
	Expression           string
	ExpressionConfidence float64
	HeadPose             *diarize.HeadPose
}

// FrameAnalysis is the full result of analyzing one frame.
type FrameAnalysis struct {
	FrameTimestamp time.Time
	Faces          int
	Participants   []FaceParticipant
}

// FaceDetector converts raw frames into participant speaking and
// expression state. Implementations are injected; the default reports
// not-ready so frame processing is skipped entirely.
type FaceDetector interface {
	Reset()
	IsReady() bool
	AnalyzeFrame(f Frame) (*FrameAnalysis, error)
	Participants() []FaceParticipant
	Participant(id string) (FaceParticipant, bool)
}

type noopFaceDetector struct{}

func (noopFaceDetector) Reset()        {}
func (noopFaceDetector) IsReady() bool { return false }
func (noopFaceDetector) AnalyzeFrame(Frame) (*FrameAnalysis, error) {
	return &FrameAnalysis{}, nil
}
func (noopFaceDetector) Participants() []FaceParticipant            { return nil }
func (noopFaceDetector) Participant(string) (FaceParticipant, bool) { return FaceParticipant{}, false }
