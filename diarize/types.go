package diarize

// TranscriptSegment is one time-bounded span of transcribed speech.
// Start and End are seconds relative to the session start.
type TranscriptSegment struct {
	Text         string  `json:"text"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	SpeakerLabel string  `json:"speakerLabel,omitempty"`
	Confidence   float64 `json:"confidence,omitempty"`
}

// HeadPose is a camera-derived head orientation estimate in degrees.
type HeadPose struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
}

// VisualObservation is one per-frame sample of a participant's speaking
// state and facial expression. Timestamp is seconds relative to the
// session start.
type VisualObservation struct {
	Timestamp            float64   `json:"timestamp"`
	ParticipantID        string    `json:"participantId"`
	ParticipantName      string    `json:"participantName,omitempty"`
	IsSpeaking           bool      `json:"isSpeaking"`
	SpeakingConfidence   float64   `json:"speakingConfidence"`
	Expression           string    `json:"expression"`
	ExpressionConfidence float64   `json:"expressionConfidence"`
	HeadPose             *HeadPose `json:"headPose,omitempty"`
}

// Engagement is a coarse attentiveness estimate.
type Engagement string

const (
	EngagementHigh   Engagement = "high"
	EngagementMedium Engagement = "medium"
	EngagementLow    Engagement = "low"
)

// ExpressionShare is one entry of a segment's expression distribution.
type ExpressionShare struct {
	Expression string  `json:"expression"`
	Percent    float64 `json:"percent"`
}

// DiarizedSegment is a transcript segment with a speaker attribution and
// visual annotations. VisualMatch is true only when the attribution came
// from visual speaking evidence, not from a label mapping fallback.
type DiarizedSegment struct {
	Text                   string            `json:"text"`
	Start                  float64           `json:"start"`
	End                    float64           `json:"end"`
	SpeakerID              string            `json:"speakerId"`
	SpeakerName            string            `json:"speakerName"`
	Confidence             float64           `json:"confidence"`
	DominantExpression     string            `json:"dominantExpression"`
	ExpressionConfidence   float64           `json:"expressionConfidence"`
	ExpressionDistribution []ExpressionShare `json:"expressionDistribution"`
	Engagement             Engagement        `json:"engagement"`
	VisualMatch            bool              `json:"visualMatch"`
}

// ExpressionSample is one point of a participant's expression timeline.
type ExpressionSample struct {
	Timestamp  float64 `json:"timestamp"`
	Expression string  `json:"expression"`
}

// Participant aggregates every segment attributed to one speaker.
// SpeakingPercent is the share of total attributed speaking time across
// all speakers, not of the meeting duration.
type Participant struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	SpeakingTime       float64            `json:"speakingTime"`
	SpeakingPercent    float64            `json:"speakingPercent"`
	SegmentCount       int                `json:"segmentCount"`
	WordCount          int                `json:"wordCount"`
	DominantExpression string             `json:"dominantExpression"`
	ExpressionTimeline []ExpressionSample `json:"expressionTimeline"`
	Engagement         Engagement         `json:"engagement"`
}

// Quality grades how much of the output rests on visual evidence.
type Quality string

const (
	QualityHigh   Quality = "high"
	QualityMedium Quality = "medium"
	QualityLow    Quality = "low"
)

// Result is the full output of one diarization pass.
type Result struct {
	Segments     []DiarizedSegment `json:"segments"`
	Participants []Participant     `json:"participants"`
	Quality      Quality           `json:"quality"`
	Duration     float64           `json:"duration"`
}
