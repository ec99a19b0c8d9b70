package meetbot

// BotStatus is the provider-reported lifecycle state of a deployed bot.
type BotStatus string

const (
	StatusReady         BotStatus = "ready"
	StatusJoining       BotStatus = "joining"
	StatusInWaitingRoom BotStatus = "in_waiting_room"
	StatusInCall        BotStatus = "in_call"
	StatusRecording     BotStatus = "recording"
	StatusProcessing    BotStatus = "processing"
	StatusDone          BotStatus = "done"
	StatusError         BotStatus = "error"
	StatusFatal         BotStatus = "fatal"
)

// Terminal reports whether the bot will make no further progress.
func (s BotStatus) Terminal() bool {
	switch s {
	case StatusDone, StatusError, StatusFatal:
		return true
	}
	return false
}

// BotConfig describes the meeting a bot should join.
type BotConfig struct {
	MeetingURL string `json:"meetingUrl"`
	BotName    string `json:"botName,omitempty"`
	Platform   string `json:"platform,omitempty"`
}

// Bot is the provider's view of a deployed meeting participant.
type Bot struct {
	ID         string    `json:"id"`
	Status     BotStatus `json:"status"`
	MeetingURL string    `json:"meetingUrl"`
	Platform   string    `json:"platform,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Recording is a finished audio artifact. Path is set once the media
// has been downloaded locally.
type Recording struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Path string `json:"-"`
}

// TranscriptSegment is one provider-transcribed span of speech.
type TranscriptSegment struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Speaker    string  `json:"speaker,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Transcript is the provider's transcript for one bot session.
type Transcript struct {
	BotID    string              `json:"botId"`
	Segments []TranscriptSegment `json:"segments"`
}
