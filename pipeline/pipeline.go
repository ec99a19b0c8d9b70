package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bosley/huddle/diarize"
	"github.com/bosley/huddle/meetbot"
	"github.com/bosley/huddle/review"
	"github.com/bosley/huddle/transcribe"
)

// ErrAlreadyActive is returned by Start while a session owns the pipeline.
var ErrAlreadyActive = errors.New("a meeting session is already active")

const (
	defaultPollInterval = 3 * time.Second
	defaultPollCeiling  = 120 * time.Second
	tickInterval        = time.Second
)

// BotClient is the remote bot provider as the pipeline sees it.
type BotClient interface {
	CreateBot(ctx context.Context, cfg meetbot.BotConfig) (*meetbot.Bot, error)
	GetBotStatus(ctx context.Context, id string) (*meetbot.Bot, error)
	StopBot(ctx context.Context, id string) error
	GetRecording(ctx context.Context, id string) (*meetbot.Recording, error)
	GetTranscript(ctx context.Context, id string) (*meetbot.Transcript, error)
}

// Transcriber turns a recorded audio artifact into transcript segments.
type Transcriber interface {
	TranscribeFile(ctx context.Context, path string) (*transcribe.Result, error)
}

// CaptureSource produces raw video frames for the duration of a session.
type CaptureSource interface {
	Start(ctx context.Context) (<-chan Frame, error)
	Stop() error
}

// Config describes one meeting session.
type Config struct {
	MeetingTitle      string
	MeetingURL        string
	Platform          string
	BotName           string
	KnownParticipants []string
}

// Options wires the pipeline's collaborators. Store and Source are
// optional; a nil FaceDetector is replaced by a no-op.
type Options struct {
	Bots         BotClient
	Transcriber  Transcriber
	Reviewer     review.Generator
	Store        review.Store
	Source       CaptureSource
	PollInterval time.Duration
	PollCeiling  time.Duration
}

// Pipeline coordinates one meeting session at a time: bot deployment,
// frame capture, transcription, diarization and review generation.
type Pipeline struct {
	mu        sync.Mutex
	state     State
	cfg       Config
	sessionID string
	audioPath string
	startedAt time.Time

	bots        BotClient
	transcriber Transcriber
	reviewer    review.Generator
	store       review.Store
	source      CaptureSource
	face        FaceDetector

	buffer *diarize.Buffer
	events *Bus

	pollInterval time.Duration
	pollCeiling  time.Duration

	stopping bool

	tickerStop chan struct{}
	tickerDone chan struct{}

	captureCancel context.CancelFunc
	captureDone   chan struct{}

	seen   map[string]bool
	roster []string
}

func New(opts Options) *Pipeline {
	p := &Pipeline{
		state:        State{Status: StatusIdle},
		bots:         opts.Bots,
		transcriber:  opts.Transcriber,
		reviewer:     opts.Reviewer,
		store:        opts.Store,
		source:       opts.Source,
		face:         noopFaceDetector{},
		buffer:       diarize.NewBuffer(),
		events:       NewBus(),
		pollInterval: opts.PollInterval,
		pollCeiling:  opts.PollCeiling,
		seen:         make(map[string]bool),
	}
	if p.pollInterval <= 0 {
		p.pollInterval = defaultPollInterval
	}
	if p.pollCeiling <= 0 {
		p.pollCeiling = defaultPollCeiling
	}
	return p
}

// Events exposes the pipeline's event bus for observers.
func (p *Pipeline) Events() *Bus { return p.events }

// State returns a read-only snapshot.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// IsActive reports whether a session currently owns the pipeline.
func (p *Pipeline) IsActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Status.Active()
}

// SetFaceDetector injects the capability used to turn raw frames into
// participant state. Passing nil restores the skip-everything default.
func (p *Pipeline) SetFaceDetector(d FaceDetector) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d == nil {
		d = noopFaceDetector{}
	}
	p.face = d
}

// Start deploys the meeting bot and begins a capture session. It fails
// with ErrAlreadyActive while a session is in flight.
func (p *Pipeline) Start(ctx context.Context, cfg Config) error {
	p.mu.Lock()
	if p.state.Status.Active() {
		p.mu.Unlock()
		return ErrAlreadyActive
	}
	now := time.Now()
	p.cfg = cfg
	p.sessionID = uuid.NewString()
	p.stopping = false
	p.audioPath = ""
	p.seen = make(map[string]bool)
	p.roster = nil
	p.startedAt = now
	p.state = State{
		Status:       StatusBotJoining,
		MeetingTitle: cfg.MeetingTitle,
		MeetingURL:   cfg.MeetingURL,
		Platform:     cfg.Platform,
		StartedAt:    &now,
	}
	snap := p.state
	face := p.face
	p.mu.Unlock()

	p.buffer.Reset()
	face.Reset()
	p.events.Emit(EventStatusChanged, snap)

	slog.Info("Starting meeting session",
		"sessionID", p.sessionID,
		"title", cfg.MeetingTitle,
		"url", cfg.MeetingURL)

	bot, err := p.bots.CreateBot(ctx, meetbot.BotConfig{
		MeetingURL: cfg.MeetingURL,
		BotName:    cfg.BotName,
		Platform:   cfg.Platform,
	})
	if err != nil {
		return p.fail(fmt.Errorf("deploy bot: %w", err))
	}

	p.mu.Lock()
	p.state.BotID = bot.ID
	p.mu.Unlock()

	p.startTicker()

	if p.source != nil {
		if err := p.startCapture(); err != nil {
			return p.fail(fmt.Errorf("start capture: %w", err))
		}
	}

	p.transition(StatusCapturing)
	return nil
}

// Stop ends the session: it retrieves the bot's artifacts, runs
// transcription fallback and diarization, generates the review and
// returns it. With no active session it is a no-op. The first caller
// claims the session; a concurrent Stop sees the teardown already in
// flight and gets the no-op result. On an unrecoverable failure the
// pipeline lands in the error state, the error event fires and no
// review is returned.
func (p *Pipeline) Stop(ctx context.Context) (*review.MeetingReview, error) {
	p.mu.Lock()
	if !p.state.Status.Active() || p.stopping {
		p.mu.Unlock()
		return nil, nil
	}
	p.stopping = true
	botID := p.state.BotID
	cfg := p.cfg
	startedAt := p.startedAt
	p.mu.Unlock()

	p.stopCapture()
	p.stopTicker()
	p.transition(StatusBotProcessing)

	var segments []diarize.TranscriptSegment
	if botID != "" {
		if err := p.bots.StopBot(ctx, botID); err != nil {
			slog.Warn("Failed to stop bot", "error", err, "botID", botID)
		}
		p.waitForBot(ctx, botID)
		segments = p.collectBotArtifacts(ctx, botID)
	}

	p.transition(StatusTranscribing)
	segments = p.transcribeFallback(ctx, segments)

	p.mu.Lock()
	p.state.SegmentCount = len(segments)
	p.mu.Unlock()

	p.transition(StatusAnalyzing)
	observations := p.buffer.Snapshot()
	dia := diarize.Diarize(segments, observations, cfg.KnownParticipants)

	slog.Info("Diarization finished",
		"segments", len(dia.Segments),
		"participants", len(dia.Participants),
		"quality", dia.Quality)

	input := buildAnalysisInput(cfg, startedAt, dia)

	p.transition(StatusGeneratingReview)
	rev, err := p.reviewer.GenerateReview(ctx, input)
	if err != nil {
		return nil, p.fail(fmt.Errorf("generate review: %w", err))
	}
	if rev.ID == "" {
		rev.ID = uuid.NewString()
	}

	if p.store != nil {
		if err := p.store.SaveReview(ctx, rev); err != nil {
			slog.Warn("Failed to store review", "error", err, "reviewID", rev.ID)
		}
	}

	p.mu.Lock()
	p.state.ReviewID = rev.ID
	p.mu.Unlock()

	p.transition(StatusComplete)
	p.events.Emit(EventReviewReady, ReviewReadyPayload{ReviewID: rev.ID, Review: rev})
	p.resetWorking()

	slog.Info("Meeting session complete", "reviewID", rev.ID)
	return rev, nil
}

// waitForBot polls the provider until the bot reports a terminal status
// or the wait ceiling elapses. A timed-out poll is logged, not fatal.
func (p *Pipeline) waitForBot(ctx context.Context, botID string) {
	deadline := time.Now().Add(p.pollCeiling)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		bot, err := p.bots.GetBotStatus(ctx, botID)
		if err != nil {
			slog.Warn("Failed to poll bot status", "error", err, "botID", botID)
		} else if bot.Status.Terminal() {
			slog.Debug("Bot reached terminal status", "botID", botID, "status", bot.Status)
			return
		}

		if time.Now().After(deadline) {
			slog.Warn("Bot did not reach a terminal status before the wait ceiling",
				"botID", botID,
				"ceiling", p.pollCeiling)
			return
		}

		select {
		case <-ctx.Done():
			slog.Warn("Bot status wait cancelled", "botID", botID, "error", ctx.Err())
			return
		case <-ticker.C:
		}
	}
}

// collectBotArtifacts fetches the recording and transcript, best-effort.
// Failures here downgrade to the local transcription fallback.
func (p *Pipeline) collectBotArtifacts(ctx context.Context, botID string) []diarize.TranscriptSegment {
	rec, err := p.bots.GetRecording(ctx, botID)
	if err != nil {
		slog.Warn("Failed to fetch recording", "error", err, "botID", botID)
	} else if rec != nil && rec.Path != "" {
		p.mu.Lock()
		p.audioPath = rec.Path
		p.mu.Unlock()
	}

	tr, err := p.bots.GetTranscript(ctx, botID)
	if err != nil {
		slog.Warn("Failed to fetch transcript", "error", err, "botID", botID)
		return nil
	}
	if tr == nil || len(tr.Segments) == 0 {
		return nil
	}

	out := make([]diarize.TranscriptSegment, 0, len(tr.Segments))
	for _, s := range tr.Segments {
		out = append(out, diarize.TranscriptSegment{
			Text:         s.Text,
			Start:        s.Start,
			End:          s.End,
			SpeakerLabel: s.Speaker,
			Confidence:   s.Confidence,
		})
	}
	return out
}

// transcribeFallback runs local transcription when the bot transcript
// was empty or unavailable, preferring its output when non-empty.
func (p *Pipeline) transcribeFallback(ctx context.Context, segments []diarize.TranscriptSegment) []diarize.TranscriptSegment {
	p.mu.Lock()
	audioPath := p.audioPath
	p.mu.Unlock()

	if len(segments) > 0 || audioPath == "" || p.transcriber == nil {
		p.emitSegments(segments)
		return segments
	}

	res, err := p.transcriber.TranscribeFile(ctx, audioPath)
	if err != nil {
		slog.Warn("Fallback transcription failed", "error", err, "file", audioPath)
		return segments
	}

	out := make([]diarize.TranscriptSegment, 0, len(res.Segments))
	for _, s := range res.Segments {
		out = append(out, diarize.TranscriptSegment{
			Text:         s.Text,
			Start:        s.Start,
			End:          s.End,
			SpeakerLabel: s.Speaker,
			Confidence:   s.Confidence,
		})
	}
	p.emitSegments(out)
	return out
}

func (p *Pipeline) emitSegments(segments []diarize.TranscriptSegment) {
	for _, s := range segments {
		p.events.Emit(EventTranscriptSegment, s)
	}
}

func buildAnalysisInput(cfg Config, startedAt time.Time, dia diarize.Result) review.AnalysisInput {
	in := review.AnalysisInput{
		Title:    cfg.MeetingTitle,
		Date:     startedAt,
		Duration: dia.Duration,
		Platform: cfg.Platform,
	}
	for _, part := range dia.Participants {
		in.Participants = append(in.Participants, part.Name)
		for _, sample := range part.ExpressionTimeline {
			in.ExpressionHistory = append(in.ExpressionHistory, review.ExpressionEvent{
				Timestamp:   sample.Timestamp,
				Participant: part.Name,
				Expression:  sample.Expression,
			})
		}
	}
	for _, s := range dia.Segments {
		in.Transcript = append(in.Transcript, review.TranscriptLine{
			Speaker: s.SpeakerName,
			Text:    s.Text,
			Start:   s.Start,
			End:     s.End,
		})
	}
	return in
}

// fail moves the pipeline to the error state, emits the error event and
// resets working state so the next session starts clean.
func (p *Pipeline) fail(err error) error {
	p.stopCapture()
	p.stopTicker()

	p.mu.Lock()
	p.state.Status = StatusError
	p.state.Error = err.Error()
	snap := p.state
	p.mu.Unlock()

	slog.Error("Meeting session failed", "error", err)
	p.events.Emit(EventStatusChanged, snap)
	p.events.Emit(EventError, ErrorPayload{Message: err.Error()})
	p.resetWorking()
	return err
}

func (p *Pipeline) resetWorking() {
	p.mu.Lock()
	p.cfg = Config{}
	p.stopping = false
	p.audioPath = ""
	p.seen = make(map[string]bool)
	p.roster = nil
	face := p.face
	p.mu.Unlock()

	p.buffer.Reset()
	face.Reset()
}

func (p *Pipeline) transition(status Status) {
	p.mu.Lock()
	p.state.Status = status
	snap := p.state
	p.mu.Unlock()

	slog.Debug("Pipeline status changed", "status", status)
	p.events.Emit(EventStatusChanged, snap)
}

func (p *Pipeline) startTicker() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tickerStop != nil {
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	p.tickerStop = stop
	p.tickerDone = done

	go func() {
		defer close(done)
		t := time.NewTicker(tickInterval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				p.mu.Lock()
				p.state.Duration = time.Since(p.startedAt).Seconds()
				p.mu.Unlock()
			}
		}
	}()
}

func (p *Pipeline) stopTicker() {
	p.mu.Lock()
	stop, done := p.tickerStop, p.tickerDone
	p.tickerStop, p.tickerDone = nil, nil
	if stop != nil {
		p.state.Duration = time.Since(p.startedAt).Seconds()
	}
	p.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (p *Pipeline) startCapture() error {
	cctx, cancel := context.WithCancel(context.Background())
	frames, err := p.source.Start(cctx)
	if err != nil {
		cancel()
		return err
	}

	done := make(chan struct{})
	p.mu.Lock()
	p.captureCancel = cancel
	p.captureDone = done
	p.state.CaptureActive = true
	p.mu.Unlock()

	go func() {
		defer close(done)
		for f := range frames {
			p.processFrame(f)
		}
	}()
	return nil
}

func (p *Pipeline) stopCapture() {
	p.mu.Lock()
	cancel, done := p.captureCancel, p.captureDone
	p.captureCancel, p.captureDone = nil, nil
	p.state.CaptureActive = false
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	if err := p.source.Stop(); err != nil {
		slog.Warn("Failed to stop capture source", "error", err)
	}
	<-done
}

// processFrame feeds one frame through the face-detection capability and
// appends the resulting observations. Visual data is best-effort: any
// failure is swallowed and only degrades diarization quality.
func (p *Pipeline) processFrame(f Frame) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Frame processing panicked", "panic", r)
		}
	}()

	p.mu.Lock()
	face := p.face
	startedAt := p.startedAt
	p.mu.Unlock()

	if !face.IsReady() {
		return
	}

	analysis, err := face.AnalyzeFrame(f)
	if err != nil {
		slog.Debug("Frame analysis failed", "error", err)
		return
	}
	if analysis == nil || len(analysis.Participants) == 0 {
		return
	}

	ts := f.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	rel := ts.Sub(startedAt).Seconds()

	for _, fp := range analysis.Participants {
		p.buffer.Append(diarize.VisualObservation{
			Timestamp:            rel,
			ParticipantID:        fp.ID,
			ParticipantName:      fp.Name,
			IsSpeaking:           fp.IsSpeaking,
			SpeakingConfidence:   fp.SpeakingConfidence,
			Expression:           fp.Expression,
			ExpressionConfidence: fp.ExpressionConfidence,
			HeadPose:             fp.HeadPose,
		})
		p.events.Emit(EventExpressionUpdate, ExpressionUpdatePayload{
			ParticipantID:   fp.ID,
			ParticipantName: fp.Name,
			Expression:      fp.Expression,
			IsSpeaking:      fp.IsSpeaking,
		})
	}

	p.mu.Lock()
	grew := false
	for _, fp := range analysis.Participants {
		if p.seen[fp.ID] {
			continue
		}
		p.seen[fp.ID] = true
		name := fp.Name
		if name == "" {
			name = fp.ID
		}
		p.roster = append(p.roster, name)
		grew = true
	}
	count := len(p.roster)
	p.state.ParticipantCount = count
	names := make([]string, len(p.roster))
	copy(names, p.roster)
	p.mu.Unlock()

	if grew {
		p.events.Emit(EventParticipantDetected, ParticipantDetectedPayload{
			Count:        count,
			Participants: names,
		})
	}
}
