package transcribe

import (
	"context"
	"log/slog"
)

// Segment is a portion of transcribed audio.
type Segment struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"text"`
	Speaker    string  `json:"speaker,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Result bundles the output of one transcription run. A silent file
// yields an empty segment list, never an error.
type Result struct {
	Segments []Segment `json:"segments"`
	FullText string    `json:"fullText"`
	Language string    `json:"language,omitempty"`
	Duration float64   `json:"duration"`
}

// Engine is a pluggable transcription backend.
type Engine interface {
	TranscribeFile(ctx context.Context, path string) (*Result, error)
}

// Adapter tries the local engine first and falls back to the remote one
// when the local engine fails or is not configured. Either engine may be
// nil.
type Adapter struct {
	Local  Engine
	Remote Engine
}

func (a *Adapter) TranscribeFile(ctx context.Context, path string) (*Result, error) {
	if a.Local != nil {
		res, err := a.Local.TranscribeFile(ctx, path)
		if err == nil && len(res.Segments) > 0 {
			return res, nil
		}
		if err != nil {
			slog.Warn("local transcription failed, trying remote", "error", err, "file", path)
		}
		if a.Remote == nil {
			if err != nil {
				return nil, err
			}
			return res, nil
		}
	}
	if a.Remote == nil {
		return &Result{}, nil
	}
	return a.Remote.TranscribeFile(ctx, path)
}
