package transcribe

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	wav "github.com/youpy/go-wav"
)

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestParseWhisperOutput(t *testing.T) {
	output := `
[00:00:00.000 --> 00:00:02.560]   Hello everyone, welcome.
[00:00:02.560 --> 00:00:05.120]   Let's get started.
[00:00:05.120 --> 00:00:06.000]  [BLANK_AUDIO]
whisper_print_timings: load time = 123 ms
`
	res := parseWhisperOutput(output)
	if len(res.Segments) != 2 {
		t.Fatalf("segments: got %d, want 2", len(res.Segments))
	}
	first := res.Segments[0]
	if first.Text != "Hello everyone, welcome." {
		t.Fatalf("text: %q", first.Text)
	}
	if first.Start != 0 || !closeTo(first.End, 2.56) {
		t.Fatalf("times: %v..%v", first.Start, first.End)
	}
	if !closeTo(res.Segments[1].Start, 2.56) || !closeTo(res.Segments[1].End, 5.12) {
		t.Fatalf("second times: %v..%v", res.Segments[1].Start, res.Segments[1].End)
	}
	if !closeTo(res.Duration, 5.12) {
		t.Fatalf("duration: %v", res.Duration)
	}
	if res.FullText != "Hello everyone, welcome. Let's get started." {
		t.Fatalf("full text: %q", res.FullText)
	}
}

func TestParseWhisperOutputEmpty(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{name: "nothing", output: ""},
		{name: "only blank audio", output: "[00:00:00.000 --> 00:00:03.000]  [BLANK_AUDIO]\n"},
		{name: "only noise lines", output: "loading model...\ndone\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := parseWhisperOutput(tc.output)
			if len(res.Segments) != 0 || res.Duration != 0 {
				t.Fatalf("expected an empty result, got %+v", res)
			}
		})
	}
}

func TestTimestampSeconds(t *testing.T) {
	if got := timestampSeconds("01", "02", "03", "500"); got != 3723.5 {
		t.Fatalf("timestamp: got %v, want 3723.5", got)
	}
}

func writeSilentWAV(t *testing.T, path string, rate uint32) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	defer f.Close()

	const n = 1600
	w := wav.NewWriter(f, n, 1, rate, 16)
	if err := w.WriteSamples(make([]wav.Sample, n)); err != nil {
		t.Fatalf("write samples: %v", err)
	}
}

func TestLocalWhisperRemovesResampledCopy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.wav")
	writeSilentWAV(t, path, 8000)

	// echo stands in for whisper: it exits cleanly and produces no
	// timestamped lines, so only the file handling is exercised.
	w := NewLocalWhisper("/bin/echo", "model.bin")
	if _, err := w.TranscribeFile(context.Background(), path); err != nil {
		t.Fatalf("transcribe: %v", err)
	}

	leftover := filepath.Join(dir, "session_whisper.wav")
	if _, err := os.Stat(leftover); err == nil {
		t.Fatalf("resampled copy %s left behind", leftover)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("original recording removed: %v", err)
	}
}

type stubEngine struct {
	result *Result
	err    error
	called bool
}

func (s *stubEngine) TranscribeFile(ctx context.Context, path string) (*Result, error) {
	s.called = true
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func TestAdapterPrefersLocal(t *testing.T) {
	local := &stubEngine{result: &Result{Segments: []Segment{{Text: "local"}}}}
	remote := &stubEngine{result: &Result{Segments: []Segment{{Text: "remote"}}}}
	a := &Adapter{Local: local, Remote: remote}

	res, err := a.TranscribeFile(context.Background(), "x.wav")
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if res.Segments[0].Text != "local" {
		t.Fatalf("adapter did not prefer the local engine")
	}
	if remote.called {
		t.Fatalf("remote engine was called despite local success")
	}
}

func TestAdapterFallsBackOnError(t *testing.T) {
	local := &stubEngine{err: errors.New("whisper missing")}
	remote := &stubEngine{result: &Result{Segments: []Segment{{Text: "remote"}}}}
	a := &Adapter{Local: local, Remote: remote}

	res, err := a.TranscribeFile(context.Background(), "x.wav")
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if res.Segments[0].Text != "remote" {
		t.Fatalf("adapter did not fall back to the remote engine")
	}
}

func TestAdapterFallsBackOnEmptyLocalResult(t *testing.T) {
	local := &stubEngine{result: &Result{}}
	remote := &stubEngine{result: &Result{Segments: []Segment{{Text: "remote"}}}}
	a := &Adapter{Local: local, Remote: remote}

	res, err := a.TranscribeFile(context.Background(), "x.wav")
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if len(res.Segments) != 1 || res.Segments[0].Text != "remote" {
		t.Fatalf("adapter did not try remote after an empty local result")
	}
}

func TestAdapterEmptyEverywhereIsNotAnError(t *testing.T) {
	a := &Adapter{Local: &stubEngine{result: &Result{}}, Remote: &stubEngine{result: &Result{}}}
	res, err := a.TranscribeFile(context.Background(), "x.wav")
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if len(res.Segments) != 0 {
		t.Fatalf("segments: %+v", res.Segments)
	}
}

func TestAdapterNoEngines(t *testing.T) {
	a := &Adapter{}
	res, err := a.TranscribeFile(context.Background(), "x.wav")
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if len(res.Segments) != 0 {
		t.Fatalf("segments: %+v", res.Segments)
	}
}
