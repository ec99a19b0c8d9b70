package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/bosley/huddle/audio"
)

// timestamped whisper output line: [00:00:00.000 --> 00:00:02.560]  text
var segmentLine = regexp.MustCompile(`^\[(\d{2}):(\d{2}):(\d{2})[.,](\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2})[.,](\d{3})\]\s*(.*)$`)

// LocalWhisper transcribes audio by invoking a whisper executable.
type LocalWhisper struct {
	BinPath   string
	ModelPath string
}

func NewLocalWhisper(binPath, modelPath string) *LocalWhisper {
	return &LocalWhisper{BinPath: binPath, ModelPath: modelPath}
}

func (w *LocalWhisper) TranscribeFile(ctx context.Context, path string) (*Result, error) {
	input := path
	if info, err := audio.Probe(path); err == nil && info.SampleRate != audio.WhisperSampleRate {
		resampled, err := audio.ResampleForWhisper(path)
		if err != nil {
			slog.Warn("resample failed, feeding whisper the original file",
				"error", err,
				"file", path)
		} else {
			input = resampled
			defer os.Remove(resampled)
		}
	}

	cmd := exec.CommandContext(ctx, w.BinPath,
		"--model", w.ModelPath,
		input)

	slog.Debug("Executing whisper command",
		"command", cmd.String(),
		"args", cmd.Args)

	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			slog.Debug("Whisper command failed",
				"stderr", string(exitErr.Stderr),
				"exitCode", exitErr.ExitCode())
		}
		return nil, fmt.Errorf("whisper execution failed: %w", err)
	}

	return parseWhisperOutput(string(output)), nil
}

// parseWhisperOutput converts whisper's subtitle-style stdout into
// segments. Lines without a timestamp pair and blank-audio markers are
// skipped; a file with no transcribable content yields an empty result.
func parseWhisperOutput(output string) *Result {
	res := &Result{}
	var full []string

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.Contains(line, "[BLANK_AUDIO]") {
			continue
		}

		m := segmentLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		text := strings.TrimSpace(m[9])
		if text == "" {
			continue
		}

		seg := Segment{
			Start: timestampSeconds(m[1], m[2], m[3], m[4]),
			End:   timestampSeconds(m[5], m[6], m[7], m[8]),
			Text:  text,
		}
		res.Segments = append(res.Segments, seg)
		full = append(full, text)
	}

	res.FullText = strings.Join(full, " ")
	if n := len(res.Segments); n > 0 {
		res.Duration = res.Segments[n-1].End
	}
	return res
}

func timestampSeconds(h, m, s, ms string) float64 {
	hh, _ := strconv.Atoi(h)
	mm, _ := strconv.Atoi(m)
	ss, _ := strconv.Atoi(s)
	mmm, _ := strconv.Atoi(ms)
	return float64(hh)*3600 + float64(mm)*60 + float64(ss) + float64(mmm)/1000
}
