package audio

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	wav "github.com/youpy/go-wav"
)

// WhisperSampleRate is the rate required by whisper.
const WhisperSampleRate = 16000

// Info describes a WAV file's format and length.
type Info struct {
	SampleRate int
	Channels   int
	Duration   float64
}

// Probe reads the WAV header and reports format and duration.
func Probe(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := wav.NewReader(f)
	format, err := r.Format()
	if err != nil {
		return nil, fmt.Errorf("read wav header: %w", err)
	}

	dur, err := r.Duration()
	if err != nil {
		return nil, fmt.Errorf("read wav duration: %w", err)
	}

	return &Info{
		SampleRate: int(format.SampleRate),
		Channels:   int(format.NumChannels),
		Duration:   dur.Seconds(),
	}, nil
}

// ResampleForWhisper resamples the WAV file to 16kHz mono via ffmpeg and
// returns the path of the resampled copy.
func ResampleForWhisper(inputPath string) (string, error) {
	outputPath := strings.TrimSuffix(inputPath, ".wav") + "_whisper.wav"

	cmd := exec.Command("ffmpeg",
		"-i", inputPath,
		"-ar", fmt.Sprintf("%d", WhisperSampleRate),
		"-ac", "1",
		"-y", // Overwrite output file
		outputPath)

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to resample audio: %w", err)
	}

	return outputPath, nil
}
