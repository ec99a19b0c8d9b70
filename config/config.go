package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Bot struct {
	URL          string        `yaml:"url"`
	APIKey       string        `yaml:"api_key"`
	Name         string        `yaml:"name"`
	PollInterval time.Duration `yaml:"poll_interval"`
	PollCeiling  time.Duration `yaml:"poll_ceiling"`
}

type Whisper struct {
	Path  string `yaml:"path"`
	Model string `yaml:"model"`
}

type Transcription struct {
	Whisper   Whisper `yaml:"whisper"`
	RemoteURL string  `yaml:"remote_url"`
}

type Review struct {
	AnalyzerURL string `yaml:"analyzer_url"`
	StoreURL    string `yaml:"store_url"`
}

type Capture struct {
	FramesDir string `yaml:"frames_dir"`
}

type Monitor struct {
	Addr string `yaml:"addr"`
}

type Root struct {
	Bot           Bot           `yaml:"bot"`
	Transcription Transcription `yaml:"transcription"`
	Review        Review        `yaml:"review"`
	Capture       Capture       `yaml:"capture"`
	Monitor       Monitor       `yaml:"monitor"`
}

// Load reads the first config file found among the candidate paths and
// applies environment fallbacks for secrets.
func Load(paths ...string) (*Root, error) {
	if len(paths) == 0 {
		paths = []string{"huddle.yaml", "config/huddle.yaml"}
	}

	var cfg Root
	var err error
	for _, p := range paths {
		var f *os.File
		f, err = os.Open(p)
		if err != nil {
			continue
		}
		err = yaml.NewDecoder(f).Decode(&cfg)
		f.Close()
		if err != nil {
			return nil, err
		}
		cfg.applyEnv()
		return &cfg, nil
	}
	return nil, err
}

func (c *Root) applyEnv() {
	if key := os.Getenv("HUDDLE_BOT_TOKEN"); key != "" {
		c.Bot.APIKey = key
	}
}
