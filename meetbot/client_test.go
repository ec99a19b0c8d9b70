package meetbot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func TestBotStatusTerminal(t *testing.T) {
	tests := []struct {
		status   BotStatus
		terminal bool
	}{
		{StatusReady, false},
		{StatusJoining, false},
		{StatusInWaitingRoom, false},
		{StatusInCall, false},
		{StatusRecording, false},
		{StatusProcessing, false},
		{StatusDone, true},
		{StatusError, true},
		{StatusFatal, true},
	}
	for _, tc := range tests {
		if got := tc.status.Terminal(); got != tc.terminal {
			t.Fatalf("%s: terminal=%v, want %v", tc.status, got, tc.terminal)
		}
	}
}

func TestCreateBot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/bots" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Token secret" {
			t.Errorf("authorization: %q", got)
		}
		var cfg BotConfig
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			t.Errorf("decode config: %v", err)
		}
		if cfg.MeetingURL != "https://meet/x" {
			t.Errorf("meeting url: %q", cfg.MeetingURL)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Bot{ID: "b1", Status: StatusJoining, MeetingURL: cfg.MeetingURL})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	bot, err := c.CreateBot(context.Background(), BotConfig{MeetingURL: "https://meet/x"})
	if err != nil {
		t.Fatalf("create bot: %v", err)
	}
	if bot.ID != "b1" || bot.Status != StatusJoining {
		t.Fatalf("bot: %+v", bot)
	}
}

func TestGetBotStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	if _, err := c.GetBotStatus(context.Background(), "b1"); err == nil {
		t.Fatalf("expected an error from a 500 response")
	}
}

func TestGetTranscriptNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	tr, err := c.GetTranscript(context.Background(), "b1")
	if err != nil {
		t.Fatalf("transcript: %v", err)
	}
	if tr != nil {
		t.Fatalf("transcript: got %+v, want nil", tr)
	}
}

func TestGetTranscript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bots/b1/transcript" {
			t.Errorf("path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Transcript{
			BotID: "b1",
			Segments: []TranscriptSegment{
				{Text: "hello", Start: 0, End: 2, Speaker: "S0", Confidence: 0.8},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	tr, err := c.GetTranscript(context.Background(), "b1")
	if err != nil {
		t.Fatalf("transcript: %v", err)
	}
	if len(tr.Segments) != 1 || tr.Segments[0].Text != "hello" {
		t.Fatalf("segments: %+v", tr.Segments)
	}
}

func TestGetRecordingDownloadsMedia(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bots/b1/recording":
			json.NewEncoder(w).Encode(map[string]string{"id": "rec1", "url": srv.URL + "/media/rec1"})
		case "/media/rec1":
			w.Write([]byte("RIFFfakewav"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	rec, err := c.GetRecording(context.Background(), "b1")
	if err != nil {
		t.Fatalf("recording: %v", err)
	}
	if rec == nil || rec.Path == "" {
		t.Fatalf("recording path not set: %+v", rec)
	}
	defer os.Remove(rec.Path)

	data, err := os.ReadFile(rec.Path)
	if err != nil {
		t.Fatalf("read download: %v", err)
	}
	if string(data) != "RIFFfakewav" {
		t.Fatalf("downloaded content: %q", data)
	}
}

func TestGetRecordingNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	rec, err := c.GetRecording(context.Background(), "b1")
	if err != nil || rec != nil {
		t.Fatalf("recording: got (%+v, %v), want (nil, nil)", rec, err)
	}
}
