package meetbot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Client is a thin RPC wrapper around the remote bot provider.
type Client struct {
	baseURL string
	apiKey  string
	c       *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		c:       &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Token "+c.apiKey)
	}
	return req, nil
}

// CreateBot deploys a bot into the meeting described by cfg.
func (c *Client) CreateBot(ctx context.Context, cfg BotConfig) (*Bot, error) {
	payload, _ := json.Marshal(cfg)
	req, err := c.newRequest(ctx, http.MethodPost, "/bots", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("create bot %s: %s", resp.Status, string(body))
	}

	var out Bot
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("create bot decode: %w", err)
	}
	return &out, nil
}

// GetBotStatus fetches the bot's current lifecycle state.
func (c *Client) GetBotStatus(ctx context.Context, id string) (*Bot, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/bots/"+id, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("bot status %s: %s", resp.Status, string(body))
	}

	var out Bot
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("bot status decode: %w", err)
	}
	return &out, nil
}

// StopBot instructs the bot to leave the meeting.
func (c *Client) StopBot(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/bots/"+id+"/leave", nil)
	if err != nil {
		return err
	}

	resp, err := c.c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("stop bot %s: %s", resp.Status, string(body))
	}
	return nil
}

// GetRecording fetches the bot's recording metadata and downloads the
// media to a temp file. It returns nil when no recording exists yet.
func (c *Client) GetRecording(ctx context.Context, id string) (*Recording, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/bots/"+id+"/recording", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("recording %s: %s", resp.Status, string(body))
	}

	var rec Recording
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("recording decode: %w", err)
	}
	if rec.URL == "" {
		return nil, nil
	}

	path, err := c.download(ctx, rec.URL, id)
	if err != nil {
		return nil, fmt.Errorf("download recording: %w", err)
	}
	rec.Path = path
	return &rec, nil
}

func (c *Client) download(ctx context.Context, url, botID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.c.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("media %s", resp.Status)
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("huddle_%s.wav", botID))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// GetTranscript fetches the provider's transcript for the bot session.
// It returns nil when the provider produced none.
func (c *Client) GetTranscript(ctx context.Context, id string) (*Transcript, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/bots/"+id+"/transcript", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("transcript %s: %s", resp.Status, string(body))
	}

	var out Transcript
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("transcript decode: %w", err)
	}
	return &out, nil
}
