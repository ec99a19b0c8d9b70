package review

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Client posts analysis input to the semantic analyzer service.
type Client struct {
	url string
	c   *http.Client
}

func NewClient(url string) *Client {
	return &Client{url: url, c: &http.Client{Timeout: 2 * time.Minute}}
}

func (c *Client) GenerateReview(ctx context.Context, in AnalysisInput) (*MeetingReview, error) {
	payload, _ := json.Marshal(in)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/review", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("review %s: %s", resp.Status, string(body))
	}

	var out MeetingReview
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("review decode: %w", err)
	}
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	return &out, nil
}

// StoreClient forwards finished reviews to the knowledge store.
type StoreClient struct {
	url string
	c   *http.Client
}

func NewStoreClient(url string) *StoreClient {
	return &StoreClient{url: url, c: &http.Client{Timeout: 30 * time.Second}}
}

func (s *StoreClient) SaveReview(ctx context.Context, r *MeetingReview) error {
	payload, _ := json.Marshal(r)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url+"/reviews", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("save review %s: %s", resp.Status, string(body))
	}
	return nil
}
