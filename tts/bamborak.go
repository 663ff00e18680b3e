// Package tts proxies speech synthesis to the bamborak server.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Speaker is one voice the bamborak server offers.
type Speaker struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type synthesizeRequest struct {
	Text      string `json:"text"`
	SpeakerID string `json:"speaker_id"`
}

// Synthesize returns the rendered utterance as audio/mp4 bytes.
func (c *Client) Synthesize(ctx context.Context, text, speakerID string) ([]byte, error) {
	payload, err := json.Marshal(synthesizeRequest{Text: text, SpeakerID: speakerID})
	if err != nil {
		return nil, fmt.Errorf("marshal tts request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/api/tts/", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read tts response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts server returned %d: %s", resp.StatusCode, body)
	}
	return body, nil
}

// Speakers returns the server's speaker list as raw JSON, passed
// through untouched.
func (c *Client) Speakers(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/api/fetch_speakers/", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch speakers failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read speakers response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("speakers endpoint returned %d: %s", resp.StatusCode, body)
	}
	return body, nil
}
