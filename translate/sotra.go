// Package translate dispatches transcript fragments to the sotra
// translation engine and fans the results out to session subscribers.
package translate

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

// Model flavors the sotra server runs. They answer with different
// response shapes and are normalized here.
const (
	ModelCTranslate = "ctranslate"
	ModelFairseq    = "fairseq"
)

// Result is the normalized engine answer.
type Result struct {
	Translation string
	Model       string
}

// Engine is the translation backend boundary.
type Engine interface {
	Translate(ctx context.Context, model, text, sourceLanguage, targetLanguage, recordID string) (Result, error)
}

// UpstreamError carries the engine's failure body through to the
// caller, the way the web client expects it.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("translation engine returned %d: %s", e.StatusCode, e.Body)
}

// Sotra is the HTTP client for the sotra translation server.
type Sotra struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewSotra(baseURL string, timeout time.Duration) *Sotra {
	return &Sotra{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type sotraRequest struct {
	Model          string `json:"model,omitempty"`
	Text           string `json:"text"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
	AudioRecordID  string `json:"audio_record_id,omitempty"`
}

// sotraResponse covers both model flavors: ctranslate answers with a
// scalar translation, fairseq with a word list to rejoin.
type sotraResponse struct {
	Model             string   `json:"model"`
	Translation       string   `json:"translation"`
	MarkedTranslation []string `json:"marked_translation"`
}

func (r sotraResponse) text() string {
	if r.Model == ModelFairseq || len(r.MarkedTranslation) > 0 {
		return strings.Join(r.MarkedTranslation, " ")
	}
	return r.Translation
}

func (s *Sotra) Translate(ctx context.Context, model, text, sourceLanguage, targetLanguage, recordID string) (Result, error) {
	payload, err := json.Marshal(sotraRequest{
		Model:          model,
		Text:           text,
		SourceLanguage: sourceLanguage,
		TargetLanguage: targetLanguage,
		AudioRecordID:  recordID,
	})
	if err != nil {
		return Result{}, fmt.Errorf("marshal translation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.BaseURL+"/translate", bytes.NewReader(payload))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("translation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read translation response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Result{}, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed sotraResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{}, fmt.Errorf("decode translation response: %w", err)
	}

	echoed := parsed.Model
	if echoed == "" {
		echoed = model
	}
	return Result{Translation: parsed.text(), Model: echoed}, nil
}
