// Package captions uploads live caption lines to the YouTube closed
// caption ingest endpoint.
package captions

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultIngestURL = "http://upload.youtube.com/closedcaption"

// Line is one caption fragment addressed to a broadcast ingest.
type Line struct {
	CID       string `json:"cid"`
	Seq       int    `json:"seq"`
	Timestamp string `json:"timestamp"`
	Region    string `json:"region"`
	Text      string `json:"text"`
}

type Uploader struct {
	IngestURL  string
	HTTPClient *http.Client
}

func NewUploader(ingestURL string) *Uploader {
	if ingestURL == "" {
		ingestURL = DefaultIngestURL
	}
	return &Uploader{
		IngestURL:  ingestURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Body renders the ingest wire format: a UTC timestamp with
// millisecond precision, the region, then the caption text and
// sequence number.
func (l Line) Body() (string, error) {
	ts, err := time.Parse(time.RFC3339, l.Timestamp)
	if err != nil {
		return "", fmt.Errorf("parse caption timestamp: %w", err)
	}
	stamp := ts.UTC().Format("2006-01-02T15:04:05.000")
	return fmt.Sprintf("%s region:%s\n%s: %d\n", stamp, l.Region, l.Text, l.Seq), nil
}

func (u *Uploader) Upload(ctx context.Context, line Line) ([]byte, error) {
	body, err := line.Body()
	if err != nil {
		return nil, err
	}

	target := fmt.Sprintf("%s?cid=%s&seq=%d", u.IngestURL, url.QueryEscape(line.CID), line.Seq)
	req, err := http.NewRequestWithContext(ctx, "POST", target, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := u.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("caption upload failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read caption response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("caption ingest returned %d: %s", resp.StatusCode, data)
	}
	return data, nil
}
