package asr

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
)

// EngineDialer opens the duplex tunnel to the recognition engine for
// one recording session.
type EngineDialer interface {
	Dial(ctx context.Context, recordID string) (*websocket.Conn, error)
}

// Engine dials the streaming recognition server over websocket.
type Engine struct {
	URL    string
	Dialer *websocket.Dialer
}

func NewEngine(url string) *Engine {
	return &Engine{
		URL:    url,
		Dialer: websocket.DefaultDialer,
	}
}

func (e *Engine) Dial(ctx context.Context, recordID string) (*websocket.Conn, error) {
	conn, _, err := e.Dialer.DialContext(ctx, e.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to recognition engine for record %s: %w", recordID, err)
	}
	return conn, nil
}
