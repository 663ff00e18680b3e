// Package asr owns the audio tunnel between a producer client and the
// streaming recognition engine, and the filtering of recognizer output
// into persisted transcript entries.
package asr

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"witaj.town/record"
)

// timestampFrameLen is the length of the producer's clock-sync control
// frame: a millisecond unix timestamp in decimal.
const timestampFrameLen = 13

// engineMessage is the structured part of a recognizer message. Word
// results follow the vosk convention.
type engineMessage struct {
	Text   string `json:"text"`
	Result []struct {
		Word  string   `json:"word"`
		Conf  float64  `json:"conf"`
		Spell *bool    `json:"spell,omitempty"`
		Start *float64 `json:"start,omitempty"`
		End   *float64 `json:"end,omitempty"`
	} `json:"result"`
}

// Relay runs one duplex recognition session: audio frames from the
// producer stream to the engine, engine hypotheses stream back to the
// producer, and accepted final transcripts land in the store.
type Relay struct {
	engine EngineDialer
	store  record.Store
	filter *Filter
	logger *log.Logger
}

func NewRelay(engine EngineDialer, store record.Store, filter *Filter, logger *log.Logger) *Relay {
	return &Relay{
		engine: engine,
		store:  store,
		filter: filter,
		logger: logger,
	}
}

// session pairs the two connections and tears both down together.
type session struct {
	producer *websocket.Conn
	upstream *websocket.Conn

	mu   sync.Mutex
	open bool
}

func (s *session) isOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *session) close() {
	s.mu.Lock()
	wasOpen := s.open
	s.open = false
	s.mu.Unlock()
	if !wasOpen {
		return
	}
	s.producer.Close()
	s.upstream.Close()
}

// Run drives the session until either side closes or fails. The
// producer connection is owned by the relay from here on and is closed
// before Run returns. There is no reconnection; a dropped session is
// re-established by the client.
func (r *Relay) Run(ctx context.Context, recordID string, producer *websocket.Conn) error {
	upstream, err := r.engine.Dial(ctx, recordID)
	if err != nil {
		producer.Close()
		return err
	}

	sess := &session{producer: producer, upstream: upstream, open: true}
	defer sess.close()

	r.logger.Info("relay open", "record", recordID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.pumpUpstream(ctx, recordID, sess)
	}()

	r.pumpProducer(recordID, sess)
	sess.close()
	<-done

	r.logger.Info("relay closed", "record", recordID)
	return nil
}

// pumpProducer forwards producer frames to the engine until the
// producer side ends.
func (r *Relay) pumpProducer(recordID string, sess *session) {
	for {
		messageType, data, err := sess.producer.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				r.logger.Error("producer read", "record", recordID, "error", err)
			}
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			if err := sess.upstream.WriteMessage(websocket.BinaryMessage, data); err != nil {
				r.logger.Error("forward audio", "record", recordID, "error", err)
				return
			}
		case websocket.TextMessage:
			if syncMsg, ok := clockSyncMessage(data); ok {
				if err := sess.upstream.WriteMessage(websocket.TextMessage, []byte(syncMsg)); err != nil {
					r.logger.Error("forward clock sync", "record", recordID, "error", err)
					return
				}
				continue
			}
			// Other text frames pass through only while the tunnel is
			// up; there is no queueing.
			if !sess.isOpen() {
				continue
			}
			if err := sess.upstream.WriteMessage(websocket.TextMessage, data); err != nil {
				r.logger.Error("forward text", "record", recordID, "error", err)
				return
			}
		}
	}
}

// pumpUpstream echoes engine messages to the producer and persists
// accepted transcripts. Parse and persistence failures never interrupt
// the relay.
func (r *Relay) pumpUpstream(ctx context.Context, recordID string, sess *session) {
	defer sess.close()

	for {
		messageType, data, err := sess.upstream.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				r.logger.Error("engine read", "record", recordID, "error", err)
			}
			return
		}

		if err := sess.producer.WriteMessage(messageType, data); err != nil {
			r.logger.Error("echo hypothesis", "record", recordID, "error", err)
			return
		}

		if messageType != websocket.TextMessage {
			continue
		}
		r.persistTranscript(ctx, recordID, data)
	}
}

func (r *Relay) persistTranscript(ctx context.Context, recordID string, data []byte) {
	var msg engineMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		r.logger.Debug("unparseable engine message", "record", recordID, "error", err)
		return
	}
	if msg.Text == "" {
		return
	}

	accepted, ok := r.filter.Accept(msg.Text)
	if !ok || accepted == "" {
		return
	}

	entry := record.Entry{Plain: accepted}
	for _, w := range msg.Result {
		entry.Tokens = append(entry.Tokens, record.Token{
			Word:  w.Word,
			Conf:  w.Conf,
			Spell: w.Spell,
			Start: w.Start,
			End:   w.End,
		})
	}

	if err := r.store.AppendOriginal(ctx, recordID, entry); err != nil {
		r.logger.Error("append original", "record", recordID, "error", err)
		return
	}
	r.logger.Info("transcript", "record", recordID, "text", accepted)
}

// clockSyncMessage translates a 13-character millisecond timestamp
// frame into the engine's seconds/milli sync message. Anything else is
// not a control frame.
func clockSyncMessage(data []byte) (string, bool) {
	if len(data) != timestampFrameLen {
		return "", false
	}
	var ms int64
	for _, c := range data {
		if c < '0' || c > '9' {
			return "", false
		}
		ms = ms*10 + int64(c-'0')
	}
	return fmt.Sprintf("seconds=%d,milli=%d", ms/1000, ms%1000), true
}
