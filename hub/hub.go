// Package hub fans translation updates out to the live subscribers of
// a recording session.
package hub

import (
	"errors"
	"hash/fnv"
	"sync"

	"github.com/charmbracelet/log"
)

// Conn is a subscriber connection. WriteJSON failures mean the
// connection is no longer usable for this delivery; the transport
// layer's close handling is responsible for unsubscribing it.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

var ErrEmptySessionID = errors.New("empty session id")

const shardCount = 16

type shard struct {
	mu       sync.Mutex
	sessions map[string]map[Conn]struct{}
}

// Hub is the session registry. Sessions are spread over fixed shards
// so that subscribe/publish traffic on unrelated sessions does not
// contend on one lock.
type Hub struct {
	shards [shardCount]shard
	logger *log.Logger
}

func New(logger *log.Logger) *Hub {
	h := &Hub{logger: logger}
	for i := range h.shards {
		h.shards[i].sessions = make(map[string]map[Conn]struct{})
	}
	return h
}

func (h *Hub) shardFor(sessionID string) *shard {
	f := fnv.New32a()
	f.Write([]byte(sessionID))
	return &h.shards[f.Sum32()%shardCount]
}

// Subscribe adds a connection to a session's set. An empty session id
// is refused and the caller must close the connection.
func (h *Hub) Subscribe(sessionID string, c Conn) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	s := h.shardFor(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sessions[sessionID]
	if !ok {
		set = make(map[Conn]struct{})
		s.sessions[sessionID] = set
	}
	set[c] = struct{}{}
	h.logger.Debug("subscribe", "session", sessionID, "subscribers", len(set))
	return nil
}

// Unsubscribe removes a connection. The session's registry entry is
// deleted once its set empties, so one-shot sessions do not accumulate.
func (h *Hub) Unsubscribe(sessionID string, c Conn) {
	if sessionID == "" {
		return
	}
	s := h.shardFor(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(s.sessions, sessionID)
	}
	h.logger.Debug("unsubscribe", "session", sessionID, "subscribers", len(set))
}

// Publish delivers msg to every current subscriber of the session and
// returns how many deliveries succeeded. Connections that fail the
// write are skipped, not pruned; pruning happens through Unsubscribe
// when the transport notices the close. Publishing to an unknown
// session is a no-op.
func (h *Hub) Publish(sessionID string, msg any) int {
	if sessionID == "" {
		return 0
	}
	s := h.shardFor(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	delivered := 0
	for c := range s.sessions[sessionID] {
		if err := c.WriteJSON(msg); err != nil {
			h.logger.Debug("skip stale subscriber", "session", sessionID, "error", err)
			continue
		}
		delivered++
	}
	return delivered
}
