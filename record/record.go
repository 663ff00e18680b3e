// Package record holds the audio record data model and the storage
// boundary used by the recognition relay and the translation dispatcher.
package record

import (
	"context"
	"encoding/json"
	"time"
)

// Token is one recognized or translated word with quality metadata.
// Spell, Start and End are optional on the wire; a missing spell flag
// means the word was never spell-checked, which is different from a
// word checked and found correct.
type Token struct {
	Word  string   `json:"word"`
	Conf  float64  `json:"conf"`
	Spell *bool    `json:"spell,omitempty"`
	Start *float64 `json:"start,omitempty"`
	End   *float64 `json:"end,omitempty"`
}

// Entry is one utterance of a record's transcript. Early clients stored
// entries as bare strings; those are still accepted on read and
// normalized to an Entry with no tokens.
type Entry struct {
	Plain  string  `json:"plain"`
	Tokens []Token `json:"tokens,omitempty"`
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var plain string
		if err := json.Unmarshal(data, &plain); err != nil {
			return err
		}
		*e = Entry{Plain: plain}
		return nil
	}
	type entry Entry
	var v entry
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*e = Entry(v)
	return nil
}

// Record is one recording session with its parallel transcript
// sequences. Translated may lag Original while translation is in
// flight; index i of Translated corresponds to index i of Original.
type Record struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"createdAt"`
	Original   []Entry   `json:"originalText"`
	Translated []Entry   `json:"translatedText"`
	SpeakerID  *string   `json:"speakerId"`
	Owner      string    `json:"owner,omitempty"`
	ShareToken string    `json:"token,omitempty"`
}

// Latest is the most recent entry of each transcript sequence.
type Latest struct {
	Original   Entry
	Translated Entry
}

// Store is the contract the streaming core depends on. Writes are pure
// appends in arrival order; implementations never reorder or drop
// earlier entries.
type Store interface {
	AppendOriginal(ctx context.Context, recordID string, entry Entry) error
	AppendTranslated(ctx context.Context, recordID string, entry Entry) error
	LatestOriginalTokens(ctx context.Context, recordID string) ([]Token, error)
	Latest(ctx context.Context, recordID string) (Latest, error)
}

// Page describes an optional pagination window for listing records.
type Page struct {
	Number int
	Limit  int
}

// RecordPage is the paginated listing shape.
type RecordPage struct {
	Items []Record `json:"items"`
	Total int      `json:"total"`
	Page  int      `json:"page"`
	Limit int      `json:"limit"`
}

// Archive extends Store with the record CRUD surface used by the HTTP
// handlers and the CLI.
type Archive interface {
	Store
	Create(ctx context.Context, original, translated []Entry, speakerID *string, owner string) (*Record, error)
	List(ctx context.Context, owner string) ([]Record, error)
	ListPage(ctx context.Context, owner string, page Page) (*RecordPage, error)
	ByShareToken(ctx context.Context, token string) (*Record, error)
	SetSpeaker(ctx context.Context, recordID string, speakerID *string) (*Record, error)
	Delete(ctx context.Context, recordID, owner string) error
}

// TitleNow is the default record title, matching what the web client
// shows in its recording list.
func TitleNow(now time.Time) string {
	return now.Format("2006-01-02 15:04")
}
