package record

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Archive. It backs tests and the no-database
// development mode of the serve command.
type Memory struct {
	mu      sync.Mutex
	records map[string]*Record
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]*Record)}
}

var ErrNotFound = fmt.Errorf("record not found")

func (m *Memory) get(recordID string) (*Record, error) {
	rec, ok := m.records[recordID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, recordID)
	}
	return rec, nil
}

func (m *Memory) AppendOriginal(_ context.Context, recordID string, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, err := m.get(recordID)
	if err != nil {
		return err
	}
	rec.Original = append(rec.Original, entry)
	return nil
}

func (m *Memory) AppendTranslated(_ context.Context, recordID string, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, err := m.get(recordID)
	if err != nil {
		return err
	}
	rec.Translated = append(rec.Translated, entry)
	return nil
}

func (m *Memory) LatestOriginalTokens(_ context.Context, recordID string) ([]Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, err := m.get(recordID)
	if err != nil {
		return nil, err
	}
	if len(rec.Original) == 0 {
		return nil, nil
	}
	return rec.Original[len(rec.Original)-1].Tokens, nil
}

func (m *Memory) Latest(_ context.Context, recordID string) (Latest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, err := m.get(recordID)
	if err != nil {
		return Latest{}, err
	}
	var latest Latest
	if n := len(rec.Original); n > 0 {
		latest.Original = rec.Original[n-1]
	}
	if n := len(rec.Translated); n > 0 {
		latest.Translated = rec.Translated[n-1]
	}
	return latest, nil
}

func (m *Memory) Create(_ context.Context, original, translated []Entry, speakerID *string, owner string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := &Record{
		ID:         uuid.NewString(),
		Title:      TitleNow(time.Now()),
		CreatedAt:  time.Now().UTC(),
		Original:   append([]Entry(nil), original...),
		Translated: append([]Entry(nil), translated...),
		SpeakerID:  speakerID,
		Owner:      owner,
		ShareToken: uuid.NewString(),
	}
	m.records[rec.ID] = rec
	return cloned(rec), nil
}

func (m *Memory) List(_ context.Context, owner string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, rec := range m.records {
		if owner != "" && rec.Owner != owner {
			continue
		}
		out = append(out, *cloned(rec))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *Memory) ListPage(ctx context.Context, owner string, page Page) (*RecordPage, error) {
	all, err := m.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	start := page.Number * page.Limit
	if start > len(all) {
		start = len(all)
	}
	end := start + page.Limit
	if end > len(all) {
		end = len(all)
	}
	return &RecordPage{
		Items: all[start:end],
		Total: len(all),
		Page:  page.Number,
		Limit: page.Limit,
	}, nil
}

func (m *Memory) ByShareToken(_ context.Context, token string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records {
		if rec.ShareToken == token {
			shared := *cloned(rec)
			shared.Owner = ""
			return &shared, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) SetSpeaker(_ context.Context, recordID string, speakerID *string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, err := m.get(recordID)
	if err != nil {
		return nil, err
	}
	rec.SpeakerID = speakerID
	return cloned(rec), nil
}

func (m *Memory) Delete(_ context.Context, recordID, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, err := m.get(recordID)
	if err != nil {
		return err
	}
	if owner != "" && rec.Owner != owner {
		return fmt.Errorf("%w: %s", ErrNotFound, recordID)
	}
	delete(m.records, recordID)
	return nil
}

func cloned(rec *Record) *Record {
	out := *rec
	out.Original = append([]Entry(nil), rec.Original...)
	out.Translated = append([]Entry(nil), rec.Translated...)
	return &out
}
