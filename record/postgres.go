package record

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed db_init.sql
var sqlFS embed.FS

// Postgres is the production Archive, one row per record with the two
// transcript sequences stored as jsonb arrays.
type Postgres struct {
	pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	sqlFile, err := sqlFS.ReadFile("db_init.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded db_init.sql: %w", err)
	}

	if _, err := pool.Exec(ctx, string(sqlFile)); err != nil {
		return nil, fmt.Errorf("failed to execute embedded db_init.sql: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) append(ctx context.Context, column, recordID string, entry Entry) error {
	data, err := json.Marshal([]Entry{entry})
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	tag, err := p.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE records SET %s = %s || $2::jsonb WHERE id = $1`, column, column),
		recordID, data)
	if err != nil {
		return fmt.Errorf("append %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, recordID)
	}
	return nil
}

func (p *Postgres) AppendOriginal(ctx context.Context, recordID string, entry Entry) error {
	return p.append(ctx, "original", recordID, entry)
}

func (p *Postgres) AppendTranslated(ctx context.Context, recordID string, entry Entry) error {
	return p.append(ctx, "translated", recordID, entry)
}

func (p *Postgres) LatestOriginalTokens(ctx context.Context, recordID string) ([]Token, error) {
	var data []byte
	err := p.pool.QueryRow(ctx,
		`SELECT original -> -1 FROM records WHERE id = $1`,
		recordID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, recordID)
	}
	if err != nil {
		return nil, fmt.Errorf("latest original tokens: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("decode latest original entry: %w", err)
	}
	return entry.Tokens, nil
}

func (p *Postgres) Latest(ctx context.Context, recordID string) (Latest, error) {
	var original, translated []byte
	err := p.pool.QueryRow(ctx,
		`SELECT original -> -1, translated -> -1 FROM records WHERE id = $1`,
		recordID).Scan(&original, &translated)
	if errors.Is(err, pgx.ErrNoRows) {
		return Latest{}, fmt.Errorf("%w: %s", ErrNotFound, recordID)
	}
	if err != nil {
		return Latest{}, fmt.Errorf("latest entries: %w", err)
	}
	var latest Latest
	if len(original) > 0 {
		if err := json.Unmarshal(original, &latest.Original); err != nil {
			return Latest{}, fmt.Errorf("decode latest original entry: %w", err)
		}
	}
	if len(translated) > 0 {
		if err := json.Unmarshal(translated, &latest.Translated); err != nil {
			return Latest{}, fmt.Errorf("decode latest translated entry: %w", err)
		}
	}
	return latest, nil
}

func (p *Postgres) Create(ctx context.Context, original, translated []Entry, speakerID *string, owner string) (*Record, error) {
	if original == nil {
		original = []Entry{}
	}
	if translated == nil {
		translated = []Entry{}
	}
	originalData, err := json.Marshal(original)
	if err != nil {
		return nil, fmt.Errorf("marshal original entries: %w", err)
	}
	translatedData, err := json.Marshal(translated)
	if err != nil {
		return nil, fmt.Errorf("marshal translated entries: %w", err)
	}

	rec := Record{
		ID:         uuid.NewString(),
		Title:      TitleNow(time.Now()),
		ShareToken: uuid.NewString(),
		SpeakerID:  speakerID,
		Owner:      owner,
	}
	err = p.pool.QueryRow(ctx, `
		INSERT INTO records (id, title, speaker_id, owner, share_token, original, translated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		rec.ID, rec.Title, rec.SpeakerID, rec.Owner, rec.ShareToken,
		originalData, translatedData).Scan(&rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}
	rec.Original = original
	rec.Translated = translated
	return &rec, nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var original, translated []byte
	err := row.Scan(&rec.ID, &rec.CreatedAt, &rec.Title, &rec.SpeakerID,
		&rec.Owner, &rec.ShareToken, &original, &translated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(original, &rec.Original); err != nil {
		return nil, fmt.Errorf("decode original entries: %w", err)
	}
	if err := json.Unmarshal(translated, &rec.Translated); err != nil {
		return nil, fmt.Errorf("decode translated entries: %w", err)
	}
	return &rec, nil
}

const recordColumns = `id, created_at, title, speaker_id, owner, share_token, original, translated`

func (p *Postgres) list(ctx context.Context, owner string, limit, offset int) ([]Record, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM records
		WHERE ($1 = '' OR owner = $1)
		ORDER BY created_at DESC, id DESC`, recordColumns)
	args := []any{owner}
	if limit > 0 {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (p *Postgres) List(ctx context.Context, owner string) ([]Record, error) {
	return p.list(ctx, owner, 0, 0)
}

func (p *Postgres) ListPage(ctx context.Context, owner string, page Page) (*RecordPage, error) {
	items, err := p.list(ctx, owner, page.Limit, page.Number*page.Limit)
	if err != nil {
		return nil, err
	}
	var total int
	err = p.pool.QueryRow(ctx,
		`SELECT count(*) FROM records WHERE ($1 = '' OR owner = $1)`,
		owner).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	if items == nil {
		items = []Record{}
	}
	return &RecordPage{Items: items, Total: total, Page: page.Number, Limit: page.Limit}, nil
}

func (p *Postgres) ByShareToken(ctx context.Context, token string) (*Record, error) {
	row := p.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM records WHERE share_token = $1`, recordColumns), token)
	rec, err := scanRecord(row)
	if err != nil {
		return nil, err
	}
	// The share view never exposes the owner.
	rec.Owner = ""
	return rec, nil
}

func (p *Postgres) SetSpeaker(ctx context.Context, recordID string, speakerID *string) (*Record, error) {
	row := p.pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE records SET speaker_id = $2 WHERE id = $1
		RETURNING %s`, recordColumns), recordID, speakerID)
	return scanRecord(row)
}

func (p *Postgres) Delete(ctx context.Context, recordID, owner string) error {
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM records WHERE id = $1 AND ($2 = '' OR owner = $2)`,
		recordID, owner)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, recordID)
	}
	return nil
}
