package record

import (
	"context"
	"encoding/json"
	"testing"
)

func TestEntryAcceptsLegacyStrings(t *testing.T) {
	var entries []Entry
	data := `["witajće k nam", {"plain": "dobry dźeń", "tokens": [{"word": "dobry", "conf": 0.9}]}]`
	if err := json.Unmarshal([]byte(data), &entries); err != nil {
		t.Fatalf("unmarshal mixed entries: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Plain != "witajće k nam" || entries[0].Tokens != nil {
		t.Errorf("legacy entry = %+v, want plain text with no tokens", entries[0])
	}
	if entries[1].Plain != "dobry dźeń" || len(entries[1].Tokens) != 1 {
		t.Errorf("structured entry = %+v", entries[1])
	}
	if entries[1].Tokens[0].Spell != nil {
		t.Error("absent spell flag decoded as present")
	}
}

func TestEntryRejectsGarbage(t *testing.T) {
	var entry Entry
	if err := json.Unmarshal([]byte(`42`), &entry); err == nil {
		t.Error("numeric entry accepted")
	}
}

func TestMemoryAppendOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	rec, err := store.Create(ctx, nil, nil, nil, "")
	if err != nil {
		t.Fatal(err)
	}

	for _, text := range []string{"first", "second", "third"} {
		if err := store.AppendOriginal(ctx, rec.ID, Entry{Plain: text}); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.AppendTranslated(ctx, rec.ID, Entry{Plain: "erste"}); err != nil {
		t.Fatal(err)
	}

	latest, err := store.Latest(ctx, rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if latest.Original.Plain != "third" {
		t.Errorf("latest original = %q, want %q", latest.Original.Plain, "third")
	}
	// Translation lags recognition; the pair is still served as-is.
	if latest.Translated.Plain != "erste" {
		t.Errorf("latest translated = %q, want %q", latest.Translated.Plain, "erste")
	}
}

func TestMemoryLatestOriginalTokens(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	rec, err := store.Create(ctx, nil, nil, nil, "")
	if err != nil {
		t.Fatal(err)
	}

	tokens, err := store.LatestOriginalTokens(ctx, rec.ID)
	if err != nil {
		t.Fatalf("empty record: %v", err)
	}
	if tokens != nil {
		t.Errorf("tokens = %v, want none for an empty record", tokens)
	}

	err = store.AppendOriginal(ctx, rec.ID, Entry{
		Plain:  "dobry dźeń",
		Tokens: []Token{{Word: "dobry", Conf: 0.9}, {Word: "dźeń", Conf: 0.8}},
	})
	if err != nil {
		t.Fatal(err)
	}

	tokens, err = store.LatestOriginalTokens(ctx, rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tokens) != 2 {
		t.Errorf("tokens = %d, want 2", len(tokens))
	}
}

func TestMemoryUnknownRecord(t *testing.T) {
	store := NewMemory()
	if err := store.AppendOriginal(context.Background(), "missing", Entry{Plain: "x"}); err == nil {
		t.Error("append to unknown record succeeded")
	}
}

func TestMemoryListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	for i := 0; i < 3; i++ {
		if _, err := store.Create(ctx, nil, nil, nil, "alice"); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := store.Create(ctx, nil, nil, nil, "bob"); err != nil {
		t.Fatal(err)
	}

	mine, err := store.List(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 3 {
		t.Errorf("records for alice = %d, want 3", len(mine))
	}
	for i := 1; i < len(mine); i++ {
		if mine[i].CreatedAt.After(mine[i-1].CreatedAt) {
			t.Error("records not sorted newest first")
		}
	}

	all, err := store.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Errorf("all records = %d, want 4", len(all))
	}
}

func TestMemoryShareToken(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	rec, err := store.Create(ctx, []Entry{{Plain: "tekst"}}, nil, nil, "alice")
	if err != nil {
		t.Fatal(err)
	}

	shared, err := store.ByShareToken(ctx, rec.ShareToken)
	if err != nil {
		t.Fatalf("ByShareToken: %v", err)
	}
	if shared.Owner != "" {
		t.Error("share view leaked the owner")
	}
	if shared.ID != rec.ID {
		t.Errorf("shared record id = %q, want %q", shared.ID, rec.ID)
	}

	if _, err := store.ByShareToken(ctx, "nope"); err == nil {
		t.Error("unknown share token resolved")
	}
}

func TestMemoryDeleteHonorsOwner(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	rec, err := store.Create(ctx, nil, nil, nil, "alice")
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Delete(ctx, rec.ID, "mallory"); err == nil {
		t.Error("delete by non-owner succeeded")
	}
	if err := store.Delete(ctx, rec.ID, "alice"); err != nil {
		t.Errorf("delete by owner failed: %v", err)
	}
	if err := store.Delete(ctx, rec.ID, "alice"); err == nil {
		t.Error("double delete succeeded")
	}
}
