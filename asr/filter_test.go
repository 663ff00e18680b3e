package asr

import "testing"

func TestFilterDiscards(t *testing.T) {
	f := NewFilter(DefaultBannerMarkers)

	cases := []struct {
		name string
		raw  string
	}{
		{"model boot banner", "-- ***/whisper/ggml-model.q8_0.bin --"},
		{"banner is case-insensitive", "LOADING GGML-MODEL NOW"},
		{"whitespace only", "  "},
		{"empty", ""},
		{"punctuation only", "।।।"},
		{"symbols only", "** -- **"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := f.Accept(tc.raw); ok {
				t.Errorf("Accept(%q) accepted, want discarded", tc.raw)
			}
		})
	}
}

func TestFilterStripsTurnDelimiters(t *testing.T) {
	f := NewFilter(DefaultBannerMarkers)

	stripped, ok := f.Accept("  ** hello world **  ")
	if !ok {
		t.Fatal("Accept discarded genuine speech")
	}
	if stripped != "hello world" {
		t.Errorf("stripped = %q, want %q", stripped, "hello world")
	}
}

func TestFilterBannerCheckRunsOnRawText(t *testing.T) {
	// The marker sits inside the turn delimiters, so it must be found
	// before any stripping happens.
	f := NewFilter([]string{"** system_info"})
	if _, ok := f.Accept("** system_info: AVX = 1 **"); ok {
		t.Error("Accept accepted a banner hidden behind delimiters")
	}
}

func TestFilterShortAcceptedTextBecomesEmpty(t *testing.T) {
	f := NewFilter(DefaultBannerMarkers)
	stripped, ok := f.Accept("ok")
	if !ok {
		t.Fatal("Accept discarded short genuine text")
	}
	if stripped != "" {
		t.Errorf("stripped = %q, want empty for text shorter than the delimiters", stripped)
	}
}

func TestFilterIdempotentOnAcceptedOutput(t *testing.T) {
	f := NewFilter(DefaultBannerMarkers)

	first, ok := f.Accept("  ** dobry dźeń wšitkim **  ")
	if !ok || first == "" {
		t.Fatalf("first pass rejected: %q, %v", first, ok)
	}
	if _, ok := f.Accept(first); !ok {
		t.Errorf("Accept(%q) discarded its own accepted output", first)
	}
}

func TestClockSyncMessage(t *testing.T) {
	msg, ok := clockSyncMessage([]byte("1625097600123"))
	if !ok {
		t.Fatal("13-digit timestamp not recognized as control frame")
	}
	if msg != "seconds=1625097600,milli=123" {
		t.Errorf("sync message = %q", msg)
	}

	if _, ok := clockSyncMessage([]byte("hello engine!")); ok {
		t.Error("13-char non-numeric frame treated as control frame")
	}
	if _, ok := clockSyncMessage([]byte("123")); ok {
		t.Error("short numeric frame treated as control frame")
	}
}
