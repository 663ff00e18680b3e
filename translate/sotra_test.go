package translate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSotraScalarShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["source_language"] != "hsb" || req["target_language"] != "de" {
			t.Errorf("language pair = %v -> %v", req["source_language"], req["target_language"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"model":       ModelCTranslate,
			"translation": "Guten Tag",
		})
	}))
	defer server.Close()

	client := NewSotra(server.URL, time.Second)
	result, err := client.Translate(context.Background(), ModelCTranslate, "dobry dźeń", "hsb", "de", "")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if result.Translation != "Guten Tag" {
		t.Errorf("translation = %q", result.Translation)
	}
	if result.Model != ModelCTranslate {
		t.Errorf("model = %q", result.Model)
	}
}

func TestSotraMarkedShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"model":              ModelFairseq,
			"marked_translation": []string{"Guten", "Tag", "zusammen"},
		})
	}))
	defer server.Close()

	client := NewSotra(server.URL, time.Second)
	result, err := client.Translate(context.Background(), ModelFairseq, "dobry dźeń wšitkim", "hsb", "de", "")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if result.Translation != "Guten Tag zusammen" {
		t.Errorf("translation = %q, want words joined by spaces", result.Translation)
	}
}

func TestSotraUpstreamErrorCarriesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"model warming up"}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewSotra(server.URL, time.Second)
	_, err := client.Translate(context.Background(), ModelCTranslate, "tekst", "de", "hsb", "")

	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("error = %v, want UpstreamError", err)
	}
	if upstream.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d", upstream.StatusCode)
	}
	if upstream.Body == "" {
		t.Error("upstream body not carried through")
	}
}
