package asr

import (
	"strings"
	"unicode"
)

// DefaultBannerMarkers are substrings of the boot banners the streaming
// whisper.cpp server prints on its transcript channel before the model
// is ready. Overridable through the asr_banner_markers config key.
var DefaultBannerMarkers = []string{
	"ggml-model",
	"whisper_init",
	"whisper_model_load",
	"system_info",
}

// Filter separates genuine speech from recognizer status artifacts.
type Filter struct {
	markers []string
}

func NewFilter(markers []string) *Filter {
	lowered := make([]string, len(markers))
	for i, m := range markers {
		lowered[i] = strings.ToLower(m)
	}
	return &Filter{markers: lowered}
}

// Accept decides whether raw recognizer output is speech. Banner
// detection runs on the raw untrimmed text; the accepted form is the
// trimmed text with the recognizer's two-character turn delimiters
// stripped from both ends. Accepted text can still come back empty,
// and callers drop those.
func (f *Filter) Accept(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}

	lowered := strings.ToLower(raw)
	for _, marker := range f.markers {
		if strings.Contains(lowered, marker) {
			return "", false
		}
	}

	if !hasAlphanumeric(trimmed) {
		return "", false
	}

	runes := []rune(trimmed)
	if len(runes) <= 4 {
		return "", true
	}
	return strings.TrimSpace(string(runes[2 : len(runes)-2])), true
}

func hasAlphanumeric(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
