package translate

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"

	"witaj.town/quality"
	"witaj.town/record"
)

// Publisher is the hub boundary the dispatcher needs.
type Publisher interface {
	Publish(sessionID string, msg any) int
}

// Request is one translation job.
type Request struct {
	Model          string `json:"model"`
	Text           string `json:"text"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
	RecordID       string `json:"audioRecordId,omitempty"`
}

// Response is what the immediate caller gets back.
type Response struct {
	Translation string `json:"translation"`
	Model       string `json:"model"`
}

// Update is the broadcast sent to every subscriber of a record after a
// translated fragment is persisted.
type Update struct {
	Original          string         `json:"original"`
	OriginalTokens    []record.Token `json:"originalTokens"`
	Translation       string         `json:"translation"`
	TranslationTokens []record.Token `json:"translationTokens"`
}

// Dispatcher runs the translate-persist-broadcast pipeline.
type Dispatcher struct {
	engine Engine
	store  record.Store
	hub    Publisher
	logger *log.Logger
}

func NewDispatcher(engine Engine, store record.Store, hub Publisher, logger *log.Logger) *Dispatcher {
	return &Dispatcher{
		engine: engine,
		store:  store,
		hub:    hub,
		logger: logger,
	}
}

// Dispatch translates req. Without a record id this is a stateless
// one-shot call: no store reads, no persistence, no broadcast. With a
// record id the translated fragment is appended to the record before
// anything is broadcast, and the broadcast content is read back from
// the store so subscribers see exactly what was persisted.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Response, error) {
	if req.RecordID == "" {
		result, err := d.engine.Translate(ctx, req.Model, req.Text, req.SourceLanguage, req.TargetLanguage, "")
		if err != nil {
			return nil, err
		}
		return &Response{Translation: result.Translation, Model: result.Model}, nil
	}

	tokens, err := d.store.LatestOriginalTokens(ctx, req.RecordID)
	if err != nil {
		// No tokens is not fatal; the summary degrades to zero
		// confidence.
		d.logger.Error("latest original tokens", "record", req.RecordID, "error", err)
		tokens = nil
	}
	summary := quality.Summarize(tokens)

	result, err := d.engine.Translate(ctx, req.Model, req.Text, req.SourceLanguage, req.TargetLanguage, req.RecordID)
	if err != nil {
		return nil, err
	}

	entry := record.Entry{
		Plain:  result.Translation,
		Tokens: qualityTokens(result.Translation, summary),
	}
	if err := d.store.AppendTranslated(ctx, req.RecordID, entry); err != nil {
		// Nothing was persisted, so nothing is broadcast; the caller
		// still gets the translation.
		d.logger.Error("append translated", "record", req.RecordID, "error", err)
		return &Response{Translation: result.Translation, Model: result.Model}, nil
	}

	latest, err := d.store.Latest(ctx, req.RecordID)
	if err != nil {
		d.logger.Error("read back latest entries", "record", req.RecordID, "error", err)
		latest = record.Latest{Translated: entry}
	}

	delivered := d.hub.Publish(req.RecordID, Update{
		Original:          latest.Original.Plain,
		OriginalTokens:    latest.Original.Tokens,
		Translation:       latest.Translated.Plain,
		TranslationTokens: latest.Translated.Tokens,
	})
	d.logger.Info("translated", "record", req.RecordID, "model", result.Model, "subscribers", delivered)

	return &Response{Translation: result.Translation, Model: result.Model}, nil
}

// qualityTokens tags every word of the translation with the summary
// derived from the original's tokens.
func qualityTokens(translation string, summary quality.Summary) []record.Token {
	words := strings.Fields(translation)
	if len(words) == 0 {
		return nil
	}
	tokens := make([]record.Token, len(words))
	for i, word := range words {
		spellOk := summary.SpellOk
		tokens[i] = record.Token{
			Word:  word,
			Conf:  summary.AvgConf,
			Spell: &spellOk,
		}
	}
	return tokens
}
