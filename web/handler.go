// Package web is the HTTP and websocket surface of the caption relay.
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"witaj.town/asr"
	"witaj.town/captions"
	"witaj.town/hub"
	"witaj.town/record"
	"witaj.town/translate"
	"witaj.town/tts"
)

const (
	defaultPageLimit = 25
	maxPageLimit     = 100
)

type Handler struct {
	archive    record.Archive
	dispatcher *translate.Dispatcher
	relay      *asr.Relay
	hub        *hub.Hub
	tts        *tts.Client
	captions   *captions.Uploader
	logger     *log.Logger
}

func NewHandler(
	archive record.Archive,
	dispatcher *translate.Dispatcher,
	relay *asr.Relay,
	h *hub.Hub,
	ttsClient *tts.Client,
	uploader *captions.Uploader,
	logger *log.Logger,
) *Handler {
	return &Handler{
		archive:    archive,
		dispatcher: dispatcher,
		relay:      relay,
		hub:        h,
		tts:        ttsClient,
		captions:   uploader,
		logger:     logger,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("witaj"))
	})

	r.Get("/ws/record", h.handleRecordTunnel)
	r.Get("/ws/listen", h.handleListenTunnel)

	r.Post("/sotra", h.handleSotra)
	r.Post("/bamborak", h.handleBamborak)
	r.Get("/bamborak/speakers", h.handleSpeakers)
	r.Post("/youtube", h.handleYoutube)

	r.Route("/records", func(r chi.Router) {
		r.Get("/", h.handleListRecords)
		r.Post("/", h.handleCreateRecord)
		r.Get("/cast/{token}", h.handleCastRecord)
		r.Patch("/{id}", h.handleUpdateRecord)
		r.Delete("/{id}", h.handleDeleteRecord)
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"message": message})
}

func validLanguage(lang string) bool {
	return lang == "de" || lang == "hsb"
}

func (h *Handler) handleSotra(w http.ResponseWriter, r *http.Request) {
	var req translate.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if !validLanguage(req.SourceLanguage) || !validLanguage(req.TargetLanguage) {
		h.writeError(w, http.StatusBadRequest, "unsupported language pair")
		return
	}

	resp, err := h.dispatcher.Dispatch(r.Context(), req)
	if err != nil {
		var upstream *translate.UpstreamError
		if errors.As(err, &upstream) {
			// The engine's own failure body goes back to the caller.
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(upstream.Body))
			return
		}
		h.logger.Error("translate", "error", err)
		h.writeError(w, http.StatusBadRequest, "translation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleBamborak(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text      string `json:"text"`
		SpeakerID string `json:"speaker_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" || req.SpeakerID == "" {
		h.writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	audio, err := h.tts.Synthesize(r.Context(), req.Text, req.SpeakerID)
	if err != nil {
		h.logger.Error("bamborak", "error", err)
		h.writeError(w, http.StatusBadRequest, "speech synthesis failed")
		return
	}
	w.Header().Set("Content-Type", "audio/mp4")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.Write(audio)
}

func (h *Handler) handleSpeakers(w http.ResponseWriter, r *http.Request) {
	speakers, err := h.tts.Speakers(r.Context())
	if err != nil {
		h.logger.Error("fetch speakers", "error", err)
		h.writeError(w, http.StatusBadRequest, "speaker list unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(speakers)
}

func (h *Handler) handleYoutube(w http.ResponseWriter, r *http.Request) {
	var line captions.Line
	if err := json.NewDecoder(r.Body).Decode(&line); err != nil || line.CID == "" || line.Text == "" {
		h.writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	resp, err := h.captions.Upload(r.Context(), line)
	if err != nil {
		h.logger.Error("caption upload", "error", err)
		h.writeError(w, http.StatusBadRequest, "caption upload failed")
		return
	}
	w.Write(resp)
}

func parsePositiveInt(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	owner := r.Header.Get("X-Owner")

	page, hasPage := parsePositiveInt(r.URL.Query().Get("page"))
	limit, hasLimit := parsePositiveInt(r.URL.Query().Get("limit"))
	if !hasPage && !hasLimit {
		records, err := h.archive.List(r.Context(), owner)
		if err != nil {
			h.logger.Error("list records", "error", err)
			h.writeError(w, http.StatusInternalServerError, "listing failed")
			return
		}
		if records == nil {
			records = []record.Record{}
		}
		h.writeJSON(w, http.StatusOK, records)
		return
	}

	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	result, err := h.archive.ListPage(r.Context(), owner, record.Page{Number: page, Limit: limit})
	if err != nil {
		h.logger.Error("list records", "error", err)
		h.writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OriginalText   []record.Entry `json:"originalText"`
		TranslatedText []record.Entry `json:"translatedText"`
		SpeakerID      *string        `json:"speakerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	rec, err := h.archive.Create(r.Context(), body.OriginalText, body.TranslatedText,
		body.SpeakerID, r.Header.Get("X-Owner"))
	if err != nil {
		h.logger.Error("create record", "error", err)
		h.writeError(w, http.StatusInternalServerError, "create failed")
		return
	}
	h.writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleCastRecord(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	rec, err := h.archive.ByShareToken(r.Context(), token)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "wrong token")
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SpeakerID *string `json:"speakerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	rec, err := h.archive.SetSpeaker(r.Context(), chi.URLParam(r, "id"), body.SpeakerID)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			h.writeError(w, http.StatusBadRequest, "no record found")
			return
		}
		h.logger.Error("update record", "error", err)
		h.writeError(w, http.StatusInternalServerError, "update failed")
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	err := h.archive.Delete(r.Context(), chi.URLParam(r, "id"), r.Header.Get("X-Owner"))
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "no record found")
			return
		}
		h.logger.Error("delete record", "error", err)
		h.writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
