package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/remi-music/studio/internal/models"
	"github.com/rs/zerolog/log"
)

// defaultHistoryLimit caps the history listing when no limit is given.
const defaultHistoryLimit = 10

// maxHistoryLimit is the hard ceiling for the history listing.
const maxHistoryLimit = 100

// generationService is the music generation surface used by Handler.
type generationService interface {
	Generate(ctx context.Context, req *models.GenerationRequest) (*models.GenerationResult, error)
	History(ctx context.Context, limit int) ([]*models.HistoryEntry, error)
}

// assistService is the text-generation surface used by Handler.
type assistService interface {
	DraftLyrics(ctx context.Context, req *models.LyricsRequest) (*models.AssistResult, error)
	EnhancePrompt(ctx context.Context, req *models.PromptRequest) (*models.AssistResult, error)
	CoverArtConcept(ctx context.Context, req *models.CoverArtRequest) (*models.AssistResult, error)
}

// healthChecker reports storage backend health.
type healthChecker interface {
	Health() error
}

// Handler contains all HTTP handlers
type Handler struct {
	generations generationService
	assists     assistService
	db          healthChecker
}

// NewHandler creates a new handler
func NewHandler(generations generationService, assists assistService, db healthChecker) *Handler {
	return &Handler{
		generations: generations,
		assists:     assists,
		db:          db,
	}
}

// GenerateMusic handles POST /v1/music/generations
func (h *Handler) GenerateMusic(w http.ResponseWriter, r *http.Request) {
	var req models.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid request body")
		return
	}

	result, err := h.generations.Generate(r.Context(), &req)
	if err != nil {
		log.Error().Err(err).Msg("Music generation failed")
		writeServiceError(w, err, codeGenerationFailed)
		return
	}

	writeData(w, http.StatusOK, result)
}

// ListGenerations handles GET /v1/music/generations
func (h *Handler) ListGenerations(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	entries, err := h.generations.History(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list generation history")
		writeError(w, http.StatusInternalServerError, codeHistoryFailed, "failed to fetch history")
		return
	}

	if entries == nil {
		entries = []*models.HistoryEntry{}
	}

	writeData(w, http.StatusOK, map[string]interface{}{
		"generations": entries,
	})
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.Health(); err != nil {
			log.Error().Err(err).Msg("Health check failed")
			writeError(w, http.StatusServiceUnavailable, "UNHEALTHY", "database unreachable")
			return
		}
	}
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}
