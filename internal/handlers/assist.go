package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/remi-music/studio/internal/models"
	"github.com/rs/zerolog/log"
)

// DraftLyrics handles POST /v1/assist/lyrics
func (h *Handler) DraftLyrics(w http.ResponseWriter, r *http.Request) {
	var req models.LyricsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid request body")
		return
	}

	result, err := h.assists.DraftLyrics(r.Context(), &req)
	if err != nil {
		log.Error().Err(err).Msg("Lyrics draft failed")
		writeServiceError(w, err, codeAssistFailed)
		return
	}

	writeData(w, http.StatusOK, map[string]interface{}{
		"lyrics":        result.Output,
		"tokensUsed":    result.TokensUsed,
		"estimatedCost": result.EstimatedCost,
		"savedRecord":   result.SavedRecord,
	})
}

// EnhancePrompt handles POST /v1/assist/prompt
func (h *Handler) EnhancePrompt(w http.ResponseWriter, r *http.Request) {
	var req models.PromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid request body")
		return
	}

	result, err := h.assists.EnhancePrompt(r.Context(), &req)
	if err != nil {
		log.Error().Err(err).Msg("Prompt enhancement failed")
		writeServiceError(w, err, codeAssistFailed)
		return
	}

	writeData(w, http.StatusOK, map[string]interface{}{
		"enhancedPrompt": result.Output,
		"tokensUsed":     result.TokensUsed,
		"estimatedCost":  result.EstimatedCost,
		"savedRecord":    result.SavedRecord,
	})
}

// CoverArt handles POST /v1/assist/cover-art
func (h *Handler) CoverArt(w http.ResponseWriter, r *http.Request) {
	var req models.CoverArtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid request body")
		return
	}

	result, err := h.assists.CoverArtConcept(r.Context(), &req)
	if err != nil {
		log.Error().Err(err).Msg("Cover art concept failed")
		writeServiceError(w, err, codeAssistFailed)
		return
	}

	writeData(w, http.StatusOK, map[string]interface{}{
		"visualConcept": result.Output,
		"imageUrl":      result.ImageURL,
		"tokensUsed":    result.TokensUsed,
		"estimatedCost": result.EstimatedCost,
		"savedRecord":   result.SavedRecord,
	})
}
