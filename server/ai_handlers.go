package server

import (
	"net/http"

	"vidshare/core/agent"
	"vidshare/repository"
)

// AIHandler serves AI comment generation endpoints. Generated text is
// returned to the caller for review; nothing is persisted here.
type AIHandler struct {
	agent   *agent.CommentAgent
	tracks  repository.TrackRepository
	artists repository.ArtistRepository
}

// NewAIHandler creates a new AIHandler.
func NewAIHandler(a *agent.CommentAgent, tracks repository.TrackRepository,
	artists repository.ArtistRepository) *AIHandler {
	return &AIHandler{agent: a, tracks: tracks, artists: artists}
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateTrackCommentHandler generates a listener comment for a track.
func (h *AIHandler) GenerateTrackCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid track id")
		return
	}
	var req generateRequest
	decodeJSONBody(r, &req)

	track, err := h.tracks.GetTrackByID(id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load track")
		return
	}
	if track == nil {
		respondWithError(w, http.StatusNotFound, "track not found")
		return
	}

	artistName := "an unknown artist"
	if linked, err := h.artists.ListArtistsByTrack(id); err == nil && len(linked) > 0 {
		artistName = linked[0].Name
	}

	comment, err := h.agent.GenerateTrackComment(r.Context(), track.Title(), artistName, track.Tags, req.Prompt)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "comment generation failed: "+err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"success": true, "comment": comment})
}

// GenerateArtistCommentHandler generates a listener comment about an artist.
func (h *AIHandler) GenerateArtistCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid artist id")
		return
	}
	var req generateRequest
	decodeJSONBody(r, &req)

	stats, err := h.artists.GetArtistStats(id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load artist")
		return
	}
	if stats == nil {
		respondWithError(w, http.StatusNotFound, "artist not found")
		return
	}

	comment, err := h.agent.GenerateArtistComment(r.Context(), stats.Artist.Name, stats.Artist.Bio,
		int(stats.TrackCount), req.Prompt)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "comment generation failed: "+err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"success": true, "comment": comment})
}

// PromptsHandler lists the canned prompt templates.
func (h *AIHandler) PromptsHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{"prompts": agent.DefaultPrompts()})
}
