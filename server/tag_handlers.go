package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"vidshare/cache"
	"vidshare/logger"
	"vidshare/model"
	"vidshare/repository"
)

// TagHandler serves tag aggregation, suggestion and description endpoints.
type TagHandler struct {
	tags     repository.TagRepository
	videos   repository.VideoRepository
	tracks   repository.TrackRepository
	comments repository.CommentRepository
}

// NewTagHandler creates a new TagHandler.
func NewTagHandler(tags repository.TagRepository, videos repository.VideoRepository,
	tracks repository.TrackRepository, comments repository.CommentRepository) *TagHandler {
	return &TagHandler{tags: tags, videos: videos, tracks: tracks, comments: comments}
}

// ListTagsHandler returns first-tag counts for a media kind, served from the
// Redis cache when it is warm.
func (h *TagHandler) ListTagsHandler(w http.ResponseWriter, r *http.Request) {
	kind := model.KindVideo
	if r.URL.Query().Get("kind") == string(model.KindTrack) {
		kind = model.KindTrack
	}

	if counts, hit := cache.GetTagCounts(r.Context(), kind); hit {
		respondWithJSON(w, http.StatusOK, map[string]any{"tags": counts, "cached": true})
		return
	}

	counts, err := h.tags.FirstTagCounts(kind)
	if err != nil {
		logger.Error("Failed to aggregate tag counts", logger.ErrorField(err))
		respondWithError(w, http.StatusInternalServerError, "failed to list tags")
		return
	}
	cache.SetTagCounts(r.Context(), kind, counts)
	respondWithJSON(w, http.StatusOK, map[string]any{"tags": counts, "cached": false})
}

// SuggestionsHandler returns tags matching a prefix, for autocomplete.
func (h *TagHandler) SuggestionsHandler(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	all, err := h.tags.AllTags()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load tags")
		return
	}

	suggestions := make([]string, 0)
	for _, t := range all {
		if q == "" || strings.HasPrefix(strings.ToLower(t), q) {
			suggestions = append(suggestions, t)
		}
		if len(suggestions) == 20 {
			break
		}
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

// TagDetailHandler returns everything shown on a tag page: matching videos
// and tracks, co-occurring tags, the description and the tag's comments.
func (h *TagHandler) TagDetailHandler(w http.ResponseWriter, r *http.Request) {
	tagName := strings.TrimSpace(mux.Vars(r)["tag"])
	if tagName == "" {
		respondWithError(w, http.StatusBadRequest, "invalid tag name")
		return
	}

	videos, videoTotal, err := h.videos.ListVideos(repository.VideoListOptions{
		Tag:   tagName,
		Limit: 100,
	})
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load tagged videos")
		return
	}
	tracks, trackTotal, err := h.tracks.ListTracks(repository.TrackListOptions{
		Tag:   tagName,
		Limit: 100,
	})
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load tagged tracks")
		return
	}

	related, err := h.tags.RelatedTags(tagName, 15)
	if err != nil {
		logger.Warn("Failed to load related tags", logger.String("tag", tagName), logger.ErrorField(err))
		related = []model.TagCount{}
	}
	description, err := h.tags.GetTagDescription(tagName)
	if err != nil {
		logger.Warn("Failed to load tag description", logger.String("tag", tagName), logger.ErrorField(err))
	}
	comments, err := h.comments.ListTagComments(tagName)
	if err != nil {
		logger.Warn("Failed to load tag comments", logger.String("tag", tagName), logger.ErrorField(err))
		comments = []*model.TagComment{}
	}

	resp := map[string]any{
		"tag":         tagName,
		"videos":      videos,
		"videoCount":  videoTotal,
		"tracks":      tracks,
		"trackCount":  trackTotal,
		"relatedTags": related,
		"comments":    comments,
	}
	if description != nil {
		resp["description"] = description
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// UpdateDescriptionHandler creates or replaces a tag's description.
func (h *TagHandler) UpdateDescriptionHandler(w http.ResponseWriter, r *http.Request) {
	tagName := strings.TrimSpace(mux.Vars(r)["tag"])
	if tagName == "" {
		respondWithError(w, http.StatusBadRequest, "invalid tag name")
		return
	}
	var req struct {
		Description string `json:"description"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.tags.UpsertTagDescription(tagName, req.Description); err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to save description")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"success": true})
}
