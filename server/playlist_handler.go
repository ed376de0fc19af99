package server

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"vidshare/logger"
	"vidshare/model"
	"vidshare/repository"
)

// PlaylistHandler serves playlist CRUD and membership endpoints.
type PlaylistHandler struct {
	playlists repository.PlaylistRepository
	videos    repository.VideoRepository
	comments  repository.CommentRepository
}

// NewPlaylistHandler creates a new PlaylistHandler.
func NewPlaylistHandler(playlists repository.PlaylistRepository, videos repository.VideoRepository,
	comments repository.CommentRepository) *PlaylistHandler {
	return &PlaylistHandler{playlists: playlists, videos: videos, comments: comments}
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	VideoID     int64  `json:"videoId"` // optional first member
}

// CreatePlaylistHandler creates a playlist, optionally seeding it with its
// first video at position 1.
func (h *PlaylistHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var req createPlaylistRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondWithError(w, http.StatusBadRequest, "name is required")
		return
	}

	p := &model.Playlist{Name: req.Name, Description: req.Description}
	if _, err := h.playlists.CreatePlaylist(p); err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to create playlist")
		return
	}

	if req.VideoID != 0 {
		video, err := h.videos.GetVideoByID(req.VideoID)
		if err != nil || video == nil {
			respondWithError(w, http.StatusBadRequest, "first video not found")
			return
		}
		if _, err := h.playlists.AddVideo(p.ID, req.VideoID); err != nil {
			logger.Warn("Playlist created but seeding failed",
				logger.Int64("playlistId", p.ID),
				logger.ErrorField(err))
		}
	}

	respondWithJSON(w, http.StatusCreated, map[string]any{"success": true, "playlist": p})
}

// ListPlaylistsHandler lists playlists with member counts.
func (h *PlaylistHandler) ListPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.playlists.ListPlaylists()
	if err != nil {
		logger.Error("Failed to list playlists", logger.ErrorField(err))
		respondWithError(w, http.StatusInternalServerError, "failed to list playlists")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"playlists": summaries})
}

// GetPlaylistHandler returns a playlist with its members in position order
// and its comments.
func (h *PlaylistHandler) GetPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}
	playlist, err := h.playlists.GetPlaylistByID(id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load playlist")
		return
	}
	if playlist == nil {
		respondWithError(w, http.StatusNotFound, "playlist not found")
		return
	}

	entries, err := h.playlists.GetPlaylistEntries(id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load playlist entries")
		return
	}
	comments, err := h.comments.ListPlaylistComments(id)
	if err != nil {
		logger.Warn("Failed to load playlist comments", logger.Int64("playlistId", id), logger.ErrorField(err))
		comments = []*model.PlaylistComment{}
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"playlist": playlist,
		"entries":  entries,
		"comments": comments,
	})
}

// UpdatePlaylistHandler renames a playlist and replaces its description.
func (h *PlaylistHandler) UpdatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}
	var req createPlaylistRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondWithError(w, http.StatusBadRequest, "name is required")
		return
	}

	existing, err := h.playlists.GetPlaylistByID(id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load playlist")
		return
	}
	if existing == nil {
		respondWithError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if err := h.playlists.UpdatePlaylist(id, req.Name, req.Description); err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to update playlist")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"success": true})
}

// DeletePlaylistHandler removes a playlist, its memberships and comments.
// Member videos are untouched.
func (h *PlaylistHandler) DeletePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}
	if err := h.playlists.DeletePlaylist(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondWithError(w, http.StatusNotFound, "playlist not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to delete playlist")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"success": true})
}

// AddVideoHandler appends a video to the end of a playlist.
func (h *PlaylistHandler) AddVideoHandler(w http.ResponseWriter, r *http.Request) {
	playlistID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}
	videoID, err := pathID(r, "videoId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid video id")
		return
	}

	playlist, err := h.playlists.GetPlaylistByID(playlistID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load playlist")
		return
	}
	if playlist == nil {
		respondWithError(w, http.StatusNotFound, "playlist not found")
		return
	}
	video, err := h.videos.GetVideoByID(videoID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load video")
		return
	}
	if video == nil {
		respondWithError(w, http.StatusNotFound, "video not found")
		return
	}

	pos, err := h.playlists.AddVideo(playlistID, videoID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to add video to playlist")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"success": true, "position": pos})
}

// RemoveVideoHandler removes a video from a playlist and re-packs positions.
func (h *PlaylistHandler) RemoveVideoHandler(w http.ResponseWriter, r *http.Request) {
	playlistID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}
	videoID, err := pathID(r, "videoId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid video id")
		return
	}

	if err := h.playlists.RemoveVideo(playlistID, videoID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondWithError(w, http.StatusNotFound, "video is not in the playlist")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to remove video from playlist")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"success": true})
}
