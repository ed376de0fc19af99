package server

import (
	"database/sql"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"vidshare/config"
	"vidshare/core/media"
	"vidshare/logger"
	"vidshare/model"
	"vidshare/repository"
)

// ArtistHandler serves artist listing, detail and profile endpoints.
type ArtistHandler struct {
	artists  repository.ArtistRepository
	tracks   repository.TrackRepository
	videos   repository.VideoRepository
	comments repository.CommentRepository
	cfg      *config.Config
}

// NewArtistHandler creates a new ArtistHandler.
func NewArtistHandler(artists repository.ArtistRepository, tracks repository.TrackRepository,
	videos repository.VideoRepository, comments repository.CommentRepository, cfg *config.Config) *ArtistHandler {
	return &ArtistHandler{
		artists:  artists,
		tracks:   tracks,
		videos:   videos,
		comments: comments,
		cfg:      cfg,
	}
}

// ListArtistsHandler returns a page of artists with aggregate stats.
func (h *ArtistHandler) ListArtistsHandler(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 36)
	if limit <= 0 || limit > 100 {
		limit = 36
	}
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	stats, total, err := h.artists.ListArtistsWithStats(limit, (page-1)*limit)
	if err != nil {
		logger.Error("Failed to list artists", logger.ErrorField(err))
		respondWithError(w, http.StatusInternalServerError, "failed to list artists")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"artists": stats,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// GetArtistHandler returns an artist with tracks, videos, stats, comments
// and recent activity across every comment kind.
func (h *ArtistHandler) GetArtistHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid artist id")
		return
	}
	stats, err := h.artists.GetArtistStats(id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load artist")
		return
	}
	if stats == nil {
		respondWithError(w, http.StatusNotFound, "artist not found")
		return
	}

	tracks, err := h.tracks.ListTracksByArtist(id)
	if err != nil {
		logger.Warn("Failed to load artist tracks", logger.Int64("artistId", id), logger.ErrorField(err))
		tracks = []*model.Track{}
	}
	videos, err := h.videos.ListVideosByArtist(id)
	if err != nil {
		logger.Warn("Failed to load artist videos", logger.Int64("artistId", id), logger.ErrorField(err))
		videos = []*model.Video{}
	}
	comments, err := h.comments.ListArtistComments(id)
	if err != nil {
		logger.Warn("Failed to load artist comments", logger.Int64("artistId", id), logger.ErrorField(err))
		comments = []*model.ArtistComment{}
	}
	activity, err := h.comments.ListRecentActivityByArtist(id, 20)
	if err != nil {
		logger.Warn("Failed to load artist activity", logger.Int64("artistId", id), logger.ErrorField(err))
		activity = []repository.AuthorActivity{}
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"artist":         stats.Artist,
		"totalLikes":     stats.TotalLikes,
		"totalPlays":     stats.TotalPlays,
		"trackCount":     stats.TrackCount,
		"tracks":         tracks,
		"videos":         videos,
		"comments":       comments,
		"recentActivity": activity,
	})
}

// UpsertArtistHandler creates an artist by name, or returns the existing one
// under case folding. Idempotent.
func (h *ArtistHandler) UpsertArtistHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondWithError(w, http.StatusBadRequest, "name is required")
		return
	}

	artist, err := h.artists.GetOrCreateArtist(req.Name)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to upsert artist")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"success": true, "artist": artist})
}

// ResolveArtistHandler resolves an artist page by name, creating the record
// on first visit.
func (h *ArtistHandler) ResolveArtistHandler(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(mux.Vars(r)["name"])
	if name == "" {
		respondWithError(w, http.StatusBadRequest, "invalid artist name")
		return
	}
	artist, err := h.artists.GetOrCreateArtist(name)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to resolve artist")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"artist": artist})
}

// UpdateBioHandler replaces an artist's bio.
func (h *ArtistHandler) UpdateBioHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid artist id")
		return
	}
	var req struct {
		Bio string `json:"bio"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.artists.UpdateArtistBio(id, req.Bio); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondWithError(w, http.StatusNotFound, "artist not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to update bio")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"success": true})
}

// UploadAvatarHandler stores a new avatar image for an artist.
func (h *ArtistHandler) UploadAvatarHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid artist id")
		return
	}
	artist, err := h.artists.GetArtistByID(id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load artist")
		return
	}
	if artist == nil {
		respondWithError(w, http.StatusNotFound, "artist not found")
		return
	}

	rel, err := saveAvatarUpload(r, h.cfg.AvatarDir)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.artists.UpdateArtistAvatar(id, rel); err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to update avatar")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"success": true, "avatarPath": rel})
}

// saveAvatarUpload stores the "avatar" form file under dir with a random
// name, returning the path relative to the static root.
func saveAvatarUpload(r *http.Request, dir string) (string, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return "", errors.New("invalid multipart form")
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		return "", errors.New("missing avatar field")
	}
	defer file.Close()

	ext := media.Ext(header.Filename)
	if !media.AllowedImageExts[ext] {
		return "", errors.New("unsupported image format")
	}

	name := uuid.New().String() + ext
	dst := filepath.Join(dir, name)
	if ext == ".webp" {
		if err := copyUpload(file, dst); err != nil {
			return "", errors.New("failed to store avatar")
		}
	} else if err := media.SaveImage(file, dst); err != nil {
		logger.Error("Failed to save avatar", logger.ErrorField(err))
		return "", errors.New("failed to process avatar image")
	}
	return filepath.ToSlash(filepath.Join("avatars", name)), nil
}
