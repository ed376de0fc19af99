package server

import (
	"database/sql"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"vidshare/cache"
	"vidshare/config"
	"vidshare/core/ingest"
	"vidshare/core/media"
	"vidshare/logger"
	"vidshare/model"
	"vidshare/repository"
)

// TrackHandler serves audio track CRUD, upload and streaming endpoints.
type TrackHandler struct {
	tracks   repository.TrackRepository
	artists  repository.ArtistRepository
	comments repository.CommentRepository
	ingestor *ingest.Ingestor
	cfg      *config.Config
}

// NewTrackHandler creates a new TrackHandler.
func NewTrackHandler(tracks repository.TrackRepository, artists repository.ArtistRepository,
	comments repository.CommentRepository, ingestor *ingest.Ingestor, cfg *config.Config) *TrackHandler {
	return &TrackHandler{
		tracks:   tracks,
		artists:  artists,
		comments: comments,
		ingestor: ingestor,
		cfg:      cfg,
	}
}

// UploadTrackHandler accepts one multipart audio upload with optional cover
// art. Embedded tag metadata fills in a missing nickname and artist.
func (h *TrackHandler) UploadTrackHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	up := ingest.TrackUpload{
		OriginalName: header.Filename,
		Data:         file,
		DisplayName:  strings.TrimSpace(r.FormValue("nickname")),
		Description:  r.FormValue("description"),
		Tags:         r.FormValue("tags"),
		Stealth:      r.FormValue("stealth") == "true",
	}
	if cover, coverHeader, err := r.FormFile("background"); err == nil {
		defer cover.Close()
		up.Cover = cover
		up.CoverName = coverHeader.Filename
	}

	track, metaArtist, err := h.ingestor.IngestTrack(up)
	if err != nil {
		if strings.Contains(err.Error(), "unsupported audio format") {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	artistName := strings.TrimSpace(r.FormValue("artist_name"))
	if artistName == "" {
		artistName = metaArtist
	}
	var artist *model.Artist
	if artistName != "" {
		artist, err = h.artists.GetOrCreateArtist(artistName)
		if err != nil {
			logger.Warn("Track uploaded but artist association failed",
				logger.Int64("trackId", track.ID),
				logger.String("artist", artistName),
				logger.ErrorField(err))
		} else if err := h.tracks.LinkArtist(track.ID, artist.ID); err != nil {
			logger.Warn("Track uploaded but artist link failed",
				logger.Int64("trackId", track.ID),
				logger.ErrorField(err))
		}
	}

	cache.InvalidateTagCounts(r.Context(), model.KindTrack)
	resp := map[string]any{"success": true, "track": track}
	if artist != nil {
		resp["artist"] = artist
	}
	respondWithJSON(w, http.StatusCreated, resp)
}

// ListTracksHandler returns a page of tracks.
func (h *TrackHandler) ListTracksHandler(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 24)
	if limit <= 0 || limit > 100 {
		limit = 24
	}
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	tracks, total, err := h.tracks.ListTracks(repository.TrackListOptions{
		Tag:      r.URL.Query().Get("tag"),
		ArtistID: int64(queryInt(r, "artist_id", 0)),
		Sort:     r.URL.Query().Get("sort"),
		Limit:    limit,
		Offset:   (page - 1) * limit,
	})
	if err != nil {
		logger.Error("Failed to list tracks", logger.ErrorField(err))
		respondWithError(w, http.StatusInternalServerError, "failed to list tracks")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"tracks": tracks,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

// GetTrackHandler returns one track plus related tracks and comments.
func (h *TrackHandler) GetTrackHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid track id")
		return
	}
	track, err := h.tracks.GetTrackByID(id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load track")
		return
	}
	if track == nil {
		respondWithError(w, http.StatusNotFound, "track not found")
		return
	}

	related, err := h.tracks.GetRelatedTracks(id, track.Tags, 8)
	if err != nil {
		logger.Warn("Failed to load related tracks", logger.Int64("trackId", id), logger.ErrorField(err))
		related = []*model.Track{}
	}
	comments, err := h.comments.ListTrackComments(id)
	if err != nil {
		logger.Warn("Failed to load track comments", logger.Int64("trackId", id), logger.ErrorField(err))
		comments = []*model.TrackComment{}
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"track":    track,
		"related":  related,
		"comments": comments,
	})
}

// StreamTrackHandler streams the backing file with range support.
func (h *TrackHandler) StreamTrackHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid track id")
		return
	}
	track, err := h.tracks.GetTrackByID(id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load track")
		return
	}
	if track == nil {
		respondWithError(w, http.StatusNotFound, "track not found")
		return
	}
	serveFileRange(w, r, track.StoredPath, media.AudioContentType(track.StoredPath))
}

// CoverHandler serves a track's cover image.
func (h *TrackHandler) CoverHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid track id")
		return
	}
	track, err := h.tracks.GetTrackByID(id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load track")
		return
	}
	if track == nil || track.CoverImagePath == "" {
		respondWithError(w, http.StatusNotFound, "cover not found")
		return
	}
	http.ServeFile(w, r, filepath.Join(h.cfg.StaticDir, filepath.FromSlash(track.CoverImagePath)))
}

// DeleteTrackHandler removes the row, its comments and links, the backing
// file and the cover.
func (h *TrackHandler) DeleteTrackHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid track id")
		return
	}
	track, err := h.tracks.GetTrackByID(id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load track")
		return
	}
	if track == nil {
		respondWithError(w, http.StatusNotFound, "track not found")
		return
	}

	if err := h.tracks.DeleteTrack(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondWithError(w, http.StatusNotFound, "track not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to delete track")
		return
	}

	removeFileQuietly(track.StoredPath)
	if track.CoverImagePath != "" {
		removeFileQuietly(filepath.Join(h.cfg.StaticDir, filepath.FromSlash(track.CoverImagePath)))
	}

	cache.InvalidateTagCounts(r.Context(), model.KindTrack)
	respondWithJSON(w, http.StatusOK, map[string]any{"success": true})
}

// LikeTrackHandler bumps the like counter.
func (h *TrackHandler) LikeTrackHandler(w http.ResponseWriter, r *http.Request) {
	h.incrementHandler(w, r, h.tracks.IncrementTrackLikes)
}

// ViewTrackHandler bumps the play counter.
func (h *TrackHandler) ViewTrackHandler(w http.ResponseWriter, r *http.Request) {
	h.incrementHandler(w, r, h.tracks.IncrementTrackViews)
}

func (h *TrackHandler) incrementHandler(w http.ResponseWriter, r *http.Request, inc func(int64) error) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid track id")
		return
	}
	if err := inc(id); err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to update counter")
		return
	}
	track, err := h.tracks.GetTrackByID(id)
	if err != nil || track == nil {
		respondWithError(w, http.StatusNotFound, "track not found")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"likes":     track.Likes,
		"viewCount": track.ViewCount,
	})
}
