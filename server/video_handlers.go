package server

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
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

// maxUploadMemory bounds the in-memory portion of multipart parsing; the rest
// spills to temp files.
const maxUploadMemory = 32 << 20

// VideoHandler serves video CRUD, upload and streaming endpoints.
type VideoHandler struct {
	videos    repository.VideoRepository
	comments  repository.CommentRepository
	playlists repository.PlaylistRepository
	ingestor  *ingest.Ingestor
	cfg       *config.Config
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(videos repository.VideoRepository, comments repository.CommentRepository,
	playlists repository.PlaylistRepository, ingestor *ingest.Ingestor, cfg *config.Config) *VideoHandler {
	return &VideoHandler{
		videos:    videos,
		comments:  comments,
		playlists: playlists,
		ingestor:  ingestor,
		cfg:       cfg,
	}
}

// UploadVideoHandler accepts one multipart video upload.
func (h *VideoHandler) UploadVideoHandler(w http.ResponseWriter, r *http.Request) {
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

	video, err := h.ingestor.IngestVideo(ingest.VideoUpload{
		OriginalName: header.Filename,
		Data:         file,
		DisplayName:  strings.TrimSpace(r.FormValue("nickname")),
		Description:  r.FormValue("description"),
		Tags:         r.FormValue("tags"),
		Stealth:      r.FormValue("stealth") == "true",
	})
	if err != nil {
		if strings.Contains(err.Error(), "unsupported video format") {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	cache.InvalidateTagCounts(r.Context(), model.KindVideo)
	respondWithJSON(w, http.StatusCreated, map[string]any{"success": true, "video": video})
}

// BulkUploadHandler accepts many files at once into the stealth folder. No
// per-file metadata; one file's failure does not abort the rest.
func (h *VideoHandler) BulkUploadHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		respondWithError(w, http.StatusBadRequest, "no files provided")
		return
	}

	uploads := make([]ingest.VideoUpload, 0, len(files))
	opened := make([]interface{ Close() error }, 0, len(files))
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "failed to read upload")
			return
		}
		opened = append(opened, f)
		uploads = append(uploads, ingest.VideoUpload{
			OriginalName: fh.Filename,
			Data:         f,
			Stealth:      true,
		})
	}

	res := h.ingestor.IngestVideoBatch(uploads)
	respondWithJSON(w, http.StatusOK, map[string]any{
		"success":  res.Uploaded > 0,
		"uploaded": res.Uploaded,
		"videoIds": res.VideoIDs,
		"errors":   res.Errors,
	})
}

// BatchUploadHandler uploads many files with generated nicknames and
// optionally drops them into a new or existing playlist in upload order.
func (h *VideoHandler) BatchUploadHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		respondWithError(w, http.StatusBadRequest, "no files provided")
		return
	}

	nickname := strings.TrimSpace(r.FormValue("nickname"))
	tags := r.FormValue("tags")
	description := r.FormValue("description")

	var playlistID int64
	if name := strings.TrimSpace(r.FormValue("playlist_name")); name != "" {
		p := &model.Playlist{Name: name, Description: r.FormValue("playlist_description")}
		id, err := h.playlists.CreatePlaylist(p)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "failed to create playlist")
			return
		}
		playlistID = id
	} else if id := queryInt(r, "playlist_id", 0); id > 0 {
		playlistID = int64(id)
	}

	uploaded := 0
	videoIDs := make([]int64, 0, len(files))
	uploadErrors := make([]string, 0)
	for i, fh := range files {
		f, err := fh.Open()
		if err != nil {
			uploadErrors = append(uploadErrors, fmt.Sprintf("%s: %v", fh.Filename, err))
			continue
		}
		displayName := ""
		if nickname != "" {
			displayName = fmt.Sprintf("%s %d", nickname, i+1)
		}
		video, err := h.ingestor.IngestVideo(ingest.VideoUpload{
			OriginalName: fh.Filename,
			Data:         f,
			DisplayName:  displayName,
			Description:  description,
			Tags:         tags,
		})
		f.Close()
		if err != nil {
			uploadErrors = append(uploadErrors, fmt.Sprintf("%s: %v", fh.Filename, err))
			continue
		}
		uploaded++
		videoIDs = append(videoIDs, video.ID)
		if playlistID != 0 {
			if _, err := h.playlists.AddVideo(playlistID, video.ID); err != nil {
				uploadErrors = append(uploadErrors, fmt.Sprintf("%s: added but not playlisted: %v", fh.Filename, err))
			}
		}
	}

	cache.InvalidateTagCounts(r.Context(), model.KindVideo)
	respondWithJSON(w, http.StatusOK, map[string]any{
		"success":    uploaded > 0,
		"uploaded":   uploaded,
		"videoIds":   videoIDs,
		"playlistId": playlistID,
		"errors":     uploadErrors,
	})
}

// ListVideosHandler returns a page of videos.
func (h *VideoHandler) ListVideosHandler(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 24)
	if limit <= 0 || limit > 100 {
		limit = 24
	}
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	videos, total, err := h.videos.ListVideos(repository.VideoListOptions{
		Tag:    r.URL.Query().Get("tag"),
		Sort:   r.URL.Query().Get("sort"),
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		logger.Error("Failed to list videos", logger.ErrorField(err))
		respondWithError(w, http.StatusInternalServerError, "failed to list videos")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"videos": videos,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

// GetVideoHandler returns one video plus related videos and comments.
func (h *VideoHandler) GetVideoHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid video id")
		return
	}
	video, err := h.videos.GetVideoByID(id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load video")
		return
	}
	if video == nil {
		respondWithError(w, http.StatusNotFound, "video not found")
		return
	}

	related, err := h.videos.GetRelatedVideos(id, video.Tags, 8)
	if err != nil {
		logger.Warn("Failed to load related videos", logger.Int64("videoId", id), logger.ErrorField(err))
		related = []*model.Video{}
	}
	comments, err := h.comments.ListVideoComments(id)
	if err != nil {
		logger.Warn("Failed to load video comments", logger.Int64("videoId", id), logger.ErrorField(err))
		comments = []*model.VideoComment{}
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"video":    video,
		"related":  related,
		"comments": comments,
	})
}

// StreamVideoHandler streams the backing file with range support.
func (h *VideoHandler) StreamVideoHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid video id")
		return
	}
	video, err := h.videos.GetVideoByID(id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load video")
		return
	}
	if video == nil {
		respondWithError(w, http.StatusNotFound, "video not found")
		return
	}
	serveFileRange(w, r, video.StoredPath, media.VideoContentType(video.StoredPath))
}

// ThumbnailHandler serves a video's thumbnail image.
func (h *VideoHandler) ThumbnailHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid video id")
		return
	}
	video, err := h.videos.GetVideoByID(id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load video")
		return
	}
	if video == nil || video.ThumbnailPath == "" {
		respondWithError(w, http.StatusNotFound, "thumbnail not found")
		return
	}
	http.ServeFile(w, r, filepath.Join(h.cfg.StaticDir, filepath.FromSlash(video.ThumbnailPath)))
}

// DeleteVideoHandler removes the row, its comments and memberships, the
// backing file and the thumbnail.
func (h *VideoHandler) DeleteVideoHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid video id")
		return
	}
	video, err := h.videos.GetVideoByID(id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load video")
		return
	}
	if video == nil {
		respondWithError(w, http.StatusNotFound, "video not found")
		return
	}

	if err := h.videos.DeleteVideo(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondWithError(w, http.StatusNotFound, "video not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to delete video")
		return
	}

	// Row is gone; file removal failures only leave orphans behind.
	removeFileQuietly(video.StoredPath)
	if video.ThumbnailPath != "" {
		removeFileQuietly(filepath.Join(h.cfg.StaticDir, filepath.FromSlash(video.ThumbnailPath)))
	}

	cache.InvalidateTagCounts(r.Context(), model.KindVideo)
	respondWithJSON(w, http.StatusOK, map[string]any{"success": true})
}

// LikeVideoHandler bumps the like counter.
func (h *VideoHandler) LikeVideoHandler(w http.ResponseWriter, r *http.Request) {
	h.incrementHandler(w, r, h.videos.IncrementVideoLikes)
}

// ViewVideoHandler bumps the view counter.
func (h *VideoHandler) ViewVideoHandler(w http.ResponseWriter, r *http.Request) {
	h.incrementHandler(w, r, h.videos.IncrementVideoViews)
}

func (h *VideoHandler) incrementHandler(w http.ResponseWriter, r *http.Request, inc func(int64) error) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid video id")
		return
	}
	if err := inc(id); err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to update counter")
		return
	}
	video, err := h.videos.GetVideoByID(id)
	if err != nil || video == nil {
		respondWithError(w, http.StatusNotFound, "video not found")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"likes":     video.Likes,
		"viewCount": video.ViewCount,
	})
}

// UpdateTagsHandler replaces a video's tags.
func (h *VideoHandler) UpdateTagsHandler(w http.ResponseWriter, r *http.Request) {
	h.updateFieldHandler(w, r, "tags", h.videos.UpdateVideoTags)
	cache.InvalidateTagCounts(r.Context(), model.KindVideo)
}

// UpdateDescriptionHandler replaces a video's description.
func (h *VideoHandler) UpdateDescriptionHandler(w http.ResponseWriter, r *http.Request) {
	h.updateFieldHandler(w, r, "description", h.videos.UpdateVideoDescription)
}

// UpdateTitleHandler replaces a video's display name.
func (h *VideoHandler) UpdateTitleHandler(w http.ResponseWriter, r *http.Request) {
	h.updateFieldHandler(w, r, "title", h.videos.UpdateVideoTitle)
}

func (h *VideoHandler) updateFieldHandler(w http.ResponseWriter, r *http.Request, field string, update func(int64, string) error) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid video id")
		return
	}
	var body map[string]string
	if err := decodeJSONBody(r, &body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	value, present := body[field]
	if !present {
		respondWithError(w, http.StatusBadRequest, "missing "+field)
		return
	}
	if err := update(id, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondWithError(w, http.StatusNotFound, "video not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to update "+field)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"success": true})
}

// RestoreVideoHandler moves a stealth upload into the public folder.
func (h *VideoHandler) RestoreVideoHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid video id")
		return
	}
	video, err := h.videos.GetVideoByID(id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load video")
		return
	}
	if video == nil {
		respondWithError(w, http.StatusNotFound, "video not found")
		return
	}

	if !strings.HasPrefix(video.StoredPath, h.cfg.StealthUploadDir) {
		respondWithError(w, http.StatusBadRequest, "video is not in the stealth folder")
		return
	}

	_, dst := media.Allocate(h.cfg.UploadDir, filepath.Base(video.StoredPath))
	if err := os.Rename(video.StoredPath, dst); err != nil {
		logger.Error("Failed to move video out of stealth",
			logger.Int64("videoId", id),
			logger.ErrorField(err))
		respondWithError(w, http.StatusInternalServerError, "failed to move video file")
		return
	}
	if err := h.videos.UpdateVideoStoredPath(id, dst); err != nil {
		// Try to undo the move so the row stays consistent.
		if undoErr := os.Rename(dst, video.StoredPath); undoErr != nil {
			logger.Error("Failed to undo stealth move",
				logger.Int64("videoId", id),
				logger.ErrorField(undoErr))
		}
		respondWithError(w, http.StatusInternalServerError, "failed to update video path")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"success": true, "storedPath": filepath.Base(dst)})
}

// CleanupStealthHandler drops stealth rows whose backing file disappeared and
// removes their orphaned thumbnails.
func (h *VideoHandler) CleanupStealthHandler(w http.ResponseWriter, r *http.Request) {
	videos, err := h.videos.ListVideosUnderPath(h.cfg.StealthUploadDir)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to list stealth videos")
		return
	}

	removed := 0
	cleanupErrors := make([]string, 0)
	for _, v := range videos {
		if _, err := os.Stat(v.StoredPath); err == nil {
			continue
		}
		if err := h.videos.DeleteVideo(v.ID); err != nil {
			cleanupErrors = append(cleanupErrors, fmt.Sprintf("video %d: %v", v.ID, err))
			continue
		}
		if v.ThumbnailPath != "" {
			removeFileQuietly(filepath.Join(h.cfg.StaticDir, filepath.FromSlash(v.ThumbnailPath)))
		}
		removed++
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"removed": removed,
		"errors":  cleanupErrors,
	})
}

func removeFileQuietly(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("Could not remove file",
			logger.String("path", path),
			logger.ErrorField(err))
	}
}
