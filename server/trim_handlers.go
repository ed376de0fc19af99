package server

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"vidshare/config"
	"vidshare/core/media"
	"vidshare/logger"
	"vidshare/repository"
)

var validate = validator.New()

// TrimRequest is the trim staging payload. EndTime must lie strictly after
// StartTime; violations are rejected before any file is touched.
type TrimRequest struct {
	StartTime float64 `json:"start_time" validate:"gte=0"`
	EndTime   float64 `json:"end_time" validate:"gtfield=StartTime"`
	NewTitle  string  `json:"new_title"`
}

// TrimHandler stages, previews and accepts non-destructive video trims.
type TrimHandler struct {
	videos    repository.VideoRepository
	processor media.Processor
	cfg       *config.Config
}

// NewTrimHandler creates a new TrimHandler.
func NewTrimHandler(videos repository.VideoRepository, processor media.Processor, cfg *config.Config) *TrimHandler {
	return &TrimHandler{videos: videos, processor: processor, cfg: cfg}
}

// previewPath is where a staged trim lives until accepted. One preview per
// video; a new trim overwrites the previous preview.
func previewPath(storedPath string) string {
	ext := filepath.Ext(storedPath)
	return strings.TrimSuffix(storedPath, ext) + "_trimmed" + ext
}

// StageTrimHandler cuts a preview next to the original. The original is not
// modified.
func (h *TrimHandler) StageTrimHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid video id")
		return
	}
	var req TrimRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondWithError(w, http.StatusBadRequest, "end_time must be greater than start_time and start_time must be >= 0")
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

	preview := previewPath(video.StoredPath)
	if err := h.processor.Trim(video.StoredPath, preview, req.StartTime, req.EndTime); err != nil {
		logger.Error("Trim failed",
			logger.Int64("videoId", id),
			logger.Float64("start", req.StartTime),
			logger.Float64("end", req.EndTime),
			logger.ErrorField(err))
		respondWithError(w, http.StatusInternalServerError, "trim failed")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"newTitle": req.NewTitle,
	})
}

// PreviewTrimHandler streams the staged preview with range support.
func (h *TrimHandler) PreviewTrimHandler(w http.ResponseWriter, r *http.Request) {
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

	preview := previewPath(video.StoredPath)
	if _, err := os.Stat(preview); err != nil {
		respondWithError(w, http.StatusNotFound, "no trim preview staged")
		return
	}
	serveFileRange(w, r, preview, media.VideoContentType(preview))
}

// AcceptTrimHandler atomically replaces the original with the staged preview,
// optionally retitles the video, and regenerates the thumbnail.
func (h *TrimHandler) AcceptTrimHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid video id")
		return
	}
	var body struct {
		NewTitle string `json:"new_title"`
	}
	// Body is optional for accept.
	decodeJSONBody(r, &body)

	video, err := h.videos.GetVideoByID(id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load video")
		return
	}
	if video == nil {
		respondWithError(w, http.StatusNotFound, "video not found")
		return
	}

	preview := previewPath(video.StoredPath)
	if _, err := os.Stat(preview); err != nil {
		respondWithError(w, http.StatusNotFound, "no trim preview staged")
		return
	}

	if err := os.Rename(preview, video.StoredPath); err != nil {
		logger.Error("Failed to replace original with trim preview",
			logger.Int64("videoId", id),
			logger.ErrorField(err))
		respondWithError(w, http.StatusInternalServerError, "failed to replace original")
		return
	}

	if body.NewTitle != "" {
		if err := h.videos.UpdateVideoTitle(id, body.NewTitle); err != nil {
			logger.Warn("Trim accepted but retitle failed",
				logger.Int64("videoId", id),
				logger.ErrorField(err))
		}
	}

	// The old thumbnail shows a frame that may no longer exist.
	duration, err := h.processor.ProbeDuration(video.StoredPath)
	if err != nil {
		logger.Warn("Could not probe trimmed video", logger.Int64("videoId", id), logger.ErrorField(err))
		duration = 0
	}
	if video.ThumbnailPath != "" {
		thumbAbs := filepath.Join(h.cfg.StaticDir, filepath.FromSlash(video.ThumbnailPath))
		if err := h.processor.ExtractThumbnail(video.StoredPath, thumbAbs, duration); err != nil {
			logger.Warn("Could not regenerate thumbnail after trim",
				logger.Int64("videoId", id),
				logger.ErrorField(err))
		}
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"success": true})
}

// ExtractAudioHandler accepts a video upload and returns its audio as an MP3
// download. Nothing is persisted; temp files are removed when the response
// ends.
func (h *TrimHandler) ExtractAudioHandler(w http.ResponseWriter, r *http.Request) {
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

	ext := media.Ext(header.Filename)
	if !media.AllowedVideoExts[ext] {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("unsupported video format %q", ext))
		return
	}

	tmpDir, err := os.MkdirTemp("", "extract-audio-")
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to create temp dir")
		return
	}
	defer os.RemoveAll(tmpDir)

	src := filepath.Join(tmpDir, "input"+ext)
	out, err := os.Create(src)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	if _, err := out.ReadFrom(file); err != nil {
		out.Close()
		respondWithError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	out.Close()

	mp3 := filepath.Join(tmpDir, "output.mp3")
	if err := h.processor.ExtractAudio(src, mp3); err != nil {
		logger.Error("Audio extraction failed",
			logger.String("file", header.Filename),
			logger.ErrorField(err))
		respondWithError(w, http.StatusInternalServerError, "audio extraction failed")
		return
	}

	base := strings.TrimSuffix(filepath.Base(header.Filename), ext)
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+".mp3"))
	http.ServeFile(w, r, mp3)
}
