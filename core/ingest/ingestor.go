package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"vidshare/config"
	"vidshare/core/media"
	"vidshare/logger"
	"vidshare/model"
)

// VideoStore is the persistence surface the ingestor needs for videos.
type VideoStore interface {
	CreateVideo(v *model.Video) (int64, error)
}

// TrackStore is the persistence surface the ingestor needs for tracks.
type TrackStore interface {
	CreateTrack(t *model.Track) (int64, error)
}

// Ingestor coordinates filename allocation, the media processor and
// persistence to turn an upload into a durable record. Each upload runs the
// pipeline synchronously in the calling request; any step's failure deletes
// every file written for that upload before the error is reported, so no row
// is ever committed without its backing file and derived thumbnail.
type Ingestor struct {
	processor media.Processor
	videos    VideoStore
	tracks    TrackStore
	cfg       *config.Config
}

// NewIngestor creates an Ingestor.
func NewIngestor(processor media.Processor, videos VideoStore, tracks TrackStore, cfg *config.Config) *Ingestor {
	return &Ingestor{
		processor: processor,
		videos:    videos,
		tracks:    tracks,
		cfg:       cfg,
	}
}

// VideoUpload carries one video file through the pipeline.
type VideoUpload struct {
	OriginalName string
	Data         io.Reader
	DisplayName  string
	Description  string
	Tags         string
	Stealth      bool
}

// TrackUpload carries one audio file through the pipeline. Cover is optional
// cover art; CoverName is its original filename.
type TrackUpload struct {
	OriginalName string
	Data         io.Reader
	Cover        io.Reader
	CoverName    string
	DisplayName  string
	Description  string
	Tags         string
	Stealth      bool
}

// BatchResult reports a bulk ingestion: committed successes stay committed,
// one file's failure never aborts the batch.
type BatchResult struct {
	Uploaded int      `json:"uploaded"`
	VideoIDs []int64  `json:"videoIds"`
	Errors   []string `json:"errors"`
}

func writeFile(path string, data io.Reader) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// rollback removes files written for an upload that did not complete.
func rollback(paths []string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			logger.Warn("Rollback could not remove file",
				logger.String("path", p),
				logger.ErrorField(err))
		}
	}
}

// IngestVideo runs one video upload through
// validate -> store -> convert (webm) -> probe -> thumbnail -> persist.
func (ing *Ingestor) IngestVideo(up VideoUpload) (*model.Video, error) {
	ext := media.Ext(up.OriginalName)
	if !media.AllowedVideoExts[ext] {
		return nil, fmt.Errorf("unsupported video format %q", ext)
	}

	uploadDir := ing.cfg.UploadDir
	if up.Stealth {
		uploadDir = ing.cfg.StealthUploadDir
	}
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.MkdirAll(ing.cfg.ThumbnailDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create thumbnail directory: %w", err)
	}

	base := up.OriginalName
	if up.DisplayName != "" {
		base = up.DisplayName + ext
	}
	filename, storedPath := media.Allocate(uploadDir, base)

	var written []string
	if err := writeFile(storedPath, up.Data); err != nil {
		return nil, err
	}
	written = append(written, storedPath)

	if ext == ".webm" {
		converted, err := ing.processor.ConvertWebMToMP4(storedPath)
		if err != nil {
			rollback(written)
			return nil, fmt.Errorf("conversion failed: %w", err)
		}
		// The processor removed the webm source.
		storedPath = converted
		filename = filepath.Base(converted)
		written = []string{storedPath}
	}

	duration, err := ing.processor.ProbeDuration(storedPath)
	if err != nil {
		rollback(written)
		return nil, fmt.Errorf("probe failed: %w", err)
	}

	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	thumbName := "thumbnail_" + stem + ".jpg"
	thumbPath := filepath.Join(ing.cfg.ThumbnailDir, thumbName)
	if err := ing.processor.ExtractThumbnail(storedPath, thumbPath, duration); err != nil {
		rollback(written)
		return nil, fmt.Errorf("thumbnail extraction failed: %w", err)
	}
	written = append(written, thumbPath)

	video := &model.Video{
		OriginalName:  up.OriginalName,
		StoredPath:    storedPath,
		DisplayName:   up.DisplayName,
		Description:   up.Description,
		Tags:          up.Tags,
		ThumbnailPath: filepath.ToSlash(filepath.Join("thumbnails", thumbName)),
	}
	id, err := ing.videos.CreateVideo(video)
	if err != nil {
		rollback(written)
		return nil, fmt.Errorf("failed to persist video: %w", err)
	}
	video.ID = id

	logger.Info("Video ingested",
		logger.Int64("videoId", id),
		logger.String("storedPath", storedPath),
		logger.Bool("stealth", up.Stealth))
	return video, nil
}

// IngestVideoBatch runs the pipeline independently per file. Failures are
// collected per file; successes already committed remain committed.
func (ing *Ingestor) IngestVideoBatch(uploads []VideoUpload) BatchResult {
	var res BatchResult
	for _, up := range uploads {
		video, err := ing.IngestVideo(up)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", up.OriginalName, err))
			continue
		}
		res.Uploaded++
		res.VideoIDs = append(res.VideoIDs, video.ID)
	}
	return res
}

// IngestTrack runs one audio upload through the pipeline. The embedded tag
// metadata fills in a missing display name; the detected artist name is
// returned for the caller to associate.
func (ing *Ingestor) IngestTrack(up TrackUpload) (*model.Track, string, error) {
	ext := media.Ext(up.OriginalName)
	if !media.AllowedAudioExts[ext] {
		return nil, "", fmt.Errorf("unsupported audio format %q", ext)
	}

	uploadDir := ing.cfg.AudioUploadDir
	if up.Stealth {
		uploadDir = ing.cfg.StealthAudioUploadDir
	}
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	base := up.OriginalName
	if up.DisplayName != "" {
		base = up.DisplayName + ext
	}
	filename, storedPath := media.Allocate(uploadDir, base)

	var written []string
	if err := writeFile(storedPath, up.Data); err != nil {
		return nil, "", err
	}
	written = append(written, storedPath)

	duration, err := ing.processor.ProbeDuration(storedPath)
	if err != nil {
		rollback(written)
		return nil, "", fmt.Errorf("probe failed: %w", err)
	}

	displayName := up.DisplayName
	metaTitle, metaArtist := media.ProbeAudioMetadata(storedPath)
	if displayName == "" {
		displayName = metaTitle
	}

	var coverRel string
	if up.Cover != nil {
		coverExt := media.Ext(up.CoverName)
		if media.AllowedImageExts[coverExt] {
			if err := os.MkdirAll(ing.cfg.CoverDir, 0755); err != nil {
				rollback(written)
				return nil, "", fmt.Errorf("failed to create cover directory: %w", err)
			}
			stem := strings.TrimSuffix(filename, filepath.Ext(filename))
			coverName, coverPath := media.Allocate(ing.cfg.CoverDir, "cover_"+stem+coverExt)
			if err := saveCover(up.Cover, coverPath, coverExt); err != nil {
				rollback(written)
				return nil, "", err
			}
			written = append(written, coverPath)
			coverRel = filepath.ToSlash(filepath.Join("covers", coverName))
		}
	}

	track := &model.Track{
		OriginalName:   up.OriginalName,
		StoredPath:     storedPath,
		DisplayName:    displayName,
		Description:    up.Description,
		Tags:           up.Tags,
		CoverImagePath: coverRel,
		Duration:       duration,
	}
	id, err := ing.tracks.CreateTrack(track)
	if err != nil {
		rollback(written)
		return nil, "", fmt.Errorf("failed to persist track: %w", err)
	}
	track.ID = id

	logger.Info("Track ingested",
		logger.Int64("trackId", id),
		logger.String("storedPath", storedPath),
		logger.Float64("duration", duration))
	return track, metaArtist, nil
}

// saveCover normalizes decodable formats and stores webp uploads as-is.
func saveCover(src io.Reader, dst, ext string) error {
	if ext == ".webp" {
		return writeFile(dst, src)
	}
	return media.SaveImage(src, dst)
}
