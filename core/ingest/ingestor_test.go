package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vidshare/config"
	"vidshare/model"
)

type fakeProcessor struct {
	convertErr   error
	probeErr     error
	thumbnailErr error
	duration     float64

	converted   []string
	probed      []string
	thumbnailed []string
}

func (f *fakeProcessor) ConvertWebMToMP4(input string) (string, error) {
	f.converted = append(f.converted, input)
	if f.convertErr != nil {
		return "", f.convertErr
	}
	output := strings.TrimSuffix(input, ".webm") + ".mp4"
	data, err := os.ReadFile(input)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return "", err
	}
	if err := os.Remove(input); err != nil {
		return "", err
	}
	return output, nil
}

func (f *fakeProcessor) ProbeDuration(input string) (float64, error) {
	f.probed = append(f.probed, input)
	if f.probeErr != nil {
		return 0, f.probeErr
	}
	return f.duration, nil
}

func (f *fakeProcessor) ExtractThumbnail(input, output string, duration float64) error {
	f.thumbnailed = append(f.thumbnailed, output)
	if f.thumbnailErr != nil {
		return f.thumbnailErr
	}
	return os.WriteFile(output, []byte("jpg"), 0644)
}

func (f *fakeProcessor) Trim(input, output string, start, end float64) error { return nil }

func (f *fakeProcessor) ExtractAudio(input, output string) error { return nil }

type fakeVideoStore struct {
	createErr error
	created   []*model.Video
	nextID    int64
}

func (f *fakeVideoStore) CreateVideo(v *model.Video) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextID++
	f.created = append(f.created, v)
	return f.nextID, nil
}

type fakeTrackStore struct {
	createErr error
	created   []*model.Track
	nextID    int64
}

func (f *fakeTrackStore) CreateTrack(t *model.Track) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextID++
	f.created = append(f.created, t)
	return f.nextID, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	return &config.Config{
		UploadDir:             filepath.Join(root, "uploads"),
		StealthUploadDir:      filepath.Join(root, "stealth"),
		AudioUploadDir:        filepath.Join(root, "audio"),
		StealthAudioUploadDir: filepath.Join(root, "audio_stealth"),
		ThumbnailDir:          filepath.Join(root, "thumbnails"),
		CoverDir:              filepath.Join(root, "covers"),
	}
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestIngestVideo(t *testing.T) {
	cfg := testConfig(t)
	proc := &fakeProcessor{duration: 42.5}
	videos := &fakeVideoStore{}
	ing := NewIngestor(proc, videos, &fakeTrackStore{}, cfg)

	video, err := ing.IngestVideo(VideoUpload{
		OriginalName: "holiday.mp4",
		Data:         strings.NewReader("content"),
		Description:  "beach trip",
		Tags:         "travel, summer",
	})
	if err != nil {
		t.Fatal(err)
	}

	if video.ID != 1 {
		t.Errorf("ID = %d", video.ID)
	}
	if video.StoredPath != filepath.Join(cfg.UploadDir, "holiday.mp4") {
		t.Errorf("StoredPath = %q", video.StoredPath)
	}
	if video.ThumbnailPath != "thumbnails/thumbnail_holiday.jpg" {
		t.Errorf("ThumbnailPath = %q", video.ThumbnailPath)
	}
	if _, err := os.Stat(video.StoredPath); err != nil {
		t.Errorf("stored file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.ThumbnailDir, "thumbnail_holiday.jpg")); err != nil {
		t.Errorf("thumbnail missing: %v", err)
	}
	if len(proc.converted) != 0 {
		t.Error("mp4 upload should not be converted")
	}
}

func TestIngestVideoDisplayNameControlsFilename(t *testing.T) {
	cfg := testConfig(t)
	ing := NewIngestor(&fakeProcessor{}, &fakeVideoStore{}, &fakeTrackStore{}, cfg)

	video, err := ing.IngestVideo(VideoUpload{
		OriginalName: "VID_20250101_010101.mp4",
		Data:         strings.NewReader("content"),
		DisplayName:  "new year party",
	})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(video.StoredPath) != "new_year_party.mp4" {
		t.Errorf("stored filename = %q", filepath.Base(video.StoredPath))
	}
	if video.OriginalName != "VID_20250101_010101.mp4" {
		t.Errorf("OriginalName = %q", video.OriginalName)
	}
}

func TestIngestVideoStealthDirectory(t *testing.T) {
	cfg := testConfig(t)
	ing := NewIngestor(&fakeProcessor{}, &fakeVideoStore{}, &fakeTrackStore{}, cfg)

	video, err := ing.IngestVideo(VideoUpload{
		OriginalName: "secret.mp4",
		Data:         strings.NewReader("content"),
		Stealth:      true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(video.StoredPath, cfg.StealthUploadDir) {
		t.Errorf("stealth upload stored at %q", video.StoredPath)
	}
	if got := dirEntries(t, cfg.UploadDir); len(got) != 0 {
		t.Errorf("public upload dir should stay empty, has %v", got)
	}
}

func TestIngestVideoWebMConversion(t *testing.T) {
	cfg := testConfig(t)
	proc := &fakeProcessor{duration: 10}
	videos := &fakeVideoStore{}
	ing := NewIngestor(proc, videos, &fakeTrackStore{}, cfg)

	video, err := ing.IngestVideo(VideoUpload{
		OriginalName: "clip.webm",
		Data:         strings.NewReader("content"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Ext(video.StoredPath) != ".mp4" {
		t.Errorf("StoredPath should point at the converted file, got %q", video.StoredPath)
	}
	if video.ThumbnailPath != "thumbnails/thumbnail_clip.jpg" {
		t.Errorf("ThumbnailPath = %q", video.ThumbnailPath)
	}
	if _, err := os.Stat(filepath.Join(cfg.UploadDir, "clip.webm")); !os.IsNotExist(err) {
		t.Error("webm source should be gone after conversion")
	}
}

func TestIngestVideoRejectsUnsupportedExtension(t *testing.T) {
	cfg := testConfig(t)
	ing := NewIngestor(&fakeProcessor{}, &fakeVideoStore{}, &fakeTrackStore{}, cfg)

	_, err := ing.IngestVideo(VideoUpload{
		OriginalName: "document.pdf",
		Data:         strings.NewReader("content"),
	})
	if err == nil || !strings.Contains(err.Error(), "unsupported video format") {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
}

func TestIngestVideoRollback(t *testing.T) {
	tests := []struct {
		name string
		proc *fakeProcessor
		repo *fakeVideoStore
	}{
		{"probe fails", &fakeProcessor{probeErr: errors.New("boom")}, &fakeVideoStore{}},
		{"thumbnail fails", &fakeProcessor{thumbnailErr: errors.New("boom")}, &fakeVideoStore{}},
		{"persist fails", &fakeProcessor{}, &fakeVideoStore{createErr: errors.New("boom")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			ing := NewIngestor(tt.proc, tt.repo, &fakeTrackStore{}, cfg)

			_, err := ing.IngestVideo(VideoUpload{
				OriginalName: "clip.mp4",
				Data:         strings.NewReader("content"),
			})
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := dirEntries(t, cfg.UploadDir); len(got) != 0 {
				t.Errorf("upload dir not rolled back: %v", got)
			}
			if got := dirEntries(t, cfg.ThumbnailDir); len(got) != 0 {
				t.Errorf("thumbnail dir not rolled back: %v", got)
			}
			if len(tt.repo.created) != 0 {
				t.Error("no row should be committed on failure")
			}
		})
	}
}

func TestIngestVideoWebMConversionFailureRollsBack(t *testing.T) {
	cfg := testConfig(t)
	proc := &fakeProcessor{convertErr: errors.New("boom")}
	ing := NewIngestor(proc, &fakeVideoStore{}, &fakeTrackStore{}, cfg)

	_, err := ing.IngestVideo(VideoUpload{
		OriginalName: "clip.webm",
		Data:         strings.NewReader("content"),
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := dirEntries(t, cfg.UploadDir); len(got) != 0 {
		t.Errorf("upload dir not rolled back: %v", got)
	}
}

func TestIngestVideoBatch(t *testing.T) {
	cfg := testConfig(t)
	videos := &fakeVideoStore{}
	ing := NewIngestor(&fakeProcessor{}, videos, &fakeTrackStore{}, cfg)

	res := ing.IngestVideoBatch([]VideoUpload{
		{OriginalName: "a.mp4", Data: strings.NewReader("a")},
		{OriginalName: "bad.txt", Data: strings.NewReader("b")},
		{OriginalName: "c.mp4", Data: strings.NewReader("c")},
	})

	if res.Uploaded != 2 {
		t.Errorf("Uploaded = %d", res.Uploaded)
	}
	if len(res.VideoIDs) != 2 {
		t.Errorf("VideoIDs = %v", res.VideoIDs)
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "bad.txt") {
		t.Errorf("Errors = %v", res.Errors)
	}
	if len(videos.created) != 2 {
		t.Errorf("created %d rows", len(videos.created))
	}
}

func TestIngestTrack(t *testing.T) {
	cfg := testConfig(t)
	proc := &fakeProcessor{duration: 180}
	tracks := &fakeTrackStore{}
	ing := NewIngestor(proc, &fakeVideoStore{}, tracks, cfg)

	track, artist, err := ing.IngestTrack(TrackUpload{
		OriginalName: "song.mp3",
		Data:         strings.NewReader("content"),
		DisplayName:  "My Song",
		Tags:         "rock",
	})
	if err != nil {
		t.Fatal(err)
	}
	if track.ID != 1 {
		t.Errorf("ID = %d", track.ID)
	}
	if track.Duration != 180 {
		t.Errorf("Duration = %v", track.Duration)
	}
	if track.DisplayName != "My Song" {
		t.Errorf("DisplayName = %q", track.DisplayName)
	}
	// The fixture carries no embedded tags.
	if artist != "" {
		t.Errorf("artist = %q", artist)
	}
	if _, err := os.Stat(track.StoredPath); err != nil {
		t.Errorf("stored file missing: %v", err)
	}
}

func TestIngestTrackCover(t *testing.T) {
	cfg := testConfig(t)
	tracks := &fakeTrackStore{}
	ing := NewIngestor(&fakeProcessor{}, &fakeVideoStore{}, tracks, cfg)

	track, _, err := ing.IngestTrack(TrackUpload{
		OriginalName: "song.mp3",
		Data:         strings.NewReader("content"),
		Cover:        strings.NewReader("webpdata"),
		CoverName:    "art.webp",
	})
	if err != nil {
		t.Fatal(err)
	}
	if track.CoverImagePath != "covers/cover_song.webp" {
		t.Errorf("CoverImagePath = %q", track.CoverImagePath)
	}
	if _, err := os.Stat(filepath.Join(cfg.CoverDir, "cover_song.webp")); err != nil {
		t.Errorf("cover missing: %v", err)
	}
}

func TestIngestTrackRejectsUnsupportedExtension(t *testing.T) {
	cfg := testConfig(t)
	ing := NewIngestor(&fakeProcessor{}, &fakeVideoStore{}, &fakeTrackStore{}, cfg)

	_, _, err := ing.IngestTrack(TrackUpload{
		OriginalName: "clip.mp4x",
		Data:         strings.NewReader("content"),
	})
	if err == nil || !strings.Contains(err.Error(), "unsupported audio format") {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
}

func TestIngestTrackRollbackOnPersistFailure(t *testing.T) {
	cfg := testConfig(t)
	tracks := &fakeTrackStore{createErr: errors.New("boom")}
	ing := NewIngestor(&fakeProcessor{}, &fakeVideoStore{}, tracks, cfg)

	_, _, err := ing.IngestTrack(TrackUpload{
		OriginalName: "song.mp3",
		Data:         strings.NewReader("content"),
		Cover:        strings.NewReader("webpdata"),
		CoverName:    "art.webp",
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := dirEntries(t, cfg.AudioUploadDir); len(got) != 0 {
		t.Errorf("audio dir not rolled back: %v", got)
	}
	if got := dirEntries(t, cfg.CoverDir); len(got) != 0 {
		t.Errorf("cover dir not rolled back: %v", got)
	}
}
