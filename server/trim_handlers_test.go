package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"vidshare/config"
	"vidshare/model"
	"vidshare/repository"
)

type fakeVideoRepo struct {
	videos  map[int64]*model.Video
	titles  map[int64]string
	nextID  int64
	lastErr error
}

func newFakeVideoRepo() *fakeVideoRepo {
	return &fakeVideoRepo{
		videos: make(map[int64]*model.Video),
		titles: make(map[int64]string),
	}
}

func (f *fakeVideoRepo) CreateVideo(v *model.Video) (int64, error) {
	f.nextID++
	v.ID = f.nextID
	f.videos[v.ID] = v
	return v.ID, nil
}

func (f *fakeVideoRepo) GetVideoByID(id int64) (*model.Video, error) {
	return f.videos[id], f.lastErr
}

func (f *fakeVideoRepo) ListVideos(opts repository.VideoListOptions) ([]*model.Video, int, error) {
	return nil, 0, nil
}

func (f *fakeVideoRepo) ListVideosUnderPath(prefix string) ([]*model.Video, error) {
	return nil, nil
}

func (f *fakeVideoRepo) ListVideosByArtist(artistID int64) ([]*model.Video, error) {
	return nil, nil
}

func (f *fakeVideoRepo) GetRelatedVideos(id int64, tags string, limit int) ([]*model.Video, error) {
	return nil, nil
}

func (f *fakeVideoRepo) UpdateVideoTags(id int64, tags string) error { return nil }

func (f *fakeVideoRepo) UpdateVideoDescription(id int64, description string) error { return nil }

func (f *fakeVideoRepo) UpdateVideoTitle(id int64, displayName string) error {
	f.titles[id] = displayName
	return nil
}

func (f *fakeVideoRepo) UpdateVideoStoredPath(id int64, storedPath string) error {
	if v, ok := f.videos[id]; ok {
		v.StoredPath = storedPath
	}
	return nil
}

func (f *fakeVideoRepo) IncrementVideoLikes(id int64) error { return nil }

func (f *fakeVideoRepo) IncrementVideoViews(id int64) error { return nil }

func (f *fakeVideoRepo) DeleteVideo(id int64) error {
	delete(f.videos, id)
	return nil
}

func (f *fakeVideoRepo) LinkArtist(videoID, artistID int64) error { return nil }

type stubProcessor struct {
	trims      [][2]float64
	thumbnails []string
}

func (s *stubProcessor) ConvertWebMToMP4(input string) (string, error) { return input, nil }

func (s *stubProcessor) ProbeDuration(input string) (float64, error) { return 10, nil }

func (s *stubProcessor) ExtractThumbnail(input, output string, duration float64) error {
	s.thumbnails = append(s.thumbnails, output)
	return os.WriteFile(output, []byte("jpg"), 0644)
}

func (s *stubProcessor) Trim(input, output string, start, end float64) error {
	s.trims = append(s.trims, [2]float64{start, end})
	return os.WriteFile(output, []byte("trimmed"), 0644)
}

func (s *stubProcessor) ExtractAudio(input, output string) error {
	return os.WriteFile(output, []byte("mp3"), 0644)
}

func trimFixture(t *testing.T) (*TrimHandler, *fakeVideoRepo, *stubProcessor, *model.Video) {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{StaticDir: root}

	storedPath := filepath.Join(root, "clip.mp4")
	if err := os.WriteFile(storedPath, []byte("original"), 0644); err != nil {
		t.Fatal(err)
	}

	videos := newFakeVideoRepo()
	video := &model.Video{OriginalName: "clip.mp4", StoredPath: storedPath}
	videos.CreateVideo(video)

	proc := &stubProcessor{}
	return NewTrimHandler(videos, proc, cfg), videos, proc, video
}

func postTrim(h *TrimHandler, id, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/api/videos/"+id+"/trim", strings.NewReader(body))
	r = mux.SetURLVars(r, map[string]string{"id": id})
	w := httptest.NewRecorder()
	h.StageTrimHandler(w, r)
	return w
}

func TestStageTrim(t *testing.T) {
	h, _, proc, video := trimFixture(t)

	w := postTrim(h, "1", `{"start_time": 2.5, "end_time": 8}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(proc.trims) != 1 || proc.trims[0] != [2]float64{2.5, 8} {
		t.Errorf("trims = %v", proc.trims)
	}

	preview := previewPath(video.StoredPath)
	if _, err := os.Stat(preview); err != nil {
		t.Errorf("preview not staged: %v", err)
	}
	// The original stays intact until the trim is accepted.
	data, err := os.ReadFile(video.StoredPath)
	if err != nil || string(data) != "original" {
		t.Errorf("original modified: %q, %v", data, err)
	}
}

func TestStageTrimRejectsBadTimes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"end before start", `{"start_time": 8, "end_time": 2}`},
		{"end equals start", `{"start_time": 5, "end_time": 5}`},
		{"negative start", `{"start_time": -1, "end_time": 5}`},
		{"zero end", `{"start_time": 0, "end_time": 0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, proc, _ := trimFixture(t)
			w := postTrim(h, "1", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
			if len(proc.trims) != 0 {
				t.Error("no trim should run on invalid times")
			}
		})
	}
}

func TestStageTrimMissingVideo(t *testing.T) {
	h, _, _, _ := trimFixture(t)
	w := postTrim(h, "42", `{"start_time": 0, "end_time": 5}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestPreviewTrimNotStaged(t *testing.T) {
	h, _, _, _ := trimFixture(t)

	r := httptest.NewRequest(http.MethodGet, "/api/videos/1/trim/preview", nil)
	r = mux.SetURLVars(r, map[string]string{"id": "1"})
	w := httptest.NewRecorder()
	h.PreviewTrimHandler(w, r)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestAcceptTrim(t *testing.T) {
	h, videos, proc, video := trimFixture(t)
	video.ThumbnailPath = "thumbnails/thumbnail_clip.jpg"
	if err := os.MkdirAll(filepath.Join(h.cfg.StaticDir, "thumbnails"), 0755); err != nil {
		t.Fatal(err)
	}

	preview := previewPath(video.StoredPath)
	if err := os.WriteFile(preview, []byte("trimmed"), 0644); err != nil {
		t.Fatal(err)
	}

	r := httptest.NewRequest(http.MethodPost, "/api/videos/1/trim/accept", strings.NewReader(`{"new_title": "short cut"}`))
	r = mux.SetURLVars(r, map[string]string{"id": "1"})
	w := httptest.NewRecorder()
	h.AcceptTrimHandler(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	data, err := os.ReadFile(video.StoredPath)
	if err != nil || string(data) != "trimmed" {
		t.Errorf("original not replaced: %q, %v", data, err)
	}
	if _, err := os.Stat(preview); !os.IsNotExist(err) {
		t.Error("preview should be gone after accept")
	}
	if videos.titles[1] != "short cut" {
		t.Errorf("title = %q", videos.titles[1])
	}
	if len(proc.thumbnails) != 1 {
		t.Errorf("thumbnail regenerated %d times", len(proc.thumbnails))
	}
}

func TestAcceptTrimNotStaged(t *testing.T) {
	h, _, _, _ := trimFixture(t)

	r := httptest.NewRequest(http.MethodPost, "/api/videos/1/trim/accept", nil)
	r = mux.SetURLVars(r, map[string]string{"id": "1"})
	w := httptest.NewRecorder()
	h.AcceptTrimHandler(w, r)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
