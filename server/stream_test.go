package server

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestParseRange(t *testing.T) {
	const size = 1000
	tests := []struct {
		name        string
		header      string
		start, end  int64
		ok          bool
		satisfiable bool
	}{
		{"closed range", "bytes=0-99", 0, 99, true, true},
		{"open-ended", "bytes=500-", 500, 999, true, true},
		{"end clamped to size", "bytes=900-5000", 900, 999, true, true},
		{"single byte", "bytes=0-0", 0, 0, true, true},
		{"last byte", "bytes=999-999", 999, 999, true, true},
		{"start past end of file", "bytes=1000-", 0, 0, true, false},
		{"inverted", "bytes=200-100", 0, 0, true, false},
		{"missing unit", "0-99", 0, 0, false, false},
		{"suffix range unsupported", "bytes=-500", 0, 0, false, false},
		{"garbage", "bytes=abc", 0, 0, false, false},
		{"first of multiple ranges", "bytes=0-49,100-199", 0, 49, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, ok, satisfiable := parseRange(tt.header, size)
			if ok != tt.ok || satisfiable != tt.satisfiable {
				t.Fatalf("parseRange(%q) ok=%v satisfiable=%v, want ok=%v satisfiable=%v",
					tt.header, ok, satisfiable, tt.ok, tt.satisfiable)
			}
			if ok && satisfiable && (start != tt.start || end != tt.end) {
				t.Errorf("parseRange(%q) = [%d, %d], want [%d, %d]",
					tt.header, start, end, tt.start, tt.end)
			}
		})
	}
}

func writeStreamFixture(t *testing.T, size int) string {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestServeFileRangeFull(t *testing.T) {
	path := writeStreamFixture(t, 1000)

	r := httptest.NewRequest(http.MethodGet, "/stream/video/1", nil)
	w := httptest.NewRecorder()
	serveFileRange(w, r, path, "video/mp4")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "video/mp4" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := w.Header().Get("Accept-Ranges"); got != "bytes" {
		t.Errorf("Accept-Ranges = %q", got)
	}
	if got := w.Header().Get("Content-Length"); got != "1000" {
		t.Errorf("Content-Length = %q", got)
	}
	if w.Body.Len() != 1000 {
		t.Errorf("body length = %d", w.Body.Len())
	}
}

func TestServeFileRangePartial(t *testing.T) {
	path := writeStreamFixture(t, 1000)

	r := httptest.NewRequest(http.MethodGet, "/stream/video/1", nil)
	r.Header.Set("Range", "bytes=100-199")
	w := httptest.NewRecorder()
	serveFileRange(w, r, path, "video/mp4")

	if w.Code != http.StatusPartialContent {
		t.Fatalf("expected 206, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Range"); got != "bytes 100-199/1000" {
		t.Errorf("Content-Range = %q", got)
	}
	if got := w.Header().Get("Content-Length"); got != "100" {
		t.Errorf("Content-Length = %q", got)
	}
	want := make([]byte, 100)
	for i := range want {
		want[i] = byte((100 + i) % 251)
	}
	if !bytes.Equal(w.Body.Bytes(), want) {
		t.Error("partial body does not match the requested slice")
	}
}

func TestServeFileRangeOpenEnded(t *testing.T) {
	path := writeStreamFixture(t, 1000)

	r := httptest.NewRequest(http.MethodGet, "/stream/video/1", nil)
	r.Header.Set("Range", "bytes=950-")
	w := httptest.NewRecorder()
	serveFileRange(w, r, path, "video/mp4")

	if w.Code != http.StatusPartialContent {
		t.Fatalf("expected 206, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Range"); got != "bytes 950-999/1000" {
		t.Errorf("Content-Range = %q", got)
	}
	if w.Body.Len() != 50 {
		t.Errorf("body length = %d", w.Body.Len())
	}
}

func TestServeFileRangeUnsatisfiable(t *testing.T) {
	path := writeStreamFixture(t, 1000)

	for _, header := range []string{"bytes=1000-", "bytes=5000-6000", "bytes=300-200"} {
		r := httptest.NewRequest(http.MethodGet, "/stream/video/1", nil)
		r.Header.Set("Range", header)
		w := httptest.NewRecorder()
		serveFileRange(w, r, path, "video/mp4")

		if w.Code != http.StatusRequestedRangeNotSatisfiable {
			t.Errorf("Range %q: expected 416, got %d", header, w.Code)
		}
		if got := w.Header().Get("Content-Range"); got != fmt.Sprintf("bytes */%d", 1000) {
			t.Errorf("Range %q: Content-Range = %q", header, got)
		}
	}
}

func TestServeFileRangeMalformedServesFull(t *testing.T) {
	path := writeStreamFixture(t, 1000)

	for _, header := range []string{"bytes=abc", "bytes=-500", "0-99"} {
		r := httptest.NewRequest(http.MethodGet, "/stream/video/1", nil)
		r.Header.Set("Range", header)
		w := httptest.NewRecorder()
		serveFileRange(w, r, path, "video/mp4")

		if w.Code != http.StatusOK {
			t.Errorf("Range %q: expected 200, got %d", header, w.Code)
		}
		if w.Body.Len() != 1000 {
			t.Errorf("Range %q: body length = %d", header, w.Body.Len())
		}
	}
}

func TestServeFileRangeMissingFile(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/stream/video/1", nil)
	w := httptest.NewRecorder()
	serveFileRange(w, r, filepath.Join(t.TempDir(), "nope.mp4"), "video/mp4")

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
