package media

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "video.mp4", "video.mp4"},
		{"whitespace to underscores", "my cool  video.mp4", "my_cool_video.mp4"},
		{"path components dropped", "../../etc/passwd", "passwd"},
		{"unsafe characters removed", "a<b>:c|d?.mp4", "abcd.mp4"},
		{"leading dots stripped", "...hidden.mp4", "hidden.mp4"},
		{"empty becomes unnamed", "", "unnamed"},
		{"only unsafe becomes unnamed", "<<>>??", "unnamed"},
		{"unicode removed", "видео.mp4", "mp4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{"video.mp4", "my cool video.webm", "...a b c...mp4"}
	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestSanitizeLengthCap(t *testing.T) {
	long := strings.Repeat("a", 200) + ".mp4"
	got := Sanitize(long)
	if len(got) > maxFilenameLength+len(".mp4") {
		t.Errorf("Sanitize did not cap length: got %d chars", len(got))
	}
	if !strings.HasSuffix(got, ".mp4") {
		t.Errorf("Sanitize dropped the extension: %q", got)
	}
}

func TestAllocateNoCollision(t *testing.T) {
	dir := t.TempDir()
	filename, path := Allocate(dir, "video.mp4")
	if filename != "video.mp4" {
		t.Errorf("expected unchanged filename, got %q", filename)
	}
	if path != filepath.Join(dir, "video.mp4") {
		t.Errorf("unexpected path %q", path)
	}
}

func TestAllocateCollision(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "video.mp4")
	if err := os.WriteFile(existing, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	filename, path := Allocate(dir, "video.mp4")
	if filename == "video.mp4" {
		t.Fatal("expected a suffixed filename on collision")
	}
	if !strings.HasPrefix(filename, "video_") || !strings.HasSuffix(filename, ".mp4") {
		t.Errorf("collision suffix should sit before the extension: %q", filename)
	}
	if _, err := os.Stat(path); err == nil {
		t.Errorf("allocated path %q already exists", path)
	}
}

func TestAllocateCollisionDistinct(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "video.mp4"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		filename, path := Allocate(dir, "video.mp4")
		if seen[filename] {
			t.Fatalf("Allocate produced duplicate filename %q", filename)
		}
		seen[filename] = true
		// Occupy the slot so the next allocation must diverge again.
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}
