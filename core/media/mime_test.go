package media

import "testing"

func TestVideoContentType(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"clip.mp4", "video/mp4"},
		{"clip.webm", "video/webm"},
		{"CLIP.MP4", "video/mp4"},
		{"clip.mkv", "application/octet-stream"},
		{"noext", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := VideoContentType(tt.path); got != tt.want {
			t.Errorf("VideoContentType(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestAudioContentType(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"song.mp3", "audio/mpeg"},
		{"song.wav", "audio/wav"},
		{"song.ogg", "audio/ogg"},
		{"song.oga", "audio/ogg"},
		{"song.flac", "audio/flac"},
		{"song.m4a", "audio/mp4"},
		{"song.aac", "audio/mp4"},
		{"song.mp4", "audio/mp4"},
		{"song.txt", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := AudioContentType(tt.path); got != tt.want {
			t.Errorf("AudioContentType(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
