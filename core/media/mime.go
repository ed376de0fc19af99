package media

import (
	"path/filepath"
	"strings"
)

// Uploaded filenames are not authoritative of the actual encoding, so content
// types are inferred from the stored extension via explicit tables.

var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".webm": "video/webm",
}

var audioTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".mp4":  "audio/mp4",
	".aac":  "audio/mp4",
}

const fallbackType = "application/octet-stream"

// VideoContentType infers the content type for a stored video file.
func VideoContentType(path string) string {
	if t, ok := videoTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return t
	}
	return fallbackType
}

// AudioContentType infers the content type for a stored audio file.
func AudioContentType(path string) string {
	if t, ok := audioTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return t
	}
	return fallbackType
}

// AllowedVideoExts is the upload allowlist for video files.
var AllowedVideoExts = map[string]bool{
	".mp4":  true,
	".webm": true,
}

// AllowedAudioExts is the upload allowlist for audio files.
var AllowedAudioExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".ogg":  true,
	".oga":  true,
	".flac": true,
	".m4a":  true,
	".aac":  true,
}

// AllowedImageExts is the upload allowlist for cover art and avatars.
var AllowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// Ext returns the lower-cased extension of a filename.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}
