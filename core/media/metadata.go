package media

import (
	"os"

	"github.com/dhowden/tag"
)

// ProbeAudioMetadata reads embedded tag metadata (ID3, MP4, FLAC comments)
// from an audio file. Missing or unreadable metadata returns empty strings;
// it only ever fills in defaults.
func ProbeAudioMetadata(path string) (title, artist string) {
	f, err := os.Open(path)
	if err != nil {
		return "", ""
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return "", ""
	}
	return m.Title(), m.Artist()
}
