package media

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var (
	whitespace  = regexp.MustCompile(`\s+`)
	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_\-\.]`)
)

const maxFilenameLength = 100

// Sanitize turns a user-supplied name into a filesystem-safe filename: path
// components are dropped, whitespace collapses to underscores, and anything
// outside [A-Za-z0-9_-.] is removed. Leading dots are stripped so the result
// is never hidden or a path traversal.
func Sanitize(name string) string {
	name = filepath.Base(name)
	name = whitespace.ReplaceAllString(name, "_")
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.TrimLeft(name, "._")

	if len(name) > maxFilenameLength {
		ext := filepath.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		keep := maxFilenameLength - len(ext)
		if keep < 1 {
			keep = 1
		}
		if len(stem) > keep {
			stem = stem[:keep]
		}
		name = stem + ext
	}
	if name == "" {
		name = "unnamed"
	}
	return name
}

const suffixCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomSuffix(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	for i := range b {
		b[i] = suffixCharset[int(b[i])%len(suffixCharset)]
	}
	return string(b)
}

// Allocate returns a sanitized filename for base that does not currently
// exist in dir, plus its full path. On collision it appends a
// seconds-resolution timestamp and a short random suffix before the
// extension. This is probabilistic collision avoidance, not a guarantee:
// callers must treat a subsequent write failure as fatal for the upload.
func Allocate(dir, base string) (string, string) {
	filename := Sanitize(base)
	path := filepath.Join(dir, filename)

	if _, err := os.Stat(path); err == nil {
		ext := filepath.Ext(filename)
		stem := strings.TrimSuffix(filename, ext)
		stamp := time.Now().Format("20060102_150405")
		filename = Sanitize(fmt.Sprintf("%s_%s_%s%s", stem, stamp, randomSuffix(4), ext))
		path = filepath.Join(dir, filename)
	}
	return filename, path
}
