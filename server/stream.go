package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"vidshare/logger"
)

// parseRange interprets a Range header against a file of the given size.
// Only the first range expression is honored; suffix ranges are not
// supported. Returns ok=false when the header should be ignored entirely and
// the full file served.
func parseRange(header string, size int64) (start, end int64, ok, satisfiable bool) {
	spec := strings.TrimPrefix(header, "bytes=")
	if spec == header {
		return 0, 0, false, false
	}
	// First expression only; multi-range responses are out of scope.
	if i := strings.Index(spec, ","); i >= 0 {
		spec = spec[:i]
	}
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false, false
	}

	start, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil || start < 0 {
		return 0, 0, false, false
	}

	end = size - 1
	if s := strings.TrimSpace(parts[1]); s != "" {
		end, err = strconv.ParseInt(s, 10, 64)
		if err != nil || end < 0 {
			return 0, 0, false, false
		}
	}

	if start > end || start >= size {
		return start, end, true, false
	}
	if end >= size {
		end = size - 1
	}
	return start, end, true, true
}

// serveFileRange streams a file honoring single-range requests. Both video
// and audio streaming go through here; only the MIME table differs.
func serveFileRange(w http.ResponseWriter, r *http.Request, path, contentType string) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			respondWithError(w, http.StatusNotFound, "media file not found")
			return
		}
		logger.Error("Failed to open media file",
			logger.String("path", path),
			logger.ErrorField(err))
		respondWithError(w, http.StatusInternalServerError, "failed to open media file")
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to stat media file")
		return
	}
	size := info.Size()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Accept-Ranges", "bytes")

	rangeHeader := r.Header.Get("Range")
	if rangeHeader == "" {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		io.Copy(w, file)
		return
	}

	start, end, ok, satisfiable := parseRange(rangeHeader, size)
	if !ok {
		// A header we cannot parse is treated as absent.
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		io.Copy(w, file)
		return
	}
	if !satisfiable {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	if _, err := file.Seek(start, io.SeekStart); err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to seek media file")
		return
	}

	length := end - start + 1
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
	w.WriteHeader(http.StatusPartialContent)
	if _, err := io.CopyN(w, file, length); err != nil {
		// Client disconnects mid-stream are routine.
		logger.Debug("Range copy ended early",
			logger.String("path", path),
			logger.ErrorField(err))
	}
}
