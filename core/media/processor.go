package media

// Processor wraps the external media tool. All operations run synchronously
// within the calling request; a tool failure aborts the enclosing operation.
type Processor interface {
	// ConvertWebMToMP4 converts input to an MP4 next to it and returns the new
	// path. The source file is deleted only after a successful conversion.
	ConvertWebMToMP4(input string) (string, error)

	// ProbeDuration returns the media duration in seconds, falling back from
	// per-stream duration to container duration. A missing duration yields 0
	// without an error; a failed probe is an error.
	ProbeDuration(input string) (float64, error)

	// ExtractThumbnail writes a single frame from the midpoint of duration
	// (the first frame when duration is 0), scaled to a fixed width.
	ExtractThumbnail(input, output string, duration float64) error

	// Trim stream-copies the [start,end] span of input into output without
	// re-encoding. The caller validates 0 <= start < end.
	Trim(input, output string, start, end float64) error

	// ExtractAudio re-encodes input's audio into an MP3 at output.
	ExtractAudio(input, output string) error
}
