package media

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"vidshare/logger"
)

// FFmpegProcessor implements Processor using ffmpeg/ffprobe.
type FFmpegProcessor struct {
	ffmpegPath   string
	videoBitrate string
	audioBitrate string
}

// NewFFmpegProcessor creates a new FFmpegProcessor. The ffprobe binary is
// assumed to live next to ffmpeg.
func NewFFmpegProcessor(ffmpegPath, videoBitrate, audioBitrate string) *FFmpegProcessor {
	return &FFmpegProcessor{
		ffmpegPath:   ffmpegPath,
		videoBitrate: videoBitrate,
		audioBitrate: audioBitrate,
	}
}

func (p *FFmpegProcessor) ffprobePath() string {
	return strings.Replace(p.ffmpegPath, "ffmpeg", "ffprobe", 1)
}

func (p *FFmpegProcessor) run(bin string, args []string) ([]byte, error) {
	cmd := exec.Command(bin, args...)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s execution failed: %w\nTool output: %s", bin, err, stderr.String())
	}
	return out.Bytes(), nil
}

// ConvertWebMToMP4 converts a WebM file to MP4 with h264/aac at the
// configured bitrate ceiling and removes the source on success.
func (p *FFmpegProcessor) ConvertWebMToMP4(input string) (string, error) {
	output := strings.TrimSuffix(input, ".webm") + ".mp4"

	args := []string{
		"-i", input,
		"-c:v", "h264",
		"-c:a", "aac",
		"-b:v", p.videoBitrate,
		"-y",
		output,
	}
	if _, err := p.run(p.ffmpegPath, args); err != nil {
		return "", fmt.Errorf("failed to convert %s to mp4: %w", input, err)
	}

	if err := os.Remove(input); err != nil {
		logger.Warn("Could not remove source after conversion",
			logger.String("input", input),
			logger.ErrorField(err))
	}
	return output, nil
}

type probeOutput struct {
	Streams []struct {
		Duration string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeDuration inspects the container for a duration value. Per-stream
// duration wins; otherwise the container-level value is used; otherwise 0.
func (p *FFmpegProcessor) ProbeDuration(input string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "stream=duration:format=duration",
		"-of", "json",
		input,
	}
	out, err := p.run(p.ffprobePath(), args)
	if err != nil {
		return 0, fmt.Errorf("failed to probe %s: %w", input, err)
	}

	var probe probeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return 0, fmt.Errorf("failed to unmarshal ffprobe output for %s: %w", input, err)
	}

	for _, s := range probe.Streams {
		if s.Duration != "" {
			if d, err := strconv.ParseFloat(s.Duration, 64); err == nil {
				return d, nil
			}
		}
	}
	if probe.Format.Duration != "" {
		if d, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
			return d, nil
		}
	}

	// Degraded mode: thumbnail extraction will use the first frame.
	logger.Warn("No duration found in probe output", logger.String("input", input))
	return 0, nil
}

// ExtractThumbnail emits one frame from the midpoint of duration, scaled to
// 320px width preserving aspect ratio.
func (p *FFmpegProcessor) ExtractThumbnail(input, output string, duration float64) error {
	seek := 0.0
	if duration > 0 {
		seek = duration / 2
	}

	args := []string{
		"-ss", strconv.FormatFloat(seek, 'f', 3, 64),
		"-i", input,
		"-vf", "scale=320:-1",
		"-frames:v", "1",
		"-y",
		output,
	}
	if _, err := p.run(p.ffmpegPath, args); err != nil {
		return fmt.Errorf("failed to extract thumbnail from %s: %w", input, err)
	}
	return nil
}

// Trim stream-copies [start,end] seconds of input into output.
func (p *FFmpegProcessor) Trim(input, output string, start, end float64) error {
	args := []string{
		"-ss", strconv.FormatFloat(start, 'f', 3, 64),
		"-to", strconv.FormatFloat(end, 'f', 3, 64),
		"-i", input,
		"-c", "copy",
		"-y",
		output,
	}
	if _, err := p.run(p.ffmpegPath, args); err != nil {
		return fmt.Errorf("failed to trim %s: %w", input, err)
	}
	return nil
}

// ExtractAudio re-encodes the audio stream of input into an MP3.
func (p *FFmpegProcessor) ExtractAudio(input, output string) error {
	args := []string{
		"-i", input,
		"-acodec", "libmp3lame",
		"-b:a", p.audioBitrate,
		"-y",
		output,
	}
	if _, err := p.run(p.ffmpegPath, args); err != nil {
		return fmt.Errorf("failed to extract audio from %s: %w", input, err)
	}
	return nil
}
