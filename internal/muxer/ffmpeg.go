package muxer

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"bookreel/internal/logging"
)

// FFmpeg assembles clips with an external ffmpeg subprocess.
type FFmpeg struct {
	binary string
	style  Style
	logger *slog.Logger
}

// Option customizes the assembler.
type Option func(*FFmpeg)

// WithBinary overrides the ffmpeg binary path.
func WithBinary(path string) Option {
	return func(f *FFmpeg) {
		if strings.TrimSpace(path) != "" {
			f.binary = path
		}
	}
}

// WithStyle overrides the subtitle rendering style.
func WithStyle(style Style) Option {
	return func(f *FFmpeg) {
		f.style = style
	}
}

// NewFFmpeg constructs the ffmpeg-backed assembler.
func NewFFmpeg(logger *slog.Logger, opts ...Option) *FFmpeg {
	f := &FFmpeg{
		binary: "ffmpeg",
		style:  DefaultStyle(),
		logger: logging.NewComponentLogger(logger, "muxer"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Style returns the subtitle style the assembler renders with.
func (f *FFmpeg) Style() Style {
	return f.style
}

// Assemble concatenates the scene clips in order and burns in the subtitle
// track when one is provided.
func (f *FFmpeg) Assemble(req AssembleRequest) error {
	if len(req.ScenePaths) == 0 {
		return errors.New("muxer: no scene clips to assemble")
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return errors.New("muxer: output path required")
	}

	workDir := filepath.Dir(req.OutputPath)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("muxer: create output directory: %w", err)
	}

	listPath := filepath.Join(workDir, "scenes_concat.txt")
	if err := os.WriteFile(listPath, []byte(concatList(req.ScenePaths)), 0o644); err != nil {
		return fmt.Errorf("muxer: write concat list: %w", err)
	}
	defer os.Remove(listPath)

	args := assembleArgs(listPath, req.SubtitlePath, req.OutputPath, f.style)
	f.logger.Debug("running ffmpeg",
		logging.String("binary", f.binary),
		logging.String("args", strings.Join(args, " ")))

	cmd := exec.Command(f.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("muxer: ffmpeg failed: %w: %s", err, tail(string(output), 400))
	}

	f.logger.Info("final clip assembled",
		logging.String(logging.FieldEventType, "clip_assembled"),
		logging.String("output", req.OutputPath),
		logging.Int("scene_count", len(req.ScenePaths)))
	return nil
}

// concatList renders the ffmpeg concat-demuxer list file.
func concatList(paths []string) string {
	var b strings.Builder
	for _, path := range paths {
		fmt.Fprintf(&b, "file '%s'\n", path)
	}
	return b.String()
}

func assembleArgs(listPath, subtitlePath, outputPath string, style Style) []string {
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
	}
	filters := []string{"setsar=1"}
	if strings.TrimSpace(subtitlePath) != "" {
		filters = append(filters, fmt.Sprintf(
			"subtitles=%s:force_style='FontSize=%d,Alignment=2,MarginV=80'",
			subtitlePath, style.FontSize))
	}
	args = append(args,
		"-vf", strings.Join(filters, ","),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "22",
		"-pix_fmt", "yuv420p",
		outputPath,
	)
	return args
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
