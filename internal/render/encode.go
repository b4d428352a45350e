package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

var (
	ErrEncoding       = errors.New("encoding failed")
	ErrEncoderMissing = errors.New("ffmpeg not found")
)

var (
	ffmpegLookPath = exec.LookPath
	ffmpegRun      = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		cmd := exec.CommandContext(ctx, name, args...)
		cmd.Stdin = nil
		return cmd.CombinedOutput()
	}
)

// EncodeError reports a failed ffmpeg pass. The frames that were being
// encoded are left in place.
type EncodeError struct {
	Stage    string
	Args     []string
	ExitCode int
	Output   string
	Err      error
}

func (e *EncodeError) Error() string {
	msg := fmt.Sprintf("ffmpeg %s failed (exit %d): %v", e.Stage, e.ExitCode, e.Err)
	if out := lastLines(e.Output, 5); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *EncodeError) Unwrap() []error {
	return []error{ErrEncoding, e.Err}
}

// Encoder assembles numbered frames into an animation with ffmpeg.
type Encoder struct {
	FFmpeg  string // executable name or path
	FPS     int
	Palette string // GIF palette image; defaults to palette.png next to the output
	Logger  *log.Logger
}

func NewEncoder(fps int) *Encoder {
	return &Encoder{FFmpeg: "ffmpeg", FPS: fps}
}

// Encode writes out from framesDir/%04d.png. A .gif output is made in two
// passes through a generated palette; anything else is a single pass.
func (e *Encoder) Encode(ctx context.Context, framesDir, out string) error {
	if _, err := os.Stat(filepath.Join(framesDir, FrameName(0))); err != nil {
		return fmt.Errorf("%w: no frames in %s: %w", ErrEncoding, framesDir, err)
	}

	name := e.FFmpeg
	if name == "" {
		name = "ffmpeg"
	}
	bin, err := ffmpegLookPath(name)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncoderMissing, err)
	}

	input := filepath.Join(framesDir, FramePattern)
	fps := strconv.Itoa(e.FPS)

	if !strings.EqualFold(filepath.Ext(out), ".gif") {
		return e.run(ctx, "encode", bin, "-framerate", fps, "-i", input, "-loop", "0", "-y", out)
	}

	palette := e.Palette
	if palette == "" {
		palette = filepath.Join(filepath.Dir(out), "palette.png")
	}
	if err := e.run(ctx, "palettegen", bin, "-i", input, "-vf", "palettegen", palette, "-y"); err != nil {
		return err
	}
	return e.run(ctx, "paletteuse", bin,
		"-thread_queue_size", "1024", "-framerate", fps, "-i", input,
		"-i", palette, "-lavfi", "paletteuse", out, "-y")
}

func (e *Encoder) run(ctx context.Context, stage, bin string, args ...string) error {
	logger := e.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Info("running ffmpeg", "stage", stage)
	logger.Debug("ffmpeg args", "args", strings.Join(args, " "))

	output, err := ffmpegRun(ctx, bin, args...)
	if err == nil {
		return nil
	}

	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return &EncodeError{
		Stage:    stage,
		Args:     args,
		ExitCode: code,
		Output:   strings.TrimSpace(string(output)),
		Err:      err,
	}
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
