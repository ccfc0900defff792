package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ai-video-orchestrator/internal/config"
	"ai-video-orchestrator/internal/domain"
	"ai-video-orchestrator/internal/domain/model"
	"ai-video-orchestrator/internal/domain/ports/adapter"
)

var _ adapter.MediaProcessor = (*FFmpegProcessor)(nil)

const maxStderrTail = 512 // bytes of ffmpeg output kept in errors

var scalePattern = regexp.MustCompile(`^(\d+)x(\d+)$`)

// FFmpegProcessor applies edit instructions by running the ffmpeg binary.
type FFmpegProcessor struct {
	bin       string
	timeout   time.Duration
	outputDir string
	logger    zerolog.Logger
}

func NewFFmpegProcessor(cfg config.MediaConfig, logger *zerolog.Logger) *FFmpegProcessor {
	return &FFmpegProcessor{
		bin:       cfg.FFmpegPath,
		timeout:   cfg.Timeout,
		outputDir: cfg.OutputDir,
		logger:    logger.With().Str("component", "FFmpegProcessor").Logger(),
	}
}

func (p *FFmpegProcessor) Process(ctx context.Context, inputPath string, edits model.EditInstructions) (string, error) {
	if edits.IsZero() {
		return inputPath, nil
	}
	out := p.outputPath(inputPath)
	args, err := buildArgs(inputPath, out, edits)
	if err != nil {
		return "", err
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	start := time.Now()
	cmd := exec.CommandContext(ctx, p.bin, args...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: ffmpeg: %v: %s", domain.ErrMediaProcessing, err, tail(output.String()))
	}
	p.logger.Debug().Str("input", inputPath).Str("output", out).Dur("duration", time.Since(start)).Msg("media processed")
	return out, nil
}

func (p *FFmpegProcessor) outputPath(input string) string {
	dir := p.outputDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(filepath.Base(input), ext)
	return filepath.Join(dir, base+"_edited"+ext)
}

// buildArgs renders edits as ffmpeg arguments. TrimEnd is the output end position
// measured from the start of the input.
func buildArgs(input, output string, e model.EditInstructions) ([]string, error) {
	if e.TrimStart < 0 || e.TrimEnd < 0 {
		return nil, fmt.Errorf("%w: negative trim", domain.ErrMediaProcessing)
	}
	if e.TrimEnd > 0 && e.TrimEnd <= e.TrimStart {
		return nil, fmt.Errorf("%w: trim end %s not after start %s", domain.ErrMediaProcessing, e.TrimEnd, e.TrimStart)
	}

	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", input}
	if e.TrimStart > 0 {
		args = append(args, "-ss", seconds(e.TrimStart))
	}
	if e.TrimEnd > 0 {
		args = append(args, "-to", seconds(e.TrimEnd))
	}
	if e.Scale != "" {
		m := scalePattern.FindStringSubmatch(e.Scale)
		if m == nil {
			return nil, fmt.Errorf("%w: scale %q is not WIDTHxHEIGHT", domain.ErrMediaProcessing, e.Scale)
		}
		args = append(args, "-vf", "scale="+m[1]+":"+m[2], "-c:v", "libx264")
	} else {
		args = append(args, "-c:v", "copy")
	}
	if e.Mute {
		args = append(args, "-an")
	} else {
		args = append(args, "-c:a", "copy")
	}
	return append(args, output), nil
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderrTail {
		return "..." + s[len(s)-maxStderrTail:]
	}
	return s
}
