package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Processor executes compiled watermark commands against the external
// ffmpeg binary and probes media metadata with ffprobe.
type Processor struct {
	ffmpegPath  string
	ffprobePath string
	timeout     time.Duration
	logger      *zap.Logger
}

// Attempt records one ffmpeg invocation for one escaping strategy.
type Attempt struct {
	Strategy string
	Duration time.Duration
	Err      error
}

// RunResult reports which strategy succeeded and every attempt made on the
// way there.
type RunResult struct {
	Strategy string
	Attempts []Attempt
}

// NewProcessor creates a processor. Empty paths fall back to the binaries on
// PATH; a non-positive timeout falls back to five minutes per attempt.
func NewProcessor(ffmpegPath, ffprobePath string, timeout time.Duration, logger *zap.Logger) *Processor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Processor{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		timeout:     timeout,
		logger:      logger,
	}
}

// Available reports whether the ffmpeg binary can be executed. A negative
// answer puts the daemon in degraded mode: video jobs are skipped, images
// keep working.
func (p *Processor) Available() bool {
	return exec.Command(p.ffmpegPath, "-version").Run() == nil
}

// Run executes the candidate commands in order and accepts the first whose
// execution exits zero. A timeout counts as a strategy failure, not a job
// failure; the next candidate is attempted. When every candidate fails the
// last observed error is propagated.
func (p *Processor) Run(ctx context.Context, candidates []CandidateCommand) (*RunResult, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidate commands to execute")
	}

	result := &RunResult{}
	var lastErr error

	for _, candidate := range candidates {
		p.logger.Info("Trying watermark strategy",
			zap.String("strategy", candidate.Strategy),
			zap.Strings("args", candidate.Args),
		)

		attemptCtx, cancel := context.WithTimeout(ctx, p.timeout)
		start := time.Now()

		cmd := exec.CommandContext(attemptCtx, p.ffmpegPath, candidate.Args...)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr

		err := cmd.Run()
		cancel()
		elapsed := time.Since(start)

		if err != nil {
			if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
				err = fmt.Errorf("timed out after %s", p.timeout)
			} else if msg := trimStderr(stderr.String()); msg != "" {
				err = fmt.Errorf("%w: %s", err, msg)
			}
			lastErr = fmt.Errorf("strategy %s: %w", candidate.Strategy, err)
			result.Attempts = append(result.Attempts, Attempt{candidate.Strategy, elapsed, err})
			p.logger.Warn("Watermark strategy failed",
				zap.String("strategy", candidate.Strategy),
				zap.Error(err),
			)
			continue
		}

		result.Strategy = candidate.Strategy
		result.Attempts = append(result.Attempts, Attempt{candidate.Strategy, elapsed, nil})
		p.logger.Info("Watermark strategy succeeded",
			zap.String("strategy", candidate.Strategy),
			zap.Duration("duration", elapsed),
		)
		return result, nil
	}

	return nil, fmt.Errorf("all watermarking strategies failed: %w", lastErr)
}

// ProbeDuration returns a file's duration in seconds using ffprobe.
func (p *Processor) ProbeDuration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}

	output, err := exec.CommandContext(ctx, p.ffprobePath, args...).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected ffprobe output %q: %w", strings.TrimSpace(string(output)), err)
	}
	return duration, nil
}

// trimStderr keeps error messages log-sized. ffmpeg prints its whole
// configuration banner on failure; only the tail carries the actual error.
func trimStderr(s string) string {
	s = strings.TrimSpace(s)
	const max = 500
	if len(s) > max {
		s = "..." + s[len(s)-max:]
	}
	return s
}
