package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/KaustubhAChavan/watermark-app/internal/modules/jobs"
	"github.com/KaustubhAChavan/watermark-app/internal/modules/media"
	"github.com/KaustubhAChavan/watermark-app/internal/shared/config"
	"github.com/KaustubhAChavan/watermark-app/internal/shared/metrics"
	"github.com/KaustubhAChavan/watermark-app/internal/shared/storage"
	"go.uber.org/zap"
)

// ImageRenderer watermarks a still image file.
type ImageRenderer interface {
	Apply(inputPath, outputPath string) error
}

// VideoExecutor runs compiled candidate commands and probes durations.
// *media.Processor satisfies it.
type VideoExecutor interface {
	Run(ctx context.Context, candidates []media.CandidateCommand) (*media.RunResult, error)
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// Options bundles the pipeline's dependencies.
type Options struct {
	Config       *config.Config
	Store        *storage.Service
	Classifier   *Classifier
	Images       ImageRenderer
	Video        VideoExecutor
	VideoEnabled bool
	Recorder     *jobs.Recorder
	Metrics      *metrics.Metrics // optional
	Logger       *zap.Logger
}

// Pipeline drives a file from observation to a committed output. A single
// mutex serializes the render step process-wide; everything before it,
// including the idempotency check, runs without contention so racing events
// on an already-processed file both resolve to a cheap skip.
type Pipeline struct {
	cfg          *config.Config
	store        *storage.Service
	classifier   *Classifier
	images       ImageRenderer
	video        VideoExecutor
	videoEnabled bool
	recorder     *jobs.Recorder
	metrics      *metrics.Metrics
	logger       *zap.Logger

	renderMu sync.Mutex
}

// New creates a pipeline from its options.
func New(opts Options) *Pipeline {
	return &Pipeline{
		cfg:          opts.Config,
		store:        opts.Store,
		classifier:   opts.Classifier,
		images:       opts.Images,
		video:        opts.Video,
		videoEnabled: opts.VideoEnabled,
		recorder:     opts.Recorder,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
	}
}

// Process takes one candidate path through the job state machine and
// returns the resulting record. Job-level failures are contained here; they
// never propagate to the watcher loop.
func (p *Pipeline) Process(ctx context.Context, path string) jobs.Record {
	kind := p.classifier.Classify(path)

	if !p.store.Exists(path) {
		return p.skip(path, "", kind, "source no longer exists")
	}

	var outputRole storage.Role
	switch kind {
	case KindImage:
		outputRole = storage.RoleOutputImages
	case KindVideo:
		outputRole = storage.RoleOutputVideos
	case KindAudio:
		// Audio files feed the replacement-track matcher; they are not
		// watermark jobs themselves.
		return p.skip(path, "", kind, "audio input, not a watermark job")
	default:
		return p.skip(path, "", kind, "unsupported file format")
	}

	outputPath := p.store.OutputPath(outputRole, path)
	if p.store.Exists(outputPath) {
		return p.skip(path, outputPath, kind, "output already exists")
	}

	if kind == KindVideo && !p.videoEnabled {
		return p.skip(path, outputPath, kind, "video processing disabled, ffmpeg not available")
	}

	p.renderMu.Lock()
	defer p.renderMu.Unlock()

	// A racing event may have committed this output while we waited for
	// the lock; a file is rendered at most once.
	if p.store.Exists(outputPath) {
		return p.skip(path, outputPath, kind, "output already exists")
	}

	if p.metrics != nil {
		p.metrics.RecordJobStarted()
	}
	start := time.Now()

	var strategy string
	var err error
	switch kind {
	case KindImage:
		err = p.images.Apply(path, outputPath)
	case KindVideo:
		strategy, err = p.renderVideo(ctx, path, outputPath)
	}
	elapsed := time.Since(start)

	if err != nil {
		p.cleanup(outputPath)
		p.logger.Error("Failed to process file",
			zap.String("source", path),
			zap.String("output", outputPath),
			zap.Error(err),
		)
		if p.metrics != nil {
			p.metrics.RecordJobFinished(string(kind), string(jobs.OutcomeFailed), elapsed)
		}
		return p.recorder.Add(jobs.Record{
			Source:    path,
			Output:    outputPath,
			Kind:      string(kind),
			Outcome:   jobs.OutcomeFailed,
			Reason:    err.Error(),
			DurationS: elapsed.Seconds(),
		})
	}

	p.logger.Info("File processed",
		zap.String("source", path),
		zap.String("output", outputPath),
		zap.String("kind", string(kind)),
		zap.Duration("duration", elapsed),
	)
	if p.metrics != nil {
		p.metrics.RecordJobFinished(string(kind), string(jobs.OutcomeCommitted), elapsed)
	}
	return p.recorder.Add(jobs.Record{
		Source:    path,
		Output:    outputPath,
		Kind:      string(kind),
		Outcome:   jobs.OutcomeCommitted,
		Strategy:  strategy,
		DurationS: elapsed.Seconds(),
	})
}

// renderVideo compiles the candidate commands for a video job and executes
// them in order, returning the strategy that succeeded.
func (p *Pipeline) renderVideo(ctx context.Context, src, out string) (string, error) {
	req := media.CompileRequest{
		InputPath:  src,
		OutputPath: out,
		AudioPath:  p.matchAudio(src),
		Watermark:  p.cfg.Watermark,
	}

	if p.cfg.Watermark.Moving || req.AudioPath != "" {
		duration, err := p.video.ProbeDuration(ctx, src)
		if err != nil {
			p.logger.Warn("Duration probe failed, continuing without clip duration",
				zap.String("source", src),
				zap.Error(err),
			)
		} else {
			req.Duration = duration
		}
	}

	candidates, err := media.Compile(req)
	if err != nil {
		return "", err
	}

	result, err := p.video.Run(ctx, candidates)
	if err != nil {
		return "", err
	}
	if p.metrics != nil {
		for _, attempt := range result.Attempts {
			p.metrics.RecordStrategyAttempt(attempt.Strategy, attempt.Err == nil, attempt.Duration)
		}
	}
	return result.Strategy, nil
}

// matchAudio selects a replacement audio track for a video job: same base
// filename in the audio input role, else the first audio file present, else
// none. Recomputed per job, never cached.
func (p *Pipeline) matchAudio(videoPath string) string {
	if !p.store.HasRole(storage.RoleInputAudio) {
		return ""
	}

	files, err := p.store.List(storage.RoleInputAudio)
	if err != nil {
		p.logger.Warn("Failed to list audio input folder", zap.Error(err))
		return ""
	}

	videoBase := baseName(videoPath)
	first := ""
	for _, f := range files {
		if p.classifier.Classify(f) != KindAudio {
			continue
		}
		if strings.EqualFold(baseName(f), videoBase) {
			return f
		}
		if first == "" {
			first = f
		}
	}
	return first
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ProcessExisting runs every file already present in the input roles through
// the pipeline. Called once at startup, before the watcher takes over.
func (p *Pipeline) ProcessExisting(ctx context.Context) {
	for _, role := range []storage.Role{storage.RoleInputImages, storage.RoleInputVideos} {
		files, err := p.store.List(role)
		if err != nil {
			p.logger.Error("Failed to scan input folder",
				zap.String("role", string(role)),
				zap.Error(err),
			)
			continue
		}
		for _, f := range files {
			if ctx.Err() != nil {
				return
			}
			p.Process(ctx, f)
		}
	}
}

func (p *Pipeline) skip(source, output string, kind Kind, reason string) jobs.Record {
	p.logger.Info("Skipping file",
		zap.String("source", source),
		zap.String("reason", reason),
	)
	if p.metrics != nil {
		p.metrics.RecordJobSkipped(string(kind))
	}
	return p.recorder.Add(jobs.Record{
		Source:  source,
		Output:  output,
		Kind:    string(kind),
		Outcome: jobs.OutcomeSkipped,
		Reason:  reason,
	})
}

// cleanup removes a partially written output. It must never fail the job;
// deletion errors are logged and swallowed.
func (p *Pipeline) cleanup(outputPath string) {
	if err := p.store.RemoveIfExists(outputPath); err != nil {
		p.logger.Warn("Failed to remove partial output",
			zap.String("output", outputPath),
			zap.Error(err),
		)
	}
}
