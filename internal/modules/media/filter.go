package media

import (
	"fmt"
	"strings"

	"github.com/KaustubhAChavan/watermark-app/internal/shared/config"
)

// Escaping strategy names, in the order they are attempted.
const (
	StrategyStandard = "standard"
	StrategySimple   = "simple"
	StrategyBasic    = "basic"
)

// CompileRequest describes one video watermark render.
type CompileRequest struct {
	InputPath  string
	OutputPath string
	AudioPath  string  // optional replacement audio track
	Duration   float64 // clip duration in seconds; drives the moving position and audio looping
	Watermark  config.Watermark
}

// CandidateCommand is a fully-formed ffmpeg argument list (binary name
// excluded) plus the escaping strategy that produced it. Candidates are
// immutable; a failed attempt is replaced by the next candidate, never
// mutated and retried.
type CandidateCommand struct {
	Strategy string
	Args     []string
}

type escapeStrategy struct {
	name   string
	escape func(string) string
}

// Strategies ordered most-faithful first. The drawtext filter treats `:` as
// the parameter separator and a handful of other characters as syntax, so
// each strategy trades a little more fidelity for a little more safety.
var escapeStrategies = []escapeStrategy{
	{StrategyStandard, escapeStandard},
	{StrategySimple, escapeSimple},
	{StrategyBasic, escapeBasic},
}

// escapeStandard converts line breaks to the literal two-character `\n`
// sequence, then backslash-escapes each drawtext special character. The
// order is fixed: newlines first, then : ' " = [ ] one at a time.
func escapeStandard(text string) string {
	escaped := strings.ReplaceAll(text, "\n", `\n`)
	for _, ch := range []string{`:`, `'`, `"`, `=`, `[`, `]`} {
		escaped = strings.ReplaceAll(escaped, ch, `\`+ch)
	}
	return escaped
}

// escapeSimple uses the doubled-backslash newline form and escapes colons
// only. Some ffmpeg builds accept this where the standard form fails.
func escapeSimple(text string) string {
	escaped := strings.ReplaceAll(text, "\n", `\\n`)
	return strings.ReplaceAll(escaped, ":", `\:`)
}

// escapeBasic is lossy but always syntactically safe: line breaks become a
// visible separator and colons are removed outright.
func escapeBasic(text string) string {
	escaped := strings.ReplaceAll(text, "\n", " | ")
	return strings.ReplaceAll(escaped, ":", "")
}

// Compile turns a watermark spec into an ordered list of candidate ffmpeg
// commands, one per escaping strategy. The caller executes them in order and
// accepts the first that exits zero. Compile performs no I/O.
func Compile(req CompileRequest) ([]CandidateCommand, error) {
	if strings.TrimSpace(strings.ReplaceAll(req.Watermark.Text, "\n", "")) == "" {
		return nil, fmt.Errorf("watermark text is empty")
	}

	candidates := make([]CandidateCommand, 0, len(escapeStrategies))
	for _, strategy := range escapeStrategies {
		filter := buildDrawtext(strategy.escape(req.Watermark.Text), req)
		candidates = append(candidates, CandidateCommand{
			Strategy: strategy.name,
			Args:     buildArgs(req, filter),
		})
	}
	return candidates, nil
}

// buildDrawtext assembles the filter-graph expression from discrete
// key=value segments joined by `:`. The escaped text is one segment; it is
// never interpolated into a larger preformatted string, so a correctly
// escaped value cannot collide with parameter boundaries added elsewhere.
func buildDrawtext(escapedText string, req CompileRequest) string {
	w := req.Watermark

	parts := []string{
		"text=" + escapedText,
		fmt.Sprintf("fontsize=%d", w.FontSize),
		fmt.Sprintf("fontcolor=%s@0.7", w.FontColor.Hex()),
	}

	if w.BackgroundColor != nil {
		parts = append(parts,
			"box=1",
			fmt.Sprintf("boxcolor=%s@0.5", w.BackgroundColor.Hex()),
			fmt.Sprintf("boxborderw=%d", w.Padding),
		)
	}

	switch {
	case w.Moving && req.Duration > 0:
		// Slide from the top margin down to the bottom margin over the
		// whole clip.
		parts = append(parts,
			fmt.Sprintf("x=w-tw-%d", w.Margin),
			fmt.Sprintf("y=%d+(h-th-%d)*t/%.2f", w.Margin, 2*w.Margin, req.Duration),
		)
	case w.Position == config.PositionCenter:
		parts = append(parts, "x=(w-tw)/2", "y=(h-th)/2")
	default:
		parts = append(parts,
			fmt.Sprintf("x=w-tw-%d", w.Margin),
			fmt.Sprintf("y=h-th-%d", w.Margin),
		)
	}

	return "drawtext=" + strings.Join(parts, ":")
}

// buildArgs produces the full ffmpeg argument list for one candidate. With a
// replacement audio track the video maps from input 0 and the audio from
// input 1, looping the audio so it covers the clip and cutting at the
// shorter stream.
func buildArgs(req CompileRequest, filter string) []string {
	args := []string{"-y", "-i", req.InputPath}

	if req.AudioPath != "" {
		args = append(args,
			"-stream_loop", "-1",
			"-i", req.AudioPath,
			"-map", "0:v",
			"-map", "1:a",
			"-vf", filter,
			"-c:a", "aac",
			"-shortest",
		)
	} else {
		args = append(args,
			"-vf", filter,
			"-c:a", "copy",
		)
	}

	return append(args, req.OutputPath)
}
