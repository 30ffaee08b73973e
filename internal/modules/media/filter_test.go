package media

import (
	"strings"
	"testing"

	"github.com/KaustubhAChavan/watermark-app/internal/shared/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseRequest(text string) CompileRequest {
	return CompileRequest{
		InputPath:  "INPUT/videos/clip.mp4",
		OutputPath: "OUTPUT/videos/clip.mp4",
		Watermark: config.Watermark{
			Text:      text,
			FontSize:  36,
			FontColor: config.RGB{R: 0, G: 0, B: 0},
			Margin:    20,
		},
	}
}

// filterOf returns the -vf value of a candidate.
func filterOf(t *testing.T, c CandidateCommand) string {
	t.Helper()
	for i, arg := range c.Args {
		if arg == "-vf" {
			require.Less(t, i+1, len(c.Args))
			return c.Args[i+1]
		}
	}
	t.Fatalf("no -vf argument in %v", c.Args)
	return ""
}

// textValueOf extracts the text parameter value: everything between "text="
// and the first unescaped colon.
func textValueOf(t *testing.T, filter string) string {
	t.Helper()
	const prefix = "drawtext=text="
	require.True(t, strings.HasPrefix(filter, prefix), "filter %q", filter)
	rest := filter[len(prefix):]
	for i := 0; i < len(rest); i++ {
		if rest[i] == ':' && (i == 0 || rest[i-1] != '\\') {
			return rest[:i]
		}
	}
	return rest
}

func TestCompileStrategyOrder(t *testing.T) {
	candidates, err := Compile(baseRequest("hello"))
	require.NoError(t, err)
	require.Len(t, candidates, 3)
	assert.Equal(t, StrategyStandard, candidates[0].Strategy)
	assert.Equal(t, StrategySimple, candidates[1].Strategy)
	assert.Equal(t, StrategyBasic, candidates[2].Strategy)
}

func TestCompileEscaping(t *testing.T) {
	t.Run("standard escapes colon in text", func(t *testing.T) {
		candidates, err := Compile(baseRequest("contact: 123"))
		require.NoError(t, err)

		filter := filterOf(t, candidates[0])
		assert.Contains(t, filter, `contact\: 123`)
		assert.Equal(t, `contact\: 123`, textValueOf(t, filter))
	})

	t.Run("standard escapes newline and specials", func(t *testing.T) {
		candidates, err := Compile(baseRequest("Line1\nx='a' [b] c=\"d\""))
		require.NoError(t, err)

		got := textValueOf(t, filterOf(t, candidates[0]))
		assert.Equal(t, `Line1\nx\=\'a\' \[b\] c\=\"d\"`, got)
	})

	t.Run("simple uses doubled backslash newline and escapes colon only", func(t *testing.T) {
		candidates, err := Compile(baseRequest("Line1\ncontact: 123"))
		require.NoError(t, err)

		got := textValueOf(t, filterOf(t, candidates[1]))
		assert.Equal(t, `Line1\\ncontact\: 123`, got)
	})

	t.Run("basic replaces newlines and strips colons", func(t *testing.T) {
		candidates, err := Compile(baseRequest("Line1\ncontact: 123"))
		require.NoError(t, err)

		got := textValueOf(t, filterOf(t, candidates[2]))
		assert.Equal(t, "Line1 | contact 123", got)
		assert.NotContains(t, got, ":")
		assert.NotContains(t, got, `\`)
	})

	t.Run("no strategy leaves a bare colon in the text value", func(t *testing.T) {
		candidates, err := Compile(baseRequest("a:b\nc:d"))
		require.NoError(t, err)

		for _, c := range candidates {
			value := textValueOf(t, filterOf(t, c))
			for i := 0; i < len(value); i++ {
				if value[i] == ':' {
					require.Greater(t, i, 0, "strategy %s: leading bare colon in %q", c.Strategy, value)
					assert.Equal(t, byte('\\'), value[i-1],
						"strategy %s: bare colon in %q", c.Strategy, value)
				}
			}
		}
	})
}

func TestCompileParameters(t *testing.T) {
	t.Run("always includes size color and position", func(t *testing.T) {
		candidates, err := Compile(baseRequest("hello"))
		require.NoError(t, err)

		filter := filterOf(t, candidates[0])
		assert.Contains(t, filter, "fontsize=36")
		assert.Contains(t, filter, "fontcolor=0x000000@0.7")
		assert.Contains(t, filter, "x=w-tw-20")
		assert.Contains(t, filter, "y=h-th-20")
		assert.NotContains(t, filter, "box=")
	})

	t.Run("background color adds the box parameters", func(t *testing.T) {
		req := baseRequest("hello")
		req.Watermark.BackgroundColor = &config.RGB{R: 255, G: 255, B: 255}
		req.Watermark.Padding = 10

		candidates, err := Compile(req)
		require.NoError(t, err)

		filter := filterOf(t, candidates[0])
		assert.Contains(t, filter, "box=1")
		assert.Contains(t, filter, "boxcolor=0xFFFFFF@0.5")
		assert.Contains(t, filter, "boxborderw=10")
	})

	t.Run("center position", func(t *testing.T) {
		req := baseRequest("hello")
		req.Watermark.Position = config.PositionCenter

		candidates, err := Compile(req)
		require.NoError(t, err)

		filter := filterOf(t, candidates[0])
		assert.Contains(t, filter, "x=(w-tw)/2")
		assert.Contains(t, filter, "y=(h-th)/2")
	})

	t.Run("moving watermark interpolates over the clip duration", func(t *testing.T) {
		req := baseRequest("hello")
		req.Watermark.Moving = true
		req.Duration = 12.5

		candidates, err := Compile(req)
		require.NoError(t, err)

		filter := filterOf(t, candidates[0])
		assert.Contains(t, filter, "y=20+(h-th-40)*t/12.50")
	})

	t.Run("moving without a known duration falls back to static", func(t *testing.T) {
		req := baseRequest("hello")
		req.Watermark.Moving = true

		candidates, err := Compile(req)
		require.NoError(t, err)
		assert.Contains(t, filterOf(t, candidates[0]), "y=h-th-20")
	})
}

func TestCompileArgs(t *testing.T) {
	t.Run("plain render copies the audio stream", func(t *testing.T) {
		candidates, err := Compile(baseRequest("hello"))
		require.NoError(t, err)

		args := candidates[0].Args
		assert.Equal(t, "-y", args[0])
		assert.Equal(t, []string{"-i", "INPUT/videos/clip.mp4"}, args[1:3])
		assert.Contains(t, args, "-c:a")
		assert.Contains(t, args, "copy")
		assert.Equal(t, "OUTPUT/videos/clip.mp4", args[len(args)-1])
	})

	t.Run("audio replacement maps both inputs and loops the audio", func(t *testing.T) {
		req := baseRequest("hello")
		req.AudioPath = "INPUT/audio/clip.mp3"

		candidates, err := Compile(req)
		require.NoError(t, err)

		joined := strings.Join(candidates[0].Args, " ")
		assert.Contains(t, joined, "-stream_loop -1 -i INPUT/audio/clip.mp3")
		assert.Contains(t, joined, "-map 0:v -map 1:a")
		assert.Contains(t, joined, "-shortest")
		assert.NotContains(t, joined, "-c:a copy")
	})
}

func TestCompileEmptyText(t *testing.T) {
	_, err := Compile(baseRequest(""))
	assert.Error(t, err)

	_, err = Compile(baseRequest(" \n "))
	assert.Error(t, err)
}
