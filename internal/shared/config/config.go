package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration. It is loaded once at startup
// and passed by reference into every component; nothing mutates it afterwards.
type Config struct {
	// Server
	Environment string
	Port        int
	LogLevel    string

	// FFmpeg
	FFmpegPath   string
	FFprobePath  string
	VideoTimeout time.Duration // per escaping-strategy attempt

	// Watcher
	SettleDelay time.Duration // wait after a filesystem event before reading the file

	// File-backed settings
	Folders          Folders   `json:"folders"`
	SupportedFormats Formats   `json:"supported_formats"`
	Watermark        Watermark `json:"watermark"`
}

// Folders maps each folder role to a concrete path.
type Folders struct {
	InputImages  string `json:"input_images"`
	OutputImages string `json:"output_images"`
	InputVideos  string `json:"input_videos"`
	OutputVideos string `json:"output_videos"`
	InputAudio   string `json:"input_audio"` // optional; enables audio replacement
}

// Formats lists the accepted file extensions per media kind, lowercase with
// leading dot.
type Formats struct {
	Images []string `json:"images"`
	Videos []string `json:"videos"`
	Audio  []string `json:"audio"`
}

// Watermark holds the label text and styling options shared by the image
// and video render paths.
type Watermark struct {
	Text            string `json:"text"`
	FontSize        int    `json:"font_size"`
	FontColor       RGB    `json:"font_color"`
	BackgroundColor *RGB   `json:"background_color"` // nil means no background box
	Padding         int    `json:"padding"`
	Margin          int    `json:"margin"`
	Position        string `json:"position"` // bottom_right (default) or center
	Moving          bool   `json:"moving"`   // time-varying vertical position (video only)
	FontPath        string `json:"font_path"`
}

// Positions accepted by Watermark.Position.
const (
	PositionBottomRight = "bottom_right"
	PositionCenter      = "center"
)

// Lines splits the watermark text on line breaks. Validation guarantees at
// least one line.
func (w Watermark) Lines() []string {
	return strings.Split(w.Text, "\n")
}

// RGB is a color triple, serialized in the config file as a [r, g, b] array.
type RGB struct {
	R, G, B uint8
}

// UnmarshalJSON decodes a three-element integer array.
func (c *RGB) UnmarshalJSON(data []byte) error {
	var triple []int
	if err := json.Unmarshal(data, &triple); err != nil {
		return err
	}
	if len(triple) != 3 {
		return fmt.Errorf("color must have exactly 3 components, got %d", len(triple))
	}
	for _, v := range triple {
		if v < 0 || v > 255 {
			return fmt.Errorf("color component %d out of range 0-255", v)
		}
	}
	c.R, c.G, c.B = uint8(triple[0]), uint8(triple[1]), uint8(triple[2])
	return nil
}

// MarshalJSON encodes back to the [r, g, b] array form.
func (c RGB) MarshalJSON() ([]byte, error) {
	return json.Marshal([]int{int(c.R), int(c.G), int(c.B)})
}

// Hex returns the ffmpeg-style 0xRRGGBB form.
func (c RGB) Hex() string {
	return fmt.Sprintf("0x%02X%02X%02X", c.R, c.G, c.B)
}

// Load reads configuration from the JSON file named by CONFIG_PATH (default
// config.json) plus environment variables. A missing or malformed file is a
// fatal startup error by contract; callers should exit on a non-nil error.
func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Environment:  getEnv("ENVIRONMENT", "development"),
		Port:         getEnvInt("PORT", 8080),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		FFmpegPath:   getEnv("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:  getEnv("FFPROBE_PATH", "ffprobe"),
		VideoTimeout: time.Duration(getEnvInt("FFMPEG_TIMEOUT_SECONDS", 300)) * time.Second,
		SettleDelay:  time.Duration(getEnvInt("WATCH_SETTLE_DELAY_MS", 1000)) * time.Millisecond,
	}

	path := getEnv("CONFIG_PATH", "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid JSON in config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks structural invariants. Every violation here is a
// configuration error and aborts startup.
func (c *Config) Validate() error {
	required := map[string]string{
		"input_images":  c.Folders.InputImages,
		"output_images": c.Folders.OutputImages,
		"input_videos":  c.Folders.InputVideos,
		"output_videos": c.Folders.OutputVideos,
	}
	for role, path := range required {
		if path == "" {
			return fmt.Errorf("folder role %s is not configured", role)
		}
	}

	w := c.Watermark
	if strings.TrimSpace(strings.ReplaceAll(w.Text, "\n", "")) == "" {
		return fmt.Errorf("watermark text must not be empty")
	}
	// Backslashes cannot be escaped consistently across the drawtext
	// strategies, so they are rejected up front instead of being passed
	// through with undefined results.
	if strings.Contains(w.Text, `\`) {
		return fmt.Errorf("watermark text must not contain backslashes")
	}
	if w.FontSize <= 0 {
		return fmt.Errorf("watermark font_size must be positive, got %d", w.FontSize)
	}
	if w.Padding < 0 {
		return fmt.Errorf("watermark padding must not be negative, got %d", w.Padding)
	}
	if w.Margin < 0 {
		return fmt.Errorf("watermark margin must not be negative, got %d", w.Margin)
	}
	switch w.Position {
	case "", PositionBottomRight, PositionCenter:
	default:
		return fmt.Errorf("unknown watermark position %q", w.Position)
	}

	if len(c.SupportedFormats.Images) == 0 && len(c.SupportedFormats.Videos) == 0 {
		return fmt.Errorf("supported_formats must list at least one image or video extension")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
