package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/KaustubhAChavan/watermark-app/internal/shared/config"
)

// Kind is the media category a file routes to.
type Kind string

const (
	KindImage       Kind = "image"
	KindVideo       Kind = "video"
	KindAudio       Kind = "audio"
	KindUnsupported Kind = "unsupported"
)

// Classifier routes paths by extension against the configured format sets.
type Classifier struct {
	images map[string]struct{}
	videos map[string]struct{}
	audio  map[string]struct{}
}

// NewClassifier builds the lookup sets. Extensions are normalized to
// lowercase with a leading dot.
func NewClassifier(formats config.Formats) *Classifier {
	return &Classifier{
		images: extSet(formats.Images),
		videos: extSet(formats.Videos),
		audio:  extSet(formats.Audio),
	}
}

func extSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return set
}

// Classify is total: any path yields a kind, unknown extensions are
// unsupported. The lookup is case-insensitive.
func (c *Classifier) Classify(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := c.images[ext]; ok {
		return KindImage
	}
	if _, ok := c.videos[ext]; ok {
		return KindVideo
	}
	if _, ok := c.audio[ext]; ok {
		return KindAudio
	}
	return KindUnsupported
}
