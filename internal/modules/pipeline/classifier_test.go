package pipeline

import (
	"testing"

	"github.com/KaustubhAChavan/watermark-app/internal/shared/config"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	c := NewClassifier(config.Formats{
		Images: []string{".jpg", ".jpeg", ".png", ".gif"},
		Videos: []string{".mp4", ".mov"},
		Audio:  []string{".mp3", ".wav"},
	})

	tests := []struct {
		path string
		want Kind
	}{
		{"photo.jpg", KindImage},
		{"photo.JPG", KindImage},
		{"dir/nested/photo.PnG", KindImage},
		{"clip.mp4", KindVideo},
		{"CLIP.MOV", KindVideo},
		{"track.mp3", KindAudio},
		{"track.WAV", KindAudio},
		{"document.pdf", KindUnsupported},
		{"noextension", KindUnsupported},
		{"", KindUnsupported},
		{"weird.jpg.tmp", KindUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.path))
		})
	}
}

func TestClassifierNormalizesExtensions(t *testing.T) {
	// Extensions configured without the leading dot or with mixed case
	// still match.
	c := NewClassifier(config.Formats{
		Images: []string{"jpg", ".PNG"},
	})

	assert.Equal(t, KindImage, c.Classify("a.jpg"))
	assert.Equal(t, KindImage, c.Classify("a.png"))
	assert.Equal(t, KindUnsupported, c.Classify("a.gif"))
}
