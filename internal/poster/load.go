package poster

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/avif"
	_ "golang.org/x/image/webp"
	"go.senan.xyz/taglib"
)

var mediaContainerExtensions = map[string]struct{}{
	".mp4":  {},
	".m4v":  {},
	".mkv":  {},
	".mov":  {},
	".webm": {},
	".mp3":  {},
	".m4a":  {},
	".flac": {},
	".ogg":  {},
	".opus": {},
}

// IsMediaContainer reports whether path is read for embedded artwork rather
// than decoded directly.
func IsMediaContainer(path string) bool {
	_, ok := mediaContainerExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Load returns the encoded image bytes for source.
func Load(source Source) ([]byte, error) {
	if source.Kind == KindEmbedded {
		imageData, err := taglib.ReadImage(source.Path)
		if err != nil {
			return nil, fmt.Errorf("read embedded artwork %s: %w", source.Path, err)
		}
		if len(imageData) == 0 {
			return nil, fmt.Errorf("%w: %s has no embedded artwork", ErrUnsupportedSource, source.Path)
		}
		return imageData, nil
	}

	data, err := os.ReadFile(source.Path)
	if err != nil {
		return nil, fmt.Errorf("read poster %s: %w", source.Path, err)
	}
	return data, nil
}

// Decode decodes any registered poster format. AVIF goes straight to the
// avif decoder since some encoders write brands the registry does not sniff.
func Decode(data []byte) (image.Image, string, error) {
	if isAVIF(data) {
		img, err := avif.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, "", fmt.Errorf("decode avif: %w", err)
		}
		return img, "avif", nil
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}
