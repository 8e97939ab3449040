package palette

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/gen2brain/avif"
	_ "golang.org/x/image/webp"
)

// Palette is the themed output for one poster. A nil field means that part
// could not be extracted and callers should fall back to their defaults.
type Palette struct {
	Corners   *Corners `json:"corners"`
	Dominants *[2]RGB  `json:"dominants"`
}

func (p Palette) Empty() bool {
	return p.Corners == nil && p.Dominants == nil
}

// Extractor has no state; every call allocates its own histograms.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractFromImage only fails when the image cannot be sampled. An image with
// nothing analyzable still succeeds, with nil fields.
func (e *Extractor) ExtractFromImage(img image.Image) (Palette, error) {
	sampled, err := Sample(img)
	if err != nil {
		return Palette{}, fmt.Errorf("sample image: %w", err)
	}

	return Palette{
		Corners:   EstimateCorners(sampled),
		Dominants: EstimateDominants(sampled),
	}, nil
}
