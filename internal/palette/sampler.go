package palette

import (
	"errors"
	"image"

	xdraw "golang.org/x/image/draw"
)

// SampleSize is the edge of the square raster every analysis runs on.
const SampleSize = 128

const opaqueAlpha = 128

var ErrEmptyImage = errors.New("image has no pixels")

// Sample draws img into a SampleSize×SampleSize buffer with nearest-neighbour
// scaling, so every sampled pixel is a real source pixel.
func Sample(img image.Image) (*image.NRGBA, error) {
	if img == nil {
		return nil, ErrEmptyImage
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, ErrEmptyImage
	}

	dst := image.NewNRGBA(image.Rect(0, 0, SampleSize, SampleSize))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	return dst, nil
}

type samplePixel struct {
	rgb RGB
	hsl HSL
}

// opaquePixel reads the pixel at (x, y) and reports whether it is opaque
// enough to take part in the analysis.
func opaquePixel(img *image.NRGBA, x int, y int) (samplePixel, bool) {
	offset := img.PixOffset(x, y)
	if img.Pix[offset+3] < opaqueAlpha {
		return samplePixel{}, false
	}

	rgb := RGB{R: img.Pix[offset], G: img.Pix[offset+1], B: img.Pix[offset+2]}
	return samplePixel{rgb: rgb, hsl: RGBToHSL(rgb)}, true
}
