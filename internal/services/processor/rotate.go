package processor

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Rotate turns img clockwise by degrees, which must be a multiple of 90.
// The result keeps full resolution; width and height swap at 90 and 270.
func (p *ImageProcessor) Rotate(img image.Image, degrees int) (*image.NRGBA, error) {
	return rotateImage(img, degrees)
}

func rotateImage(img image.Image, degrees int) (*image.NRGBA, error) {
	if degrees%90 != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRotation, degrees)
	}

	switch normalizeDegrees(degrees) {
	case 90:
		// imaging rotates counter-clockwise
		return imaging.Rotate270(img), nil
	case 180:
		return imaging.Rotate180(img), nil
	case 270:
		return imaging.Rotate90(img), nil
	default:
		return imaging.Clone(img), nil
	}
}

func normalizeDegrees(degrees int) int {
	d := degrees % 360
	if d < 0 {
		d += 360
	}
	return d
}
