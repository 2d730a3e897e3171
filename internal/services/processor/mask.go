package processor

import (
	"fmt"
	"math"
)

// FitMaskToImage scales mask uniformly so its bounding box fits inside a
// width x height rectangle and centres it there. The aspect ratio of the
// mask is kept, so the fitted box touches the target on one axis and
// leaves equal margins on the other.
func (p *ImageProcessor) FitMaskToImage(mask *MaskShape, width, height int) (*MaskShape, error) {
	fit, err := FitTransform(mask, float64(width), float64(height))
	if err != nil {
		return nil, err
	}
	return mask.Transform(fit), nil
}

// FitTransform returns the scale-to-fit-center matrix for mask inside a
// width x height rectangle anchored at the origin.
func FitTransform(mask *MaskShape, width, height float64) (Affine, error) {
	if width <= 0 || height <= 0 {
		return Affine{}, fmt.Errorf("invalid target size %gx%g", width, height)
	}

	bounds, ok := mask.Bounds()
	if !ok || bounds.Width() <= 0 || bounds.Height() <= 0 {
		return Affine{}, ErrEmptyMask
	}

	scale := math.Min(width/bounds.Width(), height/bounds.Height())
	tx := (width-bounds.Width()*scale)/2 - bounds.MinX*scale
	ty := (height-bounds.Height()*scale)/2 - bounds.MinY*scale

	return Scale(scale, scale).Then(Translate(tx, ty)), nil
}
