package processor

import (
	"image"
	"image/draw"

	"golang.org/x/image/vector"
)

// Crop copies img through the outline of fitted, which must already be in
// the image's pixel space (see FitMaskToImage). The result has the same
// size as img; everything outside the outline has zero alpha.
func (p *ImageProcessor) Crop(img image.Image, fitted *MaskShape) *image.NRGBA {
	return cropToShape(img, fitted, p.antialias)
}

func cropToShape(img image.Image, fitted *MaskShape, antialias bool) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if out.Rect.Empty() {
		return out
	}

	stencil := rasterizeMask(fitted, b.Dx(), b.Dy())
	if !antialias {
		hardenEdges(stencil)
	}

	draw.DrawMask(out, out.Rect, img, b.Min, stencil, image.Point{}, draw.Src)
	return out
}

// rasterizeMask renders the shape as coverage values into an alpha stencil.
func rasterizeMask(shape *MaskShape, width, height int) *image.Alpha {
	stencil := image.NewAlpha(image.Rect(0, 0, width, height))

	z := vector.NewRasterizer(width, height)
	z.DrawOp = draw.Src
	for i, s := range shape.Segments() {
		switch s.Op {
		case OpMoveTo:
			// the rasterizer does not close a subpath when the next one starts
			if i > 0 {
				z.ClosePath()
			}
			z.MoveTo(f32(s.Pts[0].X), f32(s.Pts[0].Y))
		case OpLineTo:
			z.LineTo(f32(s.Pts[0].X), f32(s.Pts[0].Y))
		case OpQuadTo:
			z.QuadTo(f32(s.Pts[0].X), f32(s.Pts[0].Y), f32(s.Pts[1].X), f32(s.Pts[1].Y))
		case OpCubeTo:
			z.CubeTo(f32(s.Pts[0].X), f32(s.Pts[0].Y), f32(s.Pts[1].X), f32(s.Pts[1].Y), f32(s.Pts[2].X), f32(s.Pts[2].Y))
		case OpClose:
			z.ClosePath()
		}
	}
	z.ClosePath()
	z.Draw(stencil, stencil.Rect, image.Opaque, image.Point{})

	return stencil
}

// hardenEdges keeps only pixels the shape covers completely.
func hardenEdges(stencil *image.Alpha) {
	for i, a := range stencil.Pix {
		if a != 0xff {
			stencil.Pix[i] = 0
		}
	}
}

func f32(v float64) float32 {
	return float32(v)
}
