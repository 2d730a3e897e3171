package processor

import (
	"fmt"
)

const (
	DefaultQuality = 100
	// 50 megapixels decode to 200MB of NRGBA
	DefaultMaxPixels = 50_000_000
)

// CroppedImage is the encoded result of one capture.
type CroppedImage struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

type Options struct {
	Quality   int
	Format    string
	Antialias bool
	MaxPixels int64
}

var DefaultOptions = Options{
	Quality:   DefaultQuality,
	Format:    FormatJPEG,
	Antialias: true,
	MaxPixels: DefaultMaxPixels,
}

// ImageProcessor is the shape-crop pipeline. It only holds read-only
// settings, so one instance can serve concurrent captures.
type ImageProcessor struct {
	mask      *MaskShape
	quality   int
	format    string
	antialias bool
	maxPixels int64
}

func NewImageProcessor(mask *MaskShape, opts ...Options) (*ImageProcessor, error) {
	options := DefaultOptions
	if len(opts) > 0 {
		options = opts[0]
	}

	if mask == nil || mask.IsEmpty() {
		return nil, ErrEmptyMask
	}
	if b, ok := mask.Bounds(); !ok || b.Width() <= 0 || b.Height() <= 0 {
		return nil, ErrEmptyMask
	}

	format := normalizeFormat(options.Format)
	if format == "" {
		format = FormatJPEG
	}
	if format != FormatJPEG && format != FormatPNG {
		return nil, fmt.Errorf("unsupported output format %q", options.Format)
	}

	maxPixels := options.MaxPixels
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	return &ImageProcessor{
		mask:      mask,
		quality:   min(100, max(1, options.Quality)),
		format:    format,
		antialias: options.Antialias,
		maxPixels: maxPixels,
	}, nil
}

func (p *ImageProcessor) Format() string {
	return p.format
}

func (p *ImageProcessor) Mask() *MaskShape {
	return p.mask
}

// Process runs a capture through decode, rotate, mask fitting, crop and
// encode.
func (p *ImageProcessor) Process(data []byte, rotation int) (*CroppedImage, error) {
	capture, err := p.Decode(data, rotation)
	if err != nil {
		return nil, err
	}

	rotated, err := p.Rotate(capture.Image, capture.Rotation)
	if err != nil {
		return nil, err
	}

	bounds := rotated.Bounds()
	fitted, err := p.FitMaskToImage(p.mask, bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, fmt.Errorf("failed to fit mask: %w", err)
	}

	cropped := p.Crop(rotated, fitted)

	encoded, err := p.Encode(cropped, p.format, p.quality)
	if err != nil {
		return nil, err
	}

	return &CroppedImage{
		Data:   encoded,
		Format: p.format,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
