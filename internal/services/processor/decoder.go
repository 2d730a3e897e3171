package processor

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// RawCapture is a decoded photo plus the sensor rotation reported with it.
type RawCapture struct {
	Image    image.Image
	Rotation int
}

// Decode reads the header first so an oversized raster is rejected before
// any pixel memory is allocated.
func (p *ImageProcessor) Decode(data []byte, rotation int) (*RawCapture, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Err: errors.New("empty capture")}
	}
	if err := p.checkHeader(data); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	return &RawCapture{Image: img, Rotation: rotation}, nil
}

// ValidateCapture checks size limits and that the header describes a
// raster, without decoding the pixel data.
func (p *ImageProcessor) ValidateCapture(data []byte, maxSize int64) error {
	if size := int64(len(data)); size > maxSize {
		return fmt.Errorf("file size %d exceeds maximum allowed size %d", size, maxSize)
	}
	return p.checkHeader(data)
}

func (p *ImageProcessor) checkHeader(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return &DecodeError{Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return &DecodeError{Err: fmt.Errorf("invalid dimensions %dx%d", cfg.Width, cfg.Height)}
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > p.maxPixels {
		return &DecodeError{Err: fmt.Errorf("%dx%d exceeds the %d pixel limit", cfg.Width, cfg.Height, p.maxPixels)}
	}
	return nil
}
