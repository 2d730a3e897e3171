package processor

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
)

// Encode serializes img to a byte buffer. JPEG has no alpha channel, so
// transparent pixels come out black.
func (p *ImageProcessor) Encode(img image.Image, format string, quality int) ([]byte, error) {
	buffer := &bytes.Buffer{}
	if err := encodeImage(buffer, img, format, quality); err != nil {
		return nil, &EncodeError{Format: format, Err: err}
	}
	return buffer.Bytes(), nil
}

func encodeImage(w io.Writer, img image.Image, format string, quality int) error {
	switch format {
	case "jpeg", "jpg":
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case "png":
		return imaging.Encode(w, img, imaging.PNG)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func normalizeFormat(format string) string {
	if format == "jpg" {
		return FormatJPEG
	}
	return format
}

// ContentType returns the MIME type for an output format.
func ContentType(format string) string {
	if normalizeFormat(format) == FormatPNG {
		return "image/png"
	}
	return "image/jpeg"
}

// Extension returns the file extension, dot included, for an output format.
func Extension(format string) string {
	if normalizeFormat(format) == FormatPNG {
		return ".png"
	}
	return ".jpg"
}
