package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectImageType(t *testing.T) {
	require.Equal(t, "image/jpeg", DetectImageType([]byte{0xff, 0xd8, 0xff, 0xe0, 0, 0x10, 'J', 'F', 'I', 'F'}))
	require.Equal(t, "image/png", DetectImageType([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")))
	require.Equal(t, "text/plain; charset=utf-8", DetectImageType([]byte("not an image")))
}

func TestIsValidImageType(t *testing.T) {
	allowed := []string{"image/jpeg", "image/png"}

	require.True(t, IsValidImageType("image/jpeg", allowed))
	require.True(t, IsValidImageType("IMAGE/PNG", allowed))
	require.False(t, IsValidImageType("image/gif", allowed))
	require.False(t, IsValidImageType("text/plain; charset=utf-8", allowed))
	require.False(t, IsValidImageType("image/jpeg", nil))
}
