package infrastructure

import (
	"testing"

	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetExtensionFromMIME(t *testing.T) {
	tests := map[string]string{
		"image/jpeg":      "jpg",
		"image/jpg":       "jpg",
		"image/png":       "png",
		"image/webp":      "webp",
		"application/pdf": "pdf",
	}

	for mime, want := range tests {
		ext, err := GetExtensionFromMIME(mime)
		require.NoError(t, err, mime)
		assert.Equal(t, want, ext)
	}

	_, err := GetExtensionFromMIME("text/html")
	require.ErrorIs(t, err, e.ErrUnsupportedMediaType)
}
