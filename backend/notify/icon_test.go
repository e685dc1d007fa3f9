package notify

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeIcon_Valid(t *testing.T) {
	img, err := decodeIcon(pngBase64(t, 8, 4), 0)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 4, img.Bounds().Dy())
}

func TestDecodeIcon_FitsIntoSize(t *testing.T) {
	img, err := decodeIcon(pngBase64(t, 512, 256), 128)
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())
	assert.Equal(t, 64, img.Bounds().Dy())

	// smaller images are not scaled up
	img, err = decodeIcon(pngBase64(t, 16, 16), 128)
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
}

func TestDecodeIcon_ToleratesLineBreaksAndMissingPadding(t *testing.T) {
	enc := pngBase64(t, 3, 3)

	var wrapped strings.Builder
	for i := 0; i < len(enc); i += 76 {
		end := min(i+76, len(enc))
		wrapped.WriteString(enc[i:end])
		wrapped.WriteString("\n")
	}
	_, err := decodeIcon(wrapped.String(), 0)
	assert.NoError(t, err)

	_, err = decodeIcon(strings.TrimRight(enc, "="), 0)
	assert.NoError(t, err)
}

func TestDecodeIcon_AcceptsLargestSource(t *testing.T) {
	img, err := decodeIcon(pngBase64(t, maxIconSource, 1), 64)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
}

func TestDecodeIcon_Failures(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"whitespace", "  \n"},
		{"not base64", "not-base64!!"},
		{"not an image", base64.StdEncoding.EncodeToString([]byte("hello, world"))},
		{"truncated png", pngBase64(t, 4, 4)[:40]},
		{"too wide", pngBase64(t, maxIconSource+1, 1)},
		{"too tall", pngBase64(t, 1, maxIconSource+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := decodeIcon(tt.payload, 64)
			assert.Error(t, err)
			assert.Nil(t, img)
		})
	}
}
