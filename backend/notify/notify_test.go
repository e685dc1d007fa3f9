package notify

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/dweymouth/mediabridge/backend/nowplaying"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func pngBase64(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solidImage(w, h, color.NRGBA{R: 10, G: 200, B: 30, A: 255})))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func nowPlayingFixture(t *testing.T) nowplaying.Snapshot {
	t.Helper()
	return nowplaying.Snapshot{
		Title:      "Song A",
		Subtitle:   "Artist B",
		Icon:       pngBase64(t, 16, 16),
		Transport:  nowplaying.Play,
		DurationMs: 200000,
		PositionMs: 5000,
	}
}
