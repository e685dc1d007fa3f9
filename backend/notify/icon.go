package notify

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/boxes-ltd/imaging"
	_ "golang.org/x/image/webp"
)

// maxIconSource bounds the dimensions of artwork accepted for decoding.
const maxIconSource = 4096

var (
	errEmptyIcon    = errors.New("empty icon payload")
	errIconTooLarge = errors.New("icon too large")
)

// decodeIcon decodes base64-encoded image data and fits it into a
// size x size box. A size <= 0 keeps the original dimensions.
func decodeIcon(payload string, size int) (*image.NRGBA, error) {
	data, err := decodeBase64(payload)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errEmptyIcon
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if cfg.Width > maxIconSource || cfg.Height > maxIconSource {
		return nil, fmt.Errorf("%w: %dx%d", errIconTooLarge, cfg.Width, cfg.Height)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return fitIcon(img, size), nil
}

// decodeBase64 accepts standard base64 with or without padding. Line
// breaks and other whitespace, as produced by MIME encoders, are ignored.
func decodeBase64(payload string) ([]byte, error) {
	s := strings.Join(strings.Fields(payload), "")
	if s == "" {
		return nil, errEmptyIcon
	}
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	data, err := base64.RawStdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	return data, nil
}

func fitIcon(img image.Image, size int) *image.NRGBA {
	if size <= 0 {
		return imaging.Clone(img)
	}
	return imaging.Fit(img, size, size, imaging.Lanczos)
}
