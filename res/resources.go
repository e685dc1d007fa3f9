package res

import (
	"bytes"
	_ "embed"
	"image"
	"image/png"
	"sync"
)

// ResAppiconPng is the bundled fallback artwork shown when a
// now-playing update carries no usable icon.
//
//go:embed appicon.png
var ResAppiconPng []byte

var decodeAppIcon = sync.OnceValue(func() image.Image {
	img, err := png.Decode(bytes.NewReader(ResAppiconPng))
	if err != nil {
		// the embedded asset is known-good
		panic("res: bundled app icon is corrupt: " + err.Error())
	}
	return img
})

// AppIcon returns the decoded bundled app icon. The returned image
// is shared and must not be modified.
func AppIcon() image.Image {
	return decodeAppIcon()
}
