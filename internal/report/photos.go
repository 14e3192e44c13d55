package report

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/webp"
)

var errUnsupportedImage = errors.New("unsupported image format")

// prepareImage returns bytes fpdf can embed and the matching type tag. WebP
// has no native support and is re-encoded as PNG.
func prepareImage(data []byte) (string, []byte, error) {
	if len(data) == 0 {
		return "", nil, errors.New("empty image")
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if _, werr := webp.DecodeConfig(bytes.NewReader(data)); werr == nil {
			format = "webp"
		} else {
			return "", nil, fmt.Errorf("decode image: %w", err)
		}
	}

	switch format {
	case "jpeg":
		return "jpg", data, nil
	case "png", "gif":
		return format, data, nil
	case "webp":
		img, err := webp.Decode(bytes.NewReader(data))
		if err != nil {
			return "", nil, fmt.Errorf("decode webp: %w", err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return "", nil, fmt.Errorf("encode png: %w", err)
		}
		return "png", buf.Bytes(), nil
	}
	return "", nil, fmt.Errorf("%w: %s", errUnsupportedImage, format)
}
