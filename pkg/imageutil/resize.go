// Package imageutil normalises candidate avatars.
package imageutil

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxDimension = 800
	DefaultQuality      = 85
)

// Fit scales (w, h) so the longer side is at most maxDimension, keeping the
// aspect ratio. Smaller images are left alone.
func Fit(w, h, maxDimension int) (int, int) {
	if w <= maxDimension && h <= maxDimension {
		return w, h
	}
	if w > h {
		return maxDimension, max(1, int(float64(h)*float64(maxDimension)/float64(w)))
	}
	return max(1, int(float64(w)*float64(maxDimension)/float64(h))), maxDimension
}

// ResizeToJPEG decodes any registered format (jpeg, png, gif, webp), fits it
// into maxDimension and re-encodes as JPEG.
func ResizeToJPEG(data []byte, maxDimension, quality int) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image (format: %s): %w", format, err)
	}

	bounds := img.Bounds()
	w, h := Fit(bounds.Dx(), bounds.Dy(), maxDimension)

	resized := image.NewRGBA(image.Rect(0, 0, w, h))
	// JPEG has no alpha: paint white first so transparent PNGs don't go black.
	draw.Draw(resized, resized.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
