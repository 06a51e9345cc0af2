package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// maxPixels bounds decoded size so a tiny file cannot expand into gigabytes.
const maxPixels = 64 << 20

var ErrTooLarge = errors.New("image dimensions too large")

// Fit returns the size of w×h scaled to fit within max on both sides. Images
// already inside the box are returned unchanged.
func Fit(w, h, max int) (int, int) {
	if max <= 0 || (w <= max && h <= max) {
		return w, h
	}
	if w >= h {
		nh := h * max / w
		if nh < 1 {
			nh = 1
		}
		return max, nh
	}
	nw := w * max / h
	if nw < 1 {
		nw = 1
	}
	return nw, max
}

// Compress decodes r, downsizes it to fit maxDim and re-encodes it as JPEG.
// Transparent areas are flattened onto white.
func Compress(r io.ReadSeeker, maxDim, quality int) ([]byte, image.Point, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return nil, image.Point{}, fmt.Errorf("decode header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, image.Point{}, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, image.Point{}, err
	}
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, image.Point{}, fmt.Errorf("decode %s: %w", format, err)
	}
	sb := src.Bounds()
	w, h := Fit(sb.Dx(), sb.Dy(), maxDim)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == sb.Dx() && h == sb.Dy() {
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)
	}
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, image.Point{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), image.Pt(w, h), nil
}
