package assets

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Cropper re-encodes a selected image to a fixed aspect ratio, bounded
// dimensions and fixed JPEG quality before it is staged for upload.
type Cropper struct {
	AspectWidth  int
	AspectHeight int
	MaxDimension int
	Quality      int
}

// DefaultCropper matches the admin page's portrait photo slots.
func DefaultCropper() Cropper {
	return Cropper{AspectWidth: 9, AspectHeight: 16, MaxDimension: 1000, Quality: 85}
}

// maxSourcePixels bounds the decoded canvas of a picked image.
const maxSourcePixels = 64 << 20

var (
	ErrEmptySelection = errors.New("crop selection does not overlap the image")
	ErrImageTooLarge  = errors.New("image dimensions too large")
)

// Crop cuts the aspect-constrained region out of p and returns it as JPEG.
// sel is in image pixel coordinates with the origin at the top-left corner;
// nil selects the largest centered region. The file name is kept.
func (c Cropper) Crop(p Payload, sel *image.Rectangle) (Payload, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(p.Data))
	if err != nil {
		return Payload{}, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxSourcePixels {
		return Payload{}, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	src, _, err := image.Decode(bytes.NewReader(p.Data))
	if err != nil {
		return Payload{}, fmt.Errorf("decode image: %w", err)
	}
	b := src.Bounds()

	area := b
	if sel != nil {
		area = sel.Add(b.Min).Intersect(b)
		if area.Empty() {
			return Payload{}, ErrEmptySelection
		}
	}
	region := c.fitAspect(area)

	w, h := region.Dx(), region.Dy()
	scale := 1.0
	if c.MaxDimension > 0 {
		scale = math.Min(1, math.Min(float64(c.MaxDimension)/float64(w), float64(c.MaxDimension)/float64(h)))
	}
	dw := max(1, int(math.Round(float64(w)*scale)))
	dh := max(1, int(math.Round(float64(h)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, region, draw.Over, nil)

	quality := c.Quality
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: quality}); err != nil {
		return Payload{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return Payload{Name: p.Name, ContentType: "image/jpeg", Data: out.Bytes()}, nil
}

// fitAspect returns the largest rectangle with the configured ratio centered
// inside r.
func (c Cropper) fitAspect(r image.Rectangle) image.Rectangle {
	aw, ah := c.AspectWidth, c.AspectHeight
	if aw <= 0 || ah <= 0 {
		return r
	}
	w, h := r.Dx(), r.Dy()
	if w*ah > h*aw {
		w = max(1, h*aw/ah)
	} else {
		h = max(1, w*ah/aw)
	}
	x := r.Min.X + (r.Dx()-w)/2
	y := r.Min.Y + (r.Dy()-h)/2
	return image.Rect(x, y, x+w, y+h)
}
