package assets

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func pngPayload(t *testing.T, w, h int) Payload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y += 7 {
		for x := 0; x < w; x += 7 {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return Payload{Name: "pic.png", ContentType: "image/png", Data: buf.Bytes()}
}

func decodeJPEG(t *testing.T, p Payload) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(p.Data))
	require.NoError(t, err)
	return img
}

func TestCropper_CenteredAspect(t *testing.T) {
	out, err := DefaultCropper().Crop(pngPayload(t, 400, 300), nil)
	require.NoError(t, err)
	require.Equal(t, "pic.png", out.Name)
	require.Equal(t, "image/jpeg", out.ContentType)

	b := decodeJPEG(t, out).Bounds()
	require.Equal(t, 168, b.Dx())
	require.Equal(t, 300, b.Dy())
}

func TestCropper_BoundsLargeImages(t *testing.T) {
	out, err := DefaultCropper().Crop(pngPayload(t, 900, 3000), nil)
	require.NoError(t, err)

	b := decodeJPEG(t, out).Bounds()
	require.Equal(t, 1000, b.Dy())
	require.Equal(t, 563, b.Dx())
}

func TestCropper_Selection(t *testing.T) {
	sel := image.Rect(10, 20, 100, 180)
	out, err := DefaultCropper().Crop(pngPayload(t, 400, 300), &sel)
	require.NoError(t, err)
	b := decodeJPEG(t, out).Bounds()
	require.Equal(t, 90, b.Dx())
	require.Equal(t, 160, b.Dy())

	// selection is clamped to the image and refit to the ratio
	wide := image.Rect(-50, 0, 500, 300)
	out, err = DefaultCropper().Crop(pngPayload(t, 400, 300), &wide)
	require.NoError(t, err)
	b = decodeJPEG(t, out).Bounds()
	require.Equal(t, 168, b.Dx())
	require.Equal(t, 300, b.Dy())

	outside := image.Rect(1000, 1000, 1100, 1100)
	_, err = DefaultCropper().Crop(pngPayload(t, 400, 300), &outside)
	require.ErrorIs(t, err, ErrEmptySelection)
}

func TestCropper_RejectsNonImage(t *testing.T) {
	_, err := DefaultCropper().Crop(Payload{Name: "notes.txt", Data: []byte("hello")}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode image")
}

func TestCropper_RejectsOversizedCanvasBeforeDecoding(t *testing.T) {
	p := pngPayload(t, 4, 4)
	// IHDR data starts at byte 16; its CRC covers the chunk type and data.
	binary.BigEndian.PutUint32(p.Data[16:20], 100000)
	binary.BigEndian.PutUint32(p.Data[20:24], 100000)
	binary.BigEndian.PutUint32(p.Data[29:33], crc32.ChecksumIEEE(p.Data[12:29]))

	_, err := DefaultCropper().Crop(p, nil)
	require.ErrorIs(t, err, ErrImageTooLarge)
}
