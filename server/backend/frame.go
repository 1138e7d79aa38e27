package backend

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/juju/errors"
)

// scaleDimension fits width x height into a maxSize square keeping the
// aspect ratio. Frames that already fit are returned as they are. Neither
// side is scaled below one pixel.
func scaleDimension(width, height, maxSize int) (int, int) {
	newWidth, newHeight := width, height

	if newWidth > maxSize {
		newWidth = maxSize
		newHeight = (newWidth * height) / width
	}

	if newHeight > maxSize {
		newHeight = maxSize
		newWidth = (newHeight * width) / height
	}

	return atLeastOne(newWidth), atLeastOne(newHeight)
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}

	return n
}

// jpegQuality converts a quality in [0, 1] to the 1-100 range used by the
// encoder.
func jpegQuality(maxJPEGQuality float64) int {
	q := int(100 * maxJPEGQuality)

	switch {
	case q < 1:
		return 1
	case q > 100:
		return 100
	default:
		return q
	}
}

// renderFrame draws a test pattern, the same for every track, and encodes it
// as JPEG.
func renderFrame(width, height int, quality int, facing string) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	var tint uint8
	if facing == facingBack {
		tint = 0xff
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 0xff / width),
				G: uint8(y * 0xff / height),
				B: tint,
				A: 0xff,
			})
		}
	}

	var b bytes.Buffer

	if err := jpeg.Encode(&b, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, errors.Annotate(err, "encode jpeg")
	}

	return b.Bytes(), nil
}
