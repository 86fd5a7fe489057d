package bitmap

import (
	"image"
)

// Encode thresholds src into a Bitmap whose origin is src.Bounds().Min.
func Encode(src image.Image) *Bitmap {
	if b, ok := src.(*Bitmap); ok {
		return b.Fit(b.Width, b.Height)
	}

	r := src.Bounds()
	d := New(r.Dx(), r.Dy())

	for x := r.Min.X; x < r.Max.X; x++ {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			d.Set(x-r.Min.X, y-r.Min.Y, src.At(x, y))
		}
	}

	return d
}
