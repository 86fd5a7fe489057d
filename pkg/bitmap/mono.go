package bitmap

import (
	"image"
	"image/color"
)

var (
	Off = color.Gray{Y: 0}
	On  = color.Gray{Y: 0xFF}
)

func New(width, height int) *Bitmap {
	stride := (width + 7) / 8
	return &Bitmap{
		Width:  width,
		Height: height,
		Stride: stride,
		Pix:    make([]byte, stride*height),
	}
}

// Bitmap is a 1 bit per pixel raster. Rows are padded to whole bytes and the
// most significant bit of each byte is the leftmost pixel. It implements the
// draw.Image interface.
type Bitmap struct {
	Width  int
	Height int
	Stride int
	Pix    []byte
}

// Bounds implements the image.Image (and draw.Image) interface.
func (b *Bitmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

// ColorModel implements the image.Image (and draw.Image) interface.
func (b *Bitmap) ColorModel() color.Model {
	return monoModel
}

// At implements the image.Image (and draw.Image) interface.
func (b *Bitmap) At(x, y int) color.Color {
	if b.Lit(x, y) {
		return On
	}
	return Off
}

// Set implements the draw.Image interface.
func (b *Bitmap) Set(x, y int, c color.Color) {
	b.SetBit(x, y, monoModel.Convert(c) == On)
}

func (b *Bitmap) Lit(x, y int) bool {
	if x < 0 || x >= b.Width || y < 0 || y >= b.Height {
		return false
	}
	return b.Pix[y*b.Stride+x/8]&(0x80>>uint(x%8)) != 0
}

func (b *Bitmap) SetBit(x, y int, on bool) {
	if x < 0 || x >= b.Width || y < 0 || y >= b.Height {
		return
	}
	i := y*b.Stride + x/8
	mask := byte(0x80 >> uint(x%8))
	if on {
		b.Pix[i] |= mask
	} else {
		b.Pix[i] &^= mask
	}
}

// Count returns the number of lit pixels.
func (b *Bitmap) Count() int {
	var n int
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if b.Lit(x, y) {
				n++
			}
		}
	}
	return n
}

// Fit returns a copy cropped or zero padded to width x height, anchored at 0,0.
func (b *Bitmap) Fit(width, height int) *Bitmap {
	if width == b.Width && height == b.Height {
		dst := New(width, height)
		copy(dst.Pix, b.Pix)
		return dst
	}

	dst := New(width, height)
	for y := 0; y < height && y < b.Height; y++ {
		for x := 0; x < width && x < b.Width; x++ {
			if b.Lit(x, y) {
				dst.SetBit(x, y, true)
			}
		}
	}
	return dst
}

// A pixel is lit when its luminance reaches half scale. Fully transparent
// pixels are never lit.
var monoModel = color.ModelFunc(func(c color.Color) color.Color {
	r, g, b, a := c.RGBA()
	if a == 0 {
		return Off
	}
	y := (19595*r + 38470*g + 7471*b + 1<<15) >> 16
	if y >= 0x8000 {
		return On
	}
	return Off
})
