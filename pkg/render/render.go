package render

import (
	"fmt"
	"image/color"
	"math"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"ledsign/pkg/bitmap"
)

const (
	AlignTop    = "top"
	AlignBottom = "bottom"
	AlignCenter = "center"
)

var alignments = []string{AlignTop, AlignBottom, AlignCenter}

// topOffset is where a top aligned block starts, slightly above the canvas so
// the ascender gap is not wasted on small displays.
const topOffset = -2

type Options struct {
	Alignment         string
	FontSize          float64
	VerticalPadding   int
	HorizontalPadding int
}

func ValidAlignment(a string) bool {
	return lo.Contains(alignments, a)
}

// New loads the font at fontPath, or the built-in Go font when fontPath is
// empty.
func New(fs afero.Fs, fontPath string, logger *zap.Logger) (*Rasterizer, error) {
	ttf := goregular.TTF
	if fontPath != "" {
		bs, err := afero.ReadFile(fs, fontPath)
		if err != nil {
			return nil, fmt.Errorf("read font failed: %w", err)
		}
		ttf = bs
	}

	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font failed: %w", err)
	}

	logger.With(zap.String("font", lo.Ternary(fontPath == "", "goregular", fontPath))).Debug("font loaded")
	return &Rasterizer{font: f, logger: logger}, nil
}

type Rasterizer struct {
	// Parsed fonts are shared; faces are built per call.
	mu     sync.Mutex
	font   *opentype.Font
	logger *zap.Logger
}

func (r *Rasterizer) face(size float64) (font.Face, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Render draws text white on black into a width x height bitmap. Each line is
// centered horizontally; the block is placed by opts.Alignment.
func (r *Rasterizer) Render(text string, width, height int, opts Options) (*bitmap.Bitmap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("bad canvas size %dx%d", width, height)
	}
	if opts.FontSize <= 0 {
		return nil, fmt.Errorf("bad font size %v", opts.FontSize)
	}

	face, err := r.face(opts.FontSize)
	if err != nil {
		return nil, fmt.Errorf("create face failed: %w", err)
	}
	defer func() {
		_ = face.Close()
	}()

	lines := SplitLines(text)
	ascent := face.Metrics().Ascent.Ceil()
	lineHeight := ascent
	total := lineHeight*len(lines) + opts.VerticalPadding*(len(lines)-1)

	var y int
	switch opts.Alignment {
	case AlignTop:
		y = topOffset
	case AlignBottom:
		y = height - total
	default:
		y = floorDiv(height-total, 2)
	}

	dc := gg.NewContextForImage(imaging.New(width, height, color.Black))
	dc.SetFontFace(face)
	dc.SetColor(color.White)

	for _, line := range lines {
		w, _ := dc.MeasureString(line)
		x := floorDiv(width-int(math.Ceil(w)), 2) + opts.HorizontalPadding
		dc.DrawString(line, float64(x), float64(y+ascent))
		y += lineHeight + opts.VerticalPadding
	}

	r.logger.With(
		zap.Int("lines", len(lines)),
		zap.Int("w", width),
		zap.Int("h", height),
		zap.String("align", opts.Alignment),
	).Debug("rendered")

	return bitmap.Encode(dc.Image()), nil
}

// lineBreaks are the single rune line boundaries; "\r\n" is folded first.
var lineBreaks = []rune{'\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029'}

// SplitLines turns literal "\n" sequences into line breaks and splits on any
// line boundary. A trailing boundary does not add an empty line.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, `\n`, "\n")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.Map(func(r rune) rune {
		return lo.Ternary(lo.Contains(lineBreaks, r), '\n', r)
	}, text)
	if text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
