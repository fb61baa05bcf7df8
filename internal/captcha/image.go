// Package captcha issues distorted-text image challenges and verifies the answers.
package captcha

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand/v2"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

// Charset omits glyphs that are easy to confuse (I, O, i, l, o, 0, 1).
const Charset = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"

const (
	DefaultLength = 6
	Width         = 200
	Height        = 50

	baselineY       = 30
	startX          = 20
	textSpan        = 140
	glyphScale      = 2.0
	noiseDots       = 100
	noiseLines      = 4
	overlayLines    = 2
	maxNoiseAlpha   = 0.2
	maxOverlayAlpha = 0.15
)

var (
	background = color.RGBA{0xf1, 0xf5, 0xf9, 0xff}
	textColors = []color.RGBA{
		{0x4f, 0x46, 0xe5, 0xff},
		{0x08, 0x91, 0xb2, 0xff},
		{0x93, 0x33, 0xea, 0xff},
		{0x43, 0x38, 0xca, 0xff},
		{0x03, 0x69, 0xa1, 0xff},
	}
)

// RandomText returns length characters drawn from Charset.
func RandomText(length int) string {
	if length <= 0 {
		length = DefaultLength
	}
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		b.WriteByte(Charset[rand.IntN(len(Charset))])
	}
	return b.String()
}

// Render rasterizes text onto the noisy canvas.
func Render(text string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: background}, image.Point{}, draw.Src)

	for i := 0; i < noiseDots; i++ {
		blend(img, rand.IntN(Width), rand.IntN(Height), shade(rand.Float64()*maxNoiseAlpha))
	}
	for i := 0; i < noiseLines; i++ {
		line(img,
			rand.Float64()*Width, rand.Float64()*Height,
			rand.Float64()*Width, rand.Float64()*Height,
			shade(rand.Float64()*maxNoiseAlpha))
	}

	if len(text) > 0 {
		spacing := float64(textSpan) / float64(len(text))
		x := float64(startX)
		for _, r := range text {
			angle := (rand.Float64() - 0.5) * 0.4
			drawGlyph(img, r, x, baselineY, angle, textColors[rand.IntN(len(textColors))])
			x += spacing
		}
	}

	for i := 0; i < overlayLines; i++ {
		line(img, 0, rand.Float64()*Height, Width, rand.Float64()*Height, shade(rand.Float64()*maxOverlayAlpha))
	}
	return img
}

// DataURL encodes img as a base64 PNG data URL.
func DataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func shade(alpha float64) color.NRGBA {
	return color.NRGBA{A: uint8(math.Round(alpha * 255))}
}

func blend(img *image.RGBA, x, y int, c color.Color) {
	r := image.Rect(x, y, x+1, y+1)
	draw.Draw(img, r, &image.Uniform{C: c}, image.Point{}, draw.Over)
}

func line(img *image.RGBA, x0, y0, x1, y1 float64, c color.Color) {
	steps := int(math.Max(math.Abs(x1-x0), math.Abs(y1-y0)))
	if steps == 0 {
		blend(img, int(x0), int(y0), c)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		blend(img, int(math.Round(x0+(x1-x0)*t)), int(math.Round(y0+(y1-y0)*t)), c)
	}
}

// drawGlyph renders r with the bitmap face, then scales and rotates it about its baseline
// origin placed at (x, y).
func drawGlyph(dst *image.RGBA, r rune, x, y, angle float64, c color.Color) {
	face := basicfont.Face7x13
	metrics := face.Metrics()
	ascent := metrics.Ascent.Round()
	glyph := image.NewRGBA(image.Rect(0, 0, face.Advance+1, metrics.Height.Round()))

	d := font.Drawer{
		Dst:  glyph,
		Src:  &image.Uniform{C: c},
		Face: face,
		Dot:  fixed.P(0, ascent),
	}
	d.DrawString(string(r))

	sin, cos := math.Sincos(angle)
	a, b := glyphScale*cos, -glyphScale*sin
	dd, e := glyphScale*sin, glyphScale*cos
	m := f64.Aff3{
		a, b, x - b*float64(ascent),
		dd, e, y - e*float64(ascent),
	}
	draw.BiLinear.Transform(dst, m, glyph, glyph.Bounds(), draw.Over, nil)
}
