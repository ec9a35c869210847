// Copyright 2026 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// compose draws plate text onto a background and, in lockstep, onto a
// plain white mask canvas, so that the two images of a sample pair
// have the same size and the text at the same place.
package compose

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math/rand"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// ErrEmptyText is returned when asked to compose an empty string
var ErrEmptyText = errors.New("no text to compose")

const (
	// widthMargin is the proportion of extra room the background
	// needs beyond the text width, and the growth factor used when it
	// does not have it
	widthMargin = 0.2
	growFactor  = 1.2
	// anchor is the proportion of the canvas size the text is
	// placed at from the top left
	anchor = 0.1
	// maxGrey bounds the random grey level of text on the visible image
	maxGrey = 50
)

// Pair holds the two canvases of one sample. Visible is the plate as
// seen by a camera, Mask is the text alone in black on white.
type Pair struct {
	Visible *image.RGBA
	Mask    *image.RGBA
	Origin  image.Point
	Text    string
}

// Measure returns the width and height text takes up in face. Each
// character is measured on its own: the width is the sum of their
// advances, and the height the tallest of them measured from the top
// of the ascent to the bottom of the glyph.
func Measure(text string, face *Face) (int, int) {
	ascent := face.face.Metrics().Ascent
	var w, h fixed.Int26_6
	for _, c := range text {
		adv, ok := face.face.GlyphAdvance(c)
		if ok {
			w += adv
		}
		b, _ := font.BoundString(face.face, string(c))
		ch := ascent
		if b.Max.Y > 0 {
			ch += b.Max.Y
		}
		if ch > h {
			h = ch
		}
	}
	return w.Ceil(), h.Ceil()
}

// FitSize returns the size a w by h background should be to hold text
// tw by th. The width grows to 1.2*tw if there is less than a fifth of
// the background spare, and the height to 1.2*th if the text does not
// fit. Neither ever shrinks.
func FitSize(w, h, tw, th int) (int, int) {
	if float64(w) < float64(tw)+widthMargin*float64(w) {
		if grown := int(float64(tw) * growFactor); grown > w {
			w = grown
		}
	}
	if h < th {
		h = int(float64(th) * growFactor)
	}
	return w, h
}

// RescaleToFit returns an opaque copy of bg, resized with bilinear
// interpolation if needed to fit text tw by th as FitSize describes.
func RescaleToFit(bg image.Image, tw, th int) *image.RGBA {
	src := opaque(bg)
	b := src.Bounds()
	w, h := FitSize(b.Dx(), b.Dy(), tw, th)
	if w == b.Dx() && h == b.Dy() {
		return src
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(out, out.Bounds(), src, b, xdraw.Src, nil)
	return out
}

// opaque copies img to a new RGBA image at the origin, dropping any
// transparency so each pixel keeps its straight colour at full alpha
func opaque(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
		return out
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out.SetRGBA(x-b.Min.X, y-b.Min.Y, color.RGBA{c.R, c.G, c.B, 255})
		}
	}
	return out
}

// Compose places text onto a resized copy of bg in a random near
// black grey, and the same text in pure black at the same place on a
// white canvas of the same size. bg is not modified.
func Compose(text string, bg image.Image, face *Face, r *rand.Rand) (Pair, error) {
	if text == "" {
		return Pair{}, ErrEmptyText
	}
	if bg.Bounds().Empty() {
		return Pair{}, errors.New("background has zero area")
	}

	tw, th := Measure(text, face)
	visible := RescaleToFit(bg, tw, th)
	b := visible.Bounds()
	origin := image.Pt(int(float64(b.Dx())*anchor), int(float64(b.Dy())*anchor))

	grey := uint8(r.Float64() * maxGrey)
	drawText(visible, text, origin, color.RGBA{grey, grey, grey, 255}, face)

	mask := image.NewRGBA(b)
	draw.Draw(mask, b, image.White, image.Point{}, draw.Src)
	drawText(mask, text, origin, color.Black, face)

	return Pair{Visible: visible, Mask: mask, Origin: origin, Text: text}, nil
}

// drawText draws text with the top of its ascent at origin
func drawText(dst draw.Image, text string, origin image.Point, c color.Color, face *Face) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face.face,
		Dot: fixed.Point26_6{
			X: fixed.I(origin.X),
			Y: fixed.I(origin.Y) + face.face.Metrics().Ascent,
		},
	}
	d.DrawString(text)
}
