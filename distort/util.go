// Copyright 2026 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package distort

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// toRGBA copies img into a new opaque RGBA image with its origin at
// 0,0. Transparency is dropped, leaving each pixel its straight colour.
func toRGBA(img image.Image) (*image.RGBA, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrEmptyImage
	}
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
		return rgba, nil
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			rgba.SetRGBA(x-b.Min.X, y-b.Min.Y, color.RGBA{c.R, c.G, c.B, 255})
		}
	}
	return rgba, nil
}

// filled returns a new w by h image set entirely to c
func filled(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}

// bilinear samples img at the continuous position x, y, with pixel
// centres at integer coordinates. Any neighbour which falls outside
// the image takes the colour fill.
func bilinear(img *image.RGBA, x, y float64, fill color.RGBA) color.RGBA {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)

	p00 := at(img, x0, y0, fill)
	p10 := at(img, x0+1, y0, fill)
	p01 := at(img, x0, y0+1, fill)
	p11 := at(img, x0+1, y0+1, fill)

	mix := func(a, b, c, d uint8) uint8 {
		top := float64(a)*(1-fx) + float64(b)*fx
		bottom := float64(c)*(1-fx) + float64(d)*fx
		return uint8(math.Round(top*(1-fy) + bottom*fy))
	}

	return color.RGBA{
		mix(p00.R, p10.R, p01.R, p11.R),
		mix(p00.G, p10.G, p01.G, p11.G),
		mix(p00.B, p10.B, p01.B, p11.B),
		mix(p00.A, p10.A, p01.A, p11.A),
	}
}

func at(img *image.RGBA, x, y int, fill color.RGBA) color.RGBA {
	if !(image.Point{x, y}.In(img.Rect)) {
		return fill
	}
	return img.RGBAAt(x, y)
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
