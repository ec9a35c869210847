// Copyright 2026 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package distort

import (
	"fmt"
	"image"
	"image/color"
	"math/rand"

	xdraw "golang.org/x/image/draw"
)

// MaxSkew is the largest horizontal shift RandomSkew returns, in
// either direction.
const MaxSkew = 100

// RandomSkew returns a horizontal shift in pixels drawn uniformly
// from [-MaxSkew, MaxSkew].
func RandomSkew(r *rand.Rand) int {
	return r.Intn(2*MaxSkew+1) - MaxSkew
}

// ShearTriangle returns t with its first two points moved k pixels
// to the right, which describes a horizontal shear when t is an
// ImageTriangle.
func ShearTriangle(t Triangle, k int) Triangle {
	return Triangle{
		{t[0].X + float64(k), t[0].Y},
		{t[1].X + float64(k), t[1].Y},
		t[2],
	}
}

// Skew applies the affine transform taking src to dst to img. The
// output is widened by |k| pixels so that a shear of k pixels is not
// clipped, and keeps the height of img. Pixels which nothing maps to
// are set to fill.
func Skew(img image.Image, src, dst Triangle, k int, fill color.Color) (*image.RGBA, error) {
	in, err := toRGBA(img)
	if err != nil {
		return nil, err
	}
	m, err := Affine(src, dst)
	if err != nil {
		return nil, fmt.Errorf("skew from %v to %v: %w", src, dst, err)
	}

	b := in.Bounds()
	out := filled(b.Dx()+abs(k), b.Dy(), fill)
	xdraw.BiLinear.Transform(out, m, in, b, xdraw.Src, nil)

	return out, nil
}

// Shear skews img horizontally by k pixels, using the image corners
// as control points.
func Shear(img image.Image, k int, fill color.Color) (*image.RGBA, error) {
	b := img.Bounds()
	src := ImageTriangle(b.Dx(), b.Dy())
	return Skew(img, src, ShearTriangle(src, k), k, fill)
}
