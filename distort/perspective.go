// Copyright 2026 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package distort

import (
	"fmt"
	"image"
	"image/color"
	"math/rand"
)

// Ranges for RandomQuad
const (
	minQuadScale = 0.1
	maxQuadScale = 0.3
)

// RandomQuad returns a destination quad for a w by h image which
// looks like the image was photographed from an angle. One of three
// shapes is chosen: the right side pulled in (40%), the left side
// pulled in (40%), or the whole frame shrunk towards the centre (20%),
// by a fraction of the frame drawn from [0.1, 0.3).
func RandomQuad(w, h int, r *rand.Rand) Quad {
	seed := r.Float64()
	scale := minQuadScale + r.Float64()*(maxQuadScale-minQuadScale)
	nscale := 1 - scale

	fw, fh := float64(w), float64(h)
	sw, sh := int(scale*fw), int(scale*fh)
	nw, nh := int(nscale*fw), int(nscale*fh)

	switch {
	case seed < 0.4:
		return Quad{Pt(0, 0), Pt(nw, sh), Pt(0, h), Pt(nw, nh)}
	case seed < 0.8:
		return Quad{Pt(sw, sh), Pt(w, 0), Pt(sw, nh), Pt(w, nh)}
	default:
		return Quad{Pt(sw, sh), Pt(nw, sh), Pt(sw, nh), Pt(nw, nh)}
	}
}

// Perspective warps img so that the src quad lands on the dst quad.
// The output is the same size as img; pixels which nothing maps to
// are set to fill.
func Perspective(img image.Image, src, dst Quad, fill color.Color) (*image.RGBA, error) {
	in, err := toRGBA(img)
	if err != nil {
		return nil, err
	}
	h, err := Homography(src, dst)
	if err != nil {
		return nil, fmt.Errorf("perspective from %v to %v: %w", src, dst, err)
	}
	inv, err := h.Inverse()
	if err != nil {
		return nil, fmt.Errorf("perspective from %v to %v: %w", src, dst, err)
	}

	bg := color.RGBAModel.Convert(fill).(color.RGBA)
	b := in.Bounds()
	out := image.NewRGBA(b)

	// points on the far side of the horizon have the opposite sign
	centre := Point{
		(dst[0].X + dst[1].X + dst[2].X + dst[3].X) / 4,
		(dst[0].Y + dst[1].Y + dst[2].Y + dst[3].Y) / 4,
	}
	front := inv.w(centre) > 0

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			p := Point{float64(x), float64(y)}
			if (inv.w(p) > 0) != front {
				out.SetRGBA(x, y, bg)
				continue
			}
			s, ok := inv.Apply(p)
			if !ok {
				out.SetRGBA(x, y, bg)
				continue
			}
			out.SetRGBA(x, y, bilinear(in, s.X, s.Y, bg))
		}
	}

	return out, nil
}

// RandomPerspective warps img onto a quad from RandomQuad, returning
// the quad used alongside the result.
func RandomPerspective(img image.Image, fill color.Color, r *rand.Rand) (*image.RGBA, Quad, error) {
	b := img.Bounds()
	dst := RandomQuad(b.Dx(), b.Dy(), r)
	out, err := Perspective(img, ImageQuad(b.Dx(), b.Dy()), dst, fill)
	return out, dst, err
}
