// Copyright 2026 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// distort contains the geometric and photometric distortions used to
// make rendered plates look like they were photographed: perspective
// warps, horizontal skew, and statistical noise.
//
// Every function returns a new image and leaves its input untouched.
// Randomness is only ever drawn from a *rand.Rand given by the caller.
package distort

import (
	"errors"
	"math"

	"golang.org/x/image/math/f64"
)

// ErrDegenerate is returned when a set of control points cannot
// define a transform: collinear triangle points, or a quadrilateral
// which is self-intersecting or has three collinear corners.
var ErrDegenerate = errors.New("degenerate control points")

// ErrEmptyImage is returned when asked to distort an image with no area
var ErrEmptyImage = errors.New("image has zero area")

// eps is the smallest doubled area treated as non-degenerate
const eps = 1e-9

type Point struct {
	X, Y float64
}

func Pt(x, y int) Point {
	return Point{float64(x), float64(y)}
}

func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

// cross returns the z component of the cross product of a and b
func cross(a, b Point) float64 {
	return a.X*b.Y - a.Y*b.X
}

// Quad is a quadrilateral given as top-left, top-right, bottom-left
// and bottom-right corners, in that order.
type Quad [4]Point

// ImageQuad returns the corners of a w by h image
func ImageQuad(w, h int) Quad {
	return Quad{Pt(0, 0), Pt(w, 0), Pt(0, h), Pt(w, h)}
}

// Validate returns ErrDegenerate unless q is a strictly convex
// quadrilateral. A projective transform between two quads only exists
// without folding the plane when both are convex, so this also rules
// out self-intersecting quads.
func (q Quad) Validate() error {
	// walk the outline rather than the corner order
	ring := [4]Point{q[0], q[1], q[3], q[2]}
	var sign float64
	for i := 0; i < 4; i++ {
		a := ring[(i+1)%4].Sub(ring[i])
		b := ring[(i+2)%4].Sub(ring[(i+1)%4])
		c := cross(a, b)
		if math.Abs(c) < eps {
			return ErrDegenerate
		}
		if sign == 0 {
			sign = c
		} else if (c > 0) != (sign > 0) {
			return ErrDegenerate
		}
	}
	return nil
}

// Triangle holds the three control points of an affine transform
type Triangle [3]Point

// ImageTriangle returns the top-left, top-right and bottom-left
// corners of a w by h image.
func ImageTriangle(w, h int) Triangle {
	return Triangle{Pt(0, 0), Pt(w, 0), Pt(0, h)}
}

// Validate returns ErrDegenerate if the points of t are collinear
func (t Triangle) Validate() error {
	if math.Abs(cross(t[1].Sub(t[0]), t[2].Sub(t[0]))) < eps {
		return ErrDegenerate
	}
	return nil
}

// Matrix3 is a row-major 3x3 matrix acting on homogeneous coordinates
type Matrix3 [9]float64

// Apply maps p through m. ok is false if p maps to infinity.
func (m Matrix3) Apply(p Point) (q Point, ok bool) {
	w := m.w(p)
	if math.Abs(w) < eps {
		return Point{}, false
	}
	return Point{
		(m[0]*p.X + m[1]*p.Y + m[2]) / w,
		(m[3]*p.X + m[4]*p.Y + m[5]) / w,
	}, true
}

// w is the homogeneous coordinate of p after mapping through m
func (m Matrix3) w(p Point) float64 {
	return m[6]*p.X + m[7]*p.Y + m[8]
}

// Inverse returns the inverse of m
func (m Matrix3) Inverse() (Matrix3, error) {
	det := m[0]*(m[4]*m[8]-m[5]*m[7]) -
		m[1]*(m[3]*m[8]-m[5]*m[6]) +
		m[2]*(m[3]*m[7]-m[4]*m[6])
	if math.Abs(det) < eps {
		return Matrix3{}, ErrDegenerate
	}
	inv := Matrix3{
		m[4]*m[8] - m[5]*m[7], m[2]*m[7] - m[1]*m[8], m[1]*m[5] - m[2]*m[4],
		m[5]*m[6] - m[3]*m[8], m[0]*m[8] - m[2]*m[6], m[2]*m[3] - m[0]*m[5],
		m[3]*m[7] - m[4]*m[6], m[1]*m[6] - m[0]*m[7], m[0]*m[4] - m[1]*m[3],
	}
	for i := range inv {
		inv[i] /= det
	}
	return inv, nil
}

// Homography finds the projective transform mapping each corner of
// src onto the matching corner of dst.
func Homography(src, dst Quad) (Matrix3, error) {
	if err := src.Validate(); err != nil {
		return Matrix3{}, err
	}
	if err := dst.Validate(); err != nil {
		return Matrix3{}, err
	}

	// Two equations per correspondence, with h22 fixed at 1:
	//   h00 x + h01 y + h02 - h20 x X - h21 y X = X
	//   h10 x + h11 y + h12 - h20 x Y - h21 y Y = Y
	var a [8][9]float64
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		X, Y := dst[i].X, dst[i].Y
		a[i*2] = [9]float64{x, y, 1, 0, 0, 0, -x * X, -y * X, X}
		a[i*2+1] = [9]float64{0, 0, 0, x, y, 1, -x * Y, -y * Y, Y}
	}

	h, err := solve(a)
	if err != nil {
		return Matrix3{}, err
	}
	return Matrix3{h[0], h[1], h[2], h[3], h[4], h[5], h[6], h[7], 1}, nil
}

// solve performs gaussian elimination with partial pivoting on an
// augmented 8x9 system.
func solve(a [8][9]float64) ([8]float64, error) {
	var x [8]float64
	n := len(a)
	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < eps {
			return x, ErrDegenerate
		}
		a[col], a[pivot] = a[pivot], a[col]
		for row := col + 1; row < n; row++ {
			f := a[row][col] / a[col][col]
			for k := col; k <= n; k++ {
				a[row][k] -= f * a[col][k]
			}
		}
	}
	for row := n - 1; row >= 0; row-- {
		sum := a[row][n]
		for k := row + 1; k < n; k++ {
			sum -= a[row][k] * x[k]
		}
		x[row] = sum / a[row][row]
	}
	return x, nil
}

// Affine finds the affine transform mapping each point of src onto
// the matching point of dst, in the form used by
// golang.org/x/image/draw: X = m[0]x + m[1]y + m[2], Y = m[3]x + m[4]y + m[5].
func Affine(src, dst Triangle) (f64.Aff3, error) {
	if err := src.Validate(); err != nil {
		return f64.Aff3{}, err
	}
	if err := dst.Validate(); err != nil {
		return f64.Aff3{}, err
	}

	// Cramer's rule on [x y 1] rows, solved once for X and once for Y
	det := det3(src, [3]float64{1, 1, 1})
	if math.Abs(det) < eps {
		return f64.Aff3{}, ErrDegenerate
	}
	var xs, ys [3]float64
	for i := range dst {
		xs[i] = dst[i].X
		ys[i] = dst[i].Y
	}
	a, b, c := cramer(src, xs, det)
	d, e, f := cramer(src, ys, det)
	return f64.Aff3{a, b, c, d, e, f}, nil
}

// det3 is the determinant of the matrix with rows [x_i y_i k_i]
func det3(t Triangle, k [3]float64) float64 {
	return t[0].X*(t[1].Y*k[2]-k[1]*t[2].Y) -
		t[0].Y*(t[1].X*k[2]-k[1]*t[2].X) +
		k[0]*(t[1].X*t[2].Y-t[1].Y*t[2].X)
}

func cramer(t Triangle, v [3]float64, det float64) (float64, float64, float64) {
	var xcol, ycol Triangle
	for i := range t {
		xcol[i] = Point{v[i], t[i].Y}
		ycol[i] = Point{t[i].X, v[i]}
	}
	a := det3(xcol, [3]float64{1, 1, 1}) / det
	b := det3(ycol, [3]float64{1, 1, 1}) / det
	c := det3(t, v) / det
	return a, b, c
}
