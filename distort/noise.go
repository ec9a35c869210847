// Copyright 2026 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package distort

import (
	"errors"
	"fmt"
	"image"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrUnknownNoise is returned for a noise kind not in NoiseKinds
var ErrUnknownNoise = errors.New("unknown noise kind")

// Noise names a statistical noise model
type Noise string

const (
	Gaussian   Noise = "gaussian"
	LocalVar   Noise = "localvar"
	Poisson    Noise = "poisson"
	Salt       Noise = "salt"
	Pepper     Noise = "pepper"
	SaltPepper Noise = "s&p"
	Speckle    Noise = "speckle"
)

// NoiseKinds lists every supported noise model
var NoiseKinds = []Noise{Gaussian, LocalVar, Poisson, Salt, Pepper, SaltPepper, Speckle}

// Model parameters, on channel values scaled to [0, 1]
const (
	noiseVar     = 0.01
	noiseAmount  = 0.05
	saltVsPepper = 0.5
)

// ParseNoise returns the Noise named by s. "salt-and-pepper" is
// accepted as well as "s&p".
func ParseNoise(s string) (Noise, error) {
	if s == "salt-and-pepper" {
		return SaltPepper, nil
	}
	for _, n := range NoiseKinds {
		if string(n) == s {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownNoise, s)
}

// RandomNoise picks one of NoiseKinds uniformly
func RandomNoise(r *rand.Rand) Noise {
	return NoiseKinds[r.Intn(len(NoiseKinds))]
}

// AddNoise applies the noise model kind to every colour channel of
// every pixel of img. Values are worked on in the range [0, 1],
// clipped back into it, then scaled to 8 bits and truncated. The
// result is opaque, as any transparency in img is dropped first.
func AddNoise(img image.Image, kind Noise, r *rand.Rand) (*image.RGBA, error) {
	out, err := toRGBA(img)
	if err != nil {
		return nil, err
	}

	var f func(v float64) float64
	sd := math.Sqrt(noiseVar)
	switch kind {
	case Gaussian:
		f = func(v float64) float64 {
			return v + r.NormFloat64()*sd
		}
	case LocalVar:
		// variance map is uniform at noiseVar
		f = func(v float64) float64 {
			return v + r.NormFloat64()*sd
		}
	case Poisson:
		vals := poissonLevels(out)
		src := randSource{r}
		f = func(v float64) float64 {
			if v <= 0 {
				return 0
			}
			p := distuv.Poisson{Lambda: v * vals, Src: src}
			return p.Rand() / vals
		}
	case Salt:
		f = func(v float64) float64 {
			if r.Float64() < noiseAmount {
				return 1
			}
			return v
		}
	case Pepper:
		f = func(v float64) float64 {
			if r.Float64() < noiseAmount {
				return 0
			}
			return v
		}
	case SaltPepper:
		f = func(v float64) float64 {
			flip := r.Float64() < noiseAmount
			salt := r.Float64() < saltVsPepper
			switch {
			case flip && salt:
				return 1
			case flip:
				return 0
			}
			return v
		}
	case Speckle:
		f = func(v float64) float64 {
			return v + v*r.NormFloat64()*sd
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownNoise, kind)
	}

	for i := 0; i < len(out.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			v := f(float64(out.Pix[i+c]) / 255)
			out.Pix[i+c] = to8bit(v)
		}
	}

	return out, nil
}

// to8bit clips v to [0, 1] and scales it to a byte, truncating
func to8bit(v float64) uint8 {
	if v < 0 || math.IsNaN(v) {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint8(v * 255)
}

// poissonLevels returns the number of distinct colour levels in img,
// rounded up to a power of two, which is used to scale values into
// counts for the poisson model.
func poissonLevels(img *image.RGBA) float64 {
	var seen [256]bool
	n := 0
	for i := 0; i < len(img.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			v := img.Pix[i+c]
			if !seen[v] {
				seen[v] = true
				n++
			}
		}
	}
	return math.Pow(2, math.Ceil(math.Log2(float64(n))))
}

// randSource draws gonum's random numbers from the caller's
// *rand.Rand, so a seed still fixes every value
type randSource struct {
	r *rand.Rand
}

func (s randSource) Uint64() uint64 {
	return s.r.Uint64()
}

func (s randSource) Seed(seed uint64) {
	s.r.Seed(int64(seed))
}
