// Copyright 2026 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// render is a package used by the platesynth commands, which runs
// batches of sample generation: choosing text, fonts and backgrounds,
// composing them, distorting the result and saving each pair. Note
// that it is considered an "internal" package, not intended for
// external use, and no guarantee is made of the stability of any
// interfaces provided.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log"
	"math/rand"
	"path"
	"strconv"
	"strings"

	"rescribe.xyz/platesynth/compose"
	"rescribe.xyz/platesynth/distort"
	"rescribe.xyz/platesynth/platetext"
)

// Probabilities of each distortion being applied to a sample. They
// are independent, and applied in the order noise, skew, perspective.
const (
	NoiseProb       = 0.7
	SkewProb        = 0.4
	PerspectiveProb = 0.6
)

// DefaultMaskDir is the directory masks are saved in, relative to
// the rest of the output
const DefaultMaskDir = "masks"

var (
	visibleFill = color.RGBA{0, 0, 0, 255}
	maskFill    = color.RGBA{255, 255, 255, 255}
)

// Sink stores finished images. key is a slash separated relative
// path ending in ".png".
type Sink interface {
	Save(key string, img image.Image) error
}

// Job describes a batch of samples to render
type Job struct {
	N           int
	Fonts       []Font
	Backgrounds []Background
	Sink        Sink
	Rand        *rand.Rand

	// MaskDir defaults to DefaultMaskDir if empty
	MaskDir string
	// WarpMask applies the same skew and perspective to the mask as
	// to the visible image, filling uncovered pixels with white. By
	// default masks are left undistorted.
	WarpMask bool
	// Labels, if set, has a tab separated line written for each
	// saved sample
	Labels io.Writer
	Logger *log.Logger
}

// Sample records what went into one saved pair
type Sample struct {
	Name       string
	MaskName   string
	Text       string
	Background string
	Font       string
	Size       int
	Width      int
	Height     int

	Noise          distort.Noise
	Skewed         bool
	Skew           int
	Perspectived   bool
	PerspectiveDst distort.Quad
}

// Distortions describes the distortions applied, in order, such as
// "noise=gaussian,skew=-12,perspective"
func (s Sample) Distortions() string {
	var d []string
	if s.Noise != "" {
		d = append(d, "noise="+string(s.Noise))
	}
	if s.Skewed {
		d = append(d, "skew="+strconv.Itoa(s.Skew))
	}
	if s.Perspectived {
		d = append(d, "perspective")
	}
	if len(d) == 0 {
		return "none"
	}
	return strings.Join(d, ",")
}

// Stats summarises a batch
type Stats struct {
	Requested    int
	Done         int
	Skipped      int
	Noise        map[distort.Noise]int
	Skews        int
	Perspectives int
	Samples      []Sample
}

func newStats(n int) Stats {
	return Stats{Requested: n, Noise: make(map[distort.Noise]int)}
}

func (s *Stats) add(smp Sample) {
	s.Done++
	if smp.Noise != "" {
		s.Noise[smp.Noise]++
	}
	if smp.Skewed {
		s.Skews++
	}
	if smp.Perspectived {
		s.Perspectives++
	}
	s.Samples = append(s.Samples, smp)
}

// OutputName is the file name of the visible image of a sample, with
// spaces replaced by hyphens
func OutputName(bg, font string, size int, text string) string {
	n := strings.Join([]string{bg, font, strconv.Itoa(size), text}, "_")
	return strings.Replace(n, " ", "-", -1) + ".png"
}

func (j *Job) check() error {
	if j.N < 0 {
		return fmt.Errorf("Invalid number of samples: %d", j.N)
	}
	if len(j.Fonts) == 0 {
		return errors.New("No fonts to render with")
	}
	for _, f := range j.Fonts {
		if len(f.Faces) == 0 {
			return fmt.Errorf("Font %s has no sizes loaded", f.Name)
		}
	}
	if len(j.Backgrounds) == 0 {
		return errors.New("No backgrounds to render on")
	}
	if j.Sink == nil {
		return errors.New("No sink to save samples to")
	}
	if j.Rand == nil {
		return errors.New("No random source given")
	}
	if j.MaskDir == "" {
		j.MaskDir = DefaultMaskDir
	}
	if j.Logger == nil {
		var n NullWriter
		j.Logger = log.New(n, "", 0)
	}
	return nil
}

// Render generates job.N samples one after another. A sample which
// fails to be made, for example because its background could not be
// decoded or its distortion was degenerate, is logged and skipped. A
// failure to save is returned straight away, as is cancellation of
// ctx, which is checked between samples.
func Render(ctx context.Context, job Job) (Stats, error) {
	stats := newStats(job.N)
	if err := job.check(); err != nil {
		return stats, err
	}

	for i := 0; i < job.N; i++ {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		smp, pair, err := sample(&job)
		if err != nil {
			job.Logger.Printf("Skipping sample %d: %v\n", i, err)
			stats.Skipped++
			continue
		}

		job.Logger.Println("Saving", smp.Name)
		err = job.Sink.Save(smp.Name, pair.Visible)
		if err != nil {
			return stats, fmt.Errorf("Error saving %s: %v", smp.Name, err)
		}
		err = job.Sink.Save(smp.MaskName, pair.Mask)
		if err != nil {
			return stats, fmt.Errorf("Error saving %s: %v", smp.MaskName, err)
		}
		if job.Labels != nil {
			_, err = fmt.Fprintf(job.Labels, "%s\t%s\t%s\t%s\n", smp.Name, smp.MaskName, smp.Text, smp.Distortions())
			if err != nil {
				return stats, fmt.Errorf("Error writing labels: %v", err)
			}
		}
		stats.add(smp)
	}

	return stats, nil
}

// sample makes one sample pair, with every random choice drawn from
// job.Rand in a fixed order.
func sample(job *Job) (Sample, compose.Pair, error) {
	r := job.Rand
	var smp Sample

	text := platetext.Generate(r)
	bg := job.Backgrounds[r.Intn(len(job.Backgrounds))]
	font := job.Fonts[r.Intn(len(job.Fonts))]
	face := font.Faces[r.Intn(len(font.Faces))]

	smp.Text = text
	smp.Background = bg.Name
	smp.Font = font.Name
	smp.Size = face.Size
	smp.Name = OutputName(bg.Name, font.Name, face.Size, text)
	smp.MaskName = path.Join(job.MaskDir, "mask_"+smp.Name)

	img, err := decode(bg.Path)
	if err != nil {
		return smp, compose.Pair{}, err
	}

	pair, err := compose.Compose(text, img, face, r)
	if err != nil {
		return smp, pair, fmt.Errorf("Error composing %s with %s: %w", text, face, err)
	}

	if r.Float64() < NoiseProb {
		smp.Noise = distort.RandomNoise(r)
		pair.Visible, err = distort.AddNoise(pair.Visible, smp.Noise, r)
		if err != nil {
			return smp, pair, err
		}
	}

	if r.Float64() < SkewProb {
		smp.Skewed = true
		smp.Skew = distort.RandomSkew(r)
		pair.Visible, err = distort.Shear(pair.Visible, smp.Skew, visibleFill)
		if err != nil {
			return smp, pair, err
		}
		if job.WarpMask {
			pair.Mask, err = distort.Shear(pair.Mask, smp.Skew, maskFill)
			if err != nil {
				return smp, pair, err
			}
		}
	}

	if r.Float64() < PerspectiveProb {
		smp.Perspectived = true
		b := pair.Visible.Bounds()
		src := distort.ImageQuad(b.Dx(), b.Dy())
		smp.PerspectiveDst = distort.RandomQuad(b.Dx(), b.Dy(), r)
		pair.Visible, err = distort.Perspective(pair.Visible, src, smp.PerspectiveDst, visibleFill)
		if err != nil {
			return smp, pair, err
		}
		if job.WarpMask {
			pair.Mask, err = distort.Perspective(pair.Mask, src, smp.PerspectiveDst, maskFill)
			if err != nil {
				return smp, pair, err
			}
		}
	}

	b := pair.Visible.Bounds()
	smp.Width, smp.Height = b.Dx(), b.Dy()

	return smp, pair, nil
}
