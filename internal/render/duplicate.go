// Copyright 2026 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"math/rand"
	"path/filepath"
	"strings"

	"rescribe.xyz/platesynth/distort"
)

// Probabilities used when duplicating real images
const (
	DupPerspectiveProb = 0.8
	DupSkewProb        = 0.5
	DupNoiseProb       = 0.5
)

// DupJob describes a run duplicating a directory of real plate
// images with random distortions
type DupJob struct {
	// InDir holds one subdirectory of images per class
	InDir  string
	Loops  int
	Sink   Sink
	Rand   *rand.Rand
	Logger *log.Logger
}

// DupName is the output name of a duplicate: the applied distortion
// prefixes, then the class directory and file name joined with an
// underscore. The loop number is added when there is more than one
// loop so that later loops don't overwrite earlier ones.
func DupName(prefixes []string, path string, loop, loops int) string {
	class := filepath.Base(filepath.Dir(path))
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if loops > 1 {
		base = fmt.Sprintf("%s_%d", base, loop)
	}
	var parts []string
	for i := len(prefixes) - 1; i >= 0; i-- {
		parts = append(parts, prefixes[i])
	}
	parts = append(parts, class, base)
	return strings.Join(parts, "_") + ".png"
}

// Duplicate makes job.Loops distorted copies of every image under
// job.InDir. Most images get a perspective warp followed maybe by a
// skew, the rest a skew; either way noise may be added last. Images
// which cannot be read or distorted are logged and skipped.
func Duplicate(ctx context.Context, job DupJob) (Stats, error) {
	var stats Stats
	if job.Sink == nil || job.Rand == nil {
		return stats, errors.New("Duplicate needs a sink and a random source")
	}
	if job.Logger == nil {
		var n NullWriter
		job.Logger = log.New(n, "", 0)
	}

	paths, err := listImages(job.InDir)
	if err != nil {
		return stats, fmt.Errorf("Failed to list images in %s: %v", job.InDir, err)
	}
	if len(paths) == 0 {
		return stats, fmt.Errorf("No images found in %s", job.InDir)
	}

	stats = newStats(len(paths) * job.Loops)
	for loop := 0; loop < job.Loops; loop++ {
		for _, p := range paths {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			default:
			}

			smp, img, err := duplicate(p, job.Rand)
			if err != nil {
				job.Logger.Printf("Skipping %s: %v\n", p, err)
				stats.Skipped++
				continue
			}
			smp.Name = DupName(prefixes(smp), p, loop, job.Loops)

			job.Logger.Println("Saving", smp.Name)
			err = job.Sink.Save(smp.Name, img)
			if err != nil {
				return stats, fmt.Errorf("Error saving %s: %v", smp.Name, err)
			}
			stats.add(smp)
		}
	}

	return stats, nil
}

// prefixes lists the name prefixes for the distortions of smp, in
// the order they were applied
func prefixes(smp Sample) []string {
	var p []string
	if smp.Perspectived {
		p = append(p, "perspec")
	}
	if smp.Skewed {
		p = append(p, "skew")
	}
	if smp.Noise != "" {
		p = append(p, string(smp.Noise))
	}
	return p
}

func duplicate(path string, r *rand.Rand) (Sample, image.Image, error) {
	var smp Sample
	img, err := decode(path)
	if err != nil {
		return smp, nil, err
	}

	skew := func() error {
		smp.Skewed = true
		smp.Skew = distort.RandomSkew(r)
		img, err = distort.Shear(img, smp.Skew, visibleFill)
		return err
	}

	if r.Float64() < DupPerspectiveProb {
		smp.Perspectived = true
		img, smp.PerspectiveDst, err = distort.RandomPerspective(img, visibleFill, r)
		if err != nil {
			return smp, nil, err
		}
		if r.Float64() < DupSkewProb {
			if err = skew(); err != nil {
				return smp, nil, err
			}
		}
	} else {
		if err = skew(); err != nil {
			return smp, nil, err
		}
	}

	if r.Float64() < DupNoiseProb {
		smp.Noise = distort.RandomNoise(r)
		img, err = distort.AddNoise(img, smp.Noise, r)
		if err != nil {
			return smp, nil, err
		}
	}

	b := img.Bounds()
	smp.Width, smp.Height = b.Dx(), b.Dy()
	return smp, img, nil
}
