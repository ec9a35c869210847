// Copyright 2026 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"rescribe.xyz/platesynth"
	"rescribe.xyz/platesynth/internal/render"
)

const usage = `Usage: platesynth [-v] [-n num] [-seed seed] [-fonts dir] [-bg dir] [-out dir]

Renders synthetic licence plate images. Each sample is some random
plate text drawn in a random font and size onto a random background,
and then maybe noised, skewed and warped in perspective. A mask image
of the same text in black on white is saved alongside each sample,
under the mask directory.

The same seed, fonts and backgrounds will always give the same
samples. If no seed is given one is chosen from the clock, and
printed so the batch can be made again.

`

// null writer to enable non-verbose logging to be discarded
type NullWriter bool

func (w NullWriter) Write(p []byte) (n int, err error) {
	return len(p), nil
}

// parseSizes parses a comma separated list of positive pixel sizes
func parseSizes(s string) ([]int, error) {
	var sizes []int
	for _, f := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || n <= 0 {
			return sizes, fmt.Errorf("Invalid size %q", f)
		}
		sizes = append(sizes, n)
	}
	return sizes, nil
}

func main() {
	defaultout := filepath.Join("out_render", "render_"+time.Now().Format("2006-01-02"))
	verbose := flag.Bool("v", false, "verbose")
	fontdir := flag.String("fonts", "fonts", "directory of .ttf fonts")
	bgdir := flag.String("bg", "cleaned", "directory of .png backgrounds")
	outdir := flag.String("out", defaultout, "output directory")
	maskdir := flag.String("mask", render.DefaultMaskDir, "directory for masks, relative to the output directory")
	num := flag.Int("n", 100, "number of samples to render")
	seed := flag.Int64("seed", 0, "random seed (0 to choose from the clock)")
	sizelist := flag.String("sizes", "120,130,140,160,180", "comma separated font sizes")
	warpmask := flag.Bool("warpmask", false, "apply the same skew and perspective to masks as to samples")
	labels := flag.Bool("labels", false, "write labels.tsv to the output directory")
	graph := flag.String("graph", "", "write a chart of distortion counts to this png file")
	pdf := flag.String("pdf", "", "write a proof sheet of samples to this pdf file")
	pdfmax := flag.Int("pdfmax", 50, "maximum number of samples in the proof sheet")
	bucket := flag.String("bucket", "", "also upload samples to this s3 bucket")
	region := flag.String("region", "", "s3 region (defaults to eu-west-2)")
	prefix := flag.String("prefix", "", "prefix for uploaded s3 keys")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage+"\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 0 {
		flag.Usage()
		return
	}

	var verboselog *log.Logger
	if *verbose {
		verboselog = log.New(os.Stdout, "", 0)
	} else {
		var n NullWriter
		verboselog = log.New(n, "", 0)
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	log.Println("Using seed", *seed)

	sizes, err := parseSizes(*sizelist)
	if err != nil {
		log.Fatalln("Error parsing sizes:", err)
	}

	verboselog.Println("Loading fonts from", *fontdir)
	fonts, err := render.LoadFonts(*fontdir, sizes, verboselog)
	if err != nil {
		log.Fatalln("Error loading fonts:", err)
	}
	defer render.CloseFonts(fonts)

	bgs, err := render.LoadBackgrounds(*bgdir)
	if err != nil {
		log.Fatalln("Error loading backgrounds:", err)
	}
	verboselog.Printf("Found %d backgrounds\n", len(bgs))

	err = os.MkdirAll(*outdir, 0755)
	if err != nil {
		log.Fatalln("Error creating output directory", *outdir, err)
	}

	dir := platesynth.DirSink{Dir: *outdir}
	var sink render.Sink = dir
	if *bucket != "" {
		s3 := &platesynth.S3Sink{Region: *region, Bucket: *bucket, Prefix: *prefix, Logger: verboselog}
		err = s3.Init()
		if err != nil {
			log.Fatalln("Error setting up s3:", err)
		}
		sink = platesynth.MultiSink{dir, s3}
	}

	job := render.Job{
		N:           *num,
		Fonts:       fonts,
		Backgrounds: bgs,
		Sink:        sink,
		Rand:        rand.New(rand.NewSource(*seed)),
		MaskDir:     *maskdir,
		WarpMask:    *warpmask,
		Logger:      verboselog,
	}

	if *labels {
		fn := filepath.Join(*outdir, "labels.tsv")
		f, err := os.Create(fn)
		if err != nil {
			log.Fatalln("Error creating file", fn, err)
		}
		defer f.Close()
		job.Labels = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stats, err := render.Render(ctx, job)
	if err != nil {
		log.Fatalf("Rendering stopped after %d samples: %v\n", stats.Done, err)
	}
	log.Printf("Rendered %d of %d samples to %s (%d skipped)\n", stats.Done, stats.Requested, *outdir, stats.Skipped)

	if *graph != "" {
		f, err := os.Create(*graph)
		if err != nil {
			log.Fatalln("Error creating file", *graph, err)
		}
		defer f.Close()
		err = platesynth.Graph(stats, filepath.Base(*outdir), f)
		if err != nil {
			log.Fatalln("Error creating graph", err)
		}
	}

	if *pdf != "" {
		f, err := os.Create(*pdf)
		if err != nil {
			log.Fatalln("Error creating file", *pdf, err)
		}
		defer f.Close()
		err = platesynth.ProofSheet(stats.Samples, dir, *pdfmax, f)
		if err != nil {
			log.Fatalln("Error creating proof sheet", err)
		}
	}
}
