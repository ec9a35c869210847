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
	"time"

	"rescribe.xyz/platesynth"
	"rescribe.xyz/platesynth/internal/render"
)

const usage = `Usage: noisedup [-v] [-loops n] [-seed seed] [-out dir] indir

Makes distorted copies of real plate images, to pad out a small set
of training data. indir should contain a directory of images for each
class. Most copies are warped in perspective and maybe skewed, the
rest are skewed; either way noise may be added too.

Each copy is named after the distortions applied to it, then its
class and original file name, for example
gaussian_skew_perspec_car_0001.png.

`

// null writer to enable non-verbose logging to be discarded
type NullWriter bool

func (w NullWriter) Write(p []byte) (n int, err error) {
	return len(p), nil
}

func main() {
	verbose := flag.Bool("v", false, "verbose")
	outdir := flag.String("out", "distorted", "output directory")
	loops := flag.Int("loops", 3, "number of copies to make of each image")
	seed := flag.Int64("seed", 0, "random seed (0 to choose from the clock)")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage+"\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 || *loops < 1 {
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stats, err := render.Duplicate(ctx, render.DupJob{
		InDir:  flag.Arg(0),
		Loops:  *loops,
		Sink:   platesynth.DirSink{Dir: *outdir},
		Rand:   rand.New(rand.NewSource(*seed)),
		Logger: verboselog,
	})
	if err != nil {
		log.Fatalf("Duplication stopped after %d images: %v\n", stats.Done, err)
	}
	log.Printf("Made %d copies in %s (%d skipped)\n", stats.Done, *outdir, stats.Skipped)
}
