// Copyright 2026 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

/*
The platesynth package contains tools and functions for generating
synthetic images of licence plates, each paired with a mask image
suitable for training text segmentation models.

Introduction

A sample is made by choosing some plate text at random, drawing it on
a background image in a randomly chosen font and size, and then
distorting the result. The same text is drawn black on a plain white
canvas of identical size, at an identical position, to make the mask.
Samples are made one after another from a single random source, so a
batch is exactly reproducible from its seed.

The packages are split by concern:
  platetext  generates plate text following a fixed regional grammar
  distort    applies noise, skew and perspective warps to images
  compose    draws text onto a background and its mask
and the platesynth package itself contains the places samples can be
saved to (a local directory or an S3 bucket) and the reports made
about a batch (a chart of distortion counts and a PDF proof sheet).

Commands

The platesynth command renders a batch of samples:
  platesynth -fonts ./fonts -bg ./cleaned -n 500 -seed 1

The noisedup command makes distorted duplicates of existing real
plate images, organised in one directory per class:
  noisedup -loops 3 ./real

All of the tools will give information on what they do and how they
work with the '-h' flag.

To upload samples to S3 you'll need to change the settings in
cloudsettings.go, or use the -bucket and -region flags, and set up
your ~/.aws/credentials appropriately.
*/
package platesynth
