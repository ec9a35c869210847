// Copyright 2026 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
	"rescribe.xyz/platesynth/platetext"
)

// StrLog is a simple logger that saves to a string,
// so it can be printed out only when needed.
type StrLog struct {
	log string
}

func (t *StrLog) Write(p []byte) (n int, err error) {
	t.log += string(p)
	return len(p), nil
}

// memSink keeps encoded images in memory
type memSink struct {
	files map[string][]byte
	fail  error
}

func newMemSink() *memSink {
	return &memSink{files: make(map[string][]byte)}
}

func (s *memSink) Save(key string, img image.Image) error {
	if s.fail != nil {
		return s.fail
	}
	var b bytes.Buffer
	err := png.Encode(&b, img)
	if err != nil {
		return err
	}
	s.files[key] = b.Bytes()
	return nil
}

func (s *memSink) decode(t *testing.T, key string) image.Image {
	b, ok := s.files[key]
	if !ok {
		t.Fatalf("Nothing saved as %s", key)
	}
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("Could not decode %s: %v", key, err)
	}
	return img
}

func writePng(t *testing.T, path string, w, h int, c color.Color) {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Could not create %s: %v", path, err)
	}
	defer f.Close()
	err = png.Encode(f, img)
	if err != nil {
		t.Fatalf("Could not encode %s: %v", path, err)
	}
}

func writeFile(t *testing.T, path string, b []byte) {
	err := os.WriteFile(path, b, 0600)
	if err != nil {
		t.Fatalf("Could not write %s: %v", path, err)
	}
}

// setup creates font and background directories for a test, and
// returns the loaded tables
func setup(t *testing.T, vlog *log.Logger) ([]Font, []Background) {
	dir := t.TempDir()
	fontdir := filepath.Join(dir, "fonts")
	bgdir := filepath.Join(dir, "bg")
	for _, d := range []string{fontdir, bgdir} {
		if err := os.Mkdir(d, 0700); err != nil {
			t.Fatalf("Could not create %s: %v", d, err)
		}
	}
	writeFile(t, filepath.Join(fontdir, "Go Regular.ttf"), goregular.TTF)
	writePng(t, filepath.Join(bgdir, "yellow plate.png"), 220, 70, color.RGBA{230, 200, 30, 255})
	writePng(t, filepath.Join(bgdir, "white.png"), 300, 90, color.RGBA{245, 245, 245, 255})

	fonts, err := LoadFonts(fontdir, []int{24, 32}, vlog)
	if err != nil {
		t.Fatalf("Could not load fonts: %v", err)
	}
	t.Cleanup(func() { CloseFonts(fonts) })
	bgs, err := LoadBackgrounds(bgdir)
	if err != nil {
		t.Fatalf("Could not load backgrounds: %v", err)
	}
	return fonts, bgs
}

func TestName(t *testing.T) {
	cases := []struct {
		fn, name string
	}{
		{"plate.png", "plate"},
		{"/some/dir/Yellow Plate.png", "Yellow-Plate"},
		{"DejaVu Sans.Bold.ttf", "DejaVu-Sans-Bold"},
		{"noext", "noext"},
	}
	for _, c := range cases {
		if n := Name(c.fn); n != c.name {
			t.Errorf("Name(%q) = %q, expected %q", c.fn, n, c.name)
		}
	}
}

func TestLoadFonts(t *testing.T) {
	var slog StrLog
	vlog := log.New(&slog, "", 0)
	dir := t.TempDir()

	_, err := LoadFonts(dir, DefaultSizes, vlog)
	if err == nil {
		t.Fatalf("Expected an error loading fonts from an empty directory")
	}

	writeFile(t, filepath.Join(dir, "Go Regular.ttf"), goregular.TTF)
	writeFile(t, filepath.Join(dir, "Go Copy.TFF"), goregular.TTF)
	writeFile(t, filepath.Join(dir, "broken.ttf"), []byte("not a font"))
	writeFile(t, filepath.Join(dir, "readme.txt"), []byte("hello"))

	fonts, err := LoadFonts(dir, DefaultSizes, vlog)
	if err != nil {
		t.Fatalf("LoadFonts failed: %v\nLog: %s", err, slog.log)
	}
	defer CloseFonts(fonts)
	if len(fonts) != 2 {
		t.Fatalf("Loaded %d fonts, expected 2\nLog: %s", len(fonts), slog.log)
	}
	if fonts[0].Name != "Go-Copy" || fonts[1].Name != "Go-Regular" {
		t.Errorf("Fonts loaded as %s, %s, expected Go-Copy, Go-Regular", fonts[0].Name, fonts[1].Name)
	}
	for i, face := range fonts[1].Faces {
		if face.Size != DefaultSizes[i] {
			t.Errorf("Face %d has size %d, expected %d", i, face.Size, DefaultSizes[i])
		}
	}
	if !strings.Contains(slog.log, "broken.ttf") {
		t.Errorf("Broken font was not logged\nLog: %s", slog.log)
	}
}

func TestLoadBackgrounds(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadBackgrounds(dir); err == nil {
		t.Fatalf("Expected an error loading backgrounds from an empty directory")
	}
	writePng(t, filepath.Join(dir, "b plate.png"), 10, 10, color.White)
	writePng(t, filepath.Join(dir, "a.png"), 10, 10, color.White)
	writeFile(t, filepath.Join(dir, "c.jpg"), []byte("ignored"))
	writeFile(t, filepath.Join(dir, ".hidden.png"), []byte("ignored"))

	bgs, err := LoadBackgrounds(dir)
	if err != nil {
		t.Fatalf("LoadBackgrounds failed: %v", err)
	}
	if len(bgs) != 2 || bgs[0].Name != "a" || bgs[1].Name != "b-plate" {
		t.Errorf("Unexpected backgrounds: %v", bgs)
	}
}

func TestRender(t *testing.T) {
	var slog StrLog
	vlog := log.New(&slog, "", 0)
	fonts, bgs := setup(t, vlog)
	sink := newMemSink()
	var labels bytes.Buffer

	const n = 12
	stats, err := Render(context.Background(), Job{
		N:           n,
		Fonts:       fonts,
		Backgrounds: bgs,
		Sink:        sink,
		Rand:        rand.New(rand.NewSource(1)),
		Labels:      &labels,
		Logger:      vlog,
	})
	if err != nil {
		t.Fatalf("Render failed: %v\nLog: %s", err, slog.log)
	}
	if stats.Done != n || stats.Skipped != 0 || len(stats.Samples) != n {
		t.Fatalf("Done %d, skipped %d, expected %d done\nLog: %s", stats.Done, stats.Skipped, n, slog.log)
	}
	if len(sink.files) != 2*n {
		t.Errorf("Saved %d files, expected %d", len(sink.files), 2*n)
	}

	lines := strings.Split(strings.TrimSpace(labels.String()), "\n")
	if len(lines) != n {
		t.Errorf("Wrote %d label lines, expected %d", len(lines), n)
	}

	for i, smp := range stats.Samples {
		if _, ok := platetext.Match(smp.Text); !ok {
			t.Errorf("Sample text %q does not match the plate grammar", smp.Text)
		}
		expected := OutputName(smp.Background, smp.Font, smp.Size, smp.Text)
		if smp.Name != expected || strings.Contains(smp.Name, " ") {
			t.Errorf("Sample named %q, expected %q", smp.Name, expected)
		}
		if smp.MaskName != "masks/mask_"+smp.Name {
			t.Errorf("Mask named %q", smp.MaskName)
		}
		if !strings.HasPrefix(lines[i], smp.Name+"\t"+smp.MaskName+"\t"+smp.Text+"\t") {
			t.Errorf("Label line %q does not describe %s", lines[i], smp.Name)
		}

		vis := sink.decode(t, smp.Name)
		mask := sink.decode(t, smp.MaskName)
		vb, mb := vis.Bounds(), mask.Bounds()
		if vb.Dx() != smp.Width || vb.Dy() != smp.Height {
			t.Errorf("%s is %v, recorded as %dx%d", smp.Name, vb, smp.Width, smp.Height)
		}
		// the mask is undistorted, so only a skew changes its size
		expectW := mb.Dx()
		if smp.Skewed {
			expectW += abs(smp.Skew)
		}
		if vb.Dx() != expectW || vb.Dy() != mb.Dy() {
			t.Errorf("%s is %v but its mask is %v (skew %d)", smp.Name, vb, mb, smp.Skew)
		}
	}
}

func TestRenderDeterministic(t *testing.T) {
	vlog := log.New(NullWriter(false), "", 0)
	fonts, bgs := setup(t, vlog)

	run := func() *memSink {
		sink := newMemSink()
		_, err := Render(context.Background(), Job{
			N:           8,
			Fonts:       fonts,
			Backgrounds: bgs,
			Sink:        sink,
			Rand:        rand.New(rand.NewSource(77)),
			Logger:      vlog,
		})
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		return sink
	}

	a, b := run(), run()
	if len(a.files) != len(b.files) {
		t.Fatalf("Runs saved %d and %d files", len(a.files), len(b.files))
	}
	for k, v := range a.files {
		if !bytes.Equal(v, b.files[k]) {
			t.Errorf("File %s differs between runs with the same seed", k)
		}
	}
}

func TestRenderWarpMask(t *testing.T) {
	vlog := log.New(NullWriter(false), "", 0)
	fonts, bgs := setup(t, vlog)
	sink := newMemSink()
	stats, err := Render(context.Background(), Job{
		N:           10,
		Fonts:       fonts,
		Backgrounds: bgs,
		Sink:        sink,
		Rand:        rand.New(rand.NewSource(3)),
		WarpMask:    true,
		MaskDir:     "labels",
		Logger:      vlog,
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	for _, smp := range stats.Samples {
		if !strings.HasPrefix(smp.MaskName, "labels/") {
			t.Errorf("Mask %s not in the mask directory", smp.MaskName)
		}
		vb := sink.decode(t, smp.Name).Bounds()
		mb := sink.decode(t, smp.MaskName).Bounds()
		if !vb.Eq(mb) {
			t.Errorf("Warped mask %v differs in size from visible %v", mb, vb)
		}
	}
}

func TestRenderSkipsBadBackground(t *testing.T) {
	var slog StrLog
	vlog := log.New(&slog, "", 0)
	fonts, bgs := setup(t, vlog)

	bad := filepath.Join(t.TempDir(), "bad.png")
	writeFile(t, bad, []byte("this is not a png"))
	bgs = append(bgs, Background{Name: "bad", Path: bad})

	const n = 30
	stats, err := Render(context.Background(), Job{
		N:           n,
		Fonts:       fonts,
		Backgrounds: bgs,
		Sink:        newMemSink(),
		Rand:        rand.New(rand.NewSource(5)),
		Logger:      vlog,
	})
	if err != nil {
		t.Fatalf("Render failed: %v\nLog: %s", err, slog.log)
	}
	if stats.Skipped == 0 || stats.Done == 0 {
		t.Errorf("Expected some skipped and some done, got %d skipped and %d done", stats.Skipped, stats.Done)
	}
	if stats.Done+stats.Skipped != n {
		t.Errorf("Done %d + skipped %d != %d", stats.Done, stats.Skipped, n)
	}
	if !strings.Contains(slog.log, "bad.png") {
		t.Errorf("Bad background was not logged\nLog: %s", slog.log)
	}
}

func TestRenderErrors(t *testing.T) {
	vlog := log.New(NullWriter(false), "", 0)
	fonts, bgs := setup(t, vlog)

	sinkErr := errors.New("disk full")
	sink := newMemSink()
	sink.fail = sinkErr
	_, err := Render(context.Background(), Job{
		N: 3, Fonts: fonts, Backgrounds: bgs, Sink: sink,
		Rand: rand.New(rand.NewSource(1)), Logger: vlog,
	})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Expected the sink error to stop the batch, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stats, err := Render(ctx, Job{
		N: 3, Fonts: fonts, Backgrounds: bgs, Sink: newMemSink(),
		Rand: rand.New(rand.NewSource(1)), Logger: vlog,
	})
	if !errors.Is(err, context.Canceled) || stats.Done != 0 {
		t.Errorf("Expected cancellation before any samples, got %v with %d done", err, stats.Done)
	}

	cases := []struct {
		name string
		job  Job
	}{
		{"nofonts", Job{N: 1, Backgrounds: bgs, Sink: newMemSink(), Rand: rand.New(rand.NewSource(1))}},
		{"nobackgrounds", Job{N: 1, Fonts: fonts, Sink: newMemSink(), Rand: rand.New(rand.NewSource(1))}},
		{"nosink", Job{N: 1, Fonts: fonts, Backgrounds: bgs, Rand: rand.New(rand.NewSource(1))}},
		{"norand", Job{N: 1, Fonts: fonts, Backgrounds: bgs, Sink: newMemSink()}},
		{"negative", Job{N: -1, Fonts: fonts, Backgrounds: bgs, Sink: newMemSink(), Rand: rand.New(rand.NewSource(1))}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := Render(context.Background(), c.job); err == nil {
				t.Errorf("Expected an error")
			}
		})
	}
}

func TestDistortionRates(t *testing.T) {
	vlog := log.New(NullWriter(false), "", 0)
	fonts, bgs := setup(t, vlog)
	const n = 150
	stats, err := Render(context.Background(), Job{
		N: n, Fonts: fonts, Backgrounds: bgs, Sink: newMemSink(),
		Rand: rand.New(rand.NewSource(21)), Logger: vlog,
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	noised := 0
	for _, c := range stats.Noise {
		noised += c
	}
	rates := []struct {
		name     string
		count    int
		expected float64
	}{
		{"noise", noised, NoiseProb},
		{"skew", stats.Skews, SkewProb},
		{"perspective", stats.Perspectives, PerspectiveProb},
	}
	for _, r := range rates {
		p := float64(r.count) / n
		if p < r.expected-0.15 || p > r.expected+0.15 {
			t.Errorf("%s applied to %.2f of samples, expected about %.1f", r.name, p, r.expected)
		}
	}
}

func TestDupName(t *testing.T) {
	cases := []struct {
		prefixes    []string
		path        string
		loop, loops int
		name        string
	}{
		{[]string{"perspec"}, "in/car/a.jpg", 0, 1, "perspec_car_a.png"},
		{[]string{"perspec", "skew", "gaussian"}, "in/bike/b.png", 0, 1, "gaussian_skew_perspec_bike_b.png"},
		{[]string{"skew"}, "in/car/a.jpg", 2, 3, "skew_car_a_2.png"},
		{[]string{"perspec", "skew", "gaussian"}, "real/car/0001.png", 0, 1, "gaussian_skew_perspec_car_0001.png"},
	}
	for _, c := range cases {
		if n := DupName(c.prefixes, c.path, c.loop, c.loops); n != c.name {
			t.Errorf("DupName(%v, %s) = %s, expected %s", c.prefixes, c.path, n, c.name)
		}
	}
}

func TestDuplicate(t *testing.T) {
	var slog StrLog
	vlog := log.New(&slog, "", 0)
	dir := t.TempDir()
	for _, class := range []string{"car", "bike"} {
		d := filepath.Join(dir, class)
		if err := os.Mkdir(d, 0700); err != nil {
			t.Fatalf("Could not create %s: %v", d, err)
		}
		for i := 0; i < 2; i++ {
			writePng(t, filepath.Join(d, fmt.Sprintf("%d.png", i)), 120, 40, color.RGBA{200, 200, 200, 255})
		}
	}
	writeFile(t, filepath.Join(dir, "car", "broken.png"), []byte("nope"))
	writeFile(t, filepath.Join(dir, "car", "notes.txt"), []byte("ignored"))

	sink := newMemSink()
	stats, err := Duplicate(context.Background(), DupJob{
		InDir:  dir,
		Loops:  2,
		Sink:   sink,
		Rand:   rand.New(rand.NewSource(4)),
		Logger: vlog,
	})
	if err != nil {
		t.Fatalf("Duplicate failed: %v\nLog: %s", err, slog.log)
	}
	if stats.Done != 8 || stats.Skipped != 2 {
		t.Errorf("Done %d, skipped %d, expected 8 and 2\nLog: %s", stats.Done, stats.Skipped, slog.log)
	}
	if len(sink.files) != 8 {
		t.Errorf("Saved %d files, expected 8", len(sink.files))
	}
	for _, smp := range stats.Samples {
		if !smp.Perspectived && !smp.Skewed {
			t.Errorf("%s has neither perspective nor skew", smp.Name)
		}
		if !strings.Contains(smp.Name, "_car_") && !strings.Contains(smp.Name, "_bike_") {
			t.Errorf("%s does not name its class", smp.Name)
		}
		if !strings.HasPrefix(smp.Name, strings.Join(reversed(prefixes(smp)), "_")) {
			t.Errorf("%s does not start with its distortions", smp.Name)
		}
		img := sink.decode(t, smp.Name)
		if img.Bounds().Dx() != smp.Width {
			t.Errorf("%s is %d wide, recorded as %d", smp.Name, img.Bounds().Dx(), smp.Width)
		}
	}
}

func reversed(s []string) []string {
	var r []string
	for i := len(s) - 1; i >= 0; i-- {
		r = append(r, s[i])
	}
	return r
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
