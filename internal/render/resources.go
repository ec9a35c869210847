// Copyright 2026 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package render

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"rescribe.xyz/platesynth/compose"
)

// DefaultSizes are the pixel sizes each font is loaded at
var DefaultSizes = []int{120, 130, 140, 160, 180}

// ResourceError records a font or background which could not be
// loaded.
type ResourceError struct {
	Path string
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("Error loading %s: %v", e.Path, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

// Font is a font family loaded at several sizes
type Font struct {
	Name  string
	Faces []*compose.Face
}

// Background is a background image, which is only decoded when used
type Background struct {
	Name string
	Path string
}

// Name makes a table key from a file name: the extension is dropped,
// any other dots and all spaces become hyphens.
func Name(fn string) string {
	parts := strings.Split(filepath.Base(fn), ".")
	if len(parts) > 1 {
		parts = parts[:len(parts)-1]
	}
	return strings.Replace(strings.Join(parts, "-"), " ", "-", -1)
}

// listDir returns the sorted names of the regular files in dir for
// which keep returns true.
func listDir(dir string, keep func(string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("Failed to read directory %s: %v", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !keep(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func isFont(fn string) bool {
	ext := strings.ToLower(filepath.Ext(fn))
	return ext == ".ttf" || ext == ".tff"
}

// LoadFonts loads every .ttf or .tff font in dir at each of sizes,
// returning them sorted by name. A font which fails to load is logged
// and left out; it is an error if no fonts load at all.
func LoadFonts(dir string, sizes []int, logger *log.Logger) ([]Font, error) {
	if len(sizes) == 0 {
		return nil, errors.New("No font sizes given")
	}
	names, err := listDir(dir, isFont)
	if err != nil {
		return nil, err
	}

	var fonts []Font
	for _, n := range names {
		path := filepath.Join(dir, n)
		b, err := os.ReadFile(path)
		if err != nil {
			logger.Println(&ResourceError{path, err})
			continue
		}
		name := Name(n)
		faces, err := compose.LoadFaces(name, b, sizes)
		if err != nil {
			logger.Println(&ResourceError{path, err})
			continue
		}
		logger.Println("Loaded font", name)
		fonts = append(fonts, Font{Name: name, Faces: faces})
	}

	if len(fonts) == 0 {
		return nil, fmt.Errorf("No usable fonts found in %s", dir)
	}
	return fonts, nil
}

// CloseFonts releases every face of fonts
func CloseFonts(fonts []Font) {
	for _, f := range fonts {
		for _, face := range f.Faces {
			_ = face.Close()
		}
	}
}

// LoadBackgrounds lists the .png images in dir, sorted by name.
// They are not decoded until they are used.
func LoadBackgrounds(dir string) ([]Background, error) {
	names, err := listDir(dir, func(n string) bool {
		return strings.HasSuffix(n, ".png")
	})
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("No background images found in %s", dir)
	}

	var bgs []Background
	for _, n := range names {
		bgs = append(bgs, Background{Name: Name(n), Path: filepath.Join(dir, n)})
	}
	return bgs, nil
}

// decode opens and decodes the image at path
func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ResourceError{path, err}
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, &ResourceError{path, err}
	}
	return img, nil
}
