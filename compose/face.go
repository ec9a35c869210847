// Copyright 2026 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package compose

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

// Face is a font loaded at one size. Faces are created once and then
// only read; note that the underlying font.Face caches glyph data and
// so a Face must not be used from several goroutines at once.
type Face struct {
	Name string
	Size int
	face font.Face
}

// LoadFaces parses a TrueType or OpenType font and makes a Face for
// each of the sizes given, in pixels.
func LoadFaces(name string, data []byte, sizes []int) ([]*Face, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("Error parsing font %s: %v", name, err)
	}

	var faces []*Face
	for _, size := range sizes {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{
			Size:    float64(size),
			DPI:     72,
			Hinting: font.HintingNone,
		})
		if err != nil {
			return nil, fmt.Errorf("Error creating face for %s at size %d: %v", name, size, err)
		}
		faces = append(faces, &Face{Name: name, Size: size, face: face})
	}

	return faces, nil
}

// Close releases the resources of the underlying font face
func (f *Face) Close() error {
	return f.face.Close()
}

func (f *Face) String() string {
	return fmt.Sprintf("%s@%d", f.Name, f.Size)
}
