// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package platesynth

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// DirSink saves images as png files under a local directory. It
// doesn't rely on any "cloud" services, which makes it particularly
// useful for testing.
type DirSink struct {
	Dir string
}

// Path returns the local path a key is saved to
func (d DirSink) Path(key string) string {
	return filepath.Join(d.Dir, filepath.FromSlash(key))
}

// Save encodes img as a png, creating any directories needed
func (d DirSink) Save(key string, img image.Image) error {
	fn := d.Path(key)
	err := os.MkdirAll(filepath.Dir(fn), 0755)
	if err != nil {
		return fmt.Errorf("Error creating directory for %s: %v", fn, err)
	}

	f, err := os.Create(fn)
	if err != nil {
		return fmt.Errorf("Error creating file %s: %v", fn, err)
	}
	defer f.Close()

	err = png.Encode(f, img)
	if err != nil {
		return fmt.Errorf("Error encoding image %s: %v", fn, err)
	}
	return f.Close()
}
