// Copyright 2026 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package render

import (
	"os"
	"path/filepath"
	"strings"
)

// null writer to enable non-verbose logging to be discarded
type NullWriter bool

func (w NullWriter) Write(p []byte) (n int, err error) {
	return len(p), nil
}

type fileWalk chan string

// Walk sends the path of all files to the channel, with the exception of
// any file which starts with "."
func (f fileWalk) Walk(path string, info os.FileInfo, err error) error {
	if err != nil {
		return err
	}
	// skip files starting with . to prevent automatically generated
	// files like .DS_Store getting in the way
	if strings.HasPrefix(filepath.Base(path), ".") {
		if info.IsDir() && filepath.Base(path) != "." {
			return filepath.SkipDir
		}
		return nil
	}
	if !info.IsDir() {
		f <- path
	}
	return nil
}

// isImage reports whether fn has a ".jpg" or ".png" suffix, in any case
func isImage(fn string) bool {
	ext := strings.ToLower(filepath.Ext(fn))
	return ext == ".jpg" || ext == ".jpeg" || ext == ".png"
}

// listImages returns the path of every image under dir, recursively,
// in lexical order
func listImages(dir string) ([]string, error) {
	walker := make(fileWalk)
	errc := make(chan error, 1)
	go func() {
		errc <- filepath.Walk(dir, walker.Walk)
		close(walker)
	}()

	var paths []string
	for p := range walker {
		if isImage(p) {
			paths = append(paths, p)
		}
	}
	return paths, <-errc
}
