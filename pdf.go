// Copyright 2019 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package platesynth

import (
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"os"

	"github.com/nickjwhite/gofpdf"
	"rescribe.xyz/platesynth/internal/render"
)

// Proof sheet layout, in pts
const (
	sheetMargin = 30.0
	cellWidth   = 260.0
	cellHeight  = 90.0
	cellGap     = 15.0
	captionSize = 9.0
)

// imageSize returns the pixel dimensions of the image at path
func imageSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("Error decoding %s: %v", path, err)
	}
	return cfg.Width, cfg.Height, nil
}

// fitBox scales w x h to fit inside bw x bh, keeping its aspect ratio
func fitBox(w, h int, bw, bh float64) (float64, float64) {
	s := bw / float64(w)
	if sh := bh / float64(h); sh < s {
		s = sh
	}
	return float64(w) * s, float64(h) * s
}

// ProofSheet writes a PDF showing each sample saved in sink beside its
// mask, captioned with its text and distortions. At most max samples
// are included, unless max is 0.
func ProofSheet(samples []render.Sample, sink DirSink, max int, w io.Writer) error {
	if len(samples) == 0 {
		return errors.New("No samples to include")
	}
	if max > 0 && len(samples) > max {
		samples = samples[:max]
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetFont("Helvetica", "", captionSize)
	pdf.SetAutoPageBreak(false, float64(0))
	_, pageHeight := pdf.GetPageSize()
	rowHeight := cellHeight + captionSize*2

	y := pageHeight
	for _, s := range samples {
		if y+rowHeight > pageHeight-sheetMargin {
			pdf.AddPage()
			y = sheetMargin
		}
		for i, key := range []string{s.Name, s.MaskName} {
			fn := sink.Path(key)
			iw, ih, err := imageSize(fn)
			if err != nil {
				return err
			}
			bw, bh := fitBox(iw, ih, cellWidth, cellHeight)
			opts := gofpdf.ImageOptions{ImageType: "PNG"}
			_ = pdf.RegisterImageOptions(fn, opts)
			x := sheetMargin + float64(i)*(cellWidth+cellGap)
			pdf.ImageOptions(fn, x, y, bw, bh, false, opts, 0, "")
		}
		pdf.SetXY(sheetMargin, y+cellHeight)
		caption := fmt.Sprintf("%s  [%s]  %s", s.Text, s.Distortions(), s.Name)
		pdf.CellFormat(2*cellWidth+cellGap, captionSize*1.5, caption, "", 0, "L", false, 0, "")
		y += rowHeight + cellGap
	}

	err := pdf.Error()
	if err != nil {
		return fmt.Errorf("Error creating proof sheet: %v", err)
	}
	return pdf.Output(w)
}
