// Copyright 2019 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package platesynth

import (
	"errors"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"rescribe.xyz/platesynth/distort"
	"rescribe.xyz/platesynth/internal/render"
)

const yticknum = 10

// statBars lists a bar for each noise kind, followed by skew,
// perspective and skipped counts
func statBars(stats render.Stats) []chart.Value {
	var bars []chart.Value
	for _, k := range distort.NoiseKinds {
		bars = append(bars, chart.Value{Label: string(k), Value: float64(stats.Noise[k])})
	}
	bars = append(bars,
		chart.Value{Label: "skew", Value: float64(stats.Skews)},
		chart.Value{Label: "perspective", Value: float64(stats.Perspectives)},
		chart.Value{Label: "skipped", Value: float64(stats.Skipped)},
	)
	return bars
}

// Graph creates a bar chart of how often each distortion was applied
// in a batch, as a png
func Graph(stats render.Stats, title string, w io.Writer) error {
	if stats.Done == 0 {
		return errors.New("No samples were made")
	}

	bars := statBars(stats)
	max := 1.0
	for _, b := range bars {
		max = math.Max(max, b.Value)
	}

	// an explicit range stops the chart failing when every bar has
	// the same height
	var yticks []chart.Tick
	step := math.Ceil(max / yticknum)
	for i := 0.0; i <= max+step; i += step {
		yticks = append(yticks, chart.Tick{Value: i, Label: chart.FloatValueFormatter(i)})
	}

	graph := chart.BarChart{
		Title:  title,
		Width:  1600,
		Height: 800,
		Background: chart.Style{
			Padding: chart.Box{Top: 60},
		},
		BarWidth:   80,
		BarSpacing: 40,
		YAxis: chart.YAxis{
			Name: "Samples",
			Range: &chart.ContinuousRange{
				Min: 0.0,
				Max: yticks[len(yticks)-1].Value,
			},
			Ticks: yticks,
		},
		Bars: bars,
	}
	return graph.Render(chart.PNG, w)
}
