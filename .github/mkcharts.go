// Command mkcharts renders the delay charts of the backoff package into
// ./charts.
package main

import (
	"fmt"
	"image/color"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"andy.dev/again/backoff"
)

const (
	base       = time.Second
	capSeconds = 5
	limit      = capSeconds * time.Second

	runs       = 200_000
	binsPerSec = 10
	bins       = capSeconds * binsPerSec
	retries    = 5
	cumulative = 30
	gridCols   = 4
)

// series is one backoff function under test.
type series struct {
	name string
	file string
	fn   backoff.Func
}

// fullJitter draws uniformly from [0, f(attempt)].
func fullJitter(f backoff.Func) backoff.Func {
	return func(attempt int) time.Duration {
		d := f(attempt)
		if d <= 0 {
			return 0
		}
		return time.Duration(rand.Int64N(int64(d) + 1))
	}
}

func main() {
	log.SetFlags(log.Lshortfile)
	outDir := filepath.Join(must(os.Getwd()), "charts")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatal(err)
	}

	deterministic := []series{
		{name: "Fixed", file: "fixed", fn: backoff.Fixed(base)},
		{name: "Linear", file: "linear", fn: backoff.Linear(base / 2).Capped(limit)},
		{name: "Exponential", file: "exponential", fn: backoff.Exponential(base/4, limit)},
	}
	randomized := []series{
		{name: "SoftExponential", file: "soft", fn: backoff.SoftExponential(base, limit)},
		{name: "Exponential w/ Full Jitter", file: "expo", fn: fullJitter(backoff.Exponential(base, limit))},
		{name: "Jittered", file: "jitter", fn: backoff.Jittered(base/2, 3*base/2)},
	}

	save(outDir, "schedules", scheduleChart(deterministic))
	save(outDir, "arrivals", arrivalChart(randomized))
	for _, s := range randomized {
		delays := sample(s.fn)
		save(outDir, s.file+"_hist_full", histogram(s.name, delays.all(), 1))
		writeGrid(filepath.Join(outDir, s.file+"_hist_tries.png"), delays)
	}
}

// scheduleChart plots the delay before each retry.
func scheduleChart(all []series) *plot.Plot {
	p := plot.New()
	p.X.Label.Text = "Retry"
	p.Y.Label.Text = "Delay (seconds)"
	p.Legend.Top = true
	p.Legend.Left = true

	for i, s := range all {
		var pts plotter.XYs
		for n, d := range backoff.Schedule(s.fn, 2*retries) {
			pts = append(pts, plotter.XY{X: float64(n + 1), Y: d.Seconds()})
		}
		l, sc := must2(plotter.NewLinePoints(pts))
		l.LineStyle.Color = plotutil.Color(i)
		sc.GlyphStyle.Color = plotutil.Color(i)
		sc.GlyphStyle.Shape = plotutil.Shape(i)
		p.Add(l, sc)
		p.Legend.Add(s.name, l, sc)
	}
	return p
}

// arrivalChart plots when retries arrive at the server, as the share of all
// calls landing in each time bin, with local peaks marked.
func arrivalChart(all []series) *plot.Plot {
	p := plot.New()
	p.X.Label.Text = fmt.Sprintf("Arrival of %d consecutive retries, first %d seconds", cumulative, capSeconds)
	p.Y.Label.Text = "Share of calls"
	p.Y.Max = 0.15
	p.Y.Tick.Marker = plot.TickerFunc(percentTicks)
	p.X.Tick.Marker = secondTicks()
	p.Legend.Top = true

	for i, s := range all {
		shares := make(plotter.XYs, bins)
		for b := range shares {
			shares[b].X = float64(b)
		}
		for range runs {
			elapsed := time.Duration(0)
			for attempt := 1; attempt <= cumulative; attempt++ {
				elapsed += s.fn(attempt)
				if b := int(elapsed.Seconds()*binsPerSec) + 1; b < bins {
					shares[b].Y += 1.0 / runs
				}
			}
		}

		l := must(plotter.NewLine(shares))
		l.LineStyle.Width = vg.Points(1)
		l.LineStyle.Color = plotutil.Color(i)
		p.Add(l)
		p.Legend.Add(s.name, l)

		if pk := peaks(shares, 0.0055); len(pk) > 0 {
			marks := must(plotter.NewScatter(pk))
			marks.GlyphStyle = draw.GlyphStyle{
				Color:  color.Black,
				Radius: 4,
				Shape:  draw.TriangleGlyph{},
			}
			p.Add(marks)
		}
	}
	return p
}

// delays holds sampled delays, one row of retries per run.
type delays [][retries]float64

func sample(fn backoff.Func) delays {
	out := make(delays, runs)
	for r := range out {
		for i := range retries {
			out[r][i] = fn(i + 1).Seconds()
		}
	}
	return out
}

func (d delays) all() plotter.Values {
	out := make(plotter.Values, 0, len(d)*retries)
	for _, row := range d {
		out = append(out, row[:]...)
	}
	return out
}

func (d delays) retry(i int) plotter.Values {
	out := make(plotter.Values, len(d))
	for r, row := range d {
		out[r] = row[i]
	}
	return out
}

func histogram(title string, vals plotter.Values, norm float64) *plot.Plot {
	h := must(plotter.NewHist(vals, bins))
	h.Normalize(norm)
	p := plot.New()
	p.Title.Text = title
	p.Add(h)
	return p
}

// writeGrid renders one histogram per retry, gridCols to a row.
func writeGrid(file string, d delays) {
	rows := (retries + gridCols - 1) / gridCols
	grid := make([][]*plot.Plot, rows)
	for r := range grid {
		grid[r] = make([]*plot.Plot, gridCols)
	}
	for i := range retries {
		grid[i/gridCols][i%gridCols] = histogram("retry "+strconv.Itoa(i+1), d.retry(i), 100)
	}

	img := vgimg.New(gridCols*4*vg.Inch, font.Length(rows)*4*vg.Inch)
	tiles := draw.Tiles{Rows: rows, Cols: gridCols}
	canvases := plot.Align(grid, tiles, draw.New(img))
	for r := range grid {
		for c, p := range grid[r] {
			if p != nil {
				p.Draw(canvases[r][c])
			}
		}
	}

	w := must(os.Create(file))
	defer w.Close()
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		log.Fatalf("write %s: %v", file, err)
	}
	fmt.Println(file)
}

func save(dir, name string, p *plot.Plot) {
	file := filepath.Join(dir, name+".png")
	if err := p.Save(8*vg.Inch, 4*vg.Inch, file); err != nil {
		log.Fatal(err)
	}
	fmt.Println(file)
}

func percentTicks(lo, hi float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(lo, hi)
	for i := range ticks {
		if ticks[i].Label != "" {
			ticks[i].Label = fmt.Sprintf("%.3g%%", ticks[i].Value*100)
		}
	}
	return ticks
}

func secondTicks() plot.ConstantTicks {
	var ticks plot.ConstantTicks
	for s := 1; s <= capSeconds; s++ {
		ticks = append(ticks, plot.Tick{Value: float64(s * binsPerSec), Label: fmt.Sprintf("%ds", s)})
	}
	return ticks
}

// peaks returns the points higher than both neighbours by at least threshold
// in total.
func peaks(pts plotter.XYs, threshold float64) plotter.XYs {
	var out plotter.XYs
	for i := 1; i < len(pts)-1; i++ {
		rise := pts[i].Y - pts[i-1].Y
		fall := pts[i].Y - pts[i+1].Y
		if rise > 0 && fall > 0 && rise+fall >= threshold {
			out = append(out, pts[i])
		}
	}
	return out
}

func must[T any](v T, err error) T {
	if err != nil {
		log.Fatal(err)
	}
	return v
}

func must2[A, B any](a A, b B, err error) (A, B) {
	if err != nil {
		log.Fatal(err)
	}
	return a, b
}
