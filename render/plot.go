package render

import (
	"fmt"
	"image/color"
	"math"

	plt "github.com/phil-mansfield/pyplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// sliceGrid lets a Slice be drawn by plotter.HeatMap. Background pixels
// are NaN.
type sliceGrid struct {
	s        *Slice
	min, max float64
}

func newSliceGrid(s *Slice) *sliceGrid {
	st := s.Stats()
	g := &sliceGrid{s: s, min: st.Min, max: st.Max}
	if !(g.max > g.min) {
		g.max = g.min + 1
	}
	return g
}

func (g *sliceGrid) Dims() (c, r int) { return g.s.NU, g.s.NV }
func (g *sliceGrid) X(c int) float64 { return g.s.U(c) }
func (g *sliceGrid) Y(r int) float64 { return g.s.V(r) }
func (g *sliceGrid) Min() float64 { return g.min }
func (g *sliceGrid) Max() float64 { return g.max }
func (g *sliceGrid) Z(c, r int) float64 {
	val, ok := g.s.At(c, r)
	if !ok {
		return math.NaN()
	}
	return val
}

// WriteHeatmap draws the slice as a heat map in plane-local coordinates and
// saves it to fname. The format is chosen from the file extension.
func WriteHeatmap(s *Slice, title, fname string) error {
	if s.NU < 2 || s.NV < 2 {
		return fmt.Errorf(
			"render: a heat map needs at least 2 x 2 pixels, got %d x %d",
			s.NU, s.NV,
		)
	} else if s.Stats().InCell == 0 {
		return fmt.Errorf("render: every pixel of '%s' is background", title)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "u [Å]"
	p.Y.Label.Text = "v [Å]"

	h := plotter.NewHeatMap(newSliceGrid(s), palette.Heat(12, 1))
	h.NaN = color.Transparent
	p.Add(h)

	return p.Save(6*vg.Inch, 6*vg.Inch, fname)
}

// WriteLinePlot saves a matplotlib figure of row j of the slice to fname.
// Runs of background pixels break the line. The generated script is only
// run once plt.Execute() is called.
func WriteLinePlot(s *Slice, j int, title, fname string) error {
	if j < 0 || j >= s.NV {
		return fmt.Errorf("render: row %d is outside of [0, %d)", j, s.NV)
	}

	plt.Figure()
	us, vals := []float64{}, []float64{}
	segments := 0
	flush := func() {
		if len(us) > 0 {
			plt.Plot(us, vals, "k", plt.LW(2))
			segments++
		}
		us, vals = []float64{}, []float64{}
	}

	for i := 0; i < s.NU; i++ {
		val, ok := s.At(i, j)
		if !ok {
			flush()
			continue
		}
		us, vals = append(us, s.U(i)), append(vals, val)
	}
	flush()

	if segments == 0 {
		return fmt.Errorf(
			"render: every pixel in row %d of '%s' is background", j, title,
		)
	}

	plt.Title(fmt.Sprintf("%s, v = %.3g", title, s.V(j)))
	plt.XLabel(`$u$ [$\AA$]`, plt.FontSize(16))
	plt.YLabel(`$\rho$`, plt.FontSize(16))
	plt.XLim(s.U(0), s.U(s.NU-1))
	plt.SaveFig(fname)
	return nil
}
