package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/phil-mansfield/chgslice/io"
)

// ColorFunc maps a scalar to a color with components in [0, 1].
type ColorFunc func(x float64) (r, g, b float64)

// Colorbar is a piecewise-linear ColorFunc. Values below the first node or
// above the last node are given the color of that node.
type Colorbar struct {
	nodes []io.ColorNode
}

// NewColorbar creates a Colorbar from nodes with strictly increasing values.
func NewColorbar(nodes []io.ColorNode) (*Colorbar, error) {
	if len(nodes) < 2 {
		return nil, fmt.Errorf(
			"render: a colorbar needs at least 2 nodes, got %d", len(nodes),
		)
	}
	for i := 1; i < len(nodes); i++ {
		if !(nodes[i].Value > nodes[i-1].Value) {
			return nil, fmt.Errorf(
				"render: colorbar node %d has value %g, which is not larger "+
					"than the previous node's value, %g",
				i, nodes[i].Value, nodes[i-1].Value,
			)
		}
	}

	cb := &Colorbar{make([]io.ColorNode, len(nodes))}
	copy(cb.nodes, nodes)
	return cb, nil
}

// DefaultColorbar returns a diverging colorbar running from blue at -1
// through white at 0 to red at +1.
func DefaultColorbar() *Colorbar {
	cb, err := NewColorbar([]io.ColorNode{
		{Value: -1, R: 0.23, G: 0.30, B: 0.75},
		{Value: 0, R: 1, G: 1, B: 1},
		{Value: +1, R: 0.71, G: 0.02, B: 0.15},
	})
	if err != nil {
		panic(err.Error())
	}
	return cb
}

// Color returns the color of x.
func (cb *Colorbar) Color(x float64) (r, g, b float64) {
	n := len(cb.nodes)
	if x <= cb.nodes[0].Value {
		c := cb.nodes[0]
		return c.R, c.G, c.B
	} else if x >= cb.nodes[n-1].Value {
		c := cb.nodes[n-1]
		return c.R, c.G, c.B
	}

	// Colorbars are tiny, so a linear search is fine.
	i := 1
	for x > cb.nodes[i].Value {
		i++
	}
	lo, hi := cb.nodes[i-1], cb.nodes[i]
	t := (x - lo.Value) / (hi.Value - lo.Value)
	return lo.R + t*(hi.R-lo.R), lo.G + t*(hi.G-lo.G), lo.B + t*(hi.B-lo.B)
}

// Colorize returns the color of value*scale. NaN values are transparent.
func Colorize(value, scale float64, fn ColorFunc) color.NRGBA {
	x := value * scale
	if math.IsNaN(x) {
		return color.NRGBA{}
	}
	r, g, b := fn(x)
	return color.NRGBA{channelByte(r), channelByte(g), channelByte(b), 255}
}

func channelByte(c float64) uint8 {
	if !(c > 0) {
		return 0
	} else if c >= 1 {
		return 255
	}
	return uint8(math.Round(255 * c))
}

// Image colors the slice. Background pixels are transparent black. Row y of
// the image is row j = y of the slice, so the returned Pix buffer is in the
// same order as the sampling loop.
func (s *Slice) Image(scale float64, fn ColorFunc) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, s.NU, s.NV))
	for j := 0; j < s.NV; j++ {
		for i := 0; i < s.NU; i++ {
			val, ok := s.At(i, j)
			if !ok {
				continue
			}
			img.SetNRGBA(i, j, Colorize(val, scale, fn))
		}
	}
	return img
}
