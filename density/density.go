/*package density stores scalar fields sampled on periodic, lattice-aligned
grids and interpolates them at arbitrary fractional coordinates.
*/
package density

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/chgslice/geom"
)

// ChannelOutOfRangeError is returned when a channel index does not refer to
// a stored channel.
type ChannelOutOfRangeError struct {
	Channel, Channels int
}

func (err *ChannelOutOfRangeError) Error() string {
	return fmt.Sprintf(
		"density: channel %d requested, but only %d channel(s) are stored",
		err.Channel, err.Channels,
	)
}

// GridShapeMismatchError is returned when a channel's length is not
// nx*ny*nz.
type GridShapeMismatchError struct {
	Channel   int
	Len, Want int
}

func (err *GridShapeMismatchError) Error() string {
	return fmt.Sprintf(
		"density: channel %d has %d values, but the grid has %d cells",
		err.Channel, err.Len, err.Want,
	)
}

// Field is an immutable set of scalar channels defined on the same periodic
// grid. Values are flattened with index ix + nx*(iy + ny*iz).
type Field struct {
	grid     geom.Grid
	channels [][]float64
}

// NewField creates a Field from grid dimensions and one or more flattened
// channels. The channel slices are retained, not copied, and must not be
// modified afterwards.
func NewField(dims [3]int, channels [][]float64) (*Field, error) {
	if dims[0] <= 0 || dims[1] <= 0 || dims[2] <= 0 {
		return nil, fmt.Errorf(
			"density: grid dimensions must be positive, got %v", dims,
		)
	} else if len(channels) == 0 {
		return nil, fmt.Errorf("density: a Field needs at least one channel")
	}

	f := &Field{channels: channels}
	f.grid.Init(dims[0], dims[1], dims[2])

	for i, ch := range channels {
		if len(ch) != f.grid.Volume {
			return nil, &GridShapeMismatchError{i, len(ch), f.grid.Volume}
		}
	}

	return f, nil
}

// Dims returns the grid dimensions (nx, ny, nz).
func (f *Field) Dims() [3]int { return f.grid.Dims }

// Channels returns the number of stored channels.
func (f *Field) Channels() int { return len(f.channels) }

// Channel returns a view of a single channel. This is the only checked
// access path: the returned Channel does no further validation.
func (f *Field) Channel(c int) (Channel, error) {
	if c < 0 || c >= len(f.channels) {
		return Channel{}, &ChannelOutOfRangeError{c, len(f.channels)}
	}
	return Channel{grid: &f.grid, vals: f.channels[c]}, nil
}

// CellValue returns the value stored at grid point (ix, iy, iz) of channel c
// after periodic wraparound.
func (f *Field) CellValue(c, ix, iy, iz int) (float64, error) {
	ch, err := f.Channel(c)
	if err != nil {
		return 0, err
	}
	return ch.CellValue(ix, iy, iz), nil
}

// Interpolate returns the periodic trilinear interpolation of channel c at
// the fractional coordinate frac.
func (f *Field) Interpolate(c int, frac geom.Vec) (float64, error) {
	ch, err := f.Channel(c)
	if err != nil {
		return 0, err
	}
	return ch.Interpolate(frac), nil
}

// Normalize returns a new Field with every value divided by volume. Grid
// files which store rho*V_cell are converted to densities this way.
func (f *Field) Normalize(volume float64) *Field {
	out := &Field{grid: f.grid, channels: make([][]float64, len(f.channels))}
	inv := 1 / math.Abs(volume)
	for i, ch := range f.channels {
		out.channels[i] = make([]float64, len(ch))
		for j, x := range ch {
			out.channels[i][j] = x * inv
		}
	}
	return out
}

// Channel is a read-only view of one channel of a Field.
type Channel struct {
	grid *geom.Grid
	vals []float64
}

// CellValue returns the value at grid point (ix, iy, iz). Any integer
// coordinates are valid: each one is reduced with a non-negative modulo.
func (ch Channel) CellValue(ix, iy, iz int) float64 {
	return ch.vals[ch.grid.Wrap(ix, iy, iz)]
}

// Interpolate performs periodic trilinear interpolation at the fractional
// coordinate frac. It is defined for every finite frac, since every corner
// lookup wraps around the cell.
func (ch Channel) Interpolate(frac geom.Vec) float64 {
	var (
		idx [3]int
		d   [3]float64
	)
	for k := 0; k < 3; k++ {
		x := frac[k] * float64(ch.grid.Dims[k])
		fx := math.Floor(x)
		idx[k], d[k] = int(fx), x-fx
		// x - floor(x) can round up to 1 for tiny negative x.
		if d[k] >= 1 {
			idx[k]++
			d[k] = 0
		}
	}
	ix, iy, iz := idx[0], idx[1], idx[2]
	dx, dy, dz := d[0], d[1], d[2]

	c000 := ch.CellValue(ix, iy, iz)
	c100 := ch.CellValue(ix+1, iy, iz)
	c010 := ch.CellValue(ix, iy+1, iz)
	c110 := ch.CellValue(ix+1, iy+1, iz)
	c001 := ch.CellValue(ix, iy, iz+1)
	c101 := ch.CellValue(ix+1, iy, iz+1)
	c011 := ch.CellValue(ix, iy+1, iz+1)
	c111 := ch.CellValue(ix+1, iy+1, iz+1)

	mx, my, mz := 1-dx, 1-dy, 1-dz
	return mz*(my*(mx*c000+dx*c100)+dy*(mx*c010+dx*c110)) +
		dz*(my*(mx*c001+dx*c101)+dy*(mx*c011+dx*c111))
}

// MinMax returns the smallest and largest values stored in the channel.
func (ch Channel) MinMax() (min, max float64) {
	min, max = ch.vals[0], ch.vals[0]
	for _, x := range ch.vals[1:] {
		if x < min {
			min = x
		} else if x > max {
			max = x
		}
	}
	return min, max
}

// Dims returns the grid dimensions of the channel.
func (ch Channel) Dims() [3]int { return ch.grid.Dims }
