/*package render samples density fields over oblique planes through a unit
cell and turns the results into images, histograms, and plots.
*/
package render

import (
	"runtime"
	"time"

	"golang.org/x/exp/slog"

	"github.com/phil-mansfield/chgslice/density"
	"github.com/phil-mansfield/chgslice/geom"
)

// clipEps is how far below 0 a fractional coordinate may fall and still be
// inside the unit cell, so that planes lying on the frac = 0 faces survive
// rounding. The upper bound, 1, is exact.
const clipEps = 1e-9

// NumCores is the default number of workers used by a Manager.
var NumCores = runtime.NumCPU()

// Sample is the result of sampling a single pixel.
type Sample struct {
	I, J int
	Frac geom.Vec
	// InBounds is true if Frac is inside the unit cell.
	InBounds bool
	// Background is true if the pixel has no value. This happens when
	// clipping is enabled and the point is out of bounds.
	Background bool
	Value      float64
}

// Sampler maps the pixels of a plane onto a density channel. Every check
// that could fail is done when the Sampler is created, so sampling itself
// cannot fail.
type Sampler struct {
	ch      density.Channel
	lattice *geom.Lattice
	basis   geom.Basis
	origin  geom.Vec

	uMin, vMin, step float64
	nu, nv           int
	clip             bool
}

// NewSampler creates a Sampler for the given plane and channel.
func NewSampler(
	field *density.Field, lattice *geom.Lattice,
	plane *geom.Plane, channel int, clip bool,
) (*Sampler, error) {
	nu, nv, err := plane.Dims()
	if err != nil {
		return nil, err
	}
	basis, err := plane.Basis(lattice)
	if err != nil {
		return nil, err
	}
	ch, err := field.Channel(channel)
	if err != nil {
		return nil, err
	}

	s := &Sampler{ch: ch, lattice: lattice, basis: basis, clip: clip}
	s.origin = lattice.ToCartesian(plane.Origin)
	s.uMin, s.vMin, s.step = plane.UMin, plane.VMin, plane.Step
	s.nu, s.nv = nu, nv
	return s, nil
}

// Dims returns the number of pixels along u and v.
func (s *Sampler) Dims() (nu, nv int) { return s.nu, s.nv }

// Sample returns the sample at pixel (i, j). i indexes the u direction and
// j indexes the v direction.
func (s *Sampler) Sample(i, j int) Sample {
	uu := s.uMin + float64(i)*s.step
	vv := s.vMin + float64(j)*s.step
	cart := s.origin.Add(s.basis.U.Scale(uu)).Add(s.basis.V.Scale(vv))
	frac := s.lattice.ToFractional(cart)

	out := Sample{I: i, J: j, Frac: frac, InBounds: inCell(frac)}
	if s.clip && !out.InBounds {
		out.Background = true
		return out
	}
	out.Value = s.ch.Interpolate(frac)
	return out
}

func inCell(frac geom.Vec) bool {
	for k := 0; k < 3; k++ {
		if frac[k] < -clipEps || frac[k] >= 1 {
			return false
		}
	}
	return true
}

// Slice is a rendered plane. Pixel (i, j) is stored at index i + j*NU, so
// rows are ordered by increasing v starting at VMin.
type Slice struct {
	NU, NV           int
	UMin, VMin, Step float64

	Vals       []float64
	Background []bool
}

func newSlice(s *Sampler) *Slice {
	n := s.nu * s.nv
	return &Slice{
		NU: s.nu, NV: s.nv, UMin: s.uMin, VMin: s.vMin, Step: s.step,
		Vals: make([]float64, n), Background: make([]bool, n),
	}
}

// At returns the value at pixel (i, j). ok is false for background pixels.
func (s *Slice) At(i, j int) (val float64, ok bool) {
	idx := i + j*s.NU
	return s.Vals[idx], !s.Background[idx]
}

// U returns the plane-local u coordinate of column i.
func (s *Slice) U(i int) float64 { return s.UMin + float64(i)*s.Step }

// V returns the plane-local v coordinate of row j.
func (s *Slice) V(j int) float64 { return s.VMin + float64(j)*s.Step }

// Manager renders planes through a single field using a pool of workers.
type Manager struct {
	field   *density.Field
	lattice *geom.Lattice

	workers int
	logger  *slog.Logger
}

// NewManager creates a Manager which uses NumCores workers, or a single
// worker if NumCores is not positive.
func NewManager(field *density.Field, lattice *geom.Lattice) *Manager {
	man := &Manager{field: field, lattice: lattice}
	man.SetWorkers(NumCores)
	return man
}

// SetWorkers sets the number of workers used for rendering. Values below 1
// are treated as 1.
func (man *Manager) SetWorkers(workers int) {
	if workers < 1 {
		workers = 1
	}
	man.workers = workers
}

// SetLogger sets the logger used to report render timings. A nil logger
// disables logging.
func (man *Manager) SetLogger(logger *slog.Logger) { man.logger = logger }

// Render samples channel over plane. Either the whole plane is rendered or
// an error is returned before any sampling is done.
func (man *Manager) Render(
	plane *geom.Plane, channel int, clip bool,
) (*Slice, error) {
	s, err := NewSampler(man.field, man.lattice, plane, channel, clip)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	slice := newSlice(s)

	workers := man.workers
	if workers > s.nv {
		workers = s.nv
	}

	out := make(chan int, workers)
	for id := 0; id < workers; id++ {
		go chanRender(id, workers, s, slice, out)
	}
	for i := 0; i < workers; i++ {
		<-out
	}

	if man.logger != nil {
		man.logger.Debug("rendered plane",
			"nu", slice.NU, "nv", slice.NV, "workers", workers,
			"elapsed", time.Since(start))
	}

	return slice, nil
}

// chanRender is a worker function which renders every row j with
// j % workers == worker. Rows are disjoint between workers, so no locking is
// needed. The worker ID is sent to out when it finishes.
func chanRender(worker, workers int, s *Sampler, slice *Slice, out chan<- int) {
	for j := worker; j < s.nv; j += workers {
		for i := 0; i < s.nu; i++ {
			sample := s.Sample(i, j)
			idx := i + j*s.nu
			slice.Vals[idx] = sample.Value
			slice.Background[idx] = sample.Background
		}
	}
	out <- worker
}

// Render samples channel of field over plane using NumCores workers.
func Render(
	field *density.Field, lattice *geom.Lattice,
	plane *geom.Plane, channel int, clip bool,
) (*Slice, error) {
	return NewManager(field, lattice).Render(plane, channel, clip)
}
