package geom

import (
	"fmt"
	"math"
)

const (
	// planeEps is the smallest allowed |u x v| relative to |u||v|, i.e. the
	// sine of the angle between the spanning vectors.
	planeEps = 1e-10
	// rangeEps absorbs rounding in (max - min) / step so that a range which
	// is an exact multiple of step doesn't gain an extra pixel.
	rangeEps = 1e-9
	// MaxSamples is the largest number of samples allowed along either
	// in-plane axis.
	MaxSamples = 1 << 16
)

// DegeneratePlaneError is returned when a plane's spanning vectors are zero
// or parallel.
type DegeneratePlaneError struct {
	U, V  Vec
	Cross float64
}

func (err *DegeneratePlaneError) Error() string {
	return fmt.Sprintf(
		"geom: plane vectors u = %v and v = %v do not span a plane (|u x v| = %g)",
		err.U, err.V, err.Cross,
	)
}

// SamplingRangeError is returned when a plane's sampling range contains no
// samples or more than MaxSamples samples, or its step is not positive.
type SamplingRangeError struct {
	Axis           string
	Min, Max, Step float64
}

func (err *SamplingRangeError) Error() string {
	return fmt.Sprintf(
		"geom: %s sampling range [%g, %g) with step %g is empty or has "+
			"more than %d samples",
		err.Axis, err.Min, err.Max, err.Step, MaxSamples,
	)
}

// Basis is an orthonormal basis attached to a plane. U and V lie in the
// plane and W is its normal.
type Basis struct {
	U, V, W Vec
}

// BuildBasis constructs an orthonormal basis from two Cartesian spanning
// vectors. U points along u, W along u x v, and V = W x U, so the basis is
// orthonormal even if u and v are not orthogonal.
func BuildBasis(u, v Vec) (Basis, error) {
	uHat, uNorm := u.Normalize()
	cross := u.Cross(v)
	wHat, crossNorm := cross.Normalize()

	if uNorm == 0 || crossNorm <= planeEps*uNorm*v.Norm() {
		return Basis{}, &DegeneratePlaneError{U: u, V: v, Cross: crossNorm}
	}

	return Basis{U: uHat, V: wHat.Cross(uHat), W: wHat}, nil
}

// Plane describes an oblique cutting plane through a unit cell. Origin, U,
// and V are fractional. The sampling range is given in plane-local physical
// (Cartesian) units and is half-open: [UMin, UMax) x [VMin, VMax).
type Plane struct {
	Origin, U, V Vec

	UMin, UMax float64
	VMin, VMax float64
	Step       float64
}

// Dims returns the number of samples along the u and v directions.
func (p *Plane) Dims() (nu, nv int, err error) {
	nu, err = samples("u", p.UMin, p.UMax, p.Step)
	if err != nil {
		return 0, 0, err
	}
	nv, err = samples("v", p.VMin, p.VMax, p.Step)
	if err != nil {
		return 0, 0, err
	}
	return nu, nv, nil
}

func samples(axis string, min, max, step float64) (int, error) {
	if !(step > 0) || !(max > min) || math.IsInf(max-min, 0) {
		return 0, &SamplingRangeError{axis, min, max, step}
	}
	fn := math.Ceil((max-min)/step - rangeEps)
	if !(fn <= MaxSamples) {
		return 0, &SamplingRangeError{axis, min, max, step}
	}
	n := int(fn)
	if n < 1 {
		n = 1
	}
	return n, nil
}

// Basis returns the orthonormal Cartesian basis for the plane within the
// given lattice.
func (p *Plane) Basis(l *Lattice) (Basis, error) {
	return BuildBasis(l.ToCartesian(p.U), l.ToCartesian(p.V))
}

// Check returns an error if the plane can't be rendered within the given
// lattice.
func (p *Plane) Check(l *Lattice) error {
	if _, _, err := p.Dims(); err != nil {
		return err
	}
	_, err := p.Basis(l)
	return err
}
