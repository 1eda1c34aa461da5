package geom

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/chgslice/mat"
)

// latticeEps is the smallest allowed |det(M)| relative to |a||b||c|. It is
// the sine-like "how flat is the cell" ratio, so it does not depend on units.
const latticeEps = 1e-10

// DegenerateLatticeError is returned when the three lattice vectors do not
// span space.
type DegenerateLatticeError struct {
	Det     float64
	A, B, C Vec
}

func (err *DegenerateLatticeError) Error() string {
	return fmt.Sprintf(
		"geom: degenerate lattice a = %v, b = %v, c = %v (determinant %g)",
		err.A, err.B, err.C, err.Det,
	)
}

// Lattice converts between fractional and Cartesian coordinates. The
// lattice matrix M has the lattice vectors a, b, c as its columns, so that
// cart = M * frac = frac[0]*a + frac[1]*b + frac[2]*c.
//
// The inverse is computed once, when the Lattice is created.
type Lattice struct {
	a, b, c Vec
	m, inv  mat.Matrix3
	det     float64
}

// NewLattice creates a Lattice from its three lattice vectors. A
// *DegenerateLatticeError is returned if the vectors are (numerically)
// coplanar or any of them is zero.
func NewLattice(a, b, c Vec) (*Lattice, error) {
	l := &Lattice{a: a, b: b, c: c}
	l.m = mat.FromCols(a, b, c)
	l.inv, l.det = l.m.Invert()

	scale := a.Norm() * b.Norm() * c.Norm()
	if scale == 0 || math.IsNaN(l.det) || math.Abs(l.det) <= latticeEps*scale {
		return nil, &DegenerateLatticeError{Det: l.det, A: a, B: b, C: c}
	}

	return l, nil
}

// NewLatticeFromRows creates a Lattice from rows in the layout used by grid
// files, where row i is lattice vector i.
func NewLatticeFromRows(rows [3]Vec) (*Lattice, error) {
	return NewLattice(rows[0], rows[1], rows[2])
}

// ToCartesian converts a fractional coordinate to a Cartesian one.
func (l *Lattice) ToCartesian(frac Vec) Vec {
	return Vec(l.m.MultVec(frac))
}

// ToFractional converts a Cartesian coordinate to a fractional one.
func (l *Lattice) ToFractional(cart Vec) Vec {
	return Vec(l.inv.MultVec(cart))
}

// Volume returns the signed cell volume a . (b x c).
func (l *Lattice) Volume() float64 {
	return l.a.Dot(l.b.Cross(l.c))
}

// Determinant returns det(M). It is equal to Volume() up to rounding.
func (l *Lattice) Determinant() float64 { return l.det }

// Vectors returns the three lattice vectors.
func (l *Lattice) Vectors() (a, b, c Vec) { return l.a, l.b, l.c }

// Matrix returns the lattice matrix M.
func (l *Lattice) Matrix() mat.Matrix3 { return l.m }

// Inverse returns the inverse lattice matrix.
func (l *Lattice) Inverse() mat.Matrix3 { return l.inv }
