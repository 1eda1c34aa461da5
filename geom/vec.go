/*package geom contains the coordinate geometry used for slicing periodic
grids: vectors, crystal lattices, periodic grid indexing, and cutting planes.
*/
package geom

import (
	"math"
)

// Vec is a three dimensional vector. Depending on context it holds either
// fractional (lattice) or Cartesian coordinates.
type Vec [3]float64

// Add returns v1 + v2.
func (v1 Vec) Add(v2 Vec) Vec {
	return Vec{v1[0] + v2[0], v1[1] + v2[1], v1[2] + v2[2]}
}

// Sub returns v1 - v2.
func (v1 Vec) Sub(v2 Vec) Vec {
	return Vec{v1[0] - v2[0], v1[1] - v2[1], v1[2] - v2[2]}
}

// Scale returns k * v.
func (v Vec) Scale(k float64) Vec {
	return Vec{k * v[0], k * v[1], k * v[2]}
}

// Dot computes the dot product of v1 and v2.
func (v1 Vec) Dot(v2 Vec) float64 {
	return v1[0]*v2[0] + v1[1]*v2[1] + v1[2]*v2[2]
}

// Cross computes the cross product v1 x v2.
func (v1 Vec) Cross(v2 Vec) Vec {
	return Vec{
		v1[1]*v2[2] - v1[2]*v2[1],
		v1[2]*v2[0] - v1[0]*v2[2],
		v1[0]*v2[1] - v1[1]*v2[0],
	}
}

// Norm returns the Euclidean length of v.
func (v Vec) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns v scaled to unit length along with the original length.
// A zero vector is returned unchanged.
func (v Vec) Normalize() (Vec, float64) {
	n := v.Norm()
	if n == 0 {
		return v, 0
	}
	return v.Scale(1 / n), n
}

// EpsEq returns true if every component of v1 and v2 is within eps.
func (v1 Vec) EpsEq(v2 Vec, eps float64) bool {
	for i := 0; i < 3; i++ {
		if math.Abs(v1[i]-v2[i]) > eps {
			return false
		}
	}
	return true
}
