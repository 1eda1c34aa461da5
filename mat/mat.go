/*package mat contains routines for executing operations on the 3x3 matrices
which connect lattice coordinates to Cartesian coordinates.

Matrices are value types and none of these routines allocate.
*/
package mat

// Matrix3 represents a 3x3 matrix of float64 values stored in row-major
// order.
type Matrix3 [9]float64

// Identity returns the 3x3 identity matrix.
func Identity() Matrix3 {
	return Matrix3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// FromRows creates a matrix whose rows are r0, r1, and r2.
func FromRows(r0, r1, r2 [3]float64) Matrix3 {
	return Matrix3{
		r0[0], r0[1], r0[2],
		r1[0], r1[1], r1[2],
		r2[0], r2[1], r2[2],
	}
}

// FromCols creates a matrix whose columns are c0, c1, and c2.
func FromCols(c0, c1, c2 [3]float64) Matrix3 {
	return Matrix3{
		c0[0], c1[0], c2[0],
		c0[1], c1[1], c2[1],
		c0[2], c1[2], c2[2],
	}
}

// At returns the element in row i and column j.
func (m Matrix3) At(i, j int) float64 { return m[3*i+j] }

// Row returns the ith row of m.
func (m Matrix3) Row(i int) [3]float64 {
	return [3]float64{m[3*i], m[3*i+1], m[3*i+2]}
}

// Col returns the jth column of m.
func (m Matrix3) Col(j int) [3]float64 {
	return [3]float64{m[j], m[3+j], m[6+j]}
}

// Transpose returns the transpose of m.
func (m Matrix3) Transpose() Matrix3 {
	return Matrix3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

// Mult multiplies two matrices together.
func (m1 Matrix3) Mult(m2 Matrix3) Matrix3 {
	var out Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[3*i+j] = m1[3*i]*m2[j] + m1[3*i+1]*m2[3+j] + m1[3*i+2]*m2[6+j]
		}
	}
	return out
}

// MultVec returns the product m * v, with v treated as a column vector.
func (m Matrix3) MultVec(v [3]float64) [3]float64 {
	return [3]float64{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

// Determinant computes the determinant of a matrix by cofactor expansion
// along the first row.
func (m Matrix3) Determinant() float64 {
	return m[0]*(m[4]*m[8]-m[5]*m[7]) -
		m[1]*(m[3]*m[8]-m[5]*m[6]) +
		m[2]*(m[3]*m[7]-m[4]*m[6])
}

// Adjugate returns the adjugate (transposed cofactor matrix) of m, so that
// m * m.Adjugate() = det(m) * I.
func (m Matrix3) Adjugate() Matrix3 {
	return Matrix3{
		m[4]*m[8] - m[5]*m[7],
		m[2]*m[7] - m[1]*m[8],
		m[1]*m[5] - m[2]*m[4],

		m[5]*m[6] - m[3]*m[8],
		m[0]*m[8] - m[2]*m[6],
		m[2]*m[3] - m[0]*m[5],

		m[3]*m[7] - m[4]*m[6],
		m[1]*m[6] - m[0]*m[7],
		m[0]*m[4] - m[1]*m[3],
	}
}

// Invert computes the inverse of a matrix with the closed-form adjugate
// formula and also returns its determinant. If the determinant is exactly
// zero, the returned matrix is the zero matrix and it is up to the caller to
// decide what "too close to singular" means.
func (m Matrix3) Invert() (inv Matrix3, det float64) {
	det = m.Determinant()
	if det == 0 {
		return Matrix3{}, 0
	}
	adj := m.Adjugate()
	for i := range adj {
		inv[i] = adj[i] / det
	}
	return inv, det
}
