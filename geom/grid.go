package geom

// Grid provides an interface for reasoning over a 1D slice as if it were a
// periodic 3D grid. The flattened index of (x, y, z) is
// x + Length*y + Area*z.
type Grid struct {
	Dims                 [3]int
	Length, Area, Volume int
}

// NewGrid returns a new Grid instance. All dimensions must be positive.
func NewGrid(nx, ny, nz int) *Grid {
	g := &Grid{}
	g.Init(nx, ny, nz)
	return g
}

// Init initializes a Grid instance.
func (g *Grid) Init(nx, ny, nz int) {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		panic("Grid dimensions must be positive.")
	}

	g.Dims = [3]int{nx, ny, nz}
	g.Length = nx
	g.Area = nx * ny
	g.Volume = nx * ny * nz
}

// Idx returns the grid index corresponding to a set of coordinates which are
// already inside the grid.
func (g *Grid) Idx(x, y, z int) int {
	return x + y*g.Length + z*g.Area
}

// Wrap returns the grid index of the coordinates after applying periodic
// boundary conditions. Any integer coordinates are valid.
func (g *Grid) Wrap(x, y, z int) int {
	return g.Idx(pMod(x, g.Dims[0]), pMod(y, g.Dims[1]), pMod(z, g.Dims[2]))
}

// BoundsCheck returns true if the given coordinates are within the Grid and
// false otherwise.
func (g *Grid) BoundsCheck(x, y, z int) bool {
	return (0 <= x && 0 <= y && 0 <= z) &&
		(x < g.Dims[0] && y < g.Dims[1] && z < g.Dims[2])
}

// Coords returns the x, y, z coordinates of a point from its grid index.
func (g *Grid) Coords(idx int) (x, y, z int) {
	x = idx % g.Length
	y = (idx % g.Area) / g.Length
	z = idx / g.Area
	return x, y, z
}

// pMod computes the positive modulo x % y.
func pMod(x, y int) int {
	m := x % y
	if m < 0 {
		m += y
	}
	return m
}
