package io

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/phil-mansfield/chgslice/density"
	"github.com/phil-mansfield/chgslice/geom"
)

// maxLineSize is the longest line the CHGCAR reader will accept.
const maxLineSize = 1 << 20

// Atom is a single atomic site. Frac is always fractional, regardless of how
// the file stored it.
type Atom struct {
	Species string
	Frac    geom.Vec
}

// Grid is the parsed contents of a CHGCAR (or CHG, PARCHG, LOCPOT) file.
type Grid struct {
	Comment string
	// Vectors are the lattice vectors a, b, c after the scale factor has
	// been applied.
	Vectors [3]geom.Vec
	Dims    [3]int
	// Channels holds one flattened array per data block, each indexed by
	// ix + nx*(iy + ny*iz). For spin-polarized runs, channel 0 is the total
	// density and channel 1 is the magnetization.
	Channels [][]float64

	Species []string
	Counts  []int
	Atoms   []Atom
}

// Lattice returns the coordinate transform described by the grid's lattice
// vectors.
func (g *Grid) Lattice() (*geom.Lattice, error) {
	return geom.NewLatticeFromRows(g.Vectors)
}

// Field returns the grid's channels as an immutable density.Field. The
// channel arrays are shared, not copied.
func (g *Grid) Field() (*density.Field, error) {
	return density.NewField(g.Dims, g.Channels)
}

// ParseError is returned when a grid file cannot be parsed. Line is
// 1-indexed.
type ParseError struct {
	Line  int
	State string
	Msg   string
	Err   error
}

func (err *ParseError) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("io: line %d (%s): %s: %s",
			err.Line, err.State, err.Msg, err.Err.Error())
	}
	return fmt.Sprintf("io: line %d (%s): %s", err.Line, err.State, err.Msg)
}

func (err *ParseError) Unwrap() error { return err.Err }

type parseState int

const (
	stateComment parseState = iota
	stateScale
	stateLattice
	stateSpecies
	stateCounts
	stateCoordMode
	statePositions
	stateBlank
	stateDims
	stateData
	stateSkip
	endState
)

var stateNames = [...]string{
	stateComment:   "comment",
	stateScale:     "scale",
	stateLattice:   "lattice",
	stateSpecies:   "species",
	stateCounts:    "counts",
	stateCoordMode: "coordinate mode",
	statePositions: "positions",
	stateBlank:     "blank",
	stateDims:      "dimensions",
	stateData:      "data",
	stateSkip:      "augmentation",
}

func (s parseState) String() string {
	if s < 0 || s >= endState {
		return "unknown"
	}
	return stateNames[s]
}

// transitions maps each state to the function which consumes one line in
// that state.
var transitions = [...]func(*parser, string) error{
	stateComment:   (*parser).comment,
	stateScale:     (*parser).scaleLine,
	stateLattice:   (*parser).latticeLine,
	stateSpecies:   (*parser).speciesLine,
	stateCounts:    (*parser).countsLine,
	stateCoordMode: (*parser).coordModeLine,
	statePositions: (*parser).positionLine,
	stateBlank:     (*parser).blankLine,
	stateDims:      (*parser).dimsLine,
	stateData:      (*parser).dataLine,
	stateSkip:      (*parser).skipLine,
}

type parser struct {
	state parseState
	line  int
	grid  *Grid

	scale     []float64
	axisScale geom.Vec
	row       int
	lattice   *geom.Lattice

	selective, cartesian bool
	atoms, atom          int
	species              []string

	dimsKey string
	cur     []float64
	idx     int
}

// ReadCHGCAR parses a VASP volumetric grid file. Both VASP 4 (no species
// line) and VASP 5 headers are accepted, as are spin-polarized files with
// multiple data blocks separated by PAW augmentation data.
func ReadCHGCAR(r io.Reader) (*Grid, error) {
	p := &parser{grid: &Grid{}}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		p.line++
		if err := transitions[p.state](p, scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{p.line, p.state.String(), "read failed", err}
	}

	return p.finish()
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &ParseError{
		Line: p.line, State: p.state.String(), Msg: fmt.Sprintf(format, args...),
	}
}

func (p *parser) wrap(msg string, err error) error {
	return &ParseError{Line: p.line, State: p.state.String(), Msg: msg, Err: err}
}

func (p *parser) floats(line string, n int) ([]float64, error) {
	fields := strings.Fields(line)
	if len(fields) < n {
		return nil, p.errorf("expected %d numbers, found %d", n, len(fields))
	}
	xs := make([]float64, n)
	for i := range xs {
		x, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, p.wrap(fmt.Sprintf("bad number '%s'", fields[i]), err)
		}
		xs[i] = x
	}
	return xs, nil
}

func (p *parser) comment(line string) error {
	p.grid.Comment = strings.TrimSpace(line)
	p.state = stateScale
	return nil
}

func (p *parser) scaleLine(line string) error {
	fields := strings.Fields(line)
	switch len(fields) {
	case 1, 3:
	default:
		return p.errorf("expected 1 or 3 scale factors, found %d", len(fields))
	}

	scale, err := p.floats(line, len(fields))
	if err != nil {
		return err
	}
	if len(scale) == 3 {
		for _, s := range scale {
			if s <= 0 {
				return p.errorf("per-axis scale factors must be positive")
			}
		}
	} else if scale[0] == 0 {
		return p.errorf("scale factor is zero")
	}

	p.scale = scale
	p.state = stateLattice
	return nil
}

func (p *parser) latticeLine(line string) error {
	xs, err := p.floats(line, 3)
	if err != nil {
		return err
	}
	p.grid.Vectors[p.row] = geom.Vec{xs[0], xs[1], xs[2]}
	p.row++
	if p.row < 3 {
		return nil
	}

	if err = p.applyScale(); err != nil {
		return err
	}
	p.state = stateSpecies
	return nil
}

// applyScale multiplies the lattice vectors by the scale factor. A single
// negative scale factor is the target cell volume.
func (p *parser) applyScale() error {
	vecs := &p.grid.Vectors

	if len(p.scale) == 3 {
		p.axisScale = geom.Vec{p.scale[0], p.scale[1], p.scale[2]}
	} else {
		s := p.scale[0]
		if s < 0 {
			vol := math.Abs(vecs[0].Dot(vecs[1].Cross(vecs[2])))
			if vol == 0 {
				return p.errorf("can't rescale a lattice with zero volume")
			}
			s = math.Cbrt(-s / vol)
		}
		p.axisScale = geom.Vec{s, s, s}
	}

	for i := range vecs {
		for k := 0; k < 3; k++ {
			vecs[i][k] *= p.axisScale[k]
		}
	}

	l, err := geom.NewLatticeFromRows(*vecs)
	if err != nil {
		return p.wrap("invalid lattice", err)
	}
	p.lattice = l
	return nil
}

func (p *parser) speciesLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return p.errorf("missing species or atom counts")
	}
	if _, err := strconv.Atoi(fields[0]); err == nil {
		// VASP 4: no species line.
		return p.countsLine(line)
	}
	p.grid.Species = fields
	p.state = stateCounts
	return nil
}

func (p *parser) countsLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return p.errorf("missing atom counts")
	} else if p.grid.Species != nil && len(fields) != len(p.grid.Species) {
		return p.errorf("%d species but %d atom counts",
			len(p.grid.Species), len(fields))
	}

	counts := make([]int, len(fields))
	for i, tok := range fields {
		n, err := strconv.Atoi(tok)
		if err != nil {
			return p.wrap(fmt.Sprintf("bad atom count '%s'", tok), err)
		} else if n < 0 {
			return p.errorf("negative atom count %d", n)
		}
		counts[i] = n
		p.atoms += n
	}
	p.grid.Counts = counts

	p.species = make([]string, 0, p.atoms)
	for i, n := range counts {
		name := ""
		if p.grid.Species != nil {
			name = p.grid.Species[i]
		}
		for j := 0; j < n; j++ {
			p.species = append(p.species, name)
		}
	}
	p.grid.Atoms = make([]Atom, 0, p.atoms)

	p.state = stateCoordMode
	return nil
}

func (p *parser) coordModeLine(line string) error {
	mode := strings.TrimSpace(line)
	if mode == "" {
		return p.errorf("missing coordinate mode")
	}

	switch mode[0] {
	case 's', 'S':
		if p.selective {
			return p.errorf("repeated 'Selective dynamics' line")
		}
		p.selective = true
		return nil
	case 'c', 'C', 'k', 'K':
		p.cartesian = true
	}

	if p.atoms == 0 {
		p.state = stateBlank
	} else {
		p.state = statePositions
	}
	return nil
}

func (p *parser) positionLine(line string) error {
	xs, err := p.floats(line, 3)
	if err != nil {
		return err
	}
	pos := geom.Vec{xs[0], xs[1], xs[2]}
	if p.cartesian {
		// Cartesian positions share the lattice's scale factor.
		for k := range pos {
			pos[k] *= p.axisScale[k]
		}
		pos = p.lattice.ToFractional(pos)
	}

	p.grid.Atoms = append(p.grid.Atoms, Atom{p.species[p.atom], pos})
	p.atom++
	if p.atom == p.atoms {
		p.state = stateBlank
	}
	return nil
}

func (p *parser) blankLine(line string) error {
	if strings.TrimSpace(line) != "" {
		// Some writers omit the separator.
		return p.dimsLine(line)
	}
	p.state = stateDims
	return nil
}

func dimsKey(line string) string {
	return strings.Join(strings.Fields(line), " ")
}

func (p *parser) dimsLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	} else if len(fields) != 3 {
		return p.errorf("expected 3 grid dimensions, found %d", len(fields))
	}

	for i, tok := range fields {
		n, err := strconv.Atoi(tok)
		if err != nil {
			return p.wrap(fmt.Sprintf("bad grid dimension '%s'", tok), err)
		} else if n <= 0 {
			return p.errorf("grid dimension %d is %d", i, n)
		}
		p.grid.Dims[i] = n
	}

	p.dimsKey = dimsKey(line)
	p.startChannel()
	return nil
}

func (p *parser) startChannel() {
	d := p.grid.Dims
	p.cur = make([]float64, d[0]*d[1]*d[2])
	p.idx = 0
	p.state = stateData
}

func (p *parser) dataLine(line string) error {
	fields := strings.Fields(line)
	if p.idx+len(fields) > len(p.cur) {
		return p.errorf("data block holds more than %d values", len(p.cur))
	}

	for _, tok := range fields {
		x, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return p.wrap(fmt.Sprintf("bad grid value '%s'", tok), err)
		}
		p.cur[p.idx] = x
		p.idx++
	}

	if p.idx == len(p.cur) {
		p.grid.Channels = append(p.grid.Channels, p.cur)
		p.cur = nil
		p.state = stateSkip
	}
	return nil
}

func (p *parser) skipLine(line string) error {
	if dimsKey(line) == p.dimsKey {
		p.startChannel()
	}
	return nil
}

func (p *parser) finish() (*Grid, error) {
	switch p.state {
	case stateSkip:
		return p.grid, nil
	case stateData:
		return nil, &density.GridShapeMismatchError{
			Channel: len(p.grid.Channels), Len: p.idx, Want: len(p.cur),
		}
	}
	return nil, p.errorf("unexpected end of file")
}
