package io

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/chgslice/density"
	"github.com/phil-mansfield/chgslice/geom"
)

const spinCHGCAR = `Si2 spin test
1.0
  2.0 0.0 0.0
  0.0 2.0 0.0
  0.0 0.0 2.0
  Si
  2
Direct
  0.0 0.0 0.0
  0.5 0.5 0.5

  2  2  2
 1 2 3 4 5
 6 7 8
augmentation occupancies 1 2
 0.1 0.2
augmentation occupancies 2 2
 0.3 0.4
 0.0 0.0
  2  2  2
 -1 -2 -3 -4 -5
 -6 -7 -8
augmentation occupancies 1 2
 0.1 0.2
augmentation occupancies 2 2
 0.3 0.4
`

const vasp4CHGCAR = `vasp4 cartesian
2.0
  1.0 0.0 0.0
  0.0 1.0 0.0
  0.0 0.0 1.0
  1 1
Selective dynamics
Cartesian
  0.0 0.0 0.0 T T T
  1.0 1.0 1.0 F F F

 1 1 2
 0.25 0.75
`

func TestReadCHGCARSpin(t *testing.T) {
	g, err := ReadCHGCAR(strings.NewReader(spinCHGCAR))
	require.NoError(t, err)

	assert.Equal(t, "Si2 spin test", g.Comment)
	assert.Equal(t, [3]geom.Vec{{2, 0, 0}, {0, 2, 0}, {0, 0, 2}}, g.Vectors)
	assert.Equal(t, [3]int{2, 2, 2}, g.Dims)
	assert.Equal(t, []string{"Si"}, g.Species)
	assert.Equal(t, []int{2}, g.Counts)
	assert.Equal(t, []Atom{
		{"Si", geom.Vec{0, 0, 0}}, {"Si", geom.Vec{0.5, 0.5, 0.5}},
	}, g.Atoms)

	require.Len(t, g.Channels, 2)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8}, g.Channels[0])
	assert.Equal(t, []float64{-1, -2, -3, -4, -5, -6, -7, -8}, g.Channels[1])

	f, err := g.Field()
	require.NoError(t, err)
	assert.Equal(t, 2, f.Channels())
	x, err := f.CellValue(1, 1, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, -8.0, x)

	l, err := g.Lattice()
	require.NoError(t, err)
	assert.InDelta(t, 8.0, l.Volume(), 1e-12)
}

func TestReadCHGCARVASP4(t *testing.T) {
	g, err := ReadCHGCAR(strings.NewReader(vasp4CHGCAR))
	require.NoError(t, err)

	assert.Nil(t, g.Species)
	assert.Equal(t, []int{1, 1}, g.Counts)
	assert.Equal(t, [3]geom.Vec{{2, 0, 0}, {0, 2, 0}, {0, 0, 2}}, g.Vectors)
	assert.Equal(t, [3]int{1, 1, 2}, g.Dims)
	require.Len(t, g.Channels, 1)
	assert.Equal(t, []float64{0.25, 0.75}, g.Channels[0])

	// Cartesian positions are scaled along with the lattice.
	require.Len(t, g.Atoms, 2)
	assert.Equal(t, "", g.Atoms[1].Species)
	assert.True(t, g.Atoms[1].Frac.EpsEq(geom.Vec{1, 1, 1}, 1e-12))
}

func TestReadCHGCARScale(t *testing.T) {
	table := []struct {
		scale string
		vecs  [3]geom.Vec
	}{
		{"1", [3]geom.Vec{{1, 0, 0}, {0, 2, 0}, {0, 0, 4}}},
		{"0.5", [3]geom.Vec{{0.5, 0, 0}, {0, 1, 0}, {0, 0, 2}}},
		{"-64", [3]geom.Vec{{2, 0, 0}, {0, 4, 0}, {0, 0, 8}}},
		{"1 2 3", [3]geom.Vec{{1, 0, 0}, {0, 4, 0}, {0, 0, 12}}},
	}

	for i, test := range table {
		text := "scale test\n" + test.scale + "\n" +
			"1 0 0\n0 2 0\n0 0 4\nH\n0\nDirect\n\n1 1 1\n3.5\n"
		g, err := ReadCHGCAR(strings.NewReader(text))
		if err != nil {
			t.Errorf("%d) Unexpected error %s", i+1, err)
			continue
		}
		for k := 0; k < 3; k++ {
			if !g.Vectors[k].EpsEq(test.vecs[k], 1e-12) {
				t.Errorf("%d) Scale '%s' gave lattice %v, expected %v",
					i+1, test.scale, g.Vectors, test.vecs)
				break
			}
		}
	}
}

func TestReadCHGCARErrors(t *testing.T) {
	header := "bad\n1.0\n1 0 0\n0 1 0\n0 0 1\nH\n1\nDirect\n0 0 0\n\n2 1 1\n"

	table := []struct {
		text  string
		line  int
		state string
	}{
		{"bad\nx\n", 2, "scale"},
		{"bad\n1.0\n1 0 0\n0 1\n", 4, "lattice"},
		{"bad\n1.0\n1 0 0\n0 1 0\n0 0 1\nH He\n1\n", 7, "counts"},
		{"bad\n1.0\n1 0 0\n0 1 0\n0 0 1\nH\n1\nDirect\n0 0 x\n", 9, "positions"},
		{header + "1 y\n", 12, "data"},
		{header + "1 2 3\n", 12, "data"},
		{"bad\n1.0\n1 0 0\n0 1 0\n", 4, "lattice"},
		{header[:len(header)-len("2 1 1\n")], 10, "dimensions"},
		{"bad\n1.0\n1 0 0\n0 1 0\n0 0 1\nH\n1\nDirect\n0 0 0\n\n2 0 1\n", 11, "dimensions"},
	}

	for i, test := range table {
		_, err := ReadCHGCAR(strings.NewReader(test.text))
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("%d) Expected ParseError, got %v", i+1, err)
			continue
		}
		if pe.Line != test.line || pe.State != test.state {
			t.Errorf("%d) Expected error on line %d (%s), got line %d (%s): %s",
				i+1, test.line, test.state, pe.Line, pe.State, pe.Error())
		}
	}
}

func TestReadCHGCARTruncated(t *testing.T) {
	text := spinCHGCAR[:strings.Index(spinCHGCAR, " 6 7 8")]
	_, err := ReadCHGCAR(strings.NewReader(text))

	var gsm *density.GridShapeMismatchError
	require.True(t, errors.As(err, &gsm), "got error %v", err)
	assert.Equal(t, 0, gsm.Channel)
	assert.Equal(t, 5, gsm.Len)
	assert.Equal(t, 8, gsm.Want)
}

func TestReadCHGCARDegenerate(t *testing.T) {
	text := "flat\n1.0\n1 0 0\n0 1 0\n1 1 0\nH\n0\nDirect\n\n1 1 1\n1\n"
	_, err := ReadCHGCAR(strings.NewReader(text))

	var pe *ParseError
	var dle *geom.DegenerateLatticeError
	assert.True(t, errors.As(err, &pe))
	assert.True(t, errors.As(err, &dle))
}

func TestOpenGridCompressed(t *testing.T) {
	dir := t.TempDir()

	gz := &bytes.Buffer{}
	gzw := gzip.NewWriter(gz)
	_, err := gzw.Write([]byte(spinCHGCAR))
	require.NoError(t, err)
	require.NoError(t, gzw.Close())

	zs := &bytes.Buffer{}
	zsw, err := zstd.NewWriter(zs)
	require.NoError(t, err)
	_, err = zsw.Write([]byte(spinCHGCAR))
	require.NoError(t, err)
	require.NoError(t, zsw.Close())

	files := map[string][]byte{
		"CHGCAR":     []byte(spinCHGCAR),
		"CHGCAR.gz":  gz.Bytes(),
		"CHGCAR.zst": zs.Bytes(),
	}

	for name, data := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, data, 0644))

		r, err := OpenGrid(path)
		require.NoError(t, err, name)
		g, err := ReadCHGCAR(r)
		require.NoError(t, err, name)
		assert.NoError(t, r.Close(), name)

		assert.Len(t, g.Channels, 2, name)
		assert.Equal(t, 8.0, g.Channels[0][7], name)
	}

	_, err = OpenGrid(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestCompressionOf(t *testing.T) {
	assert.Equal(t, Gzip, CompressionOf("a/CHGCAR.gz"))
	assert.Equal(t, Zstd, CompressionOf("CHGCAR.zst"))
	assert.Equal(t, None, CompressionOf("CHGCAR"))
	assert.Equal(t, None, CompressionOf("gz"))
}
