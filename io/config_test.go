package io

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/chgslice/geom"
)

func writeFile(t *testing.T, dir, name, text string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
	return path
}

func TestExampleConfigs(t *testing.T) {
	dir := t.TempDir()

	con, err := ReadSliceConfig(writeFile(t, dir, "slice.txt", ExampleSliceFile))
	require.NoError(t, err)
	assert.Equal(t, "path/to/CHGCAR", con.Input)
	assert.Equal(t, "path/to/output/dir", con.Output)
	assert.Equal(t, 1.0, con.ScaleFactor)
	assert.True(t, con.ClipToCell)
	assert.False(t, con.DivideByVolume)
	assert.Equal(t, 64, con.HistBins)
	assert.False(t, con.ValidColorbar())

	planes, err := ReadPlanesConfig(writeFile(t, dir, "plane.txt", ExamplePlaneFile))
	require.NoError(t, err)
	require.Len(t, planes, 1)
	assert.Equal(t, "my_110_slice", planes[0].Name)

	p := planes[0].Plane()
	assert.Equal(t, geom.Vec{1, 1, 0}, p.U)
	assert.Equal(t, geom.Vec{0, 0, 1}, p.V)
	assert.Equal(t, 0.02, p.Step)
}

func TestReadSliceConfig(t *testing.T) {
	dir := t.TempDir()

	table := []struct {
		text string
		ok   bool
	}{
		{"[Slice]\nInput = a\nOutput = b\n", true},
		{"[Slice]\nInput = a\nOutput = b\nChannel = 1\nScaleFactor = -2\n", true},
		{"[Slice]\nOutput = b\n", false},
		{"[Slice]\nInput = a\n", false},
		{"[Slice]\nInput = a\nOutput = b\nChannel = -1\n", false},
		{"[Slice]\nInput = a\nOutput = b\nScaleFactor = 0\n", false},
		{"[Slice]\nInput = a\nOutput = b\nHist = true\nHistBins = 0\n", false},
		{"[Slice]\nInput = a\nOutput = b\nHist = true\nHistScale = Cubic\n", false},
		{"[Slice]\nInput = a\nOutput = b\nHistScale = Cubic\n", true},
		{"[Slice]\nInput = a\nOutput = b\nNotAField = 1\n", false},
	}

	for i, test := range table {
		_, err := ReadSliceConfig(writeFile(t, dir, "slice.txt", test.text))
		if test.ok && err != nil {
			t.Errorf("%d) Unexpected error %s", i+1, err)
		} else if !test.ok && err == nil {
			t.Errorf("%d) Expected an error for config:\n%s", i+1, test.text)
		}
	}
}

func TestReadPlanesConfig(t *testing.T) {
	dir := t.TempDir()

	a := writeFile(t, dir, "a.txt", `[Plane "zeta"]
Origin = 0 0 0.5
U = 1 0 0
V = 0 1 0
UMin = 0
UMax = 4
VMin = -1
VMax = 2
Step = 1

[Plane "alpha"]
Origin = 0 0 0
U = 1 1 0
V = 0 0 1
UMin = 0
UMax = 1
VMin = 0
VMax = 1
Step = 0.25
`)
	b := writeFile(t, dir, "b.txt", `[Plane "mid"]
Origin = 0.1 0.2 0.3
U = 1 0 0
V = 0 0 1
UMin = 0
UMax = 1
VMin = 0
VMax = 1
Step = 0.5
`)

	planes, err := ReadPlanesConfig(a, b)
	require.NoError(t, err)
	require.Len(t, planes, 3)

	names := []string{planes[0].Name, planes[1].Name, planes[2].Name}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)

	p := planes[2].Plane()
	assert.Equal(t, geom.Vec{0, 0, 0.5}, p.Origin)
	nu, nv, err := p.Dims()
	require.NoError(t, err)
	assert.Equal(t, 4, nu)
	assert.Equal(t, 3, nv)

	_, err = ReadPlanesConfig(a, a)
	assert.Error(t, err, "duplicate plane names")
}

func TestPlaneConfigCheckInit(t *testing.T) {
	valid := PlaneConfig{
		Origin: "0 0 0", U: "1 0 0", V: "0 1 0",
		UMin: 0, UMax: 1, VMin: 0, VMax: 1, Step: 0.1,
	}
	require.NoError(t, valid.CheckInit("ok"))

	table := []func(*PlaneConfig){
		func(p *PlaneConfig) { p.Origin = "0 0" },
		func(p *PlaneConfig) { p.U = "1 0 zero" },
		func(p *PlaneConfig) { p.V = "" },
		func(p *PlaneConfig) { p.V = "0 NaN 0" },
		func(p *PlaneConfig) { p.Step = 0 },
		func(p *PlaneConfig) { p.Step = -1 },
		func(p *PlaneConfig) { p.UMax = p.UMin },
		func(p *PlaneConfig) { p.VMin = 2 },
	}

	for i, modify := range table {
		p := valid
		modify(&p)
		if err := p.CheckInit("bad"); err == nil {
			t.Errorf("%d) Expected CheckInit error for %+v", i+1, p)
		} else if !strings.Contains(err.Error(), "'bad'") {
			t.Errorf("%d) Error '%s' doesn't name the plane", i+1, err)
		}
	}
}

func TestReadColorbar(t *testing.T) {
	dir := t.TempDir()

	nodes, err := ReadColorbar(writeFile(t, dir, "unit.txt",
		"-1 0 0 1\n0 1 1 1\n1 1 0 0\n"))
	require.NoError(t, err)
	assert.Equal(t, []ColorNode{
		{-1, 0, 0, 1}, {0, 1, 1, 1}, {1, 1, 0, 0},
	}, nodes)

	nodes, err = ReadColorbar(writeFile(t, dir, "byte.txt",
		"0 0 0 0\n10 255 51 0\n"))
	require.NoError(t, err)
	assert.Equal(t, ColorNode{10, 1, 0.2, 0}, nodes[1])

	_, err = ReadColorbar(writeFile(t, dir, "short.txt", "0 0 0 0\n"))
	assert.Error(t, err)
}

func TestWritePAM(t *testing.T) {
	pix := make([]byte, 4*3*4)
	for i := range pix {
		pix[i] = byte(i)
	}

	buf := &bytes.Buffer{}
	require.NoError(t, WritePAM(buf, 4, 3, pix))

	out := buf.String()
	end := strings.Index(out, "ENDHDR\n")
	require.True(t, end >= 0)
	header, payload := out[:end], out[end+len("ENDHDR\n"):]

	assert.True(t, strings.HasPrefix(header, "P7\n"))
	assert.Contains(t, header, "WIDTH 4\n")
	assert.Contains(t, header, "HEIGHT 3\n")
	assert.Contains(t, header, "DEPTH 4\n")
	assert.Contains(t, header, "MAXVAL 255\n")
	assert.Contains(t, header, "TUPLTYPE RGB_ALPHA\n")
	assert.Equal(t, 48, len(payload))
	assert.Equal(t, pix, []byte(payload))

	assert.Error(t, WritePAM(&bytes.Buffer{}, 4, 3, pix[:47]))
	assert.Error(t, WritePAM(&bytes.Buffer{}, 0, 3, nil))
}

func TestWriteHist(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteHist(buf, []float64{0.5, 1.5}, []int{3, 7}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "#"))
	assert.Equal(t, []string{"0.5", "3"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"1.5", "7"}, strings.Fields(lines[2]))

	assert.Error(t, WriteHist(buf, []float64{1}, nil))
}
