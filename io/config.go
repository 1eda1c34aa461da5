package io

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/gcfg.v1"

	"github.com/phil-mansfield/chgslice/geom"
)

const (
	ExampleSliceFile = `[Slice]

#######################
# Required Parameters #
#######################

# Grid file to slice. CHGCAR, CHG, PARCHG, and LOCPOT files all work. Files
# ending in .gz or .zst are decompressed on the fly.
Input = path/to/CHGCAR
# Directory which output images will be written to.
Output = path/to/output/dir

#######################
# Optional Parameters #
#######################

# Which data block to slice. For spin-polarized CHGCAR files, 0 is the total
# density and 1 is the magnetization density. Default is 0.
# Channel = 0

# Values are multiplied by ScaleFactor before being passed to the colorbar.
# Default is 1.
# ScaleFactor = 1

# CHGCAR files store rho * V_cell. Setting DivideByVolume converts them to
# densities before slicing.
# DivideByVolume = true

# Points outside the unit cell are drawn as transparent pixels when
# ClipToCell is set. Otherwise the density is continued periodically.
# Default is true.
# ClipToCell = true

# A colorbar table with the columns: value, r, g, b. Colors can either be in
# [0, 1] or [0, 255]. The default colorbar runs from blue at -1 through white
# at 0 to red at +1.
# Colorbar = path/to/colorbar.txt

# Images are named after the plane. For example, a plane with the header
# [Plane "Si_110"] will be written to Si_110.pam. You can add leading and
# ending text to file names with the following two variables
# (e.g. pre_Si_110_app.pam).
# PrependName = pre_
# AppendName  = _app

# Additional outputs. Heatmap writes a .png heat map of the sampled values,
# LinePlot writes a matplotlib profile of the middle row of each plane, and
# Hist writes a histogram table of the in-cell values.
# Heatmap = true
# LinePlot = true
# Hist = true

# Must be "Linear" or "Log".
# HistScale = Linear
# HistBins = 64

# Output files which are useful for profiling and debugging. Generally, there
# isn't a reason to use these unless something goes wrong.
# ProfileFile = prof.out
# LogFile = log.out`

	ExamplePlaneFile = `[Plane "my_110_slice"]
# This file describes a cutting plane through the unit cell. It is paired
# with a Slice config file, and any number of Plane sections may be given.

# Origin of the plane in fractional coordinates.
Origin = 0 0 0

# Directions spanning the plane in fractional coordinates. They don't need to
# be orthogonal: the in-plane axes are u and the component of v
# perpendicular to u.
U = 1 1 0
V = 0 0 1

# Sampling range along the in-plane axes, in Angstroms. Ranges are
# half-open: UMax and VMax are not sampled.
UMin = 0
UMax = 7.68
VMin = 0
VMax = 5.43

# Distance between samples, in Angstroms.
Step = 0.02`
)

type SharedConfig struct {
	// Required
	Input, Output string
	// Optional
	LogFile, ProfileFile string
}

func (con *SharedConfig) ValidInput() bool {
	return con.Input != ""
}
func (con *SharedConfig) ValidOutput() bool {
	return con.Output != ""
}
func (con *SharedConfig) ValidLogFile() bool {
	return con.LogFile != ""
}
func (con *SharedConfig) ValidProfileFile() bool {
	return con.ProfileFile != ""
}

type SliceConfig struct {
	SharedConfig

	// Optional
	Channel                    int
	ScaleFactor                float64
	ClipToCell, DivideByVolume bool
	Colorbar                   string
	PrependName, AppendName    string
	Heatmap, LinePlot, Hist    bool
	HistBins                   int
	HistScale                  string
}

type SliceWrapper struct {
	Slice SliceConfig
}

func DefaultSliceWrapper() *SliceWrapper {
	con := SliceConfig{}
	con.ScaleFactor = 1
	con.ClipToCell = true
	con.HistBins = 64
	con.HistScale = "Linear"
	return &SliceWrapper{con}
}

func (con *SliceConfig) ValidChannel() bool {
	return con.Channel >= 0
}
func (con *SliceConfig) ValidScaleFactor() bool {
	return con.ScaleFactor != 0 &&
		!math.IsNaN(con.ScaleFactor) && !math.IsInf(con.ScaleFactor, 0)
}
func (con *SliceConfig) ValidColorbar() bool {
	return con.Colorbar != ""
}
func (con *SliceConfig) ValidHistBins() bool {
	return con.HistBins > 0
}
func (con *SliceConfig) ValidHistScale() bool {
	s := strings.ToLower(con.HistScale)
	return s == "linear" || s == "log"
}

// ReadSliceConfig reads a [Slice] config file, fills in defaults, and checks
// that every parameter is valid.
func ReadSliceConfig(fname string) (*SliceConfig, error) {
	wrap := DefaultSliceWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, err
	}
	con := &wrap.Slice

	switch {
	case !con.ValidInput():
		return nil, fmt.Errorf("Need to specify an input grid file.")
	case !con.ValidOutput():
		return nil, fmt.Errorf("Need to specify an output directory.")
	case !con.ValidChannel():
		return nil, fmt.Errorf(
			"Channel must be non-negative, but is %d.", con.Channel,
		)
	case !con.ValidScaleFactor():
		return nil, fmt.Errorf(
			"ScaleFactor must be finite and non-zero, but is %g.",
			con.ScaleFactor,
		)
	case con.Hist && !con.ValidHistBins():
		return nil, fmt.Errorf(
			"HistBins must be positive, but is %d.", con.HistBins,
		)
	case con.Hist && !con.ValidHistScale():
		return nil, fmt.Errorf(
			"HistScale must be one of [Linear | Log]. '%s' is not recognized.",
			con.HistScale,
		)
	}

	return con, nil
}

type PlaneConfig struct {
	// Required
	Origin, U, V string
	UMin, UMax   float64
	VMin, VMax   float64
	Step         float64

	// Optional, "undocumented"
	Name string

	plane geom.Plane
}

func (con *PlaneConfig) CheckInit(name string) error {
	var err error
	if con.plane.Origin, err = parseVec(con.Origin); err != nil {
		return fmt.Errorf("Origin of Plane '%s' is invalid: %w", name, err)
	} else if con.plane.U, err = parseVec(con.U); err != nil {
		return fmt.Errorf("U of Plane '%s' is invalid: %w", name, err)
	} else if con.plane.V, err = parseVec(con.V); err != nil {
		return fmt.Errorf("V of Plane '%s' is invalid: %w", name, err)
	}

	if !(con.Step > 0) {
		return fmt.Errorf(
			"Need to specify a positive Step for Plane '%s'.", name,
		)
	} else if !(con.UMax > con.UMin) {
		return fmt.Errorf(
			"UMax of Plane '%s' must be larger than UMin, but the range "+
				"is [%g, %g).", name, con.UMin, con.UMax,
		)
	} else if !(con.VMax > con.VMin) {
		return fmt.Errorf(
			"VMax of Plane '%s' must be larger than VMin, but the range "+
				"is [%g, %g).", name, con.VMin, con.VMax,
		)
	}

	con.plane.UMin, con.plane.UMax = con.UMin, con.UMax
	con.plane.VMin, con.plane.VMax = con.VMin, con.VMax
	con.plane.Step = con.Step
	if _, _, err = con.plane.Dims(); err != nil {
		return fmt.Errorf("Plane '%s': %w", name, err)
	}

	con.Name = name
	return nil
}

// Plane returns the geometric plane described by the config. It is only
// meaningful after CheckInit has succeeded.
func (con *PlaneConfig) Plane() geom.Plane { return con.plane }

type PlanesConfig struct {
	Plane map[string]*PlaneConfig
}

// ReadPlanesConfig reads every [Plane "name"] section from the given files.
// Planes are returned sorted by name, and names must be unique across files.
func ReadPlanesConfig(fnames ...string) ([]PlaneConfig, error) {
	all := map[string]*PlaneConfig{}

	for _, fname := range fnames {
		pc := PlanesConfig{}
		if err := gcfg.ReadFileInto(&pc, fname); err != nil {
			return nil, err
		}

		for name, plane := range pc.Plane {
			if _, ok := all[name]; ok {
				return nil, fmt.Errorf(
					"Plane '%s' in %s has already been defined.", name, fname,
				)
			}
			if err := plane.CheckInit(name); err != nil {
				return nil, err
			}
			all[name] = plane
		}
	}

	if len(all) == 0 {
		return nil, fmt.Errorf("No planes were specified.")
	}

	names := maps.Keys(all)
	slices.Sort(names)

	planes := make([]PlaneConfig, len(names))
	for i, name := range names {
		planes[i] = *all[name]
	}
	return planes, nil
}

func parseVec(s string) (geom.Vec, error) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return geom.Vec{}, fmt.Errorf(
			"expected 3 components, found %d in '%s'", len(fields), s,
		)
	}

	v := geom.Vec{}
	for k, tok := range fields {
		x, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return geom.Vec{}, err
		} else if math.IsNaN(x) || math.IsInf(x, 0) {
			return geom.Vec{}, fmt.Errorf("component %d of '%s' is not finite",
				k, s)
		}
		v[k] = x
	}
	return v, nil
}
