package render

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Stats summarizes the values of a Slice.
type Stats struct {
	Min, Max, Mean     float64
	InCell, Background int
}

// Stats computes summary statistics over the non-background pixels of the
// slice. If every pixel is background, Min, Max, and Mean are zero.
func (s *Slice) Stats() Stats {
	vals := s.values()
	st := Stats{InCell: len(vals), Background: len(s.Vals) - len(vals)}
	if len(vals) == 0 {
		return st
	}

	st.Min, st.Max = floats.Min(vals), floats.Max(vals)
	st.Mean = floats.Sum(vals) / float64(len(vals))
	return st
}

// values returns the values of all non-background pixels.
func (s *Slice) values() []float64 {
	vals := make([]float64, 0, len(s.Vals))
	for i, x := range s.Vals {
		if !s.Background[i] {
			vals = append(vals, x)
		}
	}
	return vals
}

type HistInfo struct {
	Min, Max float64
	Bins     int
	Scale    string
}

// HistInfo returns histogram bounds which cover every value in st. Log
// histograms need a positive minimum.
func (st Stats) HistInfo(bins int, scale string) (*HistInfo, error) {
	if st.InCell == 0 {
		return nil, fmt.Errorf("render: can't histogram a slice with no values")
	}

	info := &HistInfo{Min: st.Min, Max: st.Max, Bins: bins, Scale: scale}
	if err := info.check(); err != nil && info.Min == info.Max {
		// Constant fields still get a histogram.
		if isLog(scale) {
			info.Max = info.Min * 2
		} else {
			info.Max = info.Min + 1
		}
	}
	return info, info.check()
}

func isLog(scale string) bool { return strings.ToLower(scale) == "log" }

func (info *HistInfo) check() error {
	switch {
	case info.Bins <= 0:
		return fmt.Errorf("render: histogram needs positive bins, got %d",
			info.Bins)
	case !isLog(info.Scale) && strings.ToLower(info.Scale) != "linear":
		return fmt.Errorf("render: unrecognized histogram scale '%s'",
			info.Scale)
	case isLog(info.Scale) && !(info.Min > 0):
		return fmt.Errorf("render: log histogram minimum must be positive, "+
			"but is %g", info.Min)
	case !(info.Max > info.Min):
		return fmt.Errorf("render: histogram range [%g, %g] is empty",
			info.Min, info.Max)
	}
	return nil
}

// Hist computes a histogram of the non-background values of the slice.
// Values equal to info.Max are counted in the last bin.
func (s *Slice) Hist(info *HistInfo) (centers []float64, counts []int, err error) {
	if err := info.check(); err != nil {
		return nil, nil, err
	}
	counts = make([]int, info.Bins)
	histogram(s.Vals, s.Background, info, counts)
	return histCenters(info), counts, nil
}

// histCenters returns the centers of a histogram.
func histCenters(info *HistInfo) []float64 {
	min, max := info.Min, info.Max

	log := isLog(info.Scale)
	if log {
		min, max = math.Log10(min), math.Log10(max)
	}

	dx := (max - min) / float64(info.Bins)

	centers := make([]float64, info.Bins)
	for i := range centers {
		centers[i] = min + dx*(float64(i)+0.5)
		if log {
			centers[i] = math.Pow(10, centers[i])
		}
	}

	return centers
}

func histogram(x []float64, skip []bool, info *HistInfo, counts []int) {
	min, max := info.Min, info.Max
	log := isLog(info.Scale)
	if log {
		min, max = math.Log10(min), math.Log10(max)
	}
	dx := (max - min) / float64(info.Bins)

	for i := range x {
		if skip[i] {
			continue
		}

		xi := x[i]
		if log {
			if !(xi > 0) {
				continue
			}
			xi = math.Log10(xi)
		}

		if !(xi >= min) || xi > max {
			continue
		}
		idx := int((xi - min) / dx)
		if idx >= info.Bins {
			idx = info.Bins - 1
		}
		counts[idx]++
	}
}
