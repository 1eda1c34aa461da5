package io

import (
	"fmt"

	"github.com/phil-mansfield/table"
)

// ColorNode is one control point of a piecewise-linear colorbar. R, G, B
// are in [0, 1].
type ColorNode struct {
	Value, R, G, B float64
}

// ReadColorbar reads colorbar nodes from a whitespace-separated table with
// the columns value, r, g, b. If any color component is larger than 1, the
// colors are assumed to be in [0, 255] and are rescaled.
func ReadColorbar(file string) ([]ColorNode, error) {
	cols, err := table.ReadTable(file, []int{0, 1, 2, 3}, nil)
	if err != nil {
		return nil, err
	}

	vals, rs, gs, bs := cols[0], cols[1], cols[2], cols[3]
	if len(vals) < 2 {
		return nil, fmt.Errorf(
			"Colorbar file '%s' has %d nodes, but at least 2 are needed.",
			file, len(vals),
		)
	}

	norm := 1.0
	for i := range vals {
		if rs[i] > 1 || gs[i] > 1 || bs[i] > 1 {
			norm = 255
			break
		}
	}

	nodes := make([]ColorNode, len(vals))
	for i := range nodes {
		nodes[i] = ColorNode{vals[i], rs[i] / norm, gs[i] / norm, bs[i] / norm}
	}
	return nodes, nil
}
