package io

import (
	"bufio"
	"fmt"
	"io"
)

// WriteHist writes a histogram as a two-column text table of bin centers and
// counts, preceded by a commented header line.
func WriteHist(w io.Writer, centers []float64, counts []int) error {
	if len(centers) != len(counts) {
		return fmt.Errorf("io: %d histogram centers, but %d counts",
			len(centers), len(counts))
	}

	buf := bufio.NewWriter(w)
	fmt.Fprintf(buf, "# %14s %10s\n", "Center", "Count")
	for i := range centers {
		fmt.Fprintf(buf, "%16.8g %10d\n", centers[i], counts[i])
	}
	return buf.Flush()
}
