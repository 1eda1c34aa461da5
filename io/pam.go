package io

import (
	"bufio"
	"fmt"
	"io"
)

const pamHeader = "P7\nWIDTH %d\nHEIGHT %d\nDEPTH 4\nMAXVAL 255\nTUPLTYPE RGB_ALPHA\nENDHDR\n"

// WritePAM writes an RGBA image in the Netpbm PAM format. pix holds four
// bytes (R, G, B, A) per pixel in row-major order and the first row is
// written first.
func WritePAM(w io.Writer, width, height int, pix []byte) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("io: PAM image must have positive size, got %d x %d",
			width, height)
	} else if len(pix) != width*height*4 {
		return fmt.Errorf("io: %d x %d PAM image needs %d bytes, got %d",
			width, height, width*height*4, len(pix))
	}

	buf := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(buf, pamHeader, width, height); err != nil {
		return err
	}
	if _, err := buf.Write(pix); err != nil {
		return err
	}
	return buf.Flush()
}
