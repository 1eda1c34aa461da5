package io

import (
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression identifies the compression applied to a grid file.
type Compression int

const (
	None Compression = iota
	Gzip
	Zstd
)

// CompressionOf returns the compression scheme implied by a file's suffix.
func CompressionOf(path string) Compression {
	switch {
	case strings.HasSuffix(path, ".gz"):
		return Gzip
	case strings.HasSuffix(path, ".zst"), strings.HasSuffix(path, ".zstd"):
		return Zstd
	}
	return None
}

// readCloser closes both the decompressor and the underlying file.
type readCloser struct {
	io.Reader
	closers []func() error
}

func (rc *readCloser) Close() error {
	var first error
	for _, c := range rc.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// OpenGrid opens a grid file for reading, transparently decompressing gzip
// (.gz) and zstd (.zst) files.
func OpenGrid(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r, err := NewReader(f, CompressionOf(path))
	if err != nil {
		f.Close()
		return nil, err
	}
	return &readCloser{r, []func() error{r.Close, f.Close}}, nil
}

// NewReader wraps r in a decompressor for the given scheme. Closing the
// result does not close r.
func NewReader(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr, nil
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	}
	return io.NopCloser(r), nil
}
