// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package probe opens text sources that may have been compressed for storage.
// A gzip, bzip2 or xz file is decompressed on the fly and anything else is read as is.
package probe

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/therootcompany/xz"
)

type Format string

const (
	Plain Format = "plain"
	Gzip  Format = "gzip"
	Bzip2 Format = "bzip2"
	XZ    Format = "xz"
)

// Sniff names the format whose magic number starts header.
func Sniff(header []byte) Format {
	matchAt := func(s string, offset int) bool {
		return len(header) >= offset+len(s) && string(header[offset:][:len(s)]) == s
	}
	switch {
	case matchAt("\x1f\x8b", 0):
		return Gzip
	case matchAt("BZh", 0):
		return Bzip2
	case matchAt("\xfd7zXZ\x00", 0):
		return XZ
	}
	return Plain
}

// NewReader wraps r in the decompressor its first bytes call for.
func NewReader(r io.Reader) (io.Reader, Format, error) {
	br := bufio.NewReader(r)
	header, err := br.Peek(6)
	if err != nil && err != io.EOF {
		return nil, "", err
	}

	format := Sniff(header)
	switch format {
	case Gzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, format, fmt.Errorf("gzip source: %w", err)
		}
		return zr, format, nil
	case Bzip2:
		return bzip2.NewReader(br), format, nil
	case XZ:
		zr, err := xz.NewReader(br, xz.DefaultDictMax)
		if err != nil {
			return nil, format, fmt.Errorf("xz source: %w", err)
		}
		return zr, format, nil
	}
	return br, format, nil
}

// Open opens the named file through NewReader.
func Open(name string) (io.ReadCloser, Format, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, "", err
	}
	r, format, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, format, fmt.Errorf("%s: %w", name, err)
	}
	return &readCloser{Reader: r, f: f}, format, nil
}

type readCloser struct {
	io.Reader
	f *os.File
}

func (rc *readCloser) Close() error {
	if c, ok := rc.Reader.(io.Closer); ok {
		c.Close()
	}
	return rc.f.Close()
}
