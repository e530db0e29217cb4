// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package bitpack converts between text and a packed Huffman bit stream.
//
// The stream has no header. Codes are written most significant bit first, the
// end-of-stream code follows the last symbol, and zero bits pad the final byte.
package bitpack

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/icza/bitio"

	"github.com/elliotnunn/huffpack/internal/huffman"
	"github.com/elliotnunn/huffpack/internal/weights"
)

var (
	ErrNoCode         = errors.New("symbol has no code")
	ErrReservedSymbol = fmt.Errorf("%w: end-of-stream symbol in input", ErrNoCode)
	ErrTruncated      = errors.New("packed stream ended before end-of-stream code")
	ErrClosed         = errors.New("packer closed")
)

// Stats describes one pack or unpack run.
type Stats struct {
	In, Out int64 // bytes
	Padding int   // zero bits after the end-of-stream code
}

type packCode struct {
	val  uint64
	n    uint8
	long huffman.Code // codes deeper than 64 bits
}

// A Packer is an io.WriteCloser that packs text into its destination.
// Close writes the end-of-stream code and the padding.
type Packer struct {
	w      *bitio.Writer
	codes  [weights.NumSymbols]packCode
	stats  Stats
	closed bool
}

func NewPacker(w io.Writer, codes *huffman.CodeTable) *Packer {
	p := &Packer{w: bitio.NewWriter(w)}
	for sym, c := range codes {
		switch {
		case c == nil:
		case len(c) > 64:
			p.codes[sym].long = c
		default:
			for _, bit := range c {
				p.codes[sym].val = p.codes[sym].val<<1 | uint64(bit)
			}
			p.codes[sym].n = uint8(len(c))
		}
	}
	return p
}

func (p *Packer) Write(b []byte) (int, error) {
	if p.closed {
		return 0, ErrClosed
	}
	for i, c := range b {
		switch {
		case c == weights.EOS:
			return i, fmt.Errorf("%w: offset %d", ErrReservedSymbol, p.stats.In)
		case c >= weights.NumSymbols || p.codes[c].n == 0 && p.codes[c].long == nil:
			return i, fmt.Errorf("%w: %#02x at offset %d", ErrNoCode, c, p.stats.In)
		}
		if err := p.put(c); err != nil {
			return i, err
		}
		p.stats.In++
	}
	return len(b), nil
}

func (p *Packer) put(sym weights.Symbol) error {
	c := &p.codes[sym]
	if c.long == nil {
		return p.w.WriteBits(c.val, c.n)
	}
	for _, bit := range c.long {
		if err := p.w.WriteBool(bit == 1); err != nil {
			return err
		}
	}
	return nil
}

// Close terminates the stream. It does not close the underlying writer.
func (p *Packer) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	if p.codes[weights.EOS].n == 0 && p.codes[weights.EOS].long == nil {
		return fmt.Errorf("%w: end-of-stream symbol", ErrNoCode)
	}
	if err := p.put(weights.EOS); err != nil {
		return err
	}
	skipped, err := p.w.Align()
	if err != nil {
		return err
	}
	p.stats.Padding = int(skipped)
	return p.w.Close()
}

// Stats is final after Close.
func (p *Packer) Stats() Stats { return p.stats }

// Pack packs all of src into dst.
func Pack(dst io.Writer, src io.Reader, codes *huffman.CodeTable) (Stats, error) {
	cw := &countWriter{w: dst}
	bw := bufio.NewWriter(cw)
	p := NewPacker(bw, codes)
	if _, err := io.Copy(p, src); err != nil {
		return p.Stats(), err
	}
	if err := p.Close(); err != nil {
		return p.Stats(), err
	}
	err := bw.Flush()
	s := p.Stats()
	s.Out = cw.n
	return s, err
}

type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
