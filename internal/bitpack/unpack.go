// Copyright (c) Elliot Nunn
// Licensed under the MIT license

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

// An Unpacker is an io.Reader of the text packed in its source.
// It returns io.EOF at the end-of-stream code and ignores the padding after it.
//
// The tree is walked one bit at a time, and the position in the tree is kept
// between reads, so a code may straddle any number of source bytes and Read calls.
type Unpacker struct {
	src    *byteCounter
	r      *bitio.Reader
	tree   *huffman.Tree
	cursor *huffman.Node
	stats  Stats
	err    error
}

func NewUnpacker(r io.Reader, tree *huffman.Tree) *Unpacker {
	bc := &byteCounter{r: bufio.NewReader(r)}
	return &Unpacker{
		src:    bc,
		r:      bitio.NewReader(bc),
		tree:   tree,
		cursor: tree.Root(),
	}
}

func (u *Unpacker) Read(p []byte) (n int, err error) {
	for n < len(p) && u.err == nil {
		var sym weights.Symbol
		if sym, u.err = u.next(); u.err == nil {
			p[n] = sym
			n++
		}
	}
	u.stats.Out += int64(n)
	if n < len(p) {
		return n, u.err
	}
	return n, nil
}

// next walks from the cursor to the next leaf
func (u *Unpacker) next() (weights.Symbol, error) {
	root := u.tree.Root()
	for {
		bit, err := u.r.ReadBool()
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, fmt.Errorf("%w: after %d bytes", ErrTruncated, u.src.n)
		} else if err != nil {
			return 0, err
		}

		if !u.cursor.Leaf() { // a lone root leaf takes one bit per symbol
			if bit {
				u.cursor = u.cursor.Right
			} else {
				u.cursor = u.cursor.Left
			}
		}
		if !u.cursor.Leaf() {
			continue
		}

		sym := u.cursor.Symbol
		u.cursor = root
		if sym == weights.EOS {
			u.stats.Padding = int(u.r.Align())
			return 0, io.EOF
		}
		return sym, nil
	}
}

// Stats is final once Read has returned io.EOF.
func (u *Unpacker) Stats() Stats {
	s := u.stats
	s.In = u.src.n
	return s
}

// Unpack writes the text packed in src to dst.
func Unpack(dst io.Writer, src io.Reader, tree *huffman.Tree) (Stats, error) {
	u := NewUnpacker(src, tree)
	bw := bufio.NewWriter(dst)
	if _, err := io.Copy(bw, u); err != nil {
		return u.Stats(), err
	}
	return u.Stats(), bw.Flush()
}

// byteCounter counts the bytes the bit reader has taken from the source
type byteCounter struct {
	r *bufio.Reader
	n int64
}

func (c *byteCounter) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (c *byteCounter) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}
