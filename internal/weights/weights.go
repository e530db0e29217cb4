// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package weights holds symbol frequency tables for the 128-symbol ASCII alphabet.
//
// Symbol 0 is never produced by real text. It stands for the end of a packed stream
// and every table gives it a weight of at least 1, so it always receives a code.
package weights

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/bits"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// A Symbol is one of the NumSymbols alphabet values.
type Symbol = uint8

const (
	NumSymbols        = 128
	EOS        Symbol = 0

	printMin = 32
	printMax = 126
)

var (
	ErrSymbolRange = errors.New("byte outside the 7-bit alphabet")
	ErrMalformed   = errors.New("malformed weights table")
)

// A Table maps each symbol to its count.
type Table [NumSymbols]uint64

// Count builds a table from every byte of r, plus one for the end-of-stream symbol.
func Count(r io.Reader) (Table, error) {
	var t Table
	br := bufio.NewReader(r)
	var off int64
	for {
		c, err := br.ReadByte()
		if err == io.EOF {
			break
		} else if err != nil {
			return Table{}, fmt.Errorf("count weights: %w", err)
		}
		if c >= NumSymbols {
			return Table{}, fmt.Errorf("%w: %#02x at offset %d", ErrSymbolRange, c, off)
		}
		t[c]++
		off++
	}
	t[EOS]++
	return t, nil
}

// Parse reads the persisted form written by [Table.WriteTo].
// Any deviation from that form fails the whole parse.
func Parse(r io.Reader) (Table, error) {
	var t Table
	s := bufio.NewScanner(r)
	n := 0
	var total uint64
	for s.Scan() {
		if n == NumSymbols {
			return Table{}, fmt.Errorf("%w: line %d: more than %d records", ErrMalformed, n+1, NumSymbols)
		}
		count, err := parseRecord(s.Text(), n)
		if err != nil {
			return Table{}, fmt.Errorf("%w: line %d: %v", ErrMalformed, n+1, err)
		}
		var carry uint64
		total, carry = bits.Add64(total, count, 0)
		if carry != 0 {
			return Table{}, fmt.Errorf("%w: line %d: total weight overflows", ErrMalformed, n+1)
		}
		t[n] = count
		n++
	}
	if err := s.Err(); err != nil {
		return Table{}, fmt.Errorf("read weights: %w", err)
	}
	if n != NumSymbols {
		return Table{}, fmt.Errorf("%w: %d records, want %d", ErrMalformed, n, NumSymbols)
	}
	if t[EOS] == 0 {
		t[EOS] = 1
	}
	return t, nil
}

// parseRecord accepts exactly "<want>,<count>,".
func parseRecord(line string, want int) (uint64, error) {
	sym, rest, ok := strings.Cut(line, ",")
	if !ok {
		return 0, fmt.Errorf("no separator in %q", line)
	}
	cnt, tail, ok := strings.Cut(rest, ",")
	if !ok || tail != "" {
		return 0, fmt.Errorf("want \"symbol,count,\", got %q", line)
	}
	if sym != strconv.Itoa(want) {
		return 0, fmt.Errorf("symbol %q out of sequence, want %d", sym, want)
	}
	if cnt == "" || cnt[0] < '0' || cnt[0] > '9' {
		return 0, fmt.Errorf("bad count %q", cnt)
	}
	return strconv.ParseUint(cnt, 10, 64)
}

// WriteTo writes one "symbol,count," line per symbol in ascending order.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	var line []byte
	for i, c := range t {
		line = strconv.AppendInt(line[:0], int64(i), 10)
		line = append(line, ',')
		line = strconv.AppendUint(line, c, 10)
		line = append(line, ',', '\n')
		m, err := bw.Write(line)
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// Total is the sum of all counts.
func (t *Table) Total() uint64 {
	var sum uint64
	for _, c := range t {
		sum += c
	}
	return sum
}

// Used is the number of symbols with a nonzero count.
func (t *Table) Used() int {
	n := 0
	for _, c := range t {
		if c > 0 {
			n++
		}
	}
	return n
}

// Fingerprint identifies the table contents.
func (t *Table) Fingerprint() uint64 {
	h := xxhash.New()
	var buf [8]byte
	for _, c := range t {
		binary.LittleEndian.PutUint64(buf[:], c)
		h.Write(buf[:])
	}
	return h.Sum64()
}

// Dump lists every count, showing the glyph of printable symbols.
func (t *Table) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i, c := range t {
		if i < printMin || i > printMax {
			fmt.Fprintf(bw, "i:%d [ ] = %d\n", i, c)
		} else {
			fmt.Fprintf(bw, "i:%d (%c) = %d\n", i, rune(i), c)
		}
	}
	return bw.Flush()
}
