// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package huffman

import (
	"strings"

	"github.com/elliotnunn/huffpack/internal/weights"
)

// A Code is the path from the root to a leaf, 0 for left and 1 for right.
type Code []uint8

func (c Code) String() string {
	var b strings.Builder
	for _, bit := range c {
		b.WriteByte('0' + bit)
	}
	return b.String()
}

// HasPrefix reports whether p is a prefix of c.
func (c Code) HasPrefix(p Code) bool {
	if len(p) > len(c) {
		return false
	}
	for i := range p {
		if c[i] != p[i] {
			return false
		}
	}
	return true
}

// A CodeTable holds a code per symbol, nil where the symbol has no leaf.
type CodeTable [weights.NumSymbols]Code

// Codes derives the code of every leaf.
// A tree that is a single leaf codes its symbol as "0".
func (t *Tree) Codes() *CodeTable {
	var ct CodeTable
	if t.root.Leaf() {
		ct[t.root.Symbol] = Code{0}
		return &ct
	}

	var walk func(n *Node, path Code)
	walk = func(n *Node, path Code) {
		if n.Leaf() {
			ct[n.Symbol] = append(Code(nil), path...)
			return
		}
		walk(n.Left, append(path, 0))
		walk(n.Right, append(path, 1))
	}
	walk(t.root, make(Code, 0, weights.NumSymbols))
	return &ct
}
