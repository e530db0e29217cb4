// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package huffman builds prefix codes from a weights table.
//
// The build is deterministic down to ties: nodes of equal weight leave the queue in
// the order they entered it, leaves first by ascending symbol, then internal nodes in
// order of creation. Two builds from the same table always give the same codes, which
// is what lets a packed file be unpacked with nothing but its weights table.
package huffman

import (
	"container/heap"

	"github.com/elliotnunn/huffpack/internal/weights"
)

// A Node is a leaf when Left and Right are both nil.
type Node struct {
	Symbol      weights.Symbol // leaves only
	Weight      uint64
	Left, Right *Node

	seq int
}

func (n *Node) Leaf() bool { return n.Left == nil && n.Right == nil }

// A Tree is read-only once built.
type Tree struct {
	root   *Node
	leaves int
}

// Build merges the table's symbols into a tree.
// With excludeZero, symbols of weight 0 get no leaf and therefore no code.
func Build(t weights.Table, excludeZero bool) *Tree {
	q := make(queue, 0, weights.NumSymbols)
	seq := 0
	for sym, w := range t {
		if excludeZero && w == 0 {
			continue
		}
		q = append(q, &Node{Symbol: weights.Symbol(sym), Weight: w, seq: seq})
		seq++
	}
	leaves := len(q)
	if leaves == 0 { // unreachable for a table with a forced EOS weight
		q = append(q, &Node{Symbol: weights.EOS, Weight: 1})
		leaves = 1
	}

	heap.Init(&q)
	for q.Len() > 1 {
		left := heap.Pop(&q).(*Node)
		right := heap.Pop(&q).(*Node)
		heap.Push(&q, &Node{Weight: left.Weight + right.Weight, Left: left, Right: right, seq: seq})
		seq++
	}
	return &Tree{root: q[0], leaves: leaves}
}

func (t *Tree) Root() *Node { return t.root }

// Leaves is the number of symbols that have a code.
func (t *Tree) Leaves() int { return t.leaves }

// Depth is the length of the longest code.
func (t *Tree) Depth() int {
	var walk func(n *Node) int
	walk = func(n *Node) int {
		if n.Leaf() {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return max(walk(t.root), 1)
}

// queue orders by weight, then by the order nodes were created
type queue []*Node

func (q queue) Len() int { return len(q) }
func (q queue) Less(i, j int) bool {
	if q[i].Weight != q[j].Weight {
		return q[i].Weight < q[j].Weight
	}
	return q[i].seq < q[j].seq
}
func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *queue) Push(x any) { *q = append(*q, x.(*Node)) }

func (q *queue) Pop() any {
	old := *q
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*q = old[:len(old)-1]
	return n
}
