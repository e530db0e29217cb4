// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package tablecache keeps recently parsed weights files in memory.
//
// A batch run usually packs many files against a handful of weights tables.
// Entries are keyed by path, size and modification time, so an edited file is
// parsed again rather than served stale.
package tablecache

import (
	"encoding/binary"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-tinylfu"

	"github.com/elliotnunn/huffpack/internal/weights"
)

type key struct {
	path  string
	size  int64
	mtime int64
}

// A Cache is safe for concurrent use by multiple goroutines.
type Cache struct {
	mu           sync.Mutex
	lfu          *tinylfu.T[key, weights.Table]
	hits, misses int
}

func New(entries int) *Cache {
	entries = max(entries, 1)
	return &Cache{
		lfu: tinylfu.New[key, weights.Table](entries, entries*10, hasher,
			tinylfu.OnEvict(func(k key, _ weights.Table) {
				slog.Debug("tableEvict", "path", k.path)
			})),
	}
}

// Load returns the parsed table in the named file.
// A nil Cache parses every time.
func (c *Cache) Load(name string) (weights.Table, error) {
	if c == nil {
		return parseFile(name)
	}

	k, err := keyOf(name)
	if err != nil {
		return weights.Table{}, err
	}

	c.mu.Lock()
	t, ok := c.lfu.Get(k)
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
	if ok {
		return t, nil
	}

	t, err = parseFile(name)
	if err != nil {
		return weights.Table{}, err
	}
	c.mu.Lock()
	c.lfu.Add(k, t)
	c.mu.Unlock()
	return t, nil
}

// Stats reports cache hits and misses so far.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func keyOf(name string) (key, error) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return key{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return key{}, err
	}
	if !info.Mode().IsRegular() {
		return key{}, &fs.PathError{Op: "load", Path: name, Err: fs.ErrInvalid}
	}
	return key{abs, info.Size(), info.ModTime().UnixNano()}, nil
}

func parseFile(name string) (weights.Table, error) {
	f, err := os.Open(name)
	if err != nil {
		return weights.Table{}, err
	}
	defer f.Close()
	t, err := weights.Parse(f)
	if err != nil {
		return weights.Table{}, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}

func hasher(k key) uint64 {
	h := xxhash.New()
	h.WriteString(k.path)
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:], uint64(k.size))
	binary.BigEndian.PutUint64(buf[8:], uint64(k.mtime))
	h.Write(buf[:])
	return h.Sum64()
}
