// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package catalog remembers which weights table packed each file.
//
// A packed file carries no header, so without its table it is unreadable.
// The catalog maps the absolute path of every packed file to the table that
// produced it, which lets a later unpack find the table on its own.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/cockroachdb/pebble/v2"
	"github.com/cockroachdb/pebble/v2/vfs"
)

const prefix = "pack\x00"

type Entry struct {
	Packed      string    `json:"packed"`
	Source      string    `json:"source"`
	Weights     string    `json:"weights"`
	Fingerprint uint64    `json:"fingerprint"`
	Optimize    bool      `json:"optimize"`
	SourceBytes int64     `json:"sourceBytes"`
	PackedBytes int64     `json:"packedBytes"`
	Padding     int       `json:"padding"`
	Time        time.Time `json:"time"`
}

// A Catalog is safe for concurrent use by multiple goroutines.
type Catalog struct {
	db *pebble.DB
}

// Open opens or creates the catalog in dir.
func Open(dir string) (*Catalog, error) {
	return open(dir, vfs.Default)
}

func open(dir string, fs vfs.FS) (*Catalog, error) {
	db, err := pebble.Open(dir, &pebble.Options{
		FS:     fs,
		Logger: logger{},
	})
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", dir, err)
	}
	return &Catalog{db: db}, nil
}

func (c *Catalog) Close() error { return c.db.Close() }

// Record stores e, replacing any entry for the same packed file.
func (c *Catalog) Record(e Entry) error {
	abs, err := filepath.Abs(e.Packed)
	if err != nil {
		return err
	}
	e.Packed = abs
	val, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return c.db.Set([]byte(prefix+abs), val, pebble.Sync)
}

// Lookup finds the entry for a packed file.
func (c *Catalog) Lookup(packed string) (Entry, bool, error) {
	abs, err := filepath.Abs(packed)
	if err != nil {
		return Entry{}, false, err
	}
	val, closer, err := c.db.Get([]byte(prefix + abs))
	if errors.Is(err, pebble.ErrNotFound) {
		return Entry{}, false, nil
	} else if err != nil {
		return Entry{}, false, err
	}
	defer closer.Close()

	var e Entry
	if err := json.Unmarshal(val, &e); err != nil {
		return Entry{}, false, fmt.Errorf("catalog entry %s: %w", abs, err)
	}
	return e, true, nil
}

// List returns every entry in path order.
func (c *Catalog) List() ([]Entry, error) {
	it, err := c.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: []byte("pack\x01"),
	})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var ret []Entry
	for it.First(); it.Valid(); it.Next() {
		val, err := it.ValueAndErr()
		if err != nil {
			return ret, err
		}
		var e Entry
		if err := json.Unmarshal(val, &e); err != nil {
			slog.Warn("catalogBadEntry", "key", string(it.Key()[len(prefix):]), "err", err)
			continue
		}
		ret = append(ret, e)
	}
	return ret, it.Error()
}

// Forget removes the entry for a packed file, if there is one.
func (c *Catalog) Forget(packed string) error {
	abs, err := filepath.Abs(packed)
	if err != nil {
		return err
	}
	return c.db.Delete([]byte(prefix+abs), pebble.Sync)
}

// logger sends pebble's chatter to slog
type logger struct{}

func (logger) Infof(format string, args ...any) {
	slog.Debug("catalogInfo", "msg", fmt.Sprintf(format, args...))
}

func (logger) Errorf(format string, args ...any) {
	slog.Error("catalogError", "msg", fmt.Sprintf(format, args...))
}

func (logger) Fatalf(format string, args ...any) {
	panic(fmt.Sprintf(format, args...))
}
