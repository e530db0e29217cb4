// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package codec runs whole file-to-file jobs: it checks every path first,
// gets hold of a weights table, builds the tree and hands the streams to bitpack.
//
// Every failed check aborts before any tree is built and is reported by one signal.
// No output file appears unless the job succeeds: output goes to a temporary file
// beside the destination and is renamed over it at the end.
package codec

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/elliotnunn/huffpack/internal/bitpack"
	"github.com/elliotnunn/huffpack/internal/catalog"
	"github.com/elliotnunn/huffpack/internal/fileclass"
	"github.com/elliotnunn/huffpack/internal/huffman"
	"github.com/elliotnunn/huffpack/internal/notify"
	"github.com/elliotnunn/huffpack/internal/probe"
	"github.com/elliotnunn/huffpack/internal/tablecache"
	"github.com/elliotnunn/huffpack/internal/weights"
)

var (
	ErrDeclined       = errors.New("overwrite declined")
	ErrMissingWeights = errors.New("weights file required to unpack")
)

// A PreconditionError names the path that failed its check.
type PreconditionError struct {
	Role   string // "source", "destination" or "weights"
	Path   string
	Status fileclass.Status
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Role, e.Path, e.Status)
}

type Options struct {
	Optimize bool              // leave zero-weight symbols out of the tree
	Notify   notify.Sink       // nil means notify.Discard
	Tables   *tablecache.Cache // optional
	Catalog  *catalog.Catalog  // optional, records every pack
}

type Codec struct {
	opt Options
}

func New(opt Options) *Codec {
	if opt.Notify == nil {
		opt.Notify = notify.Discard
	}
	return &Codec{opt: opt}
}

// Encode packs src into dst using the table in weightsPath.
// If weightsPath does not exist yet, or is empty, the table is counted from src and saved there first.
func (c *Codec) Encode(src, dst, weightsPath string) error {
	if err := c.checkSource(src); err != nil {
		return err
	}
	if err := c.checkDestination(dst); err != nil {
		return err
	}

	var table weights.Table
	switch st := fileclass.Classify(weightsPath, true); st {
	case fileclass.OK:
		t, err := c.opt.Tables.Load(weightsPath)
		if err != nil {
			c.signal(notify.Input, "Input Error", "Could not read weights")
			return err
		}
		table = t
	case fileclass.DoesNotExist, fileclass.ZeroLength:
		if wst := fileclass.Classify(weightsPath, false); wst != fileclass.OK && wst != fileclass.ExistsWritable {
			c.signal(notify.Output, "Output Error", "Could not create weights file")
			return &PreconditionError{"weights", weightsPath, wst}
		}
		t, err := countFile(src)
		if err != nil {
			c.signal(notify.Input, "Input Error", "Could not read input file")
			return err
		}
		if err := writeFileAtomic(weightsPath, t.WriteTo); err != nil {
			c.signal(notify.Output, "Output Error", "Could not create weights file")
			return err
		}
		slog.Info("weightsCreated", "path", weightsPath, "symbols", t.Used())
		c.signal(notify.Input, "Input Error", "Weights needed to be created")
		table = t
	default:
		c.signal(notify.Input, "Input Error", "Could not read weights")
		return &PreconditionError{"weights", weightsPath, st}
	}

	tree := huffman.Build(table, c.opt.Optimize)
	codes := tree.Codes()
	slog.Debug("treeBuilt", "leaves", tree.Leaves(), "depth", tree.Depth(), "optimize", c.opt.Optimize)

	var stats bitpack.Stats
	err := writeFileAtomic(dst, func(w io.Writer) (int64, error) {
		r, format, err := probe.Open(src)
		if err != nil {
			return 0, err
		}
		defer r.Close()
		if format != probe.Plain {
			slog.Debug("sourceDecompress", "path", src, "format", format)
		}
		stats, err = bitpack.Pack(w, r, codes)
		return stats.Out, err
	})
	if err != nil {
		return fmt.Errorf("pack %s: %w", src, err)
	}
	slog.Info("packed", "src", src, "dst", dst, "in", stats.In, "out", stats.Out, "padding", stats.Padding)

	if c.opt.Catalog != nil {
		err := c.opt.Catalog.Record(catalog.Entry{
			Packed:      dst,
			Source:      abs(src),
			Weights:     abs(weightsPath),
			Fingerprint: table.Fingerprint(),
			Optimize:    c.opt.Optimize,
			SourceBytes: stats.In,
			PackedBytes: stats.Out,
			Padding:     stats.Padding,
			Time:        time.Now(),
		})
		if err != nil {
			slog.Warn("catalogRecordError", "path", dst, "err", err)
		}
	}

	c.signal(notify.Done, "Information", "File encoded successfully")
	return nil
}

// Decode unpacks src into dst. The table must be the one src was packed with
// for the text to come back, but nothing checks that it is.
func (c *Codec) Decode(src, dst, weightsPath string) error {
	if err := c.checkSource(src); err != nil {
		return err
	}
	if err := c.checkDestination(dst); err != nil {
		return err
	}
	if st := fileclass.Classify(weightsPath, true); st != fileclass.OK {
		c.signal(notify.Input, "Input Error", "Could not read weights")
		return fmt.Errorf("%w: %w", ErrMissingWeights, &PreconditionError{"weights", weightsPath, st})
	}
	table, err := c.opt.Tables.Load(weightsPath)
	if err != nil {
		c.signal(notify.Input, "Input Error", "Could not read weights")
		return err
	}

	tree := huffman.Build(table, c.opt.Optimize)
	slog.Debug("treeBuilt", "leaves", tree.Leaves(), "depth", tree.Depth(), "optimize", c.opt.Optimize)

	var stats bitpack.Stats
	err = writeFileAtomic(dst, func(w io.Writer) (int64, error) {
		f, err := os.Open(src)
		if err != nil {
			return 0, err
		}
		defer f.Close()
		stats, err = bitpack.Unpack(w, f, tree)
		return stats.Out, err
	})
	if err != nil {
		return fmt.Errorf("unpack %s: %w", src, err)
	}
	slog.Info("unpacked", "src", src, "dst", dst, "in", stats.In, "out", stats.Out, "padding", stats.Padding)

	c.signal(notify.Done, "Information", "File decoded successfully")
	return nil
}

// GenerateWeights counts the symbols of src and saves the table to weightsPath.
func (c *Codec) GenerateWeights(src, weightsPath string) (weights.Table, error) {
	if err := c.checkSource(src); err != nil {
		return weights.Table{}, err
	}
	if err := c.checkDestination(weightsPath); err != nil {
		return weights.Table{}, err
	}
	t, err := countFile(src)
	if err != nil {
		c.signal(notify.Input, "Input Error", "Could not read input file")
		return weights.Table{}, err
	}
	if err := writeFileAtomic(weightsPath, t.WriteTo); err != nil {
		c.signal(notify.Output, "Output Error", "Could not create file")
		return weights.Table{}, err
	}
	slog.Info("weightsCreated", "path", weightsPath, "symbols", t.Used(), "total", t.Total())
	c.signal(notify.Done, "Information", "File created successfully")
	return t, nil
}

func (c *Codec) checkSource(src string) error {
	if st := fileclass.Classify(src, true); st != fileclass.OK {
		c.signal(notify.Input, "Input Error", "Could not read input file: "+st.String())
		return &PreconditionError{"source", src, st}
	}
	return nil
}

func (c *Codec) checkDestination(dst string) error {
	switch st := fileclass.Classify(dst, false); st {
	case fileclass.OK:
		return nil
	case fileclass.ExistsWritable:
		if !c.signal(notify.Confirm, "Confirmation", fmt.Sprintf("Overwrite %s?", dst)) {
			return ErrDeclined
		}
		return nil
	default:
		c.signal(notify.Output, "Output Error", "Could not create output file: "+st.String())
		return &PreconditionError{"destination", dst, st}
	}
}

func (c *Codec) signal(k notify.Kind, title, msg string) bool {
	slog.Debug("signal", "kind", k, "msg", msg)
	return c.opt.Notify.Notify(notify.Signal{Kind: k, Title: title, Message: msg})
}

func countFile(name string) (weights.Table, error) {
	r, _, err := probe.Open(name)
	if err != nil {
		return weights.Table{}, err
	}
	defer r.Close()
	t, err := weights.Count(r)
	if err != nil {
		return weights.Table{}, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}

// writeFileAtomic replaces name with whatever fill writes, or leaves it untouched on error.
// A symlink is followed and the file it points to is replaced, keeping its permissions.
func writeFileAtomic(name string, fill func(io.Writer) (int64, error)) (err error) {
	perm := fs.FileMode(0o644)
	if real, err := filepath.EvalSymlinks(name); err == nil {
		name = real
		if info, err := os.Stat(real); err == nil {
			perm = info.Mode().Perm()
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = fill(tmp); err != nil {
		return err
	}
	if err = tmp.Chmod(perm); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), name)
}

func abs(name string) string {
	if a, err := filepath.Abs(name); err == nil {
		return a
	}
	return name
}
