// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/elliotnunn/huffpack/internal/catalog"
	"github.com/elliotnunn/huffpack/internal/codec"
	"github.com/elliotnunn/huffpack/internal/tablecache"
	"github.com/elliotnunn/huffpack/internal/weights"
)

const usage = `usage: huffpack <command> [flags]

commands:
  weights  count the symbols of a text file and save the table
  encode   pack a text file
  decode   unpack a packed file
  batch    encode or decode every file matching a pattern
  catalog  list packed files recorded in $HUFFPACK_CATALOG
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	err := run(os.Args[1], os.Args[2:], os.Stdin, os.Stdout)
	switch {
	case errors.Is(err, flag.ErrHelp):
		os.Exit(2)
	case errors.Is(err, codec.ErrDeclined):
		slog.Info("declined")
	case err != nil:
		slog.Error("failed", "err", err)
		os.Exit(1)
	}
}

// common flags shared by every command
type common struct {
	verbose   bool
	optimize  bool
	assumeYes bool
}

func (c *common) register(fs *flag.FlagSet) {
	fs.BoolVar(&c.verbose, "v", false, "log debug detail")
	fs.BoolVar(&c.optimize, "optimize", false, "leave zero-weight symbols out of the tree")
	fs.BoolVar(&c.assumeYes, "y", false, "overwrite existing files without asking")
}

func (c *common) setup(stdin io.Reader) (*codec.Codec, *catalog.Catalog, error) {
	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	var cat *catalog.Catalog
	if catalogDir != "" {
		var err error
		cat, err = catalog.Open(catalogDir)
		if err != nil {
			return nil, nil, err
		}
	}
	return c.newCodec(stdin, cat), cat, nil
}

func (c *common) newCodec(stdin io.Reader, cat *catalog.Catalog) *codec.Codec {
	return codec.New(codec.Options{
		Optimize: c.optimize,
		Notify:   newConsole(stdin, os.Stderr, c.assumeYes),
		Tables:   tablecache.New(tableEntries),
		Catalog:  cat,
	})
}

func run(cmd string, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	var c common
	c.register(fs)

	switch cmd {
	case "weights":
		src := fs.String("f", "", "text file to count")
		w := fs.String("w", "", "weights file to write")
		dump := fs.Bool("dump", false, "print the table")
		if err := fs.Parse(args); err != nil {
			return err
		}
		cdc, cat, err := c.setup(stdin)
		if err != nil {
			return err
		}
		defer closeCatalog(cat)
		t, err := cdc.GenerateWeights(*src, *w)
		if err != nil {
			return err
		}
		if *dump {
			return t.Dump(stdout)
		}
		return nil

	case "encode", "decode":
		src := fs.String("f", "", "input file")
		dst := fs.String("o", "", "output file")
		w := fs.String("w", "", "weights file")
		if err := fs.Parse(args); err != nil {
			return err
		}
		cdc, cat, err := c.setup(stdin)
		if err != nil {
			return err
		}
		defer closeCatalog(cat)
		if cmd == "encode" {
			return cdc.Encode(*src, *dst, *w)
		}
		weightsPath := *w
		if weightsPath == "" && cat != nil {
			if e, ok := recorded(cat, *src); ok {
				weightsPath = e.Weights
				if !flagSet(fs, "optimize") {
					c.optimize = e.Optimize
					cdc = c.newCodec(stdin, cat)
				} else if c.optimize != e.Optimize {
					slog.Warn("optimizeMismatch", "path", *src, "recorded", e.Optimize, "used", c.optimize)
				}
			}
		}
		if err := cdc.Decode(*src, *dst, weightsPath); err != nil {
			return err
		}
		if cat != nil {
			checkFingerprint(cat, *src, weightsPath)
		}
		return nil

	case "batch":
		mode := fs.String("mode", "encode", "encode or decode")
		root := fs.String("root", ".", "directory the patterns are relative to")
		out := fs.String("out", "", "output directory")
		w := fs.String("weights", "", "weights directory")
		j := fs.Int("j", 1, "files to process at once")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *out == "" || *w == "" || fs.NArg() == 0 {
			return fmt.Errorf("batch needs -out, -weights and at least one pattern")
		}
		cdc, cat, err := c.setup(stdin)
		if err != nil {
			return err
		}
		defer closeCatalog(cat)
		jobs, err := batchJobs(*mode, *root, *out, *w, fs.Args())
		if err != nil {
			return err
		}
		return runBatch(cdc, *mode, jobs, max(*j, 1))

	case "catalog":
		asJSON := fs.Bool("json", false, "print JSON lines")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if catalogDir == "" {
			return errors.New("HUFFPACK_CATALOG is not set")
		}
		_, cat, err := c.setup(stdin)
		if err != nil {
			return err
		}
		defer closeCatalog(cat)
		return listCatalog(cat, stdout, *asJSON)
	}

	fmt.Fprint(os.Stderr, usage)
	return flag.ErrHelp
}

// recorded finds the catalog entry of a packed file
func recorded(cat *catalog.Catalog, packed string) (catalog.Entry, bool) {
	e, ok, err := cat.Lookup(packed)
	if err != nil {
		slog.Warn("catalogLookupError", "path", packed, "err", err)
	}
	if !ok {
		return catalog.Entry{}, false
	}
	slog.Info("catalogWeights", "path", packed, "weights", e.Weights, "optimize", e.Optimize)
	return e, true
}

func flagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// checkFingerprint warns when a file was unpacked with a different table from the one that packed it
func checkFingerprint(cat *catalog.Catalog, packed, weightsPath string) {
	e, ok, err := cat.Lookup(packed)
	if err != nil || !ok {
		return
	}
	f, err := os.Open(weightsPath)
	if err != nil {
		return
	}
	defer f.Close()
	if fp := fingerprintOf(f); fp != 0 && fp != e.Fingerprint {
		slog.Warn("weightsMismatch", "path", packed, "weights", weightsPath,
			"recorded", fmt.Sprintf("%016x", e.Fingerprint), "used", fmt.Sprintf("%016x", fp))
	}
}

func fingerprintOf(r io.Reader) uint64 {
	t, err := weights.Parse(r)
	if err != nil {
		return 0
	}
	return t.Fingerprint()
}

func listCatalog(cat *catalog.Catalog, w io.Writer, asJSON bool) error {
	entries, err := cat.List()
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(w)
		for _, e := range entries {
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "PACKED\tBYTES\tSOURCE BYTES\tWEIGHTS\tOPTIMIZE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%v\n", e.Packed, e.PackedBytes, e.SourceBytes, e.Weights, e.Optimize)
	}
	return tw.Flush()
}

func closeCatalog(cat *catalog.Catalog) {
	if cat == nil {
		return
	}
	if err := cat.Close(); err != nil {
		slog.Warn("catalogCloseError", "err", err)
	}
}
