package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/elliotnunn/huffpack/internal/codec"
	"github.com/elliotnunn/huffpack/internal/walk"
)

type batchJob struct {
	src, dst, weights string
}

// batchJobs expands the patterns under root and works out where each file's output and weights go
func batchJobs(mode, root, outDir, weightsDir string, patterns []string) ([]batchJob, error) {
	fsys := os.DirFS(root)
	seen := make(map[string]bool)
	var names []string
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("bad pattern %q", pat)
		}
		matches, err := doublestar.Glob(fsys, pat, doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				names = append(names, m)
			}
		}
	}

	waysort, names := walk.InDiskOrder(fsys, names)
	slog.Debug("batchOrder", "root", root, "files", len(names), "sortorder", waysort)

	jobs := make([]batchJob, 0, len(names))
	for _, name := range names {
		rel := filepath.FromSlash(name)
		var j batchJob
		switch mode {
		case "encode":
			j = batchJob{
				src:     filepath.Join(root, rel),
				dst:     filepath.Join(outDir, rel+".bin"),
				weights: filepath.Join(weightsDir, rel+".csv"),
			}
		case "decode":
			base := strings.TrimSuffix(rel, ".bin")
			j = batchJob{
				src:     filepath.Join(root, rel),
				dst:     filepath.Join(outDir, base),
				weights: filepath.Join(weightsDir, base+".csv"),
			}
		default:
			return nil, fmt.Errorf("unknown batch mode %q", mode)
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// runBatch spreads the jobs over concurrency workers.
// Every job has its own weights file, so no two workers touch the same file.
func runBatch(c *codec.Codec, mode string, jobs []batchJob, concurrency int) error {
	slog.Info("batchStart", "mode", mode, "files", len(jobs))
	t := time.Now()

	var (
		mu   sync.Mutex
		errs []error
	)
	ch := make(chan batchJob)
	wg := new(sync.WaitGroup)
	wg.Add(concurrency)
	for range concurrency {
		go func() {
			defer wg.Done()
			for j := range ch {
				err := runBatchJob(c, mode, j)
				if err != nil && !errors.Is(err, codec.ErrDeclined) {
					slog.Warn("batchJobError", "path", j.src, "err", err)
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
				}
			}
		}()
	}
	for _, j := range jobs {
		ch <- j
	}
	close(ch)
	wg.Wait()

	slog.Info("batchStop", "duration", time.Since(t).Truncate(time.Millisecond).String(), "failed", len(errs))
	return errors.Join(errs...)
}

func runBatchJob(c *codec.Codec, mode string, j batchJob) error {
	for _, dir := range []string{filepath.Dir(j.dst), filepath.Dir(j.weights)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if mode == "decode" {
		return c.Decode(j.src, j.dst, j.weights)
	}
	return c.Encode(j.src, j.dst, j.weights)
}
