// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/elliotnunn/huffpack/internal/codec"
	"github.com/elliotnunn/huffpack/internal/notify"
)

const rhyme = "Hickory dickory dock.\nThe mouse ran up the clock.\n"

func mkfile(t *testing.T, name, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(name, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return name
}

func slurp(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	src := mkfile(t, filepath.Join(dir, "rhyme.txt"), rhyme)
	w := filepath.Join(dir, "rhyme.csv")
	packed := filepath.Join(dir, "rhyme.bin")
	back := filepath.Join(dir, "back.txt")

	var out bytes.Buffer
	if err := run("weights", []string{"-f", src, "-w", w, "-dump"}, strings.NewReader(""), &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "i:72 (H) = 1\n") {
		t.Errorf("dump lacks the H count:\n%s", out.String())
	}
	if err := run("encode", []string{"-optimize", "-f", src, "-o", packed, "-w", w}, nil, &out); err != nil {
		t.Fatal(err)
	}
	if err := run("decode", []string{"-optimize", "-f", packed, "-o", back, "-w", w}, nil, &out); err != nil {
		t.Fatal(err)
	}
	if got := slurp(t, back); got != rhyme {
		t.Errorf("round trip gave %q", got)
	}

	// overwrite needs an answer
	err := run("decode", []string{"-optimize", "-f", packed, "-o", back, "-w", w}, strings.NewReader("n\n"), &out)
	if !errors.Is(err, codec.ErrDeclined) {
		t.Errorf("got %v, want ErrDeclined", err)
	}
	if err := run("decode", []string{"-optimize", "-f", packed, "-o", back, "-w", w}, strings.NewReader("y\n"), &out); err != nil {
		t.Error(err)
	}
	if err := run("decode", []string{"-y", "-optimize", "-f", packed, "-o", back, "-w", w}, nil, &out); err != nil {
		t.Error(err)
	}
}

func TestUnknownCommand(t *testing.T) {
	if err := run("frobnicate", nil, nil, new(bytes.Buffer)); err == nil {
		t.Error("unknown command accepted")
	}
}

func TestCatalogCommand(t *testing.T) {
	dir := t.TempDir()
	old := catalogDir
	catalogDir = filepath.Join(dir, "catalog")
	t.Cleanup(func() { catalogDir = old })

	src := mkfile(t, filepath.Join(dir, "rhyme.txt"), rhyme)
	w := filepath.Join(dir, "rhyme.csv")
	packed := filepath.Join(dir, "rhyme.bin")
	back := filepath.Join(dir, "back.txt")
	var out bytes.Buffer
	if err := run("encode", []string{"-f", src, "-o", packed, "-w", w}, nil, &out); err != nil {
		t.Fatal(err)
	}

	// no -w: the catalog knows the table
	if err := run("decode", []string{"-f", packed, "-o", back}, nil, &out); err != nil {
		t.Fatal(err)
	}
	if got := slurp(t, back); got != rhyme {
		t.Errorf("round trip gave %q", got)
	}

	out.Reset()
	if err := run("catalog", []string{"-json"}, nil, &out); err != nil {
		t.Fatal(err)
	}
	var e struct {
		Packed, Weights string
	}
	if err := json.Unmarshal(out.Bytes(), &e); err != nil {
		t.Fatalf("%v in %q", err, out.String())
	}
	if e.Packed != packed || e.Weights != w {
		t.Errorf("catalog entry %+v", e)
	}

	out.Reset()
	if err := run("catalog", nil, nil, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "PACKED") || !strings.Contains(out.String(), packed) {
		t.Errorf("catalog table:\n%s", out.String())
	}
}

func TestCatalogRemembersOptimize(t *testing.T) {
	dir := t.TempDir()
	old := catalogDir
	catalogDir = filepath.Join(dir, "catalog")
	t.Cleanup(func() { catalogDir = old })

	src := mkfile(t, filepath.Join(dir, "rhyme.txt"), rhyme)
	w := filepath.Join(dir, "rhyme.csv")
	packed := filepath.Join(dir, "rhyme.bin")
	var out bytes.Buffer
	if err := run("encode", []string{"-optimize", "-f", src, "-o", packed, "-w", w}, nil, &out); err != nil {
		t.Fatal(err)
	}

	for i, args := range [][]string{
		{"-f", packed, "-o", filepath.Join(dir, "back1.txt")},
		{"-optimize", "-f", packed, "-o", filepath.Join(dir, "back2.txt")},
	} {
		if err := run("decode", args, nil, &out); err != nil {
			t.Fatal(err)
		}
		if got := slurp(t, args[len(args)-1]); got != rhyme {
			t.Errorf("decode %d gave %q", i, got)
		}
	}
}

func TestCatalogUnset(t *testing.T) {
	old := catalogDir
	catalogDir = ""
	t.Cleanup(func() { catalogDir = old })
	if err := run("catalog", nil, nil, new(bytes.Buffer)); err == nil {
		t.Error("catalog listed without a directory")
	}
}

func TestBatchJobs(t *testing.T) {
	root := t.TempDir()
	mkfile(t, filepath.Join(root, "a.txt"), "a")
	mkfile(t, filepath.Join(root, "sub", "b.txt"), "b")
	mkfile(t, filepath.Join(root, "c.md"), "c")

	jobs, err := batchJobs("encode", root, "/out", "/w", []string{"**/*.txt", "a.txt"})
	if err != nil {
		t.Fatal(err)
	}
	slices.SortFunc(jobs, func(x, y batchJob) int { return strings.Compare(x.src, y.src) })
	want := []batchJob{
		{filepath.Join(root, "a.txt"), filepath.FromSlash("/out/a.txt.bin"), filepath.FromSlash("/w/a.txt.csv")},
		{filepath.Join(root, "sub", "b.txt"), filepath.FromSlash("/out/sub/b.txt.bin"), filepath.FromSlash("/w/sub/b.txt.csv")},
	}
	if !slices.Equal(jobs, want) {
		t.Errorf("got %v, want %v", jobs, want)
	}

	mkfile(t, filepath.Join(root, "sub", "b.txt.bin"), "b")
	jobs, err = batchJobs("decode", root, "/back", "/w", []string{"sub/*.bin"})
	if err != nil {
		t.Fatal(err)
	}
	want = []batchJob{
		{filepath.Join(root, "sub", "b.txt.bin"), filepath.FromSlash("/back/sub/b.txt"), filepath.FromSlash("/w/sub/b.txt.csv")},
	}
	if !slices.Equal(jobs, want) {
		t.Errorf("got %v, want %v", jobs, want)
	}

	if _, err := batchJobs("encode", root, "/out", "/w", []string{"[a-"}); err == nil {
		t.Error("bad pattern accepted")
	}
	if _, err := batchJobs("squash", root, "/out", "/w", []string{"*.txt"}); err == nil {
		t.Error("unknown mode accepted")
	}
}

func TestBatchRoundTrip(t *testing.T) {
	dir := t.TempDir()
	texts := map[string]string{
		"one.txt":         "one fish\n",
		"deep/two.txt":    "two fish\n",
		"deep/er/red.txt": "red fish, blue fish\n",
	}
	for name, text := range texts {
		mkfile(t, filepath.Join(dir, "src", name), text)
	}

	var out bytes.Buffer
	args := []string{"-y", "-j", "3", "-root", filepath.Join(dir, "src"), "-out", filepath.Join(dir, "packed"), "-weights", filepath.Join(dir, "w"), "**/*.txt"}
	if err := run("batch", append([]string{"-mode", "encode"}, args...), nil, &out); err != nil {
		t.Fatal(err)
	}
	args = []string{"-y", "-j", "2", "-root", filepath.Join(dir, "packed"), "-out", filepath.Join(dir, "back"), "-weights", filepath.Join(dir, "w"), "**/*.bin"}
	if err := run("batch", append([]string{"-mode", "decode"}, args...), nil, &out); err != nil {
		t.Fatal(err)
	}
	for name, text := range texts {
		if got := slurp(t, filepath.Join(dir, "back", name)); got != text {
			t.Errorf("%s: got %q", name, got)
		}
	}
}

func TestBatchNeedsDirs(t *testing.T) {
	if err := run("batch", []string{"*.txt"}, nil, new(bytes.Buffer)); err == nil {
		t.Error("batch ran without -out and -weights")
	}
}

func TestConsole(t *testing.T) {
	confirm := notify.Signal{Kind: notify.Confirm, Title: "Confirmation", Message: "Overwrite x?"}
	cases := []struct {
		in        string
		assumeYes bool
		want      bool
	}{
		{"y\n", false, true},
		{"YES\n", false, true},
		{" y \n", false, true},
		{"n\n", false, false},
		{"\n", false, false},
		{"", false, false},
		{"y", false, true},
		{"", true, true},
	}
	for _, c := range cases {
		var prompt bytes.Buffer
		con := newConsole(strings.NewReader(c.in), &prompt, c.assumeYes)
		if got := con.Notify(confirm); got != c.want {
			t.Errorf("answer %q, assumeYes %v: got %v", c.in, c.assumeYes, got)
		}
		if !c.assumeYes && !strings.HasPrefix(prompt.String(), "Overwrite x? [y/N] ") {
			t.Errorf("prompt %q", prompt.String())
		}
	}

	con := newConsole(strings.NewReader(""), new(bytes.Buffer), false)
	for _, k := range []notify.Kind{notify.Input, notify.Output, notify.Done} {
		if !con.Notify(notify.Signal{Kind: k}) {
			t.Errorf("%v answered false", k)
		}
	}
}
