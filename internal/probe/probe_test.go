package probe

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSniff(t *testing.T) {
	cases := map[string]Format{
		"":                     Plain,
		"t":                    Plain,
		"hello, world\n":       Plain,
		"\x1f\x8b\x08\x00":     Gzip,
		"BZh91AY&SY":           Bzip2,
		"\xfd7zXZ\x00\x00\x04": XZ,
		"\xfd7zX":              Plain,
	}
	for header, want := range cases {
		if got := Sniff([]byte(header)); got != want {
			t.Errorf("Sniff(%q) = %s, want %s", header, got, want)
		}
	}
}

func TestPlainPassThrough(t *testing.T) {
	for _, text := range []string{"", "t", "short", "longer than the magic numbers\n"} {
		r, format, err := NewReader(strings.NewReader(text))
		if err != nil {
			t.Fatal(err)
		}
		if format != Plain {
			t.Errorf("%q sniffed as %s", text, format)
		}
		got, err := io.ReadAll(r)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != text {
			t.Errorf("read %q, want %q", got, text)
		}
	}
}

func TestOpenGzip(t *testing.T) {
	const text = "one fish two fish\nred fish blue fish\n"
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte(text))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	name := filepath.Join(t.TempDir(), "fish.txt.gz")
	if err := os.WriteFile(name, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	rc, format, err := Open(name)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	if format != Gzip {
		t.Errorf("format %s, want gzip", format)
	}
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != text {
		t.Errorf("read %q", got)
	}
}

func TestCorruptGzip(t *testing.T) {
	name := filepath.Join(t.TempDir(), "bad.gz")
	if err := os.WriteFile(name, []byte("\x1f\x8bnot really"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Open(name); err == nil {
		t.Error("corrupt gzip header accepted")
	}
}

func TestOpenMissing(t *testing.T) {
	if _, _, err := Open(filepath.Join(t.TempDir(), "missing")); !os.IsNotExist(err) {
		t.Errorf("got %v, want not-exist", err)
	}
}
