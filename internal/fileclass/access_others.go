//go:build !unix

package fileclass

import (
	"io/fs"
	"os"
)

func canRead(path string, info fs.FileInfo) bool {
	if info.IsDir() {
		return true
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

func canWrite(_ string, info fs.FileInfo) bool {
	return info.Mode().Perm()&0o200 != 0
}
