// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package fileclass decides whether a path is fit to be read or written.
// It only looks at the file system and never changes it.
package fileclass

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
)

type Status int

const (
	OK Status = iota
	EmptyName
	NotAFile
	DoesNotExist
	ZeroLength
	NoReadAccess
	NoWriteAccess
	ExistsWritable
)

var names = [...]string{
	OK:             "ok",
	EmptyName:      "empty file name",
	NotAFile:       "not a file",
	DoesNotExist:   "does not exist",
	ZeroLength:     "zero length",
	NoReadAccess:   "not readable",
	NoWriteAccess:  "not writable",
	ExistsWritable: "already exists",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(names) {
		return "unknown status"
	}
	return names[s]
}

// Classify checks path for reading or for writing.
//
// For reading the file must exist, be a regular file, be non-empty and be readable.
// For writing a missing file is OK if its directory exists and is writable,
// and an existing writable regular file in a writable directory is ExistsWritable.
func Classify(path string, forRead bool) Status {
	if path == "" {
		return EmptyName
	}
	if forRead {
		return classifyRead(path)
	}
	return classifyWrite(path)
}

func classifyRead(path string) Status {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return DoesNotExist
	case err != nil:
		return NoReadAccess
	case !info.Mode().IsRegular():
		return NotAFile
	case info.Size() == 0:
		return ZeroLength
	case !canRead(path, info):
		return NoReadAccess
	}
	return OK
}

func classifyWrite(path string) Status {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		if !canWrite(path, info) {
			return NoWriteAccess
		} else if !info.Mode().IsRegular() {
			return NotAFile
		}
		// replacement happens by rename inside the directory holding the real file
		real, err := filepath.EvalSymlinks(path)
		if err != nil {
			return NoWriteAccess
		}
		dir := filepath.Dir(real)
		if dinfo, err := os.Stat(dir); err != nil || !canWrite(dir, dinfo) {
			return NoWriteAccess
		}
		return ExistsWritable
	case !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, syscall.ENOTDIR):
		return NoWriteAccess
	}

	dir := filepath.Dir(path)
	dinfo, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return DoesNotExist
	case err != nil:
		return NoWriteAccess
	case !dinfo.IsDir():
		return NotAFile
	case !canWrite(dir, dinfo):
		return NoWriteAccess
	}
	return OK
}
