// Package walk puts a list of files into the order they most likely sit on disk,
// so that a batch job reads its inputs with the least seeking.
package walk

import (
	"io/fs"
	"sort"
)

// InDiskOrder sorts names by inode number when the file system reports one,
// and otherwise leaves them in the order given. It names the order it chose.
func InDiskOrder(fsys fs.FS, names []string) (string, []string) {
	if len(names) == 0 {
		return "no-files", names
	}

	list := make(fileSlice, 0, len(names))
	for _, name := range names {
		info, err := fs.Stat(fsys, name)
		if err != nil {
			return err.Error(), names
		}
		key, ok := getkey(info)
		if !ok {
			return "walk-order", names
		}
		list = append(list, file{path: name, info: info, key: key})
	}

	sort.Stable(list)
	ret := make([]string, len(list))
	for i, f := range list {
		ret[i] = f.path
	}
	return "inode-number", ret
}

type fileSlice []file
type file struct {
	path string
	info fs.FileInfo
	key  uint64
}

func (x fileSlice) Len() int           { return len(x) }
func (x fileSlice) Less(i, j int) bool { return x[i].key < x[j].key }
func (x fileSlice) Swap(i, j int)      { x[i], x[j] = x[j], x[i] }

func getkey(i fs.FileInfo) (uint64, bool) {
	if ino, ok := tryInode(i); ok { // intended as a vague proxy for "order on disk"
		return ino, true
	}

	switch t := i.Sys().(type) {
	case interface{ Inode() uint64 }:
		return t.Inode(), true
	}
	return 0, false
}

var tryInode = func(i fs.FileInfo) (uint64, bool) { return 0, false }
