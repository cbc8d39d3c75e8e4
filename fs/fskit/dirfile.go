package fskit

import (
	"io"
	"slices"
	"strings"

	"github.com/YanLien/axmount/fs"
)

// dirFile is a synthesized directory handle implementing fs.ReadDirFile.
type dirFile struct {
	info    *Node
	entries []fs.DirEntry
	offset  int
}

// DirFile returns a directory file for info with the given entries, sorted
// by name with later duplicates winning.
func DirFile(info *Node, entries ...fs.DirEntry) fs.File {
	seen := make(map[string]int, len(entries))
	var out []fs.DirEntry
	for _, e := range entries {
		if i, ok := seen[e.Name()]; ok {
			out[i] = e
			continue
		}
		seen[e.Name()] = len(out)
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b fs.DirEntry) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return &dirFile{info: info, entries: out}
}

func (d *dirFile) Stat() (fs.FileInfo, error) { return d.info, nil }
func (d *dirFile) Close() error               { return nil }

func (d *dirFile) Read(p []byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.info.Name(), Err: fs.ErrIsDir}
}

func (d *dirFile) ReadDir(count int) ([]fs.DirEntry, error) {
	if count <= 0 {
		rest := d.entries[d.offset:]
		d.offset = len(d.entries)
		return rest, nil
	}
	if d.offset >= len(d.entries) {
		return nil, io.EOF
	}
	end := min(d.offset+count, len(d.entries))
	list := d.entries[d.offset:end]
	d.offset = end
	return list, nil
}
