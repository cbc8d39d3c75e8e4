// Package sysfs implements the read-only system-info backend. The tree is
// fixed at construction: entries are either static bytes or a function
// evaluated when the file is read, and every mutating operation fails with
// permission denied.
package sysfs

import (
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/YanLien/axmount/fs"
	"github.com/YanLien/axmount/fs/fskit"
)

// Entry describes one file in the info tree. Func wins over Data when both
// are set; Mode defaults to 0444.
type Entry struct {
	Mode fs.FileMode
	Data []byte
	Func func() ([]byte, error)
}

type FS struct {
	entries map[string]Entry
	log     *slog.Logger
}

func New(entries map[string]Entry) *FS {
	fsys := &FS{
		entries: make(map[string]Entry, len(entries)),
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for name, e := range entries {
		fsys.entries[path.Clean(name)] = e
	}
	return fsys
}

func (fsys *FS) SetLogger(log *slog.Logger) { fsys.log = log }

// children returns the direct child files and subdirectories of dir, and
// whether dir exists in the tree at all.
func (fsys *FS) children(dir string) (files []string, subdirs map[string]bool, found bool) {
	subdirs = make(map[string]bool)
	prefix := dir + "/"
	if dir == "." {
		prefix = ""
		found = true
	}
	for name := range fsys.entries {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		found = true
		rest := name[len(prefix):]
		if i := strings.Index(rest, "/"); i >= 0 {
			subdirs[rest[:i]] = true
		} else {
			files = append(files, name)
		}
	}
	return files, subdirs, found
}

func (fsys *FS) Open(name string) (f fs.File, err error) {
	defer func() {
		fsys.log.Debug("open", "name", name, "err", err)
	}()
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	name = path.Clean(name)

	if e, ok := fsys.entries[name]; ok {
		return &fskit.FuncFile{Node: fsys.fileNode(name, e), Func: fsys.readFunc(e)}, nil
	}

	files, subdirs, found := fsys.children(name)
	if !found {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	var entries []fs.DirEntry
	for _, key := range files {
		entries = append(entries, fsys.fileNode(key, fsys.entries[key]).Named(path.Base(key)))
	}
	for sub := range subdirs {
		entries = append(entries, fskit.Dir(sub, 0555))
	}
	return fskit.DirFile(fskit.Dir(name, 0555), entries...), nil
}

func (fsys *FS) fileNode(name string, e Entry) *fskit.Node {
	mode := e.Mode
	if mode == 0 {
		mode = 0444
	}
	n := fskit.Bytes(name, mode, e.Data)
	n.SetLogger(fsys.log)
	return n
}

func (fsys *FS) readFunc(e Entry) func(*fskit.Node) ([]byte, error) {
	if e.Func == nil {
		return nil
	}
	return func(*fskit.Node) ([]byte, error) { return e.Func() }
}

// The info tree is immutable; every mutating capability is refused.

func (fsys *FS) Create(name string) (fs.File, error) {
	return nil, &fs.PathError{Op: "create", Path: name, Err: fs.ErrPermission}
}

func (fsys *FS) Mkdir(name string, perm fs.FileMode) error {
	return &fs.PathError{Op: "mkdir", Path: name, Err: fs.ErrPermission}
}

func (fsys *FS) Remove(name string) error {
	return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrPermission}
}

func (fsys *FS) Chmod(name string, mode fs.FileMode) error {
	return &fs.PathError{Op: "chmod", Path: name, Err: fs.ErrPermission}
}

func (fsys *FS) Chown(name string, uid, gid int) error {
	return &fs.PathError{Op: "chown", Path: name, Err: fs.ErrPermission}
}

func (fsys *FS) Chtimes(name string, atime, mtime time.Time) error {
	return &fs.PathError{Op: "chtimes", Path: name, Err: fs.ErrPermission}
}

func (fsys *FS) Truncate(name string, size int64) error {
	return &fs.PathError{Op: "truncate", Path: name, Err: fs.ErrPermission}
}
