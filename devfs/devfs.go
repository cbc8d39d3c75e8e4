// Package devfs implements the device-node backend. It keeps an ordinary
// in-memory tree for lookup, create, remove, and readdir, but reads and
// writes on a registered device node pass straight through to the
// associated block device.
package devfs

import (
	"io"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/YanLien/axmount/block"
	"github.com/YanLien/axmount/fs"
	"github.com/YanLien/axmount/fs/fskit"
)

type FS struct {
	mu    sync.Mutex
	nodes map[string]*fskit.Node
	devs  map[string]block.Device
	log   *slog.Logger
}

func New() *FS {
	fsys := &FS{
		nodes: make(map[string]*fskit.Node),
		devs:  make(map[string]block.Device),
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	fsys.nodes["."] = fskit.Dir(".", 0755)
	return fsys
}

func (fsys *FS) SetLogger(log *slog.Logger) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	fsys.log = log
}

// Register adds a device node for dev under the given rooted name. The
// parent directory must already exist.
func (fsys *FS) Register(name string, dev block.Device) error {
	if !fs.ValidPath(name) || name == "." {
		return &fs.PathError{Op: "register", Path: name, Err: fs.ErrInvalid}
	}
	name = path.Clean(name)

	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	if _, ok := fsys.nodes[name]; ok {
		return &fs.PathError{Op: "register", Path: name, Err: fs.ErrExist}
	}
	if err := fsys.parentLocked("register", name); err != nil {
		return err
	}
	n := fskit.New(name, fs.ModeDevice|0660)
	n.SetSize(block.ByteSize(dev))
	n.SetLogger(fsys.log)
	fsys.nodes[name] = n
	fsys.devs[name] = dev
	return nil
}

func (fsys *FS) childrenLocked(dir string) []string {
	var keys []string
	prefix := dir + "/"
	if dir == "." {
		prefix = ""
	}
	for name := range fsys.nodes {
		if name == "." || !strings.HasPrefix(name, prefix) {
			continue
		}
		if rest := name[len(prefix):]; !strings.Contains(rest, "/") {
			keys = append(keys, name)
		}
	}
	return keys
}

func (fsys *FS) parentLocked(op, name string) error {
	dir := path.Dir(name)
	if dir == "." {
		return nil
	}
	parent, ok := fsys.nodes[dir]
	if !ok {
		return &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
	}
	if !parent.IsDir() {
		return &fs.PathError{Op: op, Path: name, Err: fs.ErrNotDir}
	}
	return nil
}

func (fsys *FS) Open(name string) (f fs.File, err error) {
	defer func() {
		fsys.log.Debug("open", "name", name, "err", err)
	}()
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	name = path.Clean(name)

	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	n, ok := fsys.nodes[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	if dev, ok := fsys.devs[name]; ok {
		return &devFile{node: n, dev: block.ByteIO{Dev: dev}}, nil
	}
	if !n.IsDir() {
		return n.File(), nil
	}
	var entries []fs.DirEntry
	for _, key := range fsys.childrenLocked(name) {
		entries = append(entries, fsys.nodes[key].Named(path.Base(key)))
	}
	n.SetSize(int64(2 + len(entries)))
	return fskit.DirFile(n.Named(name), entries...), nil
}

func (fsys *FS) Stat(name string) (fs.FileInfo, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	name = path.Clean(name)
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	n, ok := fsys.nodes[name]
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	return n, nil
}

func (fsys *FS) ReadDir(name string) ([]fs.DirEntry, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dir, ok := f.(fs.ReadDirFile)
	if !ok {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotDir}
	}
	return dir.ReadDir(-1)
}

func (fsys *FS) Create(name string) (f fs.File, err error) {
	defer func() {
		fsys.log.Debug("create", "name", name, "err", err)
	}()
	if !fs.ValidPath(name) || name == "." {
		return nil, &fs.PathError{Op: "create", Path: name, Err: fs.ErrInvalid}
	}
	name = path.Clean(name)

	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	if err := fsys.parentLocked("create", name); err != nil {
		return nil, err
	}
	if n, ok := fsys.nodes[name]; ok {
		if n.IsDir() {
			return nil, &fs.PathError{Op: "create", Path: name, Err: fs.ErrIsDir}
		}
		if _, isDev := fsys.devs[name]; isDev {
			return nil, &fs.PathError{Op: "create", Path: name, Err: fs.ErrExist}
		}
		n.SetData(nil)
		n.SetModTime(time.Now())
		return n.File(), nil
	}
	n := fskit.New(name, 0644)
	n.SetLogger(fsys.log)
	fsys.nodes[name] = n
	return n.File(), nil
}

func (fsys *FS) Mkdir(name string, perm fs.FileMode) (err error) {
	defer func() {
		fsys.log.Debug("mkdir", "name", name, "perm", perm, "err", err)
	}()
	if !fs.ValidPath(name) || name == "." {
		return &fs.PathError{Op: "mkdir", Path: name, Err: fs.ErrInvalid}
	}
	name = path.Clean(name)

	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	if _, ok := fsys.nodes[name]; ok {
		return &fs.PathError{Op: "mkdir", Path: name, Err: fs.ErrExist}
	}
	if err := fsys.parentLocked("mkdir", name); err != nil {
		return err
	}
	n := fskit.Dir(name, perm)
	n.SetLogger(fsys.log)
	fsys.nodes[name] = n
	return nil
}

// Remove removes a node from the tree. Removing a registered device node
// drops the registration; the device itself is untouched.
func (fsys *FS) Remove(name string) (err error) {
	defer func() {
		fsys.log.Debug("remove", "name", name, "err", err)
	}()
	if !fs.ValidPath(name) || name == "." {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrInvalid}
	}
	name = path.Clean(name)

	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	n, ok := fsys.nodes[name]
	if !ok {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	}
	if n.IsDir() && len(fsys.childrenLocked(name)) > 0 {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotEmpty}
	}
	delete(fsys.nodes, name)
	delete(fsys.devs, name)
	return nil
}

func (fsys *FS) Chmod(name string, mode fs.FileMode) error {
	n, err := fsys.node("chmod", name)
	if err != nil {
		return err
	}
	n.SetPerm(mode)
	return nil
}

func (fsys *FS) Chown(name string, uid, gid int) error {
	n, err := fsys.node("chown", name)
	if err != nil {
		return err
	}
	n.SetOwner(uid, gid)
	return nil
}

func (fsys *FS) node(op, name string) (*fskit.Node, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
	}
	name = path.Clean(name)
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	n, ok := fsys.nodes[name]
	if !ok {
		return nil, &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
	}
	return n, nil
}
