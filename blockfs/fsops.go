package blockfs

import (
	"path"
	"strings"
	"time"

	"github.com/YanLien/axmount/fs"
	"github.com/YanLien/axmount/fs/fskit"
)

// statNode builds a FileInfo view of an inode. Content stays on the device;
// the node only carries metadata.
func statNode(name string, n *inode) *fskit.Node {
	info := fskit.New(name, n.Mode)
	info.SetSize(n.Size)
	info.SetModTime(time.Unix(0, n.MTime))
	info.SetOwner(n.Uid, n.Gid)
	return info
}

func (fsys *FS) childrenLocked(dir string) []string {
	var keys []string
	prefix := dir + "/"
	if dir == "." {
		prefix = ""
	}
	for name := range fsys.tab.Nodes {
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
	parent, ok := fsys.tab.Nodes[dir]
	if !ok {
		return &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
	}
	if !parent.Mode.IsDir() {
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
	n, ok := fsys.tab.Nodes[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	if !n.Mode.IsDir() {
		return &file{fsys: fsys, name: name, node: n}, nil
	}
	var entries []fs.DirEntry
	for _, key := range fsys.childrenLocked(name) {
		entries = append(entries, statNode(path.Base(key), fsys.tab.Nodes[key]))
	}
	info := statNode(name, n)
	info.SetSize(int64(2 + len(entries)))
	return fskit.DirFile(info, entries...), nil
}

func (fsys *FS) Stat(name string) (fs.FileInfo, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	name = path.Clean(name)
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	n, ok := fsys.tab.Nodes[name]
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	info := statNode(name, n)
	if n.Mode.IsDir() {
		info.SetSize(int64(2 + len(fsys.childrenLocked(name))))
	}
	return info, nil
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
	if n, ok := fsys.tab.Nodes[name]; ok {
		if n.Mode.IsDir() {
			return nil, &fs.PathError{Op: "create", Path: name, Err: fs.ErrIsDir}
		}
		if err := fsys.truncateLocked(n, 0); err != nil {
			return nil, &fs.PathError{Op: "create", Path: name, Err: err}
		}
		return &file{fsys: fsys, name: name, node: n}, nil
	}
	n := &inode{Mode: 0644, MTime: time.Now().UnixNano()}
	fsys.tab.Nodes[name] = n
	if err := fsys.flushLocked(); err != nil {
		delete(fsys.tab.Nodes, name)
		return nil, &fs.PathError{Op: "create", Path: name, Err: err}
	}
	return &file{fsys: fsys, name: name, node: n}, nil
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
	if _, ok := fsys.tab.Nodes[name]; ok {
		return &fs.PathError{Op: "mkdir", Path: name, Err: fs.ErrExist}
	}
	if err := fsys.parentLocked("mkdir", name); err != nil {
		return err
	}
	fsys.tab.Nodes[name] = &inode{
		Mode:  fs.ModeDir | perm.Perm(),
		MTime: time.Now().UnixNano(),
	}
	if err := fsys.flushLocked(); err != nil {
		delete(fsys.tab.Nodes, name)
		return &fs.PathError{Op: "mkdir", Path: name, Err: err}
	}
	return nil
}

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
	n, ok := fsys.tab.Nodes[name]
	if !ok {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	}
	if n.Mode.IsDir() && len(fsys.childrenLocked(name)) > 0 {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotEmpty}
	}
	for _, blk := range n.Extents {
		fsys.freeLocked(blk)
	}
	delete(fsys.tab.Nodes, name)
	if err := fsys.flushLocked(); err != nil {
		return &fs.PathError{Op: "remove", Path: name, Err: err}
	}
	return nil
}

func (fsys *FS) Chmod(name string, mode fs.FileMode) error {
	n, err := fsys.node("chmod", name)
	if err != nil {
		return err
	}
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	n.Mode = n.Mode.Type() | mode.Perm()
	return fsys.flushLocked()
}

func (fsys *FS) Chown(name string, uid, gid int) error {
	n, err := fsys.node("chown", name)
	if err != nil {
		return err
	}
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	n.Uid, n.Gid = uid, gid
	return fsys.flushLocked()
}

func (fsys *FS) Chtimes(name string, atime, mtime time.Time) error {
	n, err := fsys.node("chtimes", name)
	if err != nil {
		return err
	}
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	n.MTime = mtime.UnixNano()
	return fsys.flushLocked()
}

func (fsys *FS) Truncate(name string, size int64) error {
	n, err := fsys.node("truncate", name)
	if err != nil {
		return err
	}
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	if n.Mode.IsDir() {
		return &fs.PathError{Op: "truncate", Path: name, Err: fs.ErrIsDir}
	}
	if err := fsys.truncateLocked(n, size); err != nil {
		return &fs.PathError{Op: "truncate", Path: name, Err: err}
	}
	return nil
}

func (fsys *FS) node(op, name string) (*inode, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
	}
	name = path.Clean(name)
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	n, ok := fsys.tab.Nodes[name]
	if !ok {
		return nil, &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
	}
	return n, nil
}
