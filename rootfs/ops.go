package rootfs

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/YanLien/axmount/fs"
)

// abs maps io/fs-style names onto the rooted namespace so the type
// satisfies fs.FS for WalkDir and friends. Absolute paths pass through.
func abs(name string) string {
	if strings.HasPrefix(name, "/") {
		return name
	}
	if name == "." {
		return "/"
	}
	return "/" + name
}

func (fsys *FS) Open(name string) (f fs.File, err error) {
	defer func() {
		fsys.log.Debug("open", "name", name, "err", err)
	}()
	p := abs(name)
	fsys.mu.Lock()
	mount, rel, err := fsys.resolveLocked("open", p)
	fsys.mu.Unlock()
	if err != nil {
		return nil, err
	}
	bf, err := mount.Open(rel)
	if err != nil {
		return nil, annotate(err, p)
	}
	return &File{File: bf, path: p, flag: os.O_RDONLY}, nil
}

// OpenFile opens p honoring os.O_* flags. The returned handle enforces the
// access mode regardless of what the backend file supports.
func (fsys *FS) OpenFile(p string, flag int, perm fs.FileMode) (f fs.File, err error) {
	defer func() {
		fsys.log.Debug("openfile", "path", p, "flag", flag, "err", err)
	}()
	fsys.mu.Lock()
	mount, rel, err := fsys.resolveLocked("open", p)
	fsys.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
		if info, err := fs.Stat(mount, rel); err == nil && info.IsDir() {
			return nil, &fs.PathError{Op: "open", Path: p, Err: fs.ErrIsDir}
		}
	}
	// truncation happens before the handle opens so that handles which
	// snapshot content at open time never see the old data
	if flag&os.O_TRUNC != 0 {
		if err := fs.Truncate(mount, rel, 0); err != nil &&
			!errors.Is(err, fs.ErrNotSupported) && !errors.Is(err, fs.ErrNotExist) {
			return nil, annotate(err, p)
		}
	}
	bf, err := fs.OpenFile(mount, rel, flag, perm)
	if err != nil {
		return nil, annotate(err, p)
	}
	h := &File{File: bf, path: p, flag: flag}
	if flag&os.O_APPEND != 0 {
		if _, err := h.Seek(0, io.SeekEnd); err != nil {
			bf.Close()
			return nil, annotate(err, p)
		}
	}
	return h, nil
}

// CreateFile creates a new regular file owned by uid/gid with the given
// permissions. An existing entry at p is an error; creation never
// truncates through this interface.
func (fsys *FS) CreateFile(p string, uid, gid int, perm fs.FileMode) (f fs.File, err error) {
	defer func() {
		fsys.log.Debug("createfile", "path", p, "uid", uid, "gid", gid, "perm", perm, "err", err)
	}()
	fsys.mu.Lock()
	mount, rel, err := fsys.resolveLocked("create", p)
	fsys.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if _, err := fs.Stat(mount, rel); err == nil {
		return nil, &fs.PathError{Op: "create", Path: p, Err: fs.ErrExist}
	}
	bf, err := fs.Create(mount, rel)
	if err != nil {
		return nil, annotate(err, p)
	}
	if err := fs.Chmod(mount, rel, perm); err != nil && !errors.Is(err, fs.ErrNotSupported) {
		bf.Close()
		return nil, annotate(err, p)
	}
	if err := fs.Chown(mount, rel, uid, gid); err != nil && !errors.Is(err, fs.ErrNotSupported) {
		bf.Close()
		return nil, annotate(err, p)
	}
	return &File{File: bf, path: p, flag: os.O_RDWR}, nil
}

// CreateDir creates a new directory at p owned by uid/gid. The parent must
// already exist.
func (fsys *FS) CreateDir(p string, uid, gid int, perm fs.FileMode) (err error) {
	defer func() {
		fsys.log.Debug("createdir", "path", p, "uid", uid, "gid", gid, "perm", perm, "err", err)
	}()
	fsys.mu.Lock()
	mount, rel, err := fsys.resolveLocked("mkdir", p)
	fsys.mu.Unlock()
	if err != nil {
		return err
	}
	if rel == "." {
		return &fs.PathError{Op: "mkdir", Path: p, Err: fs.ErrExist}
	}
	if err := fs.Mkdir(mount, rel, perm); err != nil {
		return annotate(err, p)
	}
	if err := fs.Chown(mount, rel, uid, gid); err != nil && !errors.Is(err, fs.ErrNotSupported) {
		return annotate(err, p)
	}
	return nil
}

// RemoveFile removes the regular file at p. Directories are refused.
func (fsys *FS) RemoveFile(p string) (err error) {
	defer func() {
		fsys.log.Debug("removefile", "path", p, "err", err)
	}()
	fsys.mu.Lock()
	mount, rel, err := fsys.resolveLocked("remove", p)
	fsys.mu.Unlock()
	if err != nil {
		return err
	}
	info, err := fs.Stat(mount, rel)
	if err != nil {
		return annotate(err, p)
	}
	if info.IsDir() {
		return &fs.PathError{Op: "remove", Path: p, Err: fs.ErrIsDir}
	}
	return annotate(fs.Remove(mount, rel), p)
}

// RemoveDir removes the empty directory at p. Files are refused, as is the
// root of a mount.
func (fsys *FS) RemoveDir(p string) (err error) {
	defer func() {
		fsys.log.Debug("removedir", "path", p, "err", err)
	}()
	fsys.mu.Lock()
	mount, rel, err := fsys.resolveLocked("remove", p)
	fsys.mu.Unlock()
	if err != nil {
		return err
	}
	if rel == "." {
		return &fs.PathError{Op: "remove", Path: p, Err: fs.ErrInvalid}
	}
	info, err := fs.Stat(mount, rel)
	if err != nil {
		return annotate(err, p)
	}
	if !info.IsDir() {
		return &fs.PathError{Op: "remove", Path: p, Err: fs.ErrNotDir}
	}
	return annotate(fs.Remove(mount, rel), p)
}

func (fsys *FS) Stat(name string) (fs.FileInfo, error) {
	p := abs(name)
	fsys.mu.Lock()
	mount, rel, err := fsys.resolveLocked("stat", p)
	fsys.mu.Unlock()
	if err != nil {
		return nil, err
	}
	info, err := fs.Stat(mount, rel)
	return info, annotate(err, p)
}

func (fsys *FS) ReadDir(name string) ([]fs.DirEntry, error) {
	p := abs(name)
	fsys.mu.Lock()
	mount, rel, err := fsys.resolveLocked("readdir", p)
	fsys.mu.Unlock()
	if err != nil {
		return nil, err
	}
	entries, err := fs.ReadDir(mount, rel)
	return entries, annotate(err, p)
}

func (fsys *FS) Chmod(p string, mode fs.FileMode) error {
	fsys.mu.Lock()
	mount, rel, err := fsys.resolveLocked("chmod", p)
	fsys.mu.Unlock()
	if err != nil {
		return err
	}
	return annotate(fs.Chmod(mount, rel, mode), p)
}

func (fsys *FS) Chown(p string, uid, gid int) error {
	fsys.mu.Lock()
	mount, rel, err := fsys.resolveLocked("chown", p)
	fsys.mu.Unlock()
	if err != nil {
		return err
	}
	return annotate(fs.Chown(mount, rel, uid, gid), p)
}

func (fsys *FS) Chtimes(p string, atime, mtime time.Time) error {
	fsys.mu.Lock()
	mount, rel, err := fsys.resolveLocked("chtimes", p)
	fsys.mu.Unlock()
	if err != nil {
		return err
	}
	return annotate(fs.Chtimes(mount, rel, atime, mtime), p)
}

func (fsys *FS) Truncate(p string, size int64) error {
	fsys.mu.Lock()
	mount, rel, err := fsys.resolveLocked("truncate", p)
	fsys.mu.Unlock()
	if err != nil {
		return err
	}
	return annotate(fs.Truncate(mount, rel, size), p)
}
