package fs

import (
	"os"
	"time"
)

type CreateFS interface {
	FS
	Create(name string) (File, error)
}

// Create creates or truncates the named file if the backend supports it.
func Create(fsys FS, name string) (File, error) {
	if c, ok := fsys.(CreateFS); ok {
		return c.Create(name)
	}
	return nil, opErr(fsys, name, "create", ErrNotSupported)
}

type MkdirFS interface {
	FS
	Mkdir(name string, perm FileMode) error
}

// Mkdir creates a directory with the given permissions if the backend
// supports it. Parents are never created implicitly.
func Mkdir(fsys FS, name string, perm FileMode) error {
	if m, ok := fsys.(MkdirFS); ok {
		return m.Mkdir(name, perm)
	}
	return opErr(fsys, name, "mkdir", ErrNotSupported)
}

type RemoveFS interface {
	FS
	Remove(name string) error
}

// Remove removes the named file or empty directory if the backend supports it.
func Remove(fsys FS, name string) error {
	if r, ok := fsys.(RemoveFS); ok {
		return r.Remove(name)
	}
	return opErr(fsys, name, "remove", ErrNotSupported)
}

type OpenFileFS interface {
	FS
	OpenFile(name string, flag int, perm FileMode) (File, error)
}

// OpenFile opens a file honoring os.O_* flags, falling back to Create/Open
// for backends that only implement the basic capabilities. In the fallback
// an existing file is only recreated when O_TRUNC asks for it; otherwise
// O_CREATE opens it in place.
func OpenFile(fsys FS, name string, flag int, perm FileMode) (File, error) {
	if o, ok := fsys.(OpenFileFS); ok {
		return o.OpenFile(name, flag, perm)
	}
	if flag&os.O_CREATE != 0 {
		if _, err := Stat(fsys, name); err == nil && flag&os.O_TRUNC == 0 {
			return fsys.Open(name)
		}
		return Create(fsys, name)
	}
	return fsys.Open(name)
}

type ChmodFS interface {
	FS
	Chmod(name string, mode FileMode) error
}

// Chmod changes the permission bits of the named entry if supported.
func Chmod(fsys FS, name string, mode FileMode) error {
	if c, ok := fsys.(ChmodFS); ok {
		return c.Chmod(name, mode)
	}
	return opErr(fsys, name, "chmod", ErrNotSupported)
}

type ChownFS interface {
	FS
	Chown(name string, uid, gid int) error
}

// Chown changes the numeric uid and gid of the named entry if supported.
func Chown(fsys FS, name string, uid, gid int) error {
	if c, ok := fsys.(ChownFS); ok {
		return c.Chown(name, uid, gid)
	}
	return opErr(fsys, name, "chown", ErrNotSupported)
}

type ChtimesFS interface {
	FS
	Chtimes(name string, atime, mtime time.Time) error
}

// Chtimes changes the timestamps of the named entry if supported.
func Chtimes(fsys FS, name string, atime, mtime time.Time) error {
	if c, ok := fsys.(ChtimesFS); ok {
		return c.Chtimes(name, atime, mtime)
	}
	return opErr(fsys, name, "chtimes", ErrNotSupported)
}

type TruncateFS interface {
	FS
	Truncate(name string, size int64) error
}

// Truncate resizes the named file if supported.
func Truncate(fsys FS, name string, size int64) error {
	if t, ok := fsys.(TruncateFS); ok {
		return t.Truncate(name, size)
	}
	return opErr(fsys, name, "truncate", ErrNotSupported)
}
