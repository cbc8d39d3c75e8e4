package rootfs

import (
	"os"

	"github.com/YanLien/axmount/fs"
)

// File wraps a backend file handle with the access mode it was opened
// under. Backend files are often writable regardless of open flags; the
// wrapper is where read-only actually means read-only.
type File struct {
	fs.File
	path string
	flag int
}

// Path returns the absolute path the handle was opened with.
func (f *File) Path() string { return f.path }

func (f *File) writable() bool {
	return f.flag&(os.O_WRONLY|os.O_RDWR) != 0
}

func (f *File) Write(p []byte) (int, error) {
	if !f.writable() {
		return 0, &fs.PathError{Op: "write", Path: f.path, Err: fs.ErrPermission}
	}
	return fs.Write(f.File, p)
}

func (f *File) WriteAt(p []byte, off int64) (int, error) {
	if !f.writable() {
		return 0, &fs.PathError{Op: "write", Path: f.path, Err: fs.ErrPermission}
	}
	return fs.WriteAt(f.File, p, off)
}

func (f *File) ReadAt(p []byte, off int64) (int, error) {
	return fs.ReadAt(f.File, p, off)
}

func (f *File) Seek(offset int64, whence int) (int64, error) {
	return fs.Seek(f.File, offset, whence)
}

func (f *File) Sync() error {
	return fs.Sync(f.File)
}
