package blockfs

import (
	"io"

	"github.com/YanLien/axmount/fs"
)

// file is an open handle on a regular file. It holds the cursor; data and
// metadata operations run under the filesystem lock.
type file struct {
	fsys   *FS
	name   string
	node   *inode
	offset int64
	closed bool
}

func (f *file) Stat() (fs.FileInfo, error) {
	if f.closed {
		return nil, fs.ErrClosed
	}
	f.fsys.mu.Lock()
	defer f.fsys.mu.Unlock()
	return statNode(f.name, f.node), nil
}

func (f *file) Close() error {
	if f.closed {
		return fs.ErrClosed
	}
	f.closed = true
	return nil
}

func (f *file) Read(p []byte) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	f.fsys.mu.Lock()
	defer f.fsys.mu.Unlock()
	n, err := f.fsys.readAtLocked(f.node, p, f.offset)
	f.offset += int64(n)
	return n, err
}

func (f *file) ReadAt(p []byte, off int64) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	f.fsys.mu.Lock()
	defer f.fsys.mu.Unlock()
	return f.fsys.readAtLocked(f.node, p, off)
}

func (f *file) Write(p []byte) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	f.fsys.mu.Lock()
	defer f.fsys.mu.Unlock()
	n, err := f.fsys.writeAtLocked(f.node, p, f.offset)
	f.offset += int64(n)
	return n, err
}

func (f *file) WriteAt(p []byte, off int64) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	f.fsys.mu.Lock()
	defer f.fsys.mu.Unlock()
	return f.fsys.writeAtLocked(f.node, p, off)
}

func (f *file) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += f.offset
	case io.SeekEnd:
		f.fsys.mu.Lock()
		offset += f.node.Size
		f.fsys.mu.Unlock()
	}
	if offset < 0 {
		return 0, &fs.PathError{Op: "seek", Path: f.name, Err: fs.ErrInvalid}
	}
	f.offset = offset
	return offset, nil
}

func (f *file) Truncate(size int64) error {
	if f.closed {
		return fs.ErrClosed
	}
	f.fsys.mu.Lock()
	defer f.fsys.mu.Unlock()
	if err := f.fsys.truncateLocked(f.node, size); err != nil {
		return &fs.PathError{Op: "truncate", Path: f.name, Err: err}
	}
	return nil
}

func (f *file) Sync() error {
	if f.closed {
		return fs.ErrClosed
	}
	f.fsys.mu.Lock()
	defer f.fsys.mu.Unlock()
	return f.fsys.dev.Sync()
}
