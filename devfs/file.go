package devfs

import (
	"io"

	"github.com/YanLien/axmount/block"
	"github.com/YanLien/axmount/fs"
	"github.com/YanLien/axmount/fs/fskit"
)

// devFile is an open handle on a device node. Data operations go straight
// to the device; the cursor lives in the handle.
type devFile struct {
	node   *fskit.Node
	dev    block.ByteIO
	offset int64
	closed bool
}

func (f *devFile) Stat() (fs.FileInfo, error) {
	if f.closed {
		return nil, fs.ErrClosed
	}
	return f.node, nil
}

func (f *devFile) Close() error {
	if f.closed {
		return fs.ErrClosed
	}
	f.closed = true
	return f.dev.Dev.Sync()
}

func (f *devFile) Read(p []byte) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	n, err := f.dev.ReadAt(p, f.offset)
	f.offset += int64(n)
	return n, err
}

func (f *devFile) ReadAt(p []byte, off int64) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	return f.dev.ReadAt(p, off)
}

func (f *devFile) Write(p []byte) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	n, err := f.dev.WriteAt(p, f.offset)
	f.offset += int64(n)
	return n, err
}

func (f *devFile) WriteAt(p []byte, off int64) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	return f.dev.WriteAt(p, off)
}

func (f *devFile) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += f.offset
	case io.SeekEnd:
		offset += f.dev.Size()
	}
	if offset < 0 {
		return 0, &fs.PathError{Op: "seek", Path: f.node.Name(), Err: fs.ErrInvalid}
	}
	f.offset = offset
	return offset, nil
}

func (f *devFile) Sync() error {
	if f.closed {
		return fs.ErrClosed
	}
	return f.dev.Dev.Sync()
}
