package fskit

import (
	"io"
	"time"

	"github.com/YanLien/axmount/fs"
)

// nodeFile is an open handle on a Node. It works on a snapshot of the data
// and writes back on Close, so a handle is cheap to abandon. Handles are not
// safe for concurrent use without external synchronization.
type nodeFile struct {
	node    *Node
	data    []byte
	offset  int64
	dirty   bool
	closed  bool
	modTime time.Time
}

func (f *nodeFile) Stat() (fs.FileInfo, error) {
	if f.closed {
		return nil, fs.ErrClosed
	}
	return f.node, nil
}

func (f *nodeFile) Close() (err error) {
	defer func() {
		f.node.logger().Debug("close", "name", f.node.Name(), "err", err)
	}()
	if f.closed {
		return fs.ErrClosed
	}
	f.closed = true
	if f.dirty {
		f.node.SetData(f.data)
		f.node.SetModTime(f.modTime)
	}
	return nil
}

func (f *nodeFile) Read(p []byte) (n int, err error) {
	defer func() {
		f.node.logger().Debug("read", "name", f.node.Name(), "n", n, "err", err)
	}()
	if f.closed {
		return 0, fs.ErrClosed
	}
	if f.offset >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n = copy(p, f.data[f.offset:])
	f.offset += int64(n)
	return n, nil
}

func (f *nodeFile) ReadAt(p []byte, off int64) (n int, err error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	if off < 0 {
		return 0, &fs.PathError{Op: "read", Path: f.node.Name(), Err: fs.ErrInvalid}
	}
	if off >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n = copy(p, f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *nodeFile) Write(p []byte) (n int, err error) {
	defer func() {
		f.node.logger().Debug("write", "name", f.node.Name(), "n", n, "err", err)
	}()
	n, err = f.writeAt(p, f.offset)
	f.offset += int64(n)
	return n, err
}

func (f *nodeFile) WriteAt(p []byte, off int64) (int, error) {
	return f.writeAt(p, off)
}

func (f *nodeFile) writeAt(p []byte, off int64) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	if off < 0 {
		return 0, &fs.PathError{Op: "write", Path: f.node.Name(), Err: fs.ErrInvalid}
	}
	if grow := off + int64(len(p)) - int64(len(f.data)); grow > 0 {
		f.data = append(f.data, make([]byte, grow)...)
	}
	copy(f.data[off:], p)
	f.dirty = true
	f.modTime = time.Now()
	return len(p), nil
}

func (f *nodeFile) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += f.offset
	case io.SeekEnd:
		offset += int64(len(f.data))
	}
	if offset < 0 {
		return 0, &fs.PathError{Op: "seek", Path: f.node.Name(), Err: fs.ErrInvalid}
	}
	f.offset = offset
	return offset, nil
}

func (f *nodeFile) Truncate(size int64) error {
	if f.closed {
		return fs.ErrClosed
	}
	if size < 0 {
		return &fs.PathError{Op: "truncate", Path: f.node.Name(), Err: fs.ErrInvalid}
	}
	switch {
	case size <= int64(len(f.data)):
		f.data = f.data[:size]
	default:
		f.data = append(f.data, make([]byte, size-int64(len(f.data)))...)
	}
	f.dirty = true
	f.modTime = time.Now()
	return nil
}
