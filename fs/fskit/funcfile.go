package fskit

import (
	"io"

	"github.com/YanLien/axmount/fs"
)

// FuncFile is a read-only file whose content is produced by Func the first
// time the file is read. The info backend uses it to expose live values
// without materializing them at open time.
type FuncFile struct {
	Node *Node
	Func func(n *Node) ([]byte, error)

	data   []byte
	loaded bool
	offset int64
	closed bool
}

func (f *FuncFile) Stat() (fs.FileInfo, error) {
	if f.closed {
		return nil, fs.ErrClosed
	}
	return f.Node, nil
}

func (f *FuncFile) Close() error {
	if f.closed {
		return fs.ErrClosed
	}
	f.closed = true
	return nil
}

func (f *FuncFile) load() error {
	if f.loaded {
		return nil
	}
	if f.Func != nil {
		data, err := f.Func(f.Node)
		if err != nil {
			return err
		}
		f.data = data
	} else {
		f.data = f.Node.Data()
	}
	f.loaded = true
	return nil
}

func (f *FuncFile) Read(p []byte) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	if err := f.load(); err != nil {
		return 0, err
	}
	if f.offset >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[f.offset:])
	f.offset += int64(n)
	return n, nil
}

func (f *FuncFile) ReadAt(p []byte, off int64) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	if err := f.load(); err != nil {
		return 0, err
	}
	if off < 0 {
		return 0, &fs.PathError{Op: "read", Path: f.Node.Name(), Err: fs.ErrInvalid}
	}
	if off >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *FuncFile) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	if err := f.load(); err != nil {
		return 0, err
	}
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += f.offset
	case io.SeekEnd:
		offset += int64(len(f.data))
	}
	if offset < 0 {
		return 0, &fs.PathError{Op: "seek", Path: f.Node.Name(), Err: fs.ErrInvalid}
	}
	f.offset = offset
	return offset, nil
}

func (f *FuncFile) Write(p []byte) (int, error) {
	return 0, &fs.PathError{Op: "write", Path: f.Node.Name(), Err: fs.ErrPermission}
}

func (f *FuncFile) WriteAt(p []byte, off int64) (int, error) {
	return 0, &fs.PathError{Op: "write", Path: f.Node.Name(), Err: fs.ErrPermission}
}
