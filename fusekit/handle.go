package fusekit

import (
	"context"
	"errors"
	"io"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	iofs "github.com/YanLien/axmount/fs"
)

type handle struct {
	file iofs.File
	path string
}

var _ = (fs.FileReader)((*handle)(nil))

func (h *handle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	n, err := iofs.ReadAt(h.file, dest, off)
	if err != nil && err != io.EOF {
		return nil, sysErrno(err)
	}
	return fuse.ReadResultData(dest[:n]), 0
}

var _ = (fs.FileWriter)((*handle)(nil))

func (h *handle) Write(ctx context.Context, data []byte, off int64) (uint32, syscall.Errno) {
	n, err := iofs.WriteAt(h.file, data, off)
	if err != nil {
		return 0, sysErrno(err)
	}
	return uint32(n), 0
}

var _ = (fs.FileFlusher)((*handle)(nil))

func (h *handle) Flush(ctx context.Context) syscall.Errno {
	if err := h.file.Close(); err != nil && !errors.Is(err, iofs.ErrClosed) {
		return sysErrno(err)
	}
	return 0
}

var _ = (fs.FileFsyncer)((*handle)(nil))

func (h *handle) Fsync(ctx context.Context, flags uint32) syscall.Errno {
	if err := iofs.Sync(h.file); err != nil && !errors.Is(err, iofs.ErrNotSupported) {
		return sysErrno(err)
	}
	return 0
}

var _ = (fs.FileLseeker)((*handle)(nil))

func (h *handle) Lseek(ctx context.Context, off uint64, whence uint32) (uint64, syscall.Errno) {
	newOff, err := iofs.Seek(h.file, int64(off), int(whence))
	if err != nil {
		return 0, sysErrno(err)
	}
	return uint64(newOff), 0
}

var _ = (fs.FileGetattrer)((*handle)(nil))

func (h *handle) Getattr(ctx context.Context, out *fuse.AttrOut) syscall.Errno {
	fi, err := h.file.Stat()
	if err != nil {
		return sysErrno(err)
	}
	applyStat(&out.Attr, h.path, fi)
	return 0
}
