package fusekit

import (
	"errors"
	"syscall"

	"github.com/YanLien/axmount/fs"
)

func sysErrno(err error) syscall.Errno {
	if err == nil {
		return syscall.Errno(0)
	}

	if errors.Is(err, fs.ErrNotExist) {
		return syscall.ENOENT
	}
	if errors.Is(err, fs.ErrExist) {
		return syscall.EEXIST
	}
	if errors.Is(err, fs.ErrIsDir) {
		return syscall.EISDIR
	}
	if errors.Is(err, fs.ErrNotDir) {
		return syscall.ENOTDIR
	}
	if errors.Is(err, fs.ErrNotEmpty) {
		return syscall.ENOTEMPTY
	}
	if errors.Is(err, fs.ErrPermission) {
		return syscall.EPERM
	}
	if errors.Is(err, fs.ErrInvalid) {
		return syscall.EINVAL
	}
	if errors.Is(err, fs.ErrNotSupported) {
		return syscall.EOPNOTSUPP
	}
	if errors.Is(err, fs.ErrClosed) {
		return syscall.EBADF
	}
	if errors.Is(err, fs.ErrNoSpace) {
		return syscall.ENOSPC
	}
	if errors.Is(err, fs.ErrNoDevice) {
		return syscall.ENODEV
	}
	if errors.Is(err, fs.ErrBlockIO) || errors.Is(err, fs.ErrInvalidFS) {
		return syscall.EIO
	}
	if errors.Is(err, fs.ErrNotReady) || errors.Is(err, fs.ErrSealed) || errors.Is(err, fs.ErrDuplicateMount) {
		return syscall.EBUSY
	}

	switch t := err.(type) {
	case syscall.Errno:
		return t
	case *fs.PathError:
		return sysErrno(t.Err)
	}
	return syscall.EIO
}
