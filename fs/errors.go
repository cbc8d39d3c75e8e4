package fs

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the mount layer and its backends, in addition to
// the io/fs sentinels. Backends wrap them in *PathError so callers can test
// with errors.Is while still seeing the path that failed.
var (
	ErrNotSupported   = errors.New("operation not supported")
	ErrNotEmpty       = errors.New("directory not empty")
	ErrIsDir          = errors.New("is a directory")
	ErrNotDir         = errors.New("not a directory")
	ErrDuplicateMount = errors.New("mount point already registered")
	ErrNotReady       = errors.New("mount table not ready")
	ErrSealed         = errors.New("mount table sealed")
	ErrNoDevice       = errors.New("no block device")
	ErrBlockIO        = errors.New("block device i/o error")
	ErrInvalidFS      = errors.New("invalid filesystem")
	ErrNoSpace        = errors.New("no space left on device")
)

func opErr(fsys FS, name string, op string, err error) error {
	return &PathError{Op: op, Path: name, Err: fmt.Errorf("%w on %T", err, fsys)}
}
