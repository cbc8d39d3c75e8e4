package fs

import (
	"errors"
	"io"
)

// Exists reports whether the named entry exists on fsys.
func Exists(fsys FS, name string) (bool, error) {
	_, err := Stat(fsys, name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotExist) {
		return false, nil
	}
	return false, err
}

// IsDir reports whether the named entry is a directory.
func IsDir(fsys FS, name string) (bool, error) {
	fi, err := Stat(fsys, name)
	if err != nil {
		return false, err
	}
	return fi.IsDir(), nil
}

// IsEmptyDir reports whether the named directory has no entries.
func IsEmptyDir(fsys FS, name string) (bool, error) {
	list, err := ReadDir(fsys, name)
	if err != nil {
		return false, err
	}
	return len(list) == 0, nil
}

// WriteFile creates or truncates the named file and writes data to it.
func WriteFile(fsys FS, name string, data []byte) error {
	f, err := Create(fsys, name)
	if err != nil {
		return err
	}
	n, err := Write(f, data)
	if err == nil && n < len(data) {
		err = io.ErrShortWrite
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
