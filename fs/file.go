package fs

import "io"

// Write writes to an open file at its cursor, if the file was opened on a
// backend that hands out writable files.
func Write(f File, p []byte) (int, error) {
	w, ok := f.(io.Writer)
	if !ok {
		return 0, ErrPermission
	}
	return w.Write(p)
}

// ReadAt reads at an explicit offset, leaving the file cursor alone.
func ReadAt(f File, p []byte, off int64) (int, error) {
	if ra, ok := f.(io.ReaderAt); ok {
		return ra.ReadAt(p, off)
	}
	return 0, ErrNotSupported
}

// WriteAt writes at an explicit offset, leaving the file cursor alone.
func WriteAt(f File, p []byte, off int64) (int, error) {
	if _, ok := f.(io.Writer); !ok {
		return 0, ErrPermission
	}
	if wa, ok := f.(io.WriterAt); ok {
		return wa.WriteAt(p, off)
	}
	return 0, ErrNotSupported
}

// Seek moves the file cursor.
func Seek(f File, offset int64, whence int) (int64, error) {
	s, ok := f.(io.Seeker)
	if !ok {
		return 0, ErrNotSupported
	}
	return s.Seek(offset, whence)
}

// Sync flushes file state to the backing store if the file supports it.
func Sync(f File) error {
	if s, ok := f.(interface{ Sync() error }); ok {
		return s.Sync()
	}
	return ErrNotSupported
}
