package block

import (
	"io"

	"github.com/YanLien/axmount/fs"
)

// ByteIO adapts a block-addressed Device to byte-addressed io.ReaderAt and
// io.WriterAt, doing read-modify-write for spans that do not cover whole
// blocks. Device nodes use it to pass byte-level reads and writes straight
// through to the underlying device.
type ByteIO struct {
	Dev Device
}

func (b ByteIO) Size() int64 { return ByteSize(b.Dev) }

func (b ByteIO) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fs.ErrInvalid
	}
	size := b.Size()
	if off >= size {
		return 0, io.EOF
	}
	short := false
	if rest := size - off; int64(len(p)) > rest {
		p = p[:rest]
		short = true
	}
	bs := int64(b.Dev.BlockSize())
	buf := make([]byte, bs)
	n := 0
	for n < len(p) {
		blk := (off + int64(n)) / bs
		in := (off + int64(n)) % bs
		if err := b.Dev.ReadBlock(blk, buf); err != nil {
			return n, err
		}
		n += copy(p[n:], buf[in:])
	}
	if short {
		return n, io.EOF
	}
	return n, nil
}

func (b ByteIO) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fs.ErrInvalid
	}
	if off+int64(len(p)) > b.Size() {
		return 0, fs.ErrNoSpace
	}
	bs := int64(b.Dev.BlockSize())
	buf := make([]byte, bs)
	n := 0
	for n < len(p) {
		blk := (off + int64(n)) / bs
		in := (off + int64(n)) % bs
		span := min(int64(len(p)-n), bs-in)
		if span < bs {
			// partial block, read-modify-write
			if err := b.Dev.ReadBlock(blk, buf); err != nil {
				return n, err
			}
		}
		copy(buf[in:], p[n:n+int(span)])
		if err := b.Dev.WriteBlock(blk, buf); err != nil {
			return n, err
		}
		n += int(span)
	}
	return n, nil
}
