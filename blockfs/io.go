package blockfs

import (
	"io"
	"time"

	"github.com/YanLien/axmount/fs"
)

// readAtLocked reads file content at off. Reads past the end of file are
// clamped and finish with io.EOF; reads entirely past it return (0, EOF).
func (fsys *FS) readAtLocked(n *inode, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fs.ErrInvalid
	}
	if off >= n.Size {
		return 0, io.EOF
	}
	short := false
	if rest := n.Size - off; int64(len(p)) > rest {
		p = p[:rest]
		short = true
	}
	bs := int64(fsys.dev.BlockSize())
	buf := make([]byte, bs)
	pos := 0
	for pos < len(p) {
		abs := off + int64(pos)
		blk := n.Extents[abs/bs]
		in := abs % bs
		if err := fsys.dev.ReadBlock(blk, buf); err != nil {
			return pos, err
		}
		pos += copy(p[pos:], buf[in:])
	}
	if short {
		return pos, io.EOF
	}
	return pos, nil
}

// writeAtLocked writes file content at off, growing the extent list as
// needed, and persists metadata.
func (fsys *FS) writeAtLocked(n *inode, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fs.ErrInvalid
	}
	bs := int64(fsys.dev.BlockSize())
	end := off + int64(len(p))
	if err := fsys.growLocked(n, end); err != nil {
		return 0, err
	}
	buf := make([]byte, bs)
	pos := 0
	for pos < len(p) {
		abs := off + int64(pos)
		blk := n.Extents[abs/bs]
		in := abs % bs
		span := min(int64(len(p)-pos), bs-in)
		if span < bs {
			if err := fsys.dev.ReadBlock(blk, buf); err != nil {
				return pos, err
			}
		}
		copy(buf[in:], p[pos:pos+int(span)])
		if err := fsys.dev.WriteBlock(blk, buf); err != nil {
			return pos, err
		}
		pos += int(span)
	}
	if end > n.Size {
		n.Size = end
	}
	n.MTime = time.Now().UnixNano()
	return pos, fsys.flushLocked()
}

// growLocked ensures the extent list covers size bytes. Fresh blocks come
// from allocLocked already zeroed, so holes read back as zeros.
func (fsys *FS) growLocked(n *inode, size int64) error {
	bs := int64(fsys.dev.BlockSize())
	for int64(len(n.Extents))*bs < size {
		blk, err := fsys.allocLocked()
		if err != nil {
			return err
		}
		n.Extents = append(n.Extents, blk)
	}
	return nil
}

func (fsys *FS) truncateLocked(n *inode, size int64) error {
	if size < 0 {
		return fs.ErrInvalid
	}
	bs := int64(fsys.dev.BlockSize())
	switch {
	case size < n.Size:
		keep := (size + bs - 1) / bs
		for _, blk := range n.Extents[keep:] {
			fsys.freeLocked(blk)
		}
		n.Extents = n.Extents[:keep]
		// zero the tail of the last kept block so regrowth reads zeros
		if in := size % bs; in != 0 {
			buf := make([]byte, bs)
			blk := n.Extents[keep-1]
			if err := fsys.dev.ReadBlock(blk, buf); err != nil {
				return err
			}
			clear(buf[in:])
			if err := fsys.dev.WriteBlock(blk, buf); err != nil {
				return err
			}
		}
	case size > n.Size:
		if err := fsys.growLocked(n, size); err != nil {
			return err
		}
	}
	n.Size = size
	n.MTime = time.Now().UnixNano()
	return fsys.flushLocked()
}
