package block

import (
	"fmt"
	"os"

	"github.com/YanLien/axmount/fs"
)

// FileDevice is a block device backed by an image file on the host. It is
// what the CLI uses in place of real hardware.
type FileDevice struct {
	f         *os.File
	blockSize int
	numBlocks int64
}

// CreateFileDevice creates (or truncates) an image file sized to hold
// numBlocks blocks.
func CreateFileDevice(path string, blockSize int, numBlocks int64) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fs.ErrBlockIO, err)
	}
	if err := f.Truncate(int64(blockSize) * numBlocks); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", fs.ErrBlockIO, err)
	}
	return &FileDevice{f: f, blockSize: blockSize, numBlocks: numBlocks}, nil
}

// OpenFileDevice opens an existing image file; the block count is derived
// from the file size, which must be block-aligned.
func OpenFileDevice(path string, blockSize int) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fs.ErrBlockIO, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", fs.ErrBlockIO, err)
	}
	if fi.Size()%int64(blockSize) != 0 {
		f.Close()
		return nil, fmt.Errorf("%w: image size %d not a multiple of block size %d",
			fs.ErrInvalidFS, fi.Size(), blockSize)
	}
	return &FileDevice{f: f, blockSize: blockSize, numBlocks: fi.Size() / int64(blockSize)}, nil
}

func (d *FileDevice) BlockSize() int   { return d.blockSize }
func (d *FileDevice) NumBlocks() int64 { return d.numBlocks }

func (d *FileDevice) ReadBlock(i int64, p []byte) error {
	if err := d.check(i, p); err != nil {
		return err
	}
	if _, err := d.f.ReadAt(p, i*int64(d.blockSize)); err != nil {
		return fmt.Errorf("%w: read block %d: %v", fs.ErrBlockIO, i, err)
	}
	return nil
}

func (d *FileDevice) WriteBlock(i int64, p []byte) error {
	if err := d.check(i, p); err != nil {
		return err
	}
	if _, err := d.f.WriteAt(p, i*int64(d.blockSize)); err != nil {
		return fmt.Errorf("%w: write block %d: %v", fs.ErrBlockIO, i, err)
	}
	return nil
}

func (d *FileDevice) Sync() error {
	if err := d.f.Sync(); err != nil {
		return fmt.Errorf("%w: sync: %v", fs.ErrBlockIO, err)
	}
	return nil
}

func (d *FileDevice) Close() error { return d.f.Close() }

func (d *FileDevice) check(i int64, p []byte) error {
	if i < 0 || i >= d.numBlocks {
		return fmt.Errorf("%w: block %d out of range [0,%d)", fs.ErrBlockIO, i, d.numBlocks)
	}
	if len(p) != d.blockSize {
		return fmt.Errorf("%w: buffer size %d, block size %d", fs.ErrBlockIO, len(p), d.blockSize)
	}
	return nil
}
