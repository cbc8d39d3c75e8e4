package block

import (
	"fmt"
	"sync"

	"github.com/YanLien/axmount/fs"
)

// MemDevice is a RAM-backed block device. Content is lost with the process.
type MemDevice struct {
	mu        sync.RWMutex
	blockSize int
	data      []byte
}

func NewMemDevice(blockSize int, numBlocks int64) *MemDevice {
	return &MemDevice{
		blockSize: blockSize,
		data:      make([]byte, int64(blockSize)*numBlocks),
	}
}

func (d *MemDevice) BlockSize() int { return d.blockSize }

func (d *MemDevice) NumBlocks() int64 {
	return int64(len(d.data)) / int64(d.blockSize)
}

func (d *MemDevice) ReadBlock(i int64, p []byte) error {
	if err := d.check(i, p); err != nil {
		return err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	copy(p, d.data[i*int64(d.blockSize):])
	return nil
}

func (d *MemDevice) WriteBlock(i int64, p []byte) error {
	if err := d.check(i, p); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	copy(d.data[i*int64(d.blockSize):], p)
	return nil
}

func (d *MemDevice) Sync() error { return nil }

func (d *MemDevice) check(i int64, p []byte) error {
	if i < 0 || i >= d.NumBlocks() {
		return fmt.Errorf("%w: block %d out of range [0,%d)", fs.ErrBlockIO, i, d.NumBlocks())
	}
	if len(p) != d.blockSize {
		return fmt.Errorf("%w: buffer size %d, block size %d", fs.ErrBlockIO, len(p), d.blockSize)
	}
	return nil
}
