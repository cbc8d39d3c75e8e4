// Package blockfs implements the disk-backed filesystem adapter: it binds a
// block device to a persistent filesystem exposing the same capability set
// as the virtual backends. Metadata lives in a CBOR-encoded node table
// behind the superblock; file content is held in per-file block extents.
// Every mutation flushes metadata — there is no journal and no crash
// consistency beyond that, by scope.
package blockfs

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fxamacker/cbor/v2"

	"github.com/YanLien/axmount/block"
	"github.com/YanLien/axmount/fs"
)

type FS struct {
	mu  sync.Mutex
	dev block.Device
	sb  superblock
	tab table
	log *slog.Logger
}

// New binds dev to a filesystem. With format set it writes fresh metadata,
// destroying existing content; otherwise it reads and validates what is on
// the device. A failure here is fatal at boot: there is no fallback root.
func New(dev block.Device, format bool) (*FS, error) {
	if dev == nil {
		return nil, fs.ErrNoDevice
	}
	fsys := &FS{
		dev: dev,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if format {
		if err := fsys.format(); err != nil {
			return nil, err
		}
	} else if err := fsys.load(); err != nil {
		return nil, err
	}
	return fsys, nil
}

func (fsys *FS) SetLogger(log *slog.Logger) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	fsys.log = log
}

// BlockSize returns the device block size the filesystem was built on.
func (fsys *FS) BlockSize() int { return fsys.dev.BlockSize() }

func (fsys *FS) dataStart() int64 { return tableStart + fsys.sb.TableBlocks }

func (fsys *FS) format() error {
	bs := fsys.dev.BlockSize()
	nb := fsys.dev.NumBlocks()

	// metadata region: 1/64th of the device, at least 8 blocks, leaving
	// at least one data block
	tb := max(int64(8), nb/64)
	if tableStart+tb+1 > nb {
		return fmt.Errorf("%w: device too small (%d blocks of %d bytes)", fs.ErrInvalidFS, nb, bs)
	}

	fsys.sb = superblock{
		Magic:       magic,
		Version:     version,
		BlockSize:   uint32(bs),
		NumBlocks:   nb,
		TableBlocks: tb,
	}
	dataBlocks := nb - tableStart - tb
	fsys.tab = table{
		Nodes: map[string]*inode{
			".": {Mode: fs.ModeDir | 0755, MTime: time.Now().UnixNano()},
		},
		Bitmap: make([]byte, (dataBlocks+7)/8),
	}
	return fsys.flushLocked()
}

func (fsys *FS) load() error {
	bs := fsys.dev.BlockSize()
	buf := make([]byte, bs)
	if err := fsys.dev.ReadBlock(superIndex, buf); err != nil {
		return err
	}
	sb, err := decodeSuper(buf)
	if err != nil {
		return err
	}
	if int(sb.BlockSize) != bs {
		return fmt.Errorf("%w: formatted with block size %d, device has %d",
			fs.ErrInvalidFS, sb.BlockSize, bs)
	}
	if sb.NumBlocks > fsys.dev.NumBlocks() {
		return fmt.Errorf("%w: formatted for %d blocks, device has %d",
			fs.ErrInvalidFS, sb.NumBlocks, fsys.dev.NumBlocks())
	}
	if sb.TableLen <= 0 || sb.TableLen > sb.TableBlocks*int64(bs) {
		return fmt.Errorf("%w: bad table length %d", fs.ErrInvalidFS, sb.TableLen)
	}

	raw := make([]byte, ((sb.TableLen+int64(bs)-1)/int64(bs))*int64(bs))
	for i := int64(0); i < int64(len(raw))/int64(bs); i++ {
		if err := fsys.dev.ReadBlock(tableStart+i, raw[i*int64(bs):(i+1)*int64(bs)]); err != nil {
			return err
		}
	}
	payload := raw[:sb.TableLen]
	if xxhash.Sum64(payload) != sb.TableSum {
		return fmt.Errorf("%w: metadata checksum mismatch", fs.ErrInvalidFS)
	}
	var tab table
	if err := cbor.Unmarshal(payload, &tab); err != nil {
		return fmt.Errorf("%w: decode metadata: %v", fs.ErrInvalidFS, err)
	}
	if tab.Nodes == nil || tab.Nodes["."] == nil {
		return fmt.Errorf("%w: metadata has no root", fs.ErrInvalidFS)
	}
	fsys.sb = *sb
	fsys.tab = tab
	return nil
}

// flushLocked persists the node table and then the superblock that vouches
// for it. Callers hold fsys.mu.
func (fsys *FS) flushLocked() error {
	bs := fsys.dev.BlockSize()
	payload, err := cbor.Marshal(&fsys.tab)
	if err != nil {
		return fmt.Errorf("%w: encode metadata: %v", fs.ErrInvalidFS, err)
	}
	if int64(len(payload)) > fsys.sb.TableBlocks*int64(bs) {
		return fmt.Errorf("%w: metadata region full", fs.ErrNoSpace)
	}
	buf := make([]byte, bs)
	for i := int64(0); i*int64(bs) < int64(len(payload)); i++ {
		clear(buf)
		copy(buf, payload[i*int64(bs):])
		if err := fsys.dev.WriteBlock(tableStart+i, buf); err != nil {
			return err
		}
	}
	fsys.sb.TableLen = int64(len(payload))
	fsys.sb.TableSum = xxhash.Sum64(payload)
	super, err := encodeSuper(&fsys.sb, bs)
	if err != nil {
		return err
	}
	if err := fsys.dev.WriteBlock(superIndex, super); err != nil {
		return err
	}
	return fsys.dev.Sync()
}

// allocLocked claims a free data block, zeroes it, and returns its absolute
// index.
func (fsys *FS) allocLocked() (int64, error) {
	dataBlocks := fsys.sb.NumBlocks - fsys.dataStart()
	for i := int64(0); i < dataBlocks; i++ {
		if fsys.tab.Bitmap[i/8]&(1<<(i%8)) == 0 {
			fsys.tab.Bitmap[i/8] |= 1 << (i % 8)
			blk := fsys.dataStart() + i
			if err := fsys.dev.WriteBlock(blk, make([]byte, fsys.dev.BlockSize())); err != nil {
				fsys.tab.Bitmap[i/8] &^= 1 << (i % 8)
				return 0, err
			}
			return blk, nil
		}
	}
	return 0, fs.ErrNoSpace
}

func (fsys *FS) freeLocked(blk int64) {
	i := blk - fsys.dataStart()
	if i >= 0 && i/8 < int64(len(fsys.tab.Bitmap)) {
		fsys.tab.Bitmap[i/8] &^= 1 << (i % 8)
	}
}
