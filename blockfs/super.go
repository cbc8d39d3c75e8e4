package blockfs

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/fxamacker/cbor/v2"

	"github.com/YanLien/axmount/fs"
)

const (
	magic   = "AXFS"
	version = 1

	// block 0 is the superblock; the metadata table starts at block 1
	superIndex = 0
	tableStart = 1
)

// superblock is the on-device root of the filesystem, CBOR-encoded into
// block 0 behind a length prefix and an xxhash checksum.
type superblock struct {
	Magic       string `cbor:"magic"`
	Version     uint32 `cbor:"version"`
	BlockSize   uint32 `cbor:"block_size"`
	NumBlocks   int64  `cbor:"num_blocks"`
	TableBlocks int64  `cbor:"table_blocks"`
	TableLen    int64  `cbor:"table_len"`
	TableSum    uint64 `cbor:"table_sum"`
}

// inode is the persisted form of one file or directory. Extents lists the
// absolute device blocks holding file content, in order.
type inode struct {
	Mode    fs.FileMode `cbor:"mode"`
	Uid     int         `cbor:"uid"`
	Gid     int         `cbor:"gid"`
	MTime   int64       `cbor:"mtime"`
	Size    int64       `cbor:"size"`
	Extents []int64     `cbor:"extents,omitempty"`
}

// table is the whole metadata region: the node arena keyed by rooted path,
// and the allocation bitmap for the data region.
type table struct {
	Nodes  map[string]*inode `cbor:"nodes"`
	Bitmap []byte            `cbor:"bitmap"`
}

// encodeSuper lays out block 0: u32 payload length, CBOR payload, u64 xxhash.
func encodeSuper(sb *superblock, blockSize int) ([]byte, error) {
	payload, err := cbor.Marshal(sb)
	if err != nil {
		return nil, fmt.Errorf("%w: encode superblock: %v", fs.ErrInvalidFS, err)
	}
	if 4+len(payload)+8 > blockSize {
		return nil, fmt.Errorf("%w: superblock exceeds block size", fs.ErrInvalidFS)
	}
	buf := make([]byte, blockSize)
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[4:], payload)
	binary.BigEndian.PutUint64(buf[4+len(payload):], xxhash.Sum64(payload))
	return buf, nil
}

func decodeSuper(buf []byte) (*superblock, error) {
	if len(buf) < 12 {
		return nil, fmt.Errorf("%w: short superblock", fs.ErrInvalidFS)
	}
	n := int(binary.BigEndian.Uint32(buf))
	if n <= 0 || 4+n+8 > len(buf) {
		return nil, fmt.Errorf("%w: bad superblock length", fs.ErrInvalidFS)
	}
	payload := buf[4 : 4+n]
	if sum := binary.BigEndian.Uint64(buf[4+n:]); sum != xxhash.Sum64(payload) {
		return nil, fmt.Errorf("%w: superblock checksum mismatch", fs.ErrInvalidFS)
	}
	var sb superblock
	if err := cbor.Unmarshal(payload, &sb); err != nil {
		return nil, fmt.Errorf("%w: decode superblock: %v", fs.ErrInvalidFS, err)
	}
	if sb.Magic != magic {
		return nil, fmt.Errorf("%w: bad magic %q", fs.ErrInvalidFS, sb.Magic)
	}
	if sb.Version != version {
		return nil, fmt.Errorf("%w: unsupported version %d", fs.ErrInvalidFS, sb.Version)
	}
	return &sb, nil
}
