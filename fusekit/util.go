package fusekit

import (
	"hash/fnv"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/YanLien/axmount/fs"
)

// ino derives a stable inode number from the absolute path. The backends
// are virtual or extent-addressed, so there are no real inode numbers to
// surface.
func ino(path string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(path))
	return h.Sum64()
}

func unixMode(mode fs.FileMode) uint32 {
	out := uint32(mode.Perm())
	switch {
	case mode.IsDir():
		out |= syscall.S_IFDIR
	case mode&fs.ModeDevice != 0:
		out |= syscall.S_IFBLK
	default:
		out |= syscall.S_IFREG
	}
	return out
}

func applyStat(out *fuse.Attr, path string, fi fs.FileInfo) {
	out.Ino = ino(path)
	out.Mode = unixMode(fi.Mode())
	out.Size = uint64(fi.Size())
	out.Mtime = uint64(fi.ModTime().Unix())
	out.Mtimensec = uint32(fi.ModTime().Nanosecond())
	if n, ok := fi.(interface {
		Uid() int
		Gid() int
	}); ok {
		out.Uid = uint32(n.Uid())
		out.Gid = uint32(n.Gid())
	}
}
