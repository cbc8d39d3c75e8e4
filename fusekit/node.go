package fusekit

import (
	"context"
	"os"
	"path"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	iofs "github.com/YanLien/axmount/fs"
	"github.com/YanLien/axmount/rootfs"
)

// node maps one absolute path of the namespace onto a kernel inode. All
// operations go through the namespace with full paths, so mount prefix
// resolution applies on every call.
type node struct {
	fs.Inode
	fsys *rootfs.FS
	path string
}

func (n *node) child(name string) string {
	return path.Join(n.path, name)
}

var _ = (fs.NodeGetattrer)((*node)(nil))

func (n *node) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	fi, err := n.fsys.Stat(n.path)
	if err != nil {
		return sysErrno(err)
	}
	applyStat(&out.Attr, n.path, fi)
	return 0
}

var _ = (fs.NodeSetattrer)((*node)(nil))

func (n *node) Setattr(ctx context.Context, fh fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	if in.Valid&fuse.FATTR_MODE != 0 {
		if err := n.fsys.Chmod(n.path, iofs.FileMode(in.Mode)); err != nil {
			return sysErrno(err)
		}
	}
	if in.Valid&(fuse.FATTR_UID|fuse.FATTR_GID) != 0 {
		uid, gid := -1, -1
		if in.Valid&fuse.FATTR_UID != 0 {
			uid = int(in.Uid)
		}
		if in.Valid&fuse.FATTR_GID != 0 {
			gid = int(in.Gid)
		}
		if err := n.fsys.Chown(n.path, uid, gid); err != nil {
			return sysErrno(err)
		}
	}
	if in.Valid&fuse.FATTR_SIZE != 0 {
		if err := n.fsys.Truncate(n.path, int64(in.Size)); err != nil {
			return sysErrno(err)
		}
	}
	if in.Valid&fuse.FATTR_MTIME != 0 {
		mtime := time.Unix(int64(in.Mtime), int64(in.Mtimensec))
		if in.Valid&fuse.FATTR_MTIME_NOW != 0 {
			mtime = time.Now()
		}
		if err := n.fsys.Chtimes(n.path, mtime, mtime); err != nil {
			return sysErrno(err)
		}
	}

	fi, err := n.fsys.Stat(n.path)
	if err != nil {
		return sysErrno(err)
	}
	applyStat(&out.Attr, n.path, fi)
	return 0
}

var _ = (fs.NodeReaddirer)((*node)(nil))

func (n *node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	entries, err := n.fsys.ReadDir(n.path)
	if err != nil {
		return nil, sysErrno(err)
	}
	var fentries []fuse.DirEntry
	for _, entry := range entries {
		p := n.child(entry.Name())
		fentries = append(fentries, fuse.DirEntry{
			Name: entry.Name(),
			Mode: unixMode(entry.Type()),
			Ino:  ino(p),
		})
	}
	return fs.NewListDirStream(fentries), 0
}

var _ = (fs.NodeLookuper)((*node)(nil))

func (n *node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	p := n.child(name)
	fi, err := n.fsys.Stat(p)
	if err != nil {
		return nil, sysErrno(err)
	}
	applyStat(&out.Attr, p, fi)

	mode := uint32(fuse.S_IFREG)
	if fi.IsDir() {
		mode = fuse.S_IFDIR
	}
	return n.Inode.NewPersistentInode(ctx, &node{fsys: n.fsys, path: p}, fs.StableAttr{
		Mode: mode,
		Ino:  ino(p),
	}), 0
}

var _ = (fs.NodeCreater)((*node)(nil))

func (n *node) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	p := n.child(name)
	uid, gid := 0, 0
	if caller, ok := fuse.FromContext(ctx); ok {
		uid, gid = int(caller.Uid), int(caller.Gid)
	}
	f, err := n.fsys.CreateFile(p, uid, gid, iofs.FileMode(mode).Perm())
	if err != nil {
		return nil, 0, 0, sysErrno(err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, 0, sysErrno(err)
	}
	applyStat(&out.Attr, p, fi)

	child := n.Inode.NewPersistentInode(ctx, &node{fsys: n.fsys, path: p}, fs.StableAttr{
		Mode: fuse.S_IFREG,
		Ino:  ino(p),
	})
	return child, &handle{file: f, path: p}, fuse.FOPEN_DIRECT_IO, 0
}

var _ = (fs.NodeOpener)((*node)(nil))

func (n *node) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	f, err := n.fsys.OpenFile(n.path, int(flags)&(os.O_RDONLY|os.O_WRONLY|os.O_RDWR|os.O_APPEND|os.O_TRUNC), 0)
	if err != nil {
		return nil, 0, sysErrno(err)
	}
	return &handle{file: f, path: n.path}, fuse.FOPEN_DIRECT_IO, 0
}

var _ = (fs.NodeMkdirer)((*node)(nil))

func (n *node) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	p := n.child(name)
	uid, gid := 0, 0
	if caller, ok := fuse.FromContext(ctx); ok {
		uid, gid = int(caller.Uid), int(caller.Gid)
	}
	if err := n.fsys.CreateDir(p, uid, gid, iofs.FileMode(mode).Perm()); err != nil {
		return nil, sysErrno(err)
	}
	fi, err := n.fsys.Stat(p)
	if err != nil {
		return nil, sysErrno(err)
	}
	applyStat(&out.Attr, p, fi)

	return n.Inode.NewPersistentInode(ctx, &node{fsys: n.fsys, path: p}, fs.StableAttr{
		Mode: fuse.S_IFDIR,
		Ino:  ino(p),
	}), 0
}

var _ = (fs.NodeUnlinker)((*node)(nil))

func (n *node) Unlink(ctx context.Context, name string) syscall.Errno {
	return sysErrno(n.fsys.RemoveFile(n.child(name)))
}

var _ = (fs.NodeRmdirer)((*node)(nil))

func (n *node) Rmdir(ctx context.Context, name string) syscall.Errno {
	return sysErrno(n.fsys.RemoveDir(n.child(name)))
}
