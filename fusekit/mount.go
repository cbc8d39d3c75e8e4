// Package fusekit exposes a rooted namespace through FUSE so it can be
// browsed with ordinary host tools.
package fusekit

import (
	"io"
	"os"
	"os/exec"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/YanLien/axmount/rootfs"
)

type mount struct {
	path string
	*fuse.Server
}

func (m *mount) Close() error {
	if m.Server == nil {
		exec.Command("umount", m.path).Run()
		return nil
	}
	return m.Server.Unmount()
}

// Mount serves fsys at dir until the returned closer unmounts it. The
// directory is created if missing; a stale mount at dir is cleared first.
func Mount(fsys *rootfs.FS, dir string) (io.Closer, error) {
	exec.Command("umount", dir).Run()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	opts := &fs.Options{
		UID: uint32(os.Getuid()),
		GID: uint32(os.Getgid()),
	}
	server, err := fs.Mount(dir, &node{fsys: fsys, path: "/"}, opts)
	if err != nil {
		return nil, err
	}
	return &mount{Server: server, path: dir}, nil
}
