// Package rootfs composes mounted backends into a single rooted namespace.
// A mount table maps absolute prefixes to backend filesystems; every path
// operation resolves against the longest matching prefix and is forwarded to
// that backend with a mount-relative name. The table is built once at boot
// and sealed before use.
package rootfs

import (
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/YanLien/axmount/fs"
)

type mountPoint struct {
	path string
	fsys fs.FS
}

type FS struct {
	mu     sync.Mutex
	mounts []mountPoint
	sealed bool
	log    *slog.Logger
}

func New() *FS {
	return &FS{log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (fsys *FS) SetLogger(log *slog.Logger) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	fsys.log = log
}

// Mount binds mount to the absolute path p. The first mount must be "/";
// mounting the same path twice fails and leaves the table unchanged. After
// Seal the table is immutable.
func (fsys *FS) Mount(p string, mount fs.FS) (err error) {
	defer func() {
		fsys.log.Debug("mount", "path", p, "err", err)
	}()
	norm, ok := normalize(p)
	if !ok || hasDotDot(norm) {
		return &fs.PathError{Op: "mount", Path: p, Err: fs.ErrInvalid}
	}
	if mount == nil {
		return &fs.PathError{Op: "mount", Path: p, Err: fs.ErrInvalid}
	}

	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	if fsys.sealed {
		return &fs.PathError{Op: "mount", Path: p, Err: fs.ErrSealed}
	}
	if len(fsys.mounts) == 0 && norm != "/" {
		return &fs.PathError{Op: "mount", Path: p, Err: fs.ErrNotReady}
	}
	for _, m := range fsys.mounts {
		if m.path == norm {
			return &fs.PathError{Op: "mount", Path: p, Err: fs.ErrDuplicateMount}
		}
	}
	fsys.mounts = append(fsys.mounts, mountPoint{path: norm, fsys: mount})
	sort.SliceStable(fsys.mounts, func(i, j int) bool {
		return len(fsys.mounts[i].path) > len(fsys.mounts[j].path)
	})
	return nil
}

// Seal freezes the mount table and enables path operations.
func (fsys *FS) Seal() {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	fsys.sealed = true
	fsys.log.Debug("seal", "mounts", len(fsys.mounts))
}

// Mounts returns the mount paths ordered by descending length, the same
// order resolution consults them in.
func (fsys *FS) Mounts() []string {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	paths := make([]string, len(fsys.mounts))
	for i, m := range fsys.mounts {
		paths[i] = m.path
	}
	return paths
}

// resolveLocked maps an absolute path to (backend, mount-relative name).
// The relative name is clamped within the backend: ".." pops a prior
// segment and is a no-op at the backend root, so a path can never climb
// out of the mount it matched.
func (fsys *FS) resolveLocked(op, p string) (fs.FS, string, error) {
	if !fsys.sealed {
		return nil, "", &fs.PathError{Op: op, Path: p, Err: fs.ErrNotReady}
	}
	norm, ok := normalize(p)
	if !ok {
		return nil, "", &fs.PathError{Op: op, Path: p, Err: fs.ErrInvalid}
	}
	for _, m := range fsys.mounts {
		if norm == m.path {
			return m.fsys, ".", nil
		}
		prefix := m.path + "/"
		if m.path == "/" {
			prefix = "/"
		}
		if strings.HasPrefix(norm, prefix) {
			return m.fsys, clamp(norm[len(prefix):]), nil
		}
	}
	// unreachable once "/" is mounted
	return nil, "", &fs.PathError{Op: op, Path: p, Err: fs.ErrNotReady}
}

// hasDotDot reports whether any segment of the path is a literal "..".
// Names that merely contain dots, like "a..b", are ordinary.
func hasDotDot(p string) bool {
	for _, s := range strings.Split(p, "/") {
		if s == ".." {
			return true
		}
	}
	return false
}

// normalize collapses repeated slashes and "." segments of an absolute
// path. ".." segments are kept: they participate in prefix matching and
// are resolved later, inside the matched mount.
func normalize(p string) (string, bool) {
	if p == "" || p[0] != '/' {
		return "", false
	}
	var segs []string
	for _, s := range strings.Split(p, "/") {
		if s == "" || s == "." {
			continue
		}
		segs = append(segs, s)
	}
	if len(segs) == 0 {
		return "/", true
	}
	return "/" + strings.Join(segs, "/"), true
}

// clamp resolves ".." segments of a mount-relative name without ever
// leaving the mount root.
func clamp(rel string) string {
	var segs []string
	for _, s := range strings.Split(rel, "/") {
		if s == ".." {
			if len(segs) > 0 {
				segs = segs[:len(segs)-1]
			}
			continue
		}
		segs = append(segs, s)
	}
	if len(segs) == 0 {
		return "."
	}
	return strings.Join(segs, "/")
}

// annotate restores the caller's absolute path on errors coming back from a
// backend, which only ever sees mount-relative names.
func annotate(err error, p string) error {
	if perr, ok := err.(*fs.PathError); ok {
		e := *perr
		e.Path = p
		return &e
	}
	return err
}
