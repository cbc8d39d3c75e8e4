// Package fskit provides the node toolkit the virtual backends are built
// from: a Node type that serves as fs.FileInfo and fs.DirEntry at once,
// open-file handles over node data, synthesized directory files, and
// function-backed read-only files.
package fskit

import (
	"io"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/YanLien/axmount/fs"
)

// Node holds the metadata and (for in-memory backends) the content of a
// single file or directory. A Node is safe for concurrent use; open handles
// snapshot its data and write back on Close.
type Node struct {
	mu      sync.Mutex
	name    string
	mode    fs.FileMode
	size    int64
	modTime time.Time
	uid     int
	gid     int
	data    []byte
	log     *slog.Logger
}

var (
	_ fs.FileInfo = (*Node)(nil)
	_ fs.DirEntry = (*Node)(nil)
)

func New(name string, mode fs.FileMode) *Node {
	n := &Node{name: name, mode: mode, modTime: time.Now()}
	if mode.IsDir() {
		n.size = 2 // "." and ".."
	}
	n.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	return n
}

// Dir returns a directory node, forcing the mode's directory bit.
func Dir(name string, mode fs.FileMode) *Node {
	return New(name, mode|fs.ModeDir)
}

// Bytes returns a regular file node with initial content.
func Bytes(name string, mode fs.FileMode, data []byte) *Node {
	n := New(name, mode)
	n.data = data
	return n
}

// Named returns a copy of n under a different name, for use as a directory
// entry without renaming the node itself.
func (n *Node) Named(name string) *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	return &Node{
		name:    name,
		mode:    n.mode,
		size:    n.size,
		modTime: n.modTime,
		uid:     n.uid,
		gid:     n.gid,
		data:    n.data,
		log:     n.log,
	}
}

func (n *Node) Name() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return path.Base(n.name)
}

func (n *Node) Mode() fs.FileMode {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.mode
}

func (n *Node) Type() fs.FileMode { return n.Mode().Type() }

func (n *Node) IsDir() bool { return n.Mode()&fs.ModeDir != 0 }

func (n *Node) ModTime() time.Time {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.modTime
}

func (n *Node) Size() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.size > 0 {
		return n.size
	}
	return int64(len(n.data))
}

func (n *Node) Sys() any { return nil }

func (n *Node) Uid() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.uid
}

func (n *Node) Gid() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.gid
}

func (n *Node) Info() (fs.FileInfo, error) { return n, nil }

func (n *Node) String() string { return fs.FormatFileInfo(n) }

// Data returns a copy of the node's content.
func (n *Node) Data() []byte {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.data == nil {
		return nil
	}
	return append([]byte(nil), n.data...)
}

func (n *Node) SetMode(mode fs.FileMode) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.mode = mode
}

// SetPerm replaces only the permission bits, keeping the type bits.
func (n *Node) SetPerm(perm fs.FileMode) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.mode = n.mode&fs.ModeType | perm&fs.ModePerm
}

func (n *Node) SetOwner(uid, gid int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.uid = uid
	n.gid = gid
}

func (n *Node) SetModTime(t time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.modTime = t
}

func (n *Node) SetData(data []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.data = data
}

// SetSize overrides the reported size. In-memory files report len(data)
// when no override is set; directories and device nodes use this.
func (n *Node) SetSize(size int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.size = size
}

func (n *Node) SetLogger(log *slog.Logger) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.log = log
}

func (n *Node) logger() *slog.Logger {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.log
}

// File opens a handle on the node's content with a zero cursor.
func (n *Node) File() fs.File {
	return &nodeFile{node: n, data: n.Data()}
}
