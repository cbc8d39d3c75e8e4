package rootfs

import (
	"errors"
	"io"
	"os"
	"testing"

	"github.com/YanLien/axmount/fs"
	"github.com/YanLien/axmount/sysfs"
	"github.com/YanLien/axmount/tmpfs"
)

func newRoot(t *testing.T) (*FS, *tmpfs.FS, *tmpfs.FS) {
	t.Helper()
	main := tmpfs.New()
	dev := tmpfs.New()
	root := New()
	if err := root.Mount("/", main); err != nil {
		t.Fatal(err)
	}
	if err := root.Mount("/dev", dev); err != nil {
		t.Fatal(err)
	}
	root.Seal()
	return root, main, dev
}

func writeFile(t *testing.T, root *FS, p, content string) {
	t.Helper()
	f, err := root.CreateFile(p, 0, 0, 0644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.(io.Writer).Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestMountRules(t *testing.T) {
	root := New()

	// first mount must be the root
	if err := root.Mount("/dev", tmpfs.New()); err == nil {
		t.Fatal("expected error mounting /dev before /")
	}
	if err := root.Mount("/", tmpfs.New()); err != nil {
		t.Fatal(err)
	}
	if err := root.Mount("/dev", tmpfs.New()); err != nil {
		t.Fatal(err)
	}

	// duplicates leave the table unchanged
	if err := root.Mount("/dev", tmpfs.New()); !errors.Is(err, fs.ErrDuplicateMount) {
		t.Fatalf("want ErrDuplicateMount, got %v", err)
	}
	if got := len(root.Mounts()); got != 2 {
		t.Fatalf("mount table: want 2 entries, got %d", got)
	}

	// ".." is rejected as a segment, not as a substring
	if err := root.Mount("/up/../x", tmpfs.New()); !errors.Is(err, fs.ErrInvalid) {
		t.Fatalf("want ErrInvalid, got %v", err)
	}
	if err := root.Mount("/a..b", tmpfs.New()); err != nil {
		t.Fatalf("dotted mount name refused: %v", err)
	}

	root.Seal()
	if err := root.Mount("/tmp", tmpfs.New()); !errors.Is(err, fs.ErrSealed) {
		t.Fatalf("want ErrSealed, got %v", err)
	}
}

func TestOpsBeforeSeal(t *testing.T) {
	root := New()
	if err := root.Mount("/", tmpfs.New()); err != nil {
		t.Fatal(err)
	}
	if _, err := root.Stat("/"); !errors.Is(err, fs.ErrNotReady) {
		t.Fatalf("want ErrNotReady, got %v", err)
	}
}

func TestLongestPrefixWins(t *testing.T) {
	root, main, _ := newRoot(t)

	// a file named dev/null on the main filesystem is shadowed by the
	// /dev mount
	if err := fs.Mkdir(main, "dev", 0755); err != nil {
		t.Fatal(err)
	}
	f, err := fs.Create(main, "dev/null")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()

	writeFile(t, root, "/dev/null", "on the dev mount")
	data, err := fs.ReadFile(root, "dev/null")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "on the dev mount" {
		t.Errorf("resolution picked the wrong backend: %q", data)
	}

	// the shadowed file is untouched
	hidden, err := fs.ReadFile(main, "dev/null")
	if err != nil {
		t.Fatal(err)
	}
	if len(hidden) != 0 {
		t.Errorf("main backend was written through the mount: %q", hidden)
	}
}

func TestCrossMountIsolation(t *testing.T) {
	root, main, dev := newRoot(t)

	writeFile(t, root, "/outside", "root data")
	writeFile(t, root, "/dev/inside", "dev data")

	if ok, _ := fs.Exists(main, "outside"); !ok {
		t.Error("outside missing from main backend")
	}
	if ok, _ := fs.Exists(main, "inside"); ok {
		t.Error("inside leaked into main backend")
	}
	if ok, _ := fs.Exists(dev, "inside"); !ok {
		t.Error("inside missing from dev backend")
	}
}

func TestDotDotConfined(t *testing.T) {
	root, main, _ := newRoot(t)

	writeFile(t, root, "/dev/f", "dev")
	writeFile(t, root, "/g", "main")

	// ".." inside a mount never climbs out of it
	if _, err := root.Stat("/dev/../g"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("escaped the /dev mount: %v", err)
	}
	if _, err := root.Stat("/dev/../../g"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("escaped the /dev mount: %v", err)
	}

	// ".." before the mount prefix resolves on the root backend
	if _, err := root.Stat("/x/../g"); err != nil {
		t.Fatal(err)
	}

	// ".." within a mount works normally
	if err := root.CreateDir("/dev/sub", 0, 0, 0755); err != nil {
		t.Fatal(err)
	}
	data, err := fs.ReadFile(root, "dev/sub/../f")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "dev" {
		t.Errorf("got %q", data)
	}
	_ = main
}

func TestNormalize(t *testing.T) {
	root, _, _ := newRoot(t)
	writeFile(t, root, "/dev/f", "x")

	for _, p := range []string{"/dev/f", "//dev//f", "/./dev/./f", "/dev//./f"} {
		if _, err := root.Stat(p); err != nil {
			t.Errorf("Stat(%q): %v", p, err)
		}
	}
	if _, err := root.Stat("relative"); err == nil {
		t.Error("Stat accepted a relative path through the namespace API")
	}
}

func TestCreateFileSemantics(t *testing.T) {
	root, _, _ := newRoot(t)

	f, err := root.CreateFile("/f", 10, 20, 0600)
	if err != nil {
		t.Fatal(err)
	}
	f.Close()

	// creating over an existing entry fails
	if _, err := root.CreateFile("/f", 0, 0, 0644); !errors.Is(err, fs.ErrExist) {
		t.Fatalf("want ErrExist, got %v", err)
	}

	info, err := root.Stat("/f")
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Perm: got %o", info.Mode().Perm())
	}

	// missing parent surfaces the backend error with the full path
	_, err = root.CreateFile("/no/such/f", 0, 0, 0644)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("want ErrNotExist, got %v", err)
	}
	var perr *fs.PathError
	if !errors.As(err, &perr) || perr.Path != "/no/such/f" {
		t.Errorf("error path not restored: %v", err)
	}
}

func TestRemoveOrdering(t *testing.T) {
	root, _, _ := newRoot(t)

	if err := root.CreateDir("/d", 0, 0, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, root, "/d/f", "x")

	if err := root.RemoveFile("/d"); !errors.Is(err, fs.ErrIsDir) {
		t.Fatalf("RemoveFile on dir: want ErrIsDir, got %v", err)
	}
	if err := root.RemoveDir("/d/f"); !errors.Is(err, fs.ErrNotDir) {
		t.Fatalf("RemoveDir on file: want ErrNotDir, got %v", err)
	}
	if err := root.RemoveDir("/d"); !errors.Is(err, fs.ErrNotEmpty) {
		t.Fatalf("RemoveDir non-empty: want ErrNotEmpty, got %v", err)
	}
	if err := root.RemoveFile("/d/f"); err != nil {
		t.Fatal(err)
	}
	if err := root.RemoveDir("/d"); err != nil {
		t.Fatal(err)
	}
	if err := root.RemoveDir("/dev"); !errors.Is(err, fs.ErrInvalid) {
		t.Fatalf("RemoveDir mount root: want ErrInvalid, got %v", err)
	}
}

func TestReadOnlyHandle(t *testing.T) {
	root, _, _ := newRoot(t)
	writeFile(t, root, "/f", "content")

	f, err := root.Open("/f")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.(io.Writer).Write([]byte("x")); !errors.Is(err, fs.ErrPermission) {
		t.Fatalf("write on read-only handle: want ErrPermission, got %v", err)
	}
}

func TestOpenFileAppend(t *testing.T) {
	root, _, _ := newRoot(t)
	writeFile(t, root, "/f", "hello")

	f, err := root.OpenFile("/f", os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.(io.Writer).Write([]byte(", world")); err != nil {
		t.Fatal(err)
	}
	f.Close()

	data, err := fs.ReadFile(root, "f")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello, world" {
		t.Errorf("append: got %q", data)
	}
}

func TestOpenFileCreateKeepsExisting(t *testing.T) {
	root, _, _ := newRoot(t)
	writeFile(t, root, "/f", "hello")

	// O_CREATE on an existing file opens it; with O_APPEND the old
	// content survives
	f, err := root.OpenFile("/f", os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.(io.Writer).Write([]byte(", world")); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := fs.ReadFile(root, "f")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello, world" {
		t.Errorf("append after create-open: got %q", data)
	}

	// a bare O_CREATE reopen does not touch the content either
	f, err = root.OpenFile("/f", os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	data, err = fs.ReadFile(root, "f")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello, world" {
		t.Errorf("create-open truncated: got %q", data)
	}
}

func TestOpenFileTruncate(t *testing.T) {
	root, _, _ := newRoot(t)
	writeFile(t, root, "/f", "old long content")

	f, err := root.OpenFile("/f", os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.(io.Writer).Write([]byte("new")); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	// a write shorter than the old content must not leave a stale tail
	data, err := fs.ReadFile(root, "f")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "new" {
		t.Errorf("truncate left old data: got %q", data)
	}
}

func TestReadOnlyBackendThroughNamespace(t *testing.T) {
	main := tmpfs.New()
	sys := sysfs.New(map[string]sysfs.Entry{
		"version": {Data: []byte("1\n")},
	})
	root := New()
	if err := root.Mount("/", main); err != nil {
		t.Fatal(err)
	}
	if err := root.Mount("/sys", sys); err != nil {
		t.Fatal(err)
	}
	root.Seal()

	data, err := fs.ReadFile(root, "sys/version")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "1\n" {
		t.Errorf("got %q", data)
	}
	if _, err := root.CreateFile("/sys/new", 0, 0, 0644); !errors.Is(err, fs.ErrPermission) {
		t.Fatalf("want ErrPermission, got %v", err)
	}
}
