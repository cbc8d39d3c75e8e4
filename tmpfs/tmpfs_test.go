package tmpfs

import (
	"errors"
	"io"
	"testing"
	"testing/fstest"
	"time"

	"github.com/YanLien/axmount/fs"
)

func writeFile(t *testing.T, fsys *FS, name, content string) {
	t.Helper()
	f, err := fsys.Create(name)
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

func TestCreateReadBack(t *testing.T) {
	fsys := New()
	writeFile(t, fsys, "hello", "hello, world\n")

	data, err := fs.ReadFile(fsys, "hello")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello, world\n" {
		t.Errorf("ReadFile: got %q", data)
	}
	if err := fstest.TestFS(fsys, "hello"); err != nil {
		t.Fatal(err)
	}
}

func TestCreateMissingParent(t *testing.T) {
	fsys := New()
	if _, err := fsys.Create("no/such/file"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Create: want ErrNotExist, got %v", err)
	}
}

func TestCreateUnderFile(t *testing.T) {
	fsys := New()
	writeFile(t, fsys, "f", "x")
	if _, err := fsys.Create("f/child"); !errors.Is(err, fs.ErrNotDir) {
		t.Fatalf("Create: want ErrNotDir, got %v", err)
	}
}

func TestCreateOverDir(t *testing.T) {
	fsys := New()
	if err := fsys.Mkdir("d", 0755); err != nil {
		t.Fatal(err)
	}
	if _, err := fsys.Create("d"); !errors.Is(err, fs.ErrIsDir) {
		t.Fatalf("Create: want ErrIsDir, got %v", err)
	}
}

func TestMkdir(t *testing.T) {
	fsys := New()
	if err := fsys.Mkdir("d", 0755); err != nil {
		t.Fatal(err)
	}
	if err := fsys.Mkdir("d", 0755); !errors.Is(err, fs.ErrExist) {
		t.Fatalf("Mkdir: want ErrExist, got %v", err)
	}
	if err := fsys.Mkdir("no/sub", 0755); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Mkdir: want ErrNotExist, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	fsys := New()
	if err := fsys.Mkdir("d", 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, fsys, "d/f", "x")

	if err := fsys.Remove("d"); !errors.Is(err, fs.ErrNotEmpty) {
		t.Fatalf("Remove: want ErrNotEmpty, got %v", err)
	}
	if err := fsys.Remove("d/f"); err != nil {
		t.Fatal(err)
	}
	if err := fsys.Remove("d"); err != nil {
		t.Fatal(err)
	}
	if err := fsys.Remove("d"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Remove: want ErrNotExist, got %v", err)
	}
}

func TestReadDir(t *testing.T) {
	fsys := New()
	if err := fsys.Mkdir("d", 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, fsys, "d/b", "2")
	writeFile(t, fsys, "d/a", "1")

	entries, err := fsys.ReadDir("d")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Name() != "a" || entries[1].Name() != "b" {
		t.Fatalf("ReadDir: got %v", entries)
	}
}

func TestOpenFileAsDir(t *testing.T) {
	fsys := New()
	writeFile(t, fsys, "f", "x")
	if _, err := fsys.ReadDir("f"); !errors.Is(err, fs.ErrNotDir) {
		t.Fatalf("ReadDir on file: want ErrNotDir, got %v", err)
	}
}

func TestTruncate(t *testing.T) {
	fsys := New()
	writeFile(t, fsys, "f", "hello")

	if err := fsys.Truncate("f", 2); err != nil {
		t.Fatal(err)
	}
	data, _ := fs.ReadFile(fsys, "f")
	if string(data) != "he" {
		t.Errorf("after shrink: got %q", data)
	}

	if err := fsys.Truncate("f", 4); err != nil {
		t.Fatal(err)
	}
	data, _ = fs.ReadFile(fsys, "f")
	if string(data) != "he\x00\x00" {
		t.Errorf("after grow: got %q", data)
	}
}

func TestChmodChownChtimes(t *testing.T) {
	fsys := New()
	writeFile(t, fsys, "f", "x")

	if err := fsys.Chmod("f", 0600); err != nil {
		t.Fatal(err)
	}
	if err := fsys.Chown("f", 7, 8); err != nil {
		t.Fatal(err)
	}
	when := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if err := fsys.Chtimes("f", when, when); err != nil {
		t.Fatal(err)
	}

	info, err := fsys.Stat("f")
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Perm: got %o", info.Mode().Perm())
	}
	if !info.ModTime().Equal(when) {
		t.Errorf("ModTime: got %s", info.ModTime())
	}
	if err := fsys.Chmod("missing", 0600); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Chmod: want ErrNotExist, got %v", err)
	}
}
