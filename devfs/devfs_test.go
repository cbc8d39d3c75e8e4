package devfs

import (
	"errors"
	"io"
	"testing"

	"github.com/YanLien/axmount/block"
	"github.com/YanLien/axmount/fs"
)

func TestRegisterAndStat(t *testing.T) {
	fsys := New()
	dev := block.NewMemDevice(512, 8)
	if err := fsys.Register("vda", dev); err != nil {
		t.Fatal(err)
	}

	info, err := fsys.Stat("vda")
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode()&fs.ModeDevice == 0 {
		t.Error("Mode: missing ModeDevice bit")
	}
	if info.Size() != 512*8 {
		t.Errorf("Size: want %d, got %d", 512*8, info.Size())
	}

	if err := fsys.Register("vda", dev); !errors.Is(err, fs.ErrExist) {
		t.Fatalf("Register: want ErrExist, got %v", err)
	}
}

func TestDevicePassthrough(t *testing.T) {
	fsys := New()
	dev := block.NewMemDevice(512, 8)
	if err := fsys.Register("vda", dev); err != nil {
		t.Fatal(err)
	}

	f, err := fsys.Open("vda")
	if err != nil {
		t.Fatal(err)
	}
	payload := []byte("straight to the device")
	if _, err := f.(io.WriterAt).WriteAt(payload, 600); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	// the write landed on the device at the right block
	buf := make([]byte, 512)
	if err := dev.ReadBlock(1, buf); err != nil {
		t.Fatal(err)
	}
	if string(buf[88:88+len(payload)]) != string(payload) {
		t.Errorf("device content: got %q", buf[88:88+len(payload)])
	}

	// a fresh handle reads it back
	f, err = fsys.Open("vda")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got := make([]byte, len(payload))
	if _, err := f.(io.ReaderAt).ReadAt(got, 600); err != nil {
		t.Fatal(err)
	}
	if string(got) != string(payload) {
		t.Errorf("ReadAt: got %q", got)
	}
}

func TestDeviceBounds(t *testing.T) {
	fsys := New()
	dev := block.NewMemDevice(512, 2)
	if err := fsys.Register("vda", dev); err != nil {
		t.Fatal(err)
	}
	f, err := fsys.Open("vda")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	// reads clamp at device size
	buf := make([]byte, 100)
	n, err := f.(io.ReaderAt).ReadAt(buf, 1000)
	if err != io.EOF {
		t.Fatalf("ReadAt: want EOF, got %v", err)
	}
	if n != 24 {
		t.Errorf("ReadAt: want 24 bytes, got %d", n)
	}

	// writes past the end are refused
	if _, err := f.(io.WriterAt).WriteAt(buf, 1000); !errors.Is(err, fs.ErrNoSpace) {
		t.Fatalf("WriteAt: want ErrNoSpace, got %v", err)
	}
}

func TestOrdinaryNodes(t *testing.T) {
	fsys := New()
	if err := fsys.Mkdir("input", 0755); err != nil {
		t.Fatal(err)
	}
	f, err := fsys.Create("input/event0")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()

	entries, err := fsys.ReadDir(".")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "input" {
		t.Fatalf("ReadDir: got %v", entries)
	}
}

func TestCreateOverDevice(t *testing.T) {
	fsys := New()
	if err := fsys.Register("vda", block.NewMemDevice(512, 2)); err != nil {
		t.Fatal(err)
	}
	if _, err := fsys.Create("vda"); !errors.Is(err, fs.ErrExist) {
		t.Fatalf("Create: want ErrExist, got %v", err)
	}
}

func TestRemoveDropsRegistration(t *testing.T) {
	fsys := New()
	dev := block.NewMemDevice(512, 2)
	if err := fsys.Register("vda", dev); err != nil {
		t.Fatal(err)
	}
	if err := fsys.Remove("vda"); err != nil {
		t.Fatal(err)
	}
	if _, err := fsys.Stat("vda"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Stat: want ErrNotExist, got %v", err)
	}
	// the name can be reused
	if err := fsys.Register("vda", dev); err != nil {
		t.Fatal(err)
	}
}
