package block

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/YanLien/axmount/fs"
)

func TestByteIORoundTrip(t *testing.T) {
	bio := ByteIO{Dev: NewMemDevice(16, 8)}

	// spans three blocks with partial blocks on both ends
	payload := []byte("0123456789abcdefghijklmnopqrstuvwxyz")
	if _, err := bio.WriteAt(payload, 10); err != nil {
		t.Fatal(err)
	}
	got := make([]byte, len(payload))
	if _, err := bio.ReadAt(got, 10); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("ReadAt: got %q", got)
	}

	// neighbors survive the read-modify-write
	head := make([]byte, 10)
	if _, err := bio.ReadAt(head, 0); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(head, make([]byte, 10)) {
		t.Errorf("head clobbered: %v", head)
	}
}

func TestByteIOBounds(t *testing.T) {
	bio := ByteIO{Dev: NewMemDevice(16, 2)}

	if _, err := bio.ReadAt(make([]byte, 1), 32); err != io.EOF {
		t.Fatalf("ReadAt past end: want EOF, got %v", err)
	}
	n, err := bio.ReadAt(make([]byte, 10), 28)
	if err != io.EOF || n != 4 {
		t.Fatalf("clamped ReadAt: want (4, EOF), got (%d, %v)", n, err)
	}
	if _, err := bio.WriteAt(make([]byte, 10), 28); !errors.Is(err, fs.ErrNoSpace) {
		t.Fatalf("WriteAt past end: want ErrNoSpace, got %v", err)
	}
}

func TestMemDeviceChecks(t *testing.T) {
	dev := NewMemDevice(16, 2)
	if err := dev.ReadBlock(2, make([]byte, 16)); !errors.Is(err, fs.ErrBlockIO) {
		t.Fatalf("ReadBlock out of range: want ErrBlockIO, got %v", err)
	}
	if err := dev.WriteBlock(0, make([]byte, 8)); !errors.Is(err, fs.ErrBlockIO) {
		t.Fatalf("WriteBlock short buffer: want ErrBlockIO, got %v", err)
	}
}
