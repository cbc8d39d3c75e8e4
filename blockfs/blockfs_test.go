package blockfs

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YanLien/axmount/block"
	"github.com/YanLien/axmount/fs"
)

func newFS(t *testing.T) (*FS, *block.MemDevice) {
	t.Helper()
	dev := block.NewMemDevice(512, 128)
	fsys, err := New(dev, true)
	require.NoError(t, err)
	return fsys, dev
}

func write(t *testing.T, fsys *FS, name string, data []byte) {
	t.Helper()
	f, err := fsys.Create(name)
	require.NoError(t, err)
	_, err = f.(io.Writer).Write(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestNewNilDevice(t *testing.T) {
	_, err := New(nil, true)
	assert.ErrorIs(t, err, fs.ErrNoDevice)
}

func TestFormatTooSmall(t *testing.T) {
	_, err := New(block.NewMemDevice(512, 8), true)
	assert.ErrorIs(t, err, fs.ErrInvalidFS)
}

func TestLoadBlankDevice(t *testing.T) {
	_, err := New(block.NewMemDevice(512, 128), false)
	assert.ErrorIs(t, err, fs.ErrInvalidFS)
}

func TestWriteReadRoundTrip(t *testing.T) {
	for _, tt := range []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"single-byte", []byte{42}},
		{"one-block", bytes.Repeat([]byte{7}, 512)},
		{"multi-block", bytes.Repeat([]byte("payload "), 400)},
	} {
		t.Run(tt.name, func(t *testing.T) {
			fsys, _ := newFS(t)
			write(t, fsys, "f", tt.data)

			got, err := fs.ReadFile(fsys, "f")
			require.NoError(t, err)
			assert.Equal(t, len(tt.data), len(got))
			assert.True(t, bytes.Equal(tt.data, got))

			info, err := fsys.Stat("f")
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.data)), info.Size())
		})
	}
}

func TestReopenPreserves(t *testing.T) {
	dev := block.NewMemDevice(512, 128)
	fsys, err := New(dev, true)
	require.NoError(t, err)

	require.NoError(t, fsys.Mkdir("etc", 0755))
	write(t, fsys, "etc/motd", []byte("welcome\n"))
	require.NoError(t, fsys.Chown("etc/motd", 3, 4))

	again, err := New(dev, false)
	require.NoError(t, err)

	data, err := fs.ReadFile(again, "etc/motd")
	require.NoError(t, err)
	assert.Equal(t, "welcome\n", string(data))

	info, err := again.Stat("etc/motd")
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0644), info.Mode())
}

func TestReformatDestroys(t *testing.T) {
	dev := block.NewMemDevice(512, 128)
	fsys, err := New(dev, true)
	require.NoError(t, err)
	write(t, fsys, "f", []byte("doomed"))

	again, err := New(dev, true)
	require.NoError(t, err)
	_, err = again.Stat("f")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestCorruptSuperblock(t *testing.T) {
	dev := block.NewMemDevice(512, 128)
	_, err := New(dev, true)
	require.NoError(t, err)

	buf := make([]byte, 512)
	require.NoError(t, dev.ReadBlock(0, buf))
	buf[20] ^= 0xff
	require.NoError(t, dev.WriteBlock(0, buf))

	_, err = New(dev, false)
	assert.ErrorIs(t, err, fs.ErrInvalidFS)
}

func TestCorruptTable(t *testing.T) {
	dev := block.NewMemDevice(512, 128)
	_, err := New(dev, true)
	require.NoError(t, err)

	buf := make([]byte, 512)
	require.NoError(t, dev.ReadBlock(1, buf))
	buf[3] ^= 0xff
	require.NoError(t, dev.WriteBlock(1, buf))

	_, err = New(dev, false)
	assert.ErrorIs(t, err, fs.ErrInvalidFS)
}

func TestMkdirRemove(t *testing.T) {
	fsys, _ := newFS(t)

	require.NoError(t, fsys.Mkdir("d", 0755))
	assert.ErrorIs(t, fsys.Mkdir("d", 0755), fs.ErrExist)
	assert.ErrorIs(t, fsys.Mkdir("no/sub", 0755), fs.ErrNotExist)

	write(t, fsys, "d/f", []byte("x"))
	assert.ErrorIs(t, fsys.Remove("d"), fs.ErrNotEmpty)
	require.NoError(t, fsys.Remove("d/f"))
	require.NoError(t, fsys.Remove("d"))
	assert.ErrorIs(t, fsys.Remove("d"), fs.ErrNotExist)
}

func TestCreateMissingParent(t *testing.T) {
	fsys, _ := newFS(t)
	_, err := fsys.Create("no/such/f")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestCreateTruncatesExisting(t *testing.T) {
	fsys, _ := newFS(t)
	write(t, fsys, "f", []byte("long content here"))
	write(t, fsys, "f", []byte("hi"))

	data, err := fs.ReadFile(fsys, "f")
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))
}

func TestTruncate(t *testing.T) {
	fsys, _ := newFS(t)
	write(t, fsys, "f", bytes.Repeat([]byte{9}, 1000))

	require.NoError(t, fsys.Truncate("f", 100))
	data, err := fs.ReadFile(fsys, "f")
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{9}, 100), data)

	// regrowing reads zeros past the old tail
	require.NoError(t, fsys.Truncate("f", 200))
	data, err = fs.ReadFile(fsys, "f")
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{9}, 100), data[:100])
	assert.Equal(t, make([]byte, 100), data[100:])

	assert.ErrorIs(t, fsys.Truncate(".", 0), fs.ErrIsDir)
}

func TestRemoveFreesBlocks(t *testing.T) {
	fsys, _ := newFS(t)

	// fill most of the data region, remove, and fill again
	big := bytes.Repeat([]byte{1}, 100*512)
	write(t, fsys, "a", big)
	require.NoError(t, fsys.Remove("a"))
	write(t, fsys, "b", big)

	data, err := fs.ReadFile(fsys, "b")
	require.NoError(t, err)
	assert.True(t, bytes.Equal(big, data))
}

func TestNoSpace(t *testing.T) {
	fsys, _ := newFS(t)
	f, err := fsys.Create("f")
	require.NoError(t, err)
	defer f.Close()

	// the data region holds 119 blocks; this needs 120
	_, err = f.(io.Writer).Write(bytes.Repeat([]byte{1}, 120*512))
	assert.ErrorIs(t, err, fs.ErrNoSpace)
}

func TestReadDir(t *testing.T) {
	fsys, _ := newFS(t)
	require.NoError(t, fsys.Mkdir("d", 0755))
	write(t, fsys, "d/b", nil)
	write(t, fsys, "d/a", nil)

	entries, err := fsys.ReadDir("d")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Name())
	assert.Equal(t, "b", entries[1].Name())
}

func TestSeekAndReadAt(t *testing.T) {
	fsys, _ := newFS(t)
	write(t, fsys, "f", []byte("hello, world"))

	f, err := fsys.Open("f")
	require.NoError(t, err)
	defer f.Close()

	_, err = f.(io.Seeker).Seek(7, io.SeekStart)
	require.NoError(t, err)
	rest, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "world", string(rest))

	p := make([]byte, 5)
	_, err = f.(io.ReaderAt).ReadAt(p, 0)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(p))
}
