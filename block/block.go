// Package block defines the block-device capability the disk-backed
// filesystem and the device-node backend borrow from the device-discovery
// collaborator, plus RAM- and image-file-backed implementations used for
// testing and host tooling.
package block

// Device is an opaque handle to a storage device addressed in fixed-size
// blocks. Implementations are owned by whoever enumerated the device; the
// filesystem layers only borrow them. Calls are synchronous and block the
// caller until the device completes; there is no timeout or cancellation.
type Device interface {
	BlockSize() int
	NumBlocks() int64
	ReadBlock(i int64, p []byte) error
	WriteBlock(i int64, p []byte) error
	Sync() error
}

// ByteSize returns the device capacity in bytes.
func ByteSize(d Device) int64 {
	return d.NumBlocks() * int64(d.BlockSize())
}
