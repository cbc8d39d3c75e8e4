// Package boot assembles the rooted namespace: it binds the first block
// device to a persistent main filesystem, mounts the virtual backends at
// their layout paths, seals the mount table, and publishes the result as
// the process-wide root.
package boot

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/YanLien/axmount/block"
	"github.com/YanLien/axmount/blockfs"
	"github.com/YanLien/axmount/devfs"
	"github.com/YanLien/axmount/fs"
	"github.com/YanLien/axmount/rootfs"
	"github.com/YanLien/axmount/sysfs"
	"github.com/YanLien/axmount/tmpfs"
)

// Version reported under the sys mount. Overridden at build time.
var Version = "dev"

var (
	mu   sync.Mutex
	root *rootfs.FS
)

type config struct {
	layout  Layout
	devices map[string]block.Device
	entries map[string]sysfs.Entry
	log     *slog.Logger
}

type Option func(*config)

// WithLayout overrides the default mount points of the virtual backends.
func WithLayout(l Layout) Option {
	return func(c *config) { c.layout = l }
}

// WithDevice exposes dev as a device node under the dev mount, e.g.
// WithDevice("vda", d) appears as <layout.Dev>/vda.
func WithDevice(name string, dev block.Device) Option {
	return func(c *config) { c.devices[name] = dev }
}

// WithSysEntry adds or replaces one file in the info tree.
func WithSysEntry(name string, e sysfs.Entry) Option {
	return func(c *config) { c.entries[name] = e }
}

// WithLogger routes debug logging of every backend and the namespace.
func WithLogger(log *slog.Logger) Option {
	return func(c *config) { c.log = log }
}

// InitFilesystems binds the first of devs to the persistent main
// filesystem. With needFormat set the device is formatted, destroying any
// previous content; otherwise existing metadata is validated and loaded.
func InitFilesystems(devs []block.Device, needFormat bool) (*blockfs.FS, error) {
	if len(devs) == 0 {
		return nil, fmt.Errorf("no block device for main filesystem: %w", fs.ErrNoDevice)
	}
	return blockfs.New(devs[0], needFormat)
}

// InitRootFS builds the namespace around main, mounts the virtual backends
// per the layout, seals the table, and installs the result as the
// process-wide root. It fails if a root has already been installed.
func InitRootFS(main fs.FS, opts ...Option) error {
	c := &config{
		layout:  DefaultLayout(),
		devices: make(map[string]block.Device),
		entries: make(map[string]sysfs.Entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.layout.validate(); err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	if root != nil {
		return errors.New("boot: rootfs already initialized")
	}

	r := rootfs.New()
	dev := devfs.New()
	tmp := tmpfs.New()
	if c.log != nil {
		r.SetLogger(c.log)
		dev.SetLogger(c.log)
		tmp.SetLogger(c.log)
		if m, ok := main.(interface{ SetLogger(*slog.Logger) }); ok {
			m.SetLogger(c.log)
		}
	}

	var errs error
	for name, d := range c.devices {
		errs = multierr.Append(errs, dev.Register(name, d))
	}

	started := time.Now()
	entries := map[string]sysfs.Entry{
		"kernel/version": {Data: []byte(Version + "\n")},
		"kernel/uptime": {Func: func() ([]byte, error) {
			return fmt.Appendf(nil, "%.2f\n", time.Since(started).Seconds()), nil
		}},
		"mounts": {Func: func() ([]byte, error) {
			return []byte(strings.Join(r.Mounts(), "\n") + "\n"), nil
		}},
	}
	for name, e := range c.entries {
		entries[name] = e
	}
	sys := sysfs.New(entries)
	if c.log != nil {
		sys.SetLogger(c.log)
	}

	errs = multierr.Combine(errs,
		r.Mount("/", main),
		r.Mount(c.layout.Dev, dev),
		r.Mount(c.layout.Sys, sys),
		r.Mount(c.layout.Tmp, tmp),
	)
	if errs != nil {
		return errs
	}
	r.Seal()
	root = r
	return nil
}

// InitRoot returns the process-wide root namespace. It panics when called
// before InitRootFS succeeds; there is no meaningful fallback.
func InitRoot() *rootfs.FS {
	mu.Lock()
	defer mu.Unlock()
	if root == nil {
		panic("boot: rootfs not initialized")
	}
	return root
}

// Reset drops the installed root so a new namespace can be booted. Meant
// for tests and for full teardown paths.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	root = nil
}
