package boot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Layout names the mount points of the standard virtual backends. The
// zero value is not valid; use DefaultLayout or ParseLayout.
type Layout struct {
	Dev string `yaml:"dev"`
	Sys string `yaml:"sys"`
	Tmp string `yaml:"tmp"`
}

func DefaultLayout() Layout {
	return Layout{Dev: "/dev", Sys: "/sys", Tmp: "/tmp"}
}

// ParseLayout reads a YAML layout, filling omitted entries from the
// default. Unknown keys are rejected; mount points must be absolute,
// distinct, and not the root.
func ParseLayout(data []byte) (Layout, error) {
	l := DefaultLayout()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&l); err != nil && !errors.Is(err, io.EOF) {
		return Layout{}, fmt.Errorf("parse layout: %w", err)
	}
	if err := l.validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

func (l Layout) validate() error {
	seen := make(map[string]bool)
	for _, p := range []string{l.Dev, l.Sys, l.Tmp} {
		if !strings.HasPrefix(p, "/") || p == "/" {
			return fmt.Errorf("layout: bad mount point %q", p)
		}
		if seen[p] {
			return fmt.Errorf("layout: duplicate mount point %q", p)
		}
		seen[p] = true
	}
	return nil
}
