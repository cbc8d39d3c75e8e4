// Command axmount works with filesystem images: it formats them, inspects
// and edits their contents through the composed namespace, and serves them
// over FUSE.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/YanLien/axmount/block"
	"github.com/YanLien/axmount/boot"
	"github.com/YanLien/axmount/rootfs"
)

var (
	imagePath  string
	layoutPath string
	blockSize  int
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:           "axmount",
		Short:         "inspect and serve filesystem images",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&imagePath, "image", "i", "", "path to the filesystem image")
	flags.StringVar(&layoutPath, "layout", "", "path to a YAML mount layout")
	flags.IntVar(&blockSize, "block-size", 512, "device block size in bytes")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(
		mkfsCmd(),
		infoCmd(),
		lsCmd(),
		treeCmd(),
		catCmd(),
		writeCmd(),
		mkdirCmd(),
		rmCmd(),
		mountCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "axmount:", err)
		os.Exit(1)
	}
}

// openRoot boots a namespace around the image, exposing the image device
// under /dev/vda. The returned closer flushes and releases the image.
func openRoot(format bool) (*rootfs.FS, func() error, error) {
	if imagePath == "" {
		return nil, nil, fmt.Errorf("no image given, use --image")
	}
	dev, err := block.OpenFileDevice(imagePath, blockSize)
	if err != nil {
		return nil, nil, err
	}
	main, err := boot.InitFilesystems([]block.Device{dev}, format)
	if err != nil {
		dev.Close()
		return nil, nil, err
	}

	opts := []boot.Option{boot.WithDevice("vda", dev)}
	if layoutPath != "" {
		data, err := os.ReadFile(layoutPath)
		if err != nil {
			dev.Close()
			return nil, nil, err
		}
		layout, err := boot.ParseLayout(data)
		if err != nil {
			dev.Close()
			return nil, nil, err
		}
		opts = append(opts, boot.WithLayout(layout))
	}
	if verbose {
		log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		opts = append(opts, boot.WithLogger(log))
	}

	if err := boot.InitRootFS(main, opts...); err != nil {
		dev.Close()
		return nil, nil, err
	}
	return boot.InitRoot(), dev.Close, nil
}
