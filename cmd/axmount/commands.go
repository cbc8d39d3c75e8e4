package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/YanLien/axmount/block"
	"github.com/YanLien/axmount/blockfs"
	"github.com/YanLien/axmount/boot"
	"github.com/YanLien/axmount/fs"
	"github.com/YanLien/axmount/fusekit"
)

func mkfsCmd() *cobra.Command {
	var sizeMB int64
	cmd := &cobra.Command{
		Use:   "mkfs",
		Short: "create and format a filesystem image",
		RunE: func(cmd *cobra.Command, args []string) error {
			if imagePath == "" {
				return fmt.Errorf("no image given, use --image")
			}
			numBlocks := sizeMB * 1024 * 1024 / int64(blockSize)
			dev, err := block.CreateFileDevice(imagePath, blockSize, numBlocks)
			if err != nil {
				return err
			}
			defer dev.Close()
			if _, err := blockfs.New(dev, true); err != nil {
				return err
			}
			fmt.Printf("formatted %s: %d blocks of %d bytes\n", imagePath, numBlocks, blockSize)
			return nil
		},
	}
	cmd.Flags().Int64Var(&sizeMB, "size-mb", 16, "image size in MiB")
	return cmd
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "show image and mount table details",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, done, err := openRoot(false)
			if err != nil {
				return err
			}
			defer done()
			fmt.Printf("image:      %s\n", imagePath)
			fmt.Printf("block size: %d\n", blockSize)
			fmt.Println("mounts:")
			for _, p := range root.Mounts() {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}
}

func lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [path]",
		Short: "list a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := "/"
			if len(args) > 0 {
				p = args[0]
			}
			root, done, err := openRoot(false)
			if err != nil {
				return err
			}
			defer done()
			entries, err := root.ReadDir(p)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				info, err := entry.Info()
				if err != nil {
					return err
				}
				fmt.Printf("%s %8d  %s\n", info.Mode(), info.Size(), entry.Name())
			}
			return nil
		},
	}
}

func treeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree [path]",
		Short: "walk the namespace recursively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := "/"
			if len(args) > 0 {
				p = args[0]
			}
			root, done, err := openRoot(false)
			if err != nil {
				return err
			}
			defer done()
			start := "."
			if p != "/" {
				start = strings.TrimPrefix(p, "/")
			}
			return fs.WalkDir(root, start, func(name string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				depth := strings.Count(name, "/")
				if name == "." {
					fmt.Println("/")
					return nil
				}
				fmt.Printf("%s%s\n", strings.Repeat("  ", depth+1), d.Name())
				return nil
			})
		},
	}
}

func catCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <path>",
		Short: "print a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, done, err := openRoot(false)
			if err != nil {
				return err
			}
			defer done()
			f, err := root.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			_, err = io.Copy(os.Stdout, f)
			return err
		},
	}
}

func writeCmd() *cobra.Command {
	var data string
	var appendTo bool
	cmd := &cobra.Command{
		Use:   "write <path>",
		Short: "write stdin or --data to a file, creating it if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, done, err := openRoot(false)
			if err != nil {
				return err
			}
			defer done()

			var src io.Reader = os.Stdin
			if data != "" {
				src = strings.NewReader(data)
			}
			flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
			if appendTo {
				flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
			}
			f, err := root.OpenFile(args[0], flag, 0644)
			if err != nil {
				return err
			}
			defer f.Close()
			w, ok := f.(io.Writer)
			if !ok {
				return fs.ErrPermission
			}
			_, err = io.Copy(w, src)
			return err
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "literal content instead of stdin")
	cmd.Flags().BoolVar(&appendTo, "append", false, "append instead of truncating")
	return cmd
}

func mkdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>",
		Short: "create a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, done, err := openRoot(false)
			if err != nil {
				return err
			}
			defer done()
			return root.CreateDir(args[0], 0, 0, 0755)
		},
	}
}

func rmCmd() *cobra.Command {
	var dir bool
	cmd := &cobra.Command{
		Use:   "rm <path>",
		Short: "remove a file, or an empty directory with --dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, done, err := openRoot(false)
			if err != nil {
				return err
			}
			defer done()
			if dir {
				return root.RemoveDir(args[0])
			}
			return root.RemoveFile(args[0])
		},
	}
	cmd.Flags().BoolVar(&dir, "dir", false, "remove an empty directory")
	return cmd
}

func mountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mount <dir>",
		Short: "serve the namespace over FUSE until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, done, err := openRoot(false)
			if err != nil {
				return err
			}
			defer done()
			defer boot.Reset()

			closer, err := fusekit.Mount(root, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("serving %s at %s\n", imagePath, args[0])

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig
			return closer.Close()
		},
	}
}
