// Command assoofs formats and inspects assoofs disk images.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v2"

	"github.com/mit-pdos/go-assoofs/common"
	"github.com/mit-pdos/go-assoofs/disk"
	"github.com/mit-pdos/go-assoofs/fs"
	"github.com/mit-pdos/go-assoofs/inode"
	"github.com/mit-pdos/go-assoofs/mkfs"
	"github.com/mit-pdos/go-assoofs/util"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	var cfg *Config
	pathArg := func(ctx *cli.Context) (string, error) {
		if ctx.NArg() != 1 {
			return "", fmt.Errorf("%s: expected one PATH argument", ctx.Command.Name)
		}
		return ctx.Args().First(), nil
	}
	// withFS mounts the configured image around f.
	withFS := func(f func(*fs.FS, *cli.Context) error) cli.ActionFunc {
		return func(ctx *cli.Context) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			d, err := disk.OpenFileDisk(cfg.Image)
			if err != nil {
				return err
			}
			defer d.Close()
			fsys, err := fs.Mount(d, cfg.MountOptions()...)
			if err != nil {
				return fmt.Errorf("image `%s`: %w", cfg.Image, err)
			}
			if err := f(fsys, ctx); err != nil {
				fsys.Unmount()
				return err
			}
			return fsys.Unmount()
		}
	}

	return &cli.App{
		Name:  appName,
		Usage: "format and inspect assoofs disk images",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "image",
				Aliases: []string{"i"},
				Usage:   "path of the disk image",
			},
			&cli.Uint64Flag{
				Name:  "debug",
				Usage: "debug log level",
			},
			&cli.BoolFlag{
				Name:  "cache",
				Usage: "cache blocks in memory",
				Value: true,
			},
			&cli.BoolFlag{
				Name:  "duplicates",
				Usage: "allow two entries with the same name in a directory",
			},
		},
		Before: func(ctx *cli.Context) error {
			c, err := LoadConfig()
			if err != nil {
				return err
			}
			if ctx.IsSet("image") {
				c.Image = ctx.String("image")
			}
			if ctx.IsSet("debug") {
				c.Debug = ctx.Uint64("debug")
			}
			if ctx.IsSet("cache") {
				c.Cache = ctx.Bool("cache")
			}
			if ctx.IsSet("duplicates") {
				c.Duplicates = ctx.Bool("duplicates")
			}
			util.Debug = c.Debug
			cfg = c
			return nil
		},
		Commands: []*cli.Command{{
			Name:  "mkfs",
			Usage: "create and format the image",
			Flags: []cli.Flag{
				&cli.Uint64Flag{
					Name:  "blocks",
					Usage: "image size in blocks",
				},
			},
			Action: func(ctx *cli.Context) error {
				if err := cfg.Validate(); err != nil {
					return err
				}
				n := cfg.Blocks
				if ctx.IsSet("blocks") {
					n = ctx.Uint64("blocks")
				}
				d, err := disk.NewFileDisk(cfg.Image, n)
				if err != nil {
					return err
				}
				defer d.Close()
				if err := mkfs.Format(d); err != nil {
					return err
				}
				_, err = fmt.Fprintf(ctx.App.Writer, "formatted `%s`: %d blocks\n", cfg.Image, n)
				return err
			},
		}, {
			Name:      "ls",
			Usage:     "list a directory",
			ArgsUsage: "PATH",
			Action: withFS(func(fsys *fs.FS, ctx *cli.Context) error {
				p := "/"
				if ctx.NArg() > 0 {
					p = ctx.Args().First()
				}
				ip, err := fsys.LookupPath(p)
				if err != nil {
					return err
				}
				if !ip.Mode.IsDir() {
					return printEntry(ctx.App.Writer, path.Base(p), ip)
				}
				children, err := fsys.ListChildren(ip.Inum)
				if err != nil {
					return err
				}
				for _, c := range children {
					if err := printEntry(ctx.App.Writer, c.Name, c.Inode); err != nil {
						return err
					}
				}
				return nil
			}),
		}, {
			Name:      "stat",
			Usage:     "print an inode",
			ArgsUsage: "PATH",
			Action: withFS(func(fsys *fs.FS, ctx *cli.Context) error {
				p, err := pathArg(ctx)
				if err != nil {
					return err
				}
				ip, err := fsys.LookupPath(p)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(ctx.App.Writer, "%v\n", ip)
				return err
			}),
		}, {
			Name:      "cat",
			Usage:     "print a file",
			ArgsUsage: "PATH",
			Action: withFS(func(fsys *fs.FS, ctx *cli.Context) error {
				p, err := pathArg(ctx)
				if err != nil {
					return err
				}
				ip, err := fsys.LookupPath(p)
				if err != nil {
					return err
				}
				data, err := fsys.ReadAll(ip.Inum)
				if err != nil {
					return err
				}
				_, err = ctx.App.Writer.Write(data)
				return err
			}),
		}, {
			Name:      "touch",
			Usage:     "create an empty file",
			ArgsUsage: "PATH",
			Action: withFS(func(fsys *fs.FS, ctx *cli.Context) error {
				p, err := pathArg(ctx)
				if err != nil {
					return err
				}
				_, err = create(fsys, p, inode.S_IFREG|0644)
				return err
			}),
		}, {
			Name:      "mkdir",
			Usage:     "create a directory",
			ArgsUsage: "PATH",
			Action: withFS(func(fsys *fs.FS, ctx *cli.Context) error {
				p, err := pathArg(ctx)
				if err != nil {
					return err
				}
				_, err = create(fsys, p, inode.S_IFDIR|0755)
				return err
			}),
		}, {
			Name:      "write",
			Usage:     "replace a file's contents with stdin, creating it if needed",
			ArgsUsage: "PATH",
			Action: withFS(func(fsys *fs.FS, ctx *cli.Context) error {
				p, err := pathArg(ctx)
				if err != nil {
					return err
				}
				data, err := io.ReadAll(io.LimitReader(ctx.App.Reader, int64(disk.BlockSize)+1))
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				if uint64(len(data)) > disk.BlockSize {
					return fmt.Errorf("writing `%s`: %w", p, common.ErrFileTooBig)
				}
				ip, err := fsys.LookupPath(p)
				if errors.Is(err, common.ErrNotFound) {
					ip, err = create(fsys, p, inode.S_IFREG|0644)
				}
				if err != nil {
					return err
				}
				if err := fsys.Truncate(ip.Inum, 0); err != nil {
					return err
				}
				_, err = fsys.Write(ip.Inum, 0, data)
				return err
			}),
		}, {
			Name:  "fsck",
			Usage: "check the image's consistency",
			Action: withFS(func(fsys *fs.FS, ctx *cli.Context) error {
				st, err := fsys.Statfs()
				if err != nil {
					return err
				}
				r, err := fsys.Check()
				if err != nil {
					return err
				}
				w := ctx.App.Writer
				fmt.Fprintf(w, "objects %d/%d, free blocks %d/%d\n",
					st.Objects, st.MaxObjects, st.FreeBlocks, st.Blocks)
				for _, inum := range r.Orphans {
					fmt.Fprintf(w, "orphan inode %d\n", inum)
				}
				for _, bn := range r.Leaked {
					fmt.Fprintf(w, "leaked block %d\n", bn)
				}
				if len(r.Orphans) == 0 && len(r.Leaked) == 0 {
					fmt.Fprintln(w, "clean")
				}
				return nil
			}),
		}, {
			Name:  "dump",
			Usage: "print the superblock and inode table as YAML",
			Action: withFS(func(fsys *fs.FS, ctx *cli.Context) error {
				doc, err := dumpImage(fsys)
				if err != nil {
					return err
				}
				data, err := yaml.Marshal(doc)
				if err != nil {
					return fmt.Errorf("marshaling dump to YAML: %w", err)
				}
				_, err = ctx.App.Writer.Write(data)
				return err
			}),
		}},
	}
}

func printEntry(w io.Writer, name string, ip *inode.Inode) error {
	sz := ip.Size
	if ip.Mode.IsDir() {
		sz = ip.NChildren
	}
	_, err := fmt.Fprintf(w, "%-10v %3d %5d %s\n", ip.Mode, ip.Inum, sz, name)
	return err
}

// create makes the object at p in its (existing) parent directory.
func create(fsys *fs.FS, p string, mode inode.Mode) (*inode.Inode, error) {
	parent, name := path.Split(strings.TrimRight(p, "/"))
	if name == "" {
		return nil, fmt.Errorf("creating `%s`: %w", p, common.ErrInvalidName)
	}
	dip, err := fsys.LookupPath(parent)
	if err != nil {
		return nil, err
	}
	return fsys.CreateObject(dip.Inum, name, mode)
}
