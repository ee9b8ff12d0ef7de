package main

import (
	"fmt"

	"github.com/mit-pdos/go-assoofs/fs"
)

type superDump struct {
	Version     uint64 `yaml:"version"`
	Magic       string `yaml:"magic"`
	BlockSize   uint64 `yaml:"blockSize"`
	InodesCount uint64 `yaml:"inodesCount"`
	FreeBlocks  string `yaml:"freeBlocks"`
}

type inodeDump struct {
	Inum      uint64 `yaml:"inum"`
	Mode      string `yaml:"mode"`
	Data      uint64 `yaml:"data"`
	Size      uint64 `yaml:"size,omitempty"`
	NChildren uint64 `yaml:"children,omitempty"`
}

type imageDump struct {
	ID     string      `yaml:"mountID"`
	Super  superDump   `yaml:"superblock"`
	Inodes []inodeDump `yaml:"inodes"`
}

func dumpImage(fsys *fs.FS) (*imageDump, error) {
	sb, err := fsys.Super()
	if err != nil {
		return nil, err
	}
	ips, err := fsys.Inodes()
	if err != nil {
		return nil, err
	}
	doc := &imageDump{
		ID: fsys.ID().String(),
		Super: superDump{
			Version:     sb.Version,
			Magic:       fmt.Sprintf("%#x", sb.Magic),
			BlockSize:   sb.BlockSize,
			InodesCount: sb.InodesCount,
			FreeBlocks:  fmt.Sprintf("%064b", sb.FreeBlocks),
		},
		Inodes: make([]inodeDump, 0, len(ips)),
	}
	for _, ip := range ips {
		doc.Inodes = append(doc.Inodes, inodeDump{
			Inum:      uint64(ip.Inum),
			Mode:      ip.Mode.String(),
			Data:      ip.Data,
			Size:      ip.Size,
			NChildren: ip.NChildren,
		})
	}
	return doc, nil
}
