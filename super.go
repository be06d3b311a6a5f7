package sfs

import (
	"fmt"
	"os"
)

// Filesystem is a mounted sfs image: the block store plus the bootstrap
// state every operation needs. All public operations hang off this handle
// so multiple independent images can coexist in one process.
//
// The filesystem is single-threaded by contract: callers (the FUSE host
// included) issue one operation at a time.
type Filesystem struct {
	bs  *BlockStore
	uid int
	gid int
}

// New mounts a filesystem on an existing block store. Mounting reserves the
// inode table and bootstraps the root directory if the image is fresh.
func New(bs *BlockStore, opts ...Option) (*Filesystem, error) {
	if bs.BlockCount() <= inodeTableBlocks()+1 {
		return nil, fmt.Errorf("%w: %d blocks leaves no room for data", ErrInvalidImage, bs.BlockCount())
	}

	fsys := &Filesystem{bs: bs, uid: os.Getuid(), gid: os.Getgid()}
	for _, opt := range opts {
		if err := opt(fsys); err != nil {
			return nil, err
		}
	}

	fsys.inodeInit()
	if err := fsys.directoryInit(); err != nil {
		return nil, err
	}
	return fsys, nil
}

// Open maps the image file at path and mounts it.
func Open(path string, opts ...Option) (*Filesystem, error) {
	bs, err := openImage(path)
	if err != nil {
		return nil, err
	}
	fsys, err := New(bs, opts...)
	if err != nil {
		bs.Close()
		return nil, err
	}
	return fsys, nil
}

// Create makes a fresh image file of the given block count at path and
// mounts it. Pass DefaultBlockCount for the classic 1 MiB image.
func Create(path string, blocks int, opts ...Option) (*Filesystem, error) {
	bs, err := createImage(path, blocks)
	if err != nil {
		return nil, err
	}
	fsys, err := New(bs, opts...)
	if err != nil {
		bs.Close()
		os.Remove(path)
		return nil, err
	}
	return fsys, nil
}

// Sync flushes the image to its backing file.
func (fsys *Filesystem) Sync() error {
	return fsys.bs.Sync()
}

// Close flushes and unmaps the image. The filesystem must not be used
// afterwards.
func (fsys *Filesystem) Close() error {
	return fsys.bs.Close()
}

// BlockStore exposes the underlying store.
func (fsys *Filesystem) BlockStore() *BlockStore {
	return fsys.bs
}

// Info describes the geometry and occupancy of a mounted image.
type Info struct {
	BlockSize  int
	Blocks     int
	FreeBlocks int
	Inodes     int
	FreeInodes int
}

// Info counts free blocks and inodes by scanning the bitmaps.
func (fsys *Filesystem) Info() Info {
	info := Info{
		BlockSize: BlockSize,
		Blocks:    fsys.bs.BlockCount(),
		Inodes:    InodeCount,
	}
	bbm := fsys.bs.blockBitmap()
	for i := 0; i < info.Blocks; i++ {
		if !bbm.get(i) {
			info.FreeBlocks++
		}
	}
	ibm := fsys.bs.inodeBitmap()
	for i := 0; i < InodeCount; i++ {
		if !ibm.get(i) {
			info.FreeInodes++
		}
	}
	return info
}
