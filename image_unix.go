//go:build unix

package sfs

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// openImage maps an existing image file read-write. The whole file becomes
// the block store; its size must be a whole number of blocks.
func openImage(path string) (*BlockStore, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := int(st.Size())
	if size == 0 || size%BlockSize != 0 {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrInvalidImage, path, size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}

	bs, err := newBlockStore(data, syncImage, closeImage)
	if err != nil {
		_ = unix.Munmap(data)
		return nil, err
	}
	return bs, nil
}

// createImage makes a fresh zero-filled image file of the given block count
// and maps it.
func createImage(path string, blocks int) (*BlockStore, error) {
	if blocks <= 0 || blocks > MaxBlockCount {
		return nil, ErrInvalidImage
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}
	if err = f.Truncate(int64(blocks) * BlockSize); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	if err = f.Close(); err != nil {
		os.Remove(path)
		return nil, err
	}
	return openImage(path)
}

func syncImage(data []byte) error {
	return unix.Msync(data, unix.MS_SYNC)
}

func closeImage(data []byte) error {
	if err := unix.Msync(data, unix.MS_SYNC); err != nil {
		return err
	}
	return unix.Munmap(data)
}
