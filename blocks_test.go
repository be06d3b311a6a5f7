package sfs_test

import (
	"errors"
	"testing"

	"github.com/nifvimp/sfs"
)

func TestImageGeometry(t *testing.T) {
	if _, err := sfs.NewMemImage(0); !errors.Is(err, sfs.ErrInvalidImage) {
		t.Errorf("zero-block image: got %v, expected ErrInvalidImage", err)
	}
	if _, err := sfs.NewMemImage(-4); !errors.Is(err, sfs.ErrInvalidImage) {
		t.Errorf("negative image: got %v, expected ErrInvalidImage", err)
	}
	if _, err := sfs.NewMemImage(sfs.MaxBlockCount + 1); !errors.Is(err, sfs.ErrInvalidImage) {
		t.Errorf("oversized image: got %v, expected ErrInvalidImage", err)
	}

	bs, err := sfs.NewMemImage(sfs.MaxBlockCount)
	if err != nil {
		t.Fatalf("max-size image failed: %s", err)
	}
	if bs.BlockCount() != sfs.MaxBlockCount {
		t.Errorf("BlockCount = %d, expected %d", bs.BlockCount(), sfs.MaxBlockCount)
	}
	if len(bs.Bytes()) != sfs.MaxBlockCount*sfs.BlockSize {
		t.Errorf("image is %d bytes", len(bs.Bytes()))
	}
}

func TestMountRejectsTinyImage(t *testing.T) {
	// too small to hold the bitmaps, the inode table and any data
	tableBlocks := (sfs.InodeCount*sfs.InodeSize + sfs.BlockSize - 1) / sfs.BlockSize
	bs, err := sfs.NewMemImage(tableBlocks + 1)
	if err != nil {
		t.Fatalf("NewMemImage failed: %s", err)
	}
	if _, err := sfs.New(bs); !errors.Is(err, sfs.ErrInvalidImage) {
		t.Errorf("mount of tiny image: got %v, expected ErrInvalidImage", err)
	}
}
