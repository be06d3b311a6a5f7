package sfs_test

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"testing"

	"github.com/nifvimp/sfs"
)

func mustMknod(t *testing.T, fsys *sfs.Filesystem, path string) {
	t.Helper()
	if err := fsys.Mknod(path, sfs.S_IFREG|0o644); err != nil {
		t.Fatalf("Mknod(%s) failed: %s", path, err)
	}
}

func TestGetInodeRange(t *testing.T) {
	fsys := newTestFS(t)

	if _, err := fsys.GetInode(0); !errors.Is(err, sfs.ErrInvalid) {
		t.Errorf("GetInode(0): got %v, expected ErrInvalid", err)
	}
	if _, err := fsys.GetInode(-1); !errors.Is(err, sfs.ErrInvalid) {
		t.Errorf("GetInode(-1): got %v, expected ErrInvalid", err)
	}
	if _, err := fsys.GetInode(sfs.InodeCount); !errors.Is(err, sfs.ErrInvalid) {
		t.Errorf("GetInode(%d): got %v, expected ErrInvalid", sfs.InodeCount, err)
	}

	root, err := fsys.GetInode(sfs.RootInode)
	if err != nil {
		t.Fatalf("GetInode(root) failed: %s", err)
	}
	if !root.Valid() || !root.IsDir() {
		t.Errorf("root inode not a valid directory")
	}

	// in range but unallocated: the handle exists, validity is separate
	free, err := fsys.GetInode(200)
	if err != nil {
		t.Fatalf("GetInode(200) failed: %s", err)
	}
	if free.Valid() {
		t.Errorf("unallocated inode reports valid")
	}
}

func TestIndirectBlockLifecycle(t *testing.T) {
	fsys := newTestFS(t)
	mustMknod(t, fsys, "/big")

	base := fsys.Info().FreeBlocks

	// 13 blocks of data spill one past the direct slots, which costs an
	// extra block for the indirect table itself
	payload := bytes.Repeat([]byte("z"), 13*sfs.BlockSize)
	n, err := fsys.Write("/big", payload, 0)
	if err != nil {
		t.Fatalf("Write failed: %s", err)
	}
	if n != len(payload) {
		t.Fatalf("Write stored %d of %d bytes", n, len(payload))
	}

	used := base - fsys.Info().FreeBlocks
	if used != 14 {
		t.Errorf("13-block file consumed %d blocks, expected 14 (13 data + indirect)", used)
	}

	st, _ := fsys.Stat("/big")
	if st.Blocks != 13 {
		t.Errorf("stat blocks %d, expected 13", st.Blocks)
	}

	// shrinking back under the direct limit releases the indirect block too
	if err := fsys.Truncate("/big", 6*sfs.BlockSize); err != nil {
		t.Fatalf("Truncate failed: %s", err)
	}
	used = base - fsys.Info().FreeBlocks
	if used != 6 {
		t.Errorf("6-block file consumes %d blocks, expected 6", used)
	}

	// the last block before the shrink boundary still reads back intact
	out := make([]byte, sfs.BlockSize)
	if _, err := fsys.Read("/big", out, 5*sfs.BlockSize); err != nil {
		t.Fatalf("Read failed: %s", err)
	}
	if !bytes.Equal(out, payload[5*sfs.BlockSize:6*sfs.BlockSize]) {
		t.Errorf("data corrupted across indirect lifecycle")
	}
}

func TestGrowShrinkEquivalence(t *testing.T) {
	grown := newTestFS(t)
	direct := newTestFS(t)

	mustMknod(t, grown, "/f")
	mustMknod(t, direct, "/f")

	if err := grown.Truncate("/f", 20*sfs.BlockSize); err != nil {
		t.Fatalf("grow failed: %s", err)
	}
	if err := grown.Truncate("/f", 3*sfs.BlockSize); err != nil {
		t.Fatalf("shrink failed: %s", err)
	}
	if err := direct.Truncate("/f", 3*sfs.BlockSize); err != nil {
		t.Fatalf("grow failed: %s", err)
	}

	stG, _ := grown.Stat("/f")
	stD, _ := direct.Stat("/f")
	if stG.Size != stD.Size || stG.Blocks != stD.Blocks {
		t.Errorf("grow+shrink state (%d/%d) differs from direct grow (%d/%d)",
			stG.Size, stG.Blocks, stD.Size, stD.Blocks)
	}
	if grown.Info().FreeBlocks != direct.Info().FreeBlocks {
		t.Errorf("grow+shrink leaves %d free blocks, direct grow %d",
			grown.Info().FreeBlocks, direct.Info().FreeBlocks)
	}
}

func TestMaxFileSize(t *testing.T) {
	// a large image so the allocator is not the limit
	bs, err := sfs.NewMemImage(sfs.MaxBlockCount)
	if err != nil {
		t.Fatalf("NewMemImage failed: %s", err)
	}
	fsys, err := sfs.New(bs)
	if err != nil {
		t.Fatalf("New failed: %s", err)
	}
	mustMknod(t, fsys, "/f")

	if err := fsys.Truncate("/f", sfs.MaxFileSize); err != nil {
		t.Fatalf("grow to max file size failed: %s", err)
	}
	if err := fsys.Truncate("/f", sfs.MaxFileSize+1); !errors.Is(err, sfs.ErrInvalid) {
		t.Errorf("grow past max file size: got %v, expected ErrInvalid", err)
	}
}

func TestAllocatorExhaustion(t *testing.T) {
	// the smallest viable image: bitmaps + inode table + a handful of data
	// blocks
	tableBlocks := (sfs.InodeCount*sfs.InodeSize + sfs.BlockSize - 1) / sfs.BlockSize
	bs, err := sfs.NewMemImage(1 + tableBlocks + 4)
	if err != nil {
		t.Fatalf("NewMemImage failed: %s", err)
	}
	fsys, err := sfs.New(bs)
	if err != nil {
		t.Fatalf("New failed: %s", err)
	}
	mustMknod(t, fsys, "/f")

	// the root directory owns one of the four data blocks now; filling the
	// file stops short
	payload := bytes.Repeat([]byte("q"), 10*sfs.BlockSize)
	n, err := fsys.Write("/f", payload, 0)
	if err != nil {
		t.Fatalf("Write failed entirely: %s", err)
	}
	if n != 3*sfs.BlockSize {
		t.Errorf("short write stored %d bytes, expected %d", n, 3*sfs.BlockSize)
	}

	st, _ := fsys.Stat("/f")
	if st.Size != 3*sfs.BlockSize {
		t.Errorf("size clamped to %d, expected %d", st.Size, 3*sfs.BlockSize)
	}

	// nothing left: a write that cannot store a single byte is an error
	if _, err := fsys.Write("/f", payload, int64(st.Size)); !errors.Is(err, sfs.ErrNoSpace) {
		t.Errorf("write on full image: got %v, expected ErrNoSpace", err)
	}

	// freeing the file makes room again
	if err := fsys.Truncate("/f", 0); err != nil {
		t.Fatalf("Truncate failed: %s", err)
	}
	if n, err = fsys.Write("/f", payload[:sfs.BlockSize], 0); err != nil || n != sfs.BlockSize {
		t.Errorf("write after truncate: %d bytes, %v", n, err)
	}
}

func TestInodeExhaustion(t *testing.T) {
	fsys := newTestFS(t)

	free := fsys.Info().FreeInodes
	for i := 0; i < free; i++ {
		if err := fsys.Mknod("/f"+strconv.Itoa(i), sfs.S_IFREG|0o644); err != nil {
			t.Fatalf("Mknod #%d of %d failed: %s", i, free, err)
		}
	}
	if err := fsys.Mknod("/overflow", sfs.S_IFREG|0o644); !errors.Is(err, sfs.ErrNoSpace) {
		t.Errorf("Mknod on full inode table: got %v, expected ErrNoSpace", err)
	}

	if err := fsys.Unlink("/f0"); err != nil {
		t.Fatalf("Unlink failed: %s", err)
	}
	if err := fsys.Mknod("/overflow", sfs.S_IFREG|0o644); err != nil {
		t.Errorf("Mknod after freeing an inode failed: %s", err)
	}
}

func TestInodeReadAt(t *testing.T) {
	fsys := newTestFS(t)
	mustMknod(t, fsys, "/f")

	if _, err := fsys.Write("/f", []byte("0123456789"), 0); err != nil {
		t.Fatalf("Write failed: %s", err)
	}

	st, err := fsys.Stat("/f")
	if err != nil {
		t.Fatalf("Stat failed: %s", err)
	}
	ino, err := fsys.GetInode(st.Ino)
	if err != nil {
		t.Fatalf("GetInode failed: %s", err)
	}

	sec := io.NewSectionReader(ino, 2, 4)
	out, err := io.ReadAll(sec)
	if err != nil {
		t.Fatalf("ReadAll failed: %s", err)
	}
	if string(out) != "2345" {
		t.Errorf("section read = %q, expected \"2345\"", out)
	}
}
