package sfs_test

import (
	"strconv"
	"testing"

	"github.com/nifvimp/sfs"
)

func TestListOrderIsStable(t *testing.T) {
	fsys := newTestFS(t)

	for _, name := range []string{"alpha", "beta", "gamma", "delta"} {
		if err := fsys.Mknod("/"+name, sfs.S_IFREG|0o644); err != nil {
			t.Fatalf("Mknod(%s) failed: %s", name, err)
		}
	}

	first, err := fsys.List("/")
	if err != nil {
		t.Fatalf("List failed: %s", err)
	}
	second, err := fsys.List("/")
	if err != nil {
		t.Fatalf("List failed: %s", err)
	}
	if len(first) != 4 {
		t.Fatalf("List returned %d entries, expected 4", len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("list order changed between calls: %v vs %v", first, second)
		}
	}
}

func TestTombstoneReuse(t *testing.T) {
	fsys := newTestFS(t)

	for _, name := range []string{"a", "b", "c"} {
		if err := fsys.Mknod("/"+name, sfs.S_IFREG|0o644); err != nil {
			t.Fatalf("Mknod failed: %s", err)
		}
	}

	rootBefore, _ := fsys.Stat("/")

	if err := fsys.Unlink("/b"); err != nil {
		t.Fatalf("Unlink failed: %s", err)
	}
	names, _ := fsys.List("/")
	if len(names) != 2 || names[0] != "a" || names[1] != "c" {
		t.Errorf("List after delete = %v, expected [a c]", names)
	}

	// the freed slot is reused: the directory file does not grow
	if err := fsys.Mknod("/d", sfs.S_IFREG|0o644); err != nil {
		t.Fatalf("Mknod failed: %s", err)
	}
	rootAfter, _ := fsys.Stat("/")
	if rootAfter.Size != rootBefore.Size {
		t.Errorf("directory grew from %d to %d despite free slot", rootBefore.Size, rootAfter.Size)
	}

	// the reused slot keeps its position
	names, _ = fsys.List("/")
	if len(names) != 3 || names[0] != "a" || names[1] != "d" || names[2] != "c" {
		t.Errorf("List after reuse = %v, expected [a d c]", names)
	}
}

func TestDirectoryGrowsPastOneBlock(t *testing.T) {
	fsys := newTestFS(t)

	// 4096/64 = 64 entries per block; push the root directory into its
	// second block
	for i := 0; i < 80; i++ {
		if err := fsys.Mknod("/entry"+strconv.Itoa(i), sfs.S_IFREG|0o644); err != nil {
			t.Fatalf("Mknod #%d failed: %s", i, err)
		}
	}

	st, _ := fsys.Stat("/")
	if st.Size != 80*sfs.DirentSize {
		t.Errorf("directory size %d, expected %d", st.Size, 80*sfs.DirentSize)
	}
	if st.Blocks != 2 {
		t.Errorf("directory blocks %d, expected 2", st.Blocks)
	}

	names, err := fsys.List("/")
	if err != nil {
		t.Fatalf("List failed: %s", err)
	}
	if len(names) != 80 {
		t.Fatalf("List returned %d entries, expected 80", len(names))
	}
	for i, name := range names {
		if name != "entry"+strconv.Itoa(i) {
			t.Errorf("entry %d is %q", i, name)
		}
	}

	if !fsys.Access("/entry79") {
		t.Errorf("entry in second directory block does not resolve")
	}
}

func TestLinkCounts(t *testing.T) {
	fsys := newTestFS(t)

	if err := fsys.Mkdir("/d", 0o755); err != nil {
		t.Fatalf("Mkdir failed: %s", err)
	}
	st, _ := fsys.Stat("/d")
	if st.Nlink != 1 {
		t.Errorf("directory nlink %d, expected 1", st.Nlink)
	}

	// a rename that moves an entry keeps exactly one link
	if err := fsys.Rename("/d", "/e"); err != nil {
		t.Fatalf("Rename failed: %s", err)
	}
	st, _ = fsys.Stat("/e")
	if st.Nlink != 1 {
		t.Errorf("directory nlink %d after rename, expected 1", st.Nlink)
	}
}

func TestMaxLengthName(t *testing.T) {
	fsys := newTestFS(t)

	name := make([]byte, sfs.MaxNameLength)
	for i := range name {
		name[i] = 'n'
	}
	path := "/" + string(name)
	if err := fsys.Mknod(path, sfs.S_IFREG|0o644); err != nil {
		t.Fatalf("Mknod with %d-byte name failed: %s", sfs.MaxNameLength, err)
	}
	if !fsys.Access(path) {
		t.Errorf("max-length name does not resolve")
	}
	names, _ := fsys.List("/")
	if len(names) != 1 || names[0] != string(name) {
		t.Errorf("List = %v", names)
	}
	if err := fsys.Unlink(path); err != nil {
		t.Errorf("Unlink of max-length name failed: %s", err)
	}
}
