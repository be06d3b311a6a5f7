package sfs_test

import (
	"io/fs"
	"testing"

	"github.com/nifvimp/sfs"
)

func TestModePredicates(t *testing.T) {
	if !sfs.IsDir(0o40755) {
		t.Errorf("0o40755 not recognized as directory")
	}
	if sfs.IsDir(0o100644) {
		t.Errorf("0o100644 recognized as directory")
	}
	if !sfs.IsRegular(0o100644) {
		t.Errorf("0o100644 not recognized as regular file")
	}
	if sfs.IsRegular(0o40755) {
		t.Errorf("0o40755 recognized as regular file")
	}

	r, w, x := sfs.OwnerPerms(0o100644)
	if !r || !w || x {
		t.Errorf("OwnerPerms(0o100644) = %v %v %v, expected rw-", r, w, x)
	}
	r, w, x = sfs.OwnerPerms(0o100500)
	if !r || w || !x {
		t.Errorf("OwnerPerms(0o100500) = %v %v %v, expected r-x", r, w, x)
	}
}

func TestModeConversion(t *testing.T) {
	m := sfs.UnixToMode(0o40755)
	if !m.IsDir() || m.Perm() != 0o755 {
		t.Errorf("UnixToMode(0o40755) = %v", m)
	}
	m = sfs.UnixToMode(0o100644)
	if !m.IsRegular() || m.Perm() != 0o644 {
		t.Errorf("UnixToMode(0o100644) = %v", m)
	}

	if got := sfs.ModeToUnix(fs.ModeDir | 0o755); got != 0o40755 {
		t.Errorf("ModeToUnix(dir|0755) = %o", got)
	}
	if got := sfs.ModeToUnix(0o644); got != 0o100644 {
		t.Errorf("ModeToUnix(0644) = %o", got)
	}
}
