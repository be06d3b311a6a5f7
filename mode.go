package sfs

import "io/fs"

// Inode modes use the standard linux mode_t bit layout:
// based on: https://golang.org/src/os/stat_linux.go

const (
	S_IFMT  = 0xf000
	S_IFREG = 0x8000
	S_IFDIR = 0x4000

	S_IRUSR = 0x100
	S_IWUSR = 0x80
	S_IXUSR = 0x40
)

// ModeDir is the mode the root directory is created with.
const ModeDir = S_IFDIR | 0o755

// IsDir reports whether the mode carries the directory type bit.
func IsDir(mode int) bool {
	return mode&S_IFDIR != 0
}

// IsRegular reports whether the mode carries the regular-file type bit.
func IsRegular(mode int) bool {
	return mode&S_IFREG != 0
}

// OwnerPerms extracts the owner read/write/execute bits from a mode.
func OwnerPerms(mode int) (read, write, execute bool) {
	return mode&S_IRUSR != 0, mode&S_IWUSR != 0, mode&S_IXUSR != 0
}

// UnixToMode converts unix mode bits to a fs.FileMode. Only the types the
// filesystem can store are mapped.
func UnixToMode(mode uint32) fs.FileMode {
	res := fs.FileMode(mode & 0o777)
	if mode&S_IFDIR == S_IFDIR {
		res |= fs.ModeDir
	}
	return res
}

// ModeToUnix converts a fs.FileMode to unix mode bits.
func ModeToUnix(mode fs.FileMode) uint32 {
	res := uint32(mode.Perm())
	if mode&fs.ModeDir == fs.ModeDir {
		res |= S_IFDIR
	} else {
		res |= S_IFREG
	}
	return res
}
