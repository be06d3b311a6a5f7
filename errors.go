package sfs

import "errors"

// Package-specific error variables that can be used with errors.Is() for error handling.
var (
	// ErrNotFound is returned when path resolution fails
	ErrNotFound = errors.New("no such file or directory")

	// ErrInvalid is returned for null inodes, out-of-range indices and bad arguments
	ErrInvalid = errors.New("invalid argument")

	// ErrNoSpace is returned when the block or inode allocator is exhausted
	ErrNoSpace = errors.New("no space left on image")

	// ErrNotEmpty is returned when removing a directory that still has entries
	ErrNotEmpty = errors.New("directory not empty")

	// ErrNotDirectory is returned when attempting directory operations on a non-directory
	ErrNotDirectory = errors.New("not a directory")

	// ErrExist is returned when creating an entry under a name that is already taken
	ErrExist = errors.New("file exists")

	// ErrCorrupt is returned when an on-image invariant violation is detected,
	// such as a gap in an inode's block table
	ErrCorrupt = errors.New("image corrupt")

	// ErrNameTooLong is returned for entry names that do not fit in a dirent
	ErrNameTooLong = errors.New("name too long")

	// ErrInvalidImage is returned when the backing image has a bad geometry
	ErrInvalidImage = errors.New("invalid image geometry")
)
