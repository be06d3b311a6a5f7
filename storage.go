package sfs

// The storage façade: every public operation resolves paths against the
// root directory and delegates to the inode and directory layers.

// Access reports whether a file exists at path.
func (fsys *Filesystem) Access(path string) bool {
	_, err := fsys.resolve(path)
	return err == nil
}

// Stat reports the inode metadata of the file at path.
func (fsys *Filesystem) Stat(path string) (*Stat, error) {
	ino, err := fsys.resolve(path)
	if err != nil {
		return nil, err
	}
	return ino.stat()
}

// Read copies file content starting at off into p and returns the byte
// count, clamped to the end of the file.
func (fsys *Filesystem) Read(path string, p []byte, off int64) (int, error) {
	ino, err := fsys.resolve(path)
	if err != nil {
		return 0, err
	}
	if off < 0 || off > int64(MaxFileSize) {
		return 0, ErrInvalid
	}
	return ino.read(p, int(off))
}

// Write stores p into the file at path starting at off, growing the file as
// needed. A short count comes back with a nil error when at least one byte
// landed; a write that stores nothing is an error.
func (fsys *Filesystem) Write(path string, p []byte, off int64) (int, error) {
	ino, err := fsys.resolve(path)
	if err != nil {
		return 0, err
	}
	if off < 0 || off > int64(MaxFileSize) {
		return 0, ErrInvalid
	}
	return ino.write(p, int(off))
}

// Truncate grows or shrinks the file at path to size bytes.
func (fsys *Filesystem) Truncate(path string, size int64) error {
	ino, err := fsys.resolve(path)
	if err != nil {
		return err
	}
	if size < 0 || size > int64(MaxFileSize) {
		return ErrInvalid
	}
	switch cur := int64(ino.Size()); {
	case size > cur:
		return ino.grow(int(size))
	case size < cur:
		return ino.shrink(int(size))
	}
	return nil
}

// Mknod creates a new file at path with the given mode bits. The parent
// directory must already exist. If the directory insert cannot happen the
// freshly allocated inode is released again.
func (fsys *Filesystem) Mknod(path string, mode int) error {
	parent, name := splitParent(path)
	if name == "" {
		return ErrInvalid
	}
	if len(name) > MaxNameLength {
		return ErrNameTooLong
	}

	inum, err := fsys.allocInode(mode)
	if err != nil {
		return err
	}

	di, err := fsys.resolve(parent)
	if err != nil {
		fsys.freeInode(inum)
		return ErrNotFound
	}
	if !di.IsDir() {
		fsys.freeInode(inum)
		return ErrNotDirectory
	}
	if _, err := di.lookup(name); err == nil {
		fsys.freeInode(inum)
		return ErrExist
	}

	if err := di.putEntry(name, inum); err != nil {
		fsys.freeInode(inum)
		return err
	}
	return nil
}

// Mkdir creates a directory at path with the given permission bits.
func (fsys *Filesystem) Mkdir(path string, perm int) error {
	return fsys.Mknod(path, S_IFDIR|perm&^S_IFMT)
}

// Unlink removes the directory entry at path. The target inode is freed
// once its link count reaches zero.
func (fsys *Filesystem) Unlink(path string) error {
	parent, name := splitParent(path)
	if name == "" {
		return ErrInvalid
	}
	di, err := fsys.resolve(parent)
	if err != nil {
		return err
	}
	return di.deleteEntry(name)
}

// Rmdir removes the directory at path, which must be empty.
func (fsys *Filesystem) Rmdir(path string) error {
	di, err := fsys.resolve(path)
	if err != nil {
		return err
	}
	if !di.IsDir() {
		return ErrNotDirectory
	}
	if _, err := di.readEntry(0); err == nil {
		return ErrNotEmpty
	}
	return fsys.Unlink(path)
}

// Rename moves the entry at from to to. Moving a regular file onto an
// existing directory targets inside it under the source's name. Renaming
// onto any other existing destination is refused. The move is put-then-
// delete: a failed put leaves everything untouched; a failed delete after a
// successful put leaves the file reachable under both names.
func (fsys *Filesystem) Rename(from, to string) error {
	fromParent, fromName := splitParent(from)
	toParent, toName := splitParent(to)
	if fromName == "" || toName == "" {
		return ErrInvalid
	}

	fromDir, err := fsys.resolve(fromParent)
	if err != nil {
		return err
	}
	fromIno, err := fsys.resolve(from)
	if err != nil {
		return err
	}

	toDir, err := fsys.resolve(toParent)
	if err != nil {
		return err
	}

	if dest, err := fsys.resolve(to); err == nil {
		switch {
		case IsRegular(fromIno.Mode()) && dest.IsDir():
			toDir = dest
			toName = fromName
		case fromIno.IsDir():
			return ErrInvalid
		default:
			return ErrExist
		}
	}

	if !toDir.IsDir() {
		return ErrNotDirectory
	}
	if _, err := toDir.lookup(toName); err == nil {
		return ErrExist
	}

	if err := toDir.putEntry(toName, fromIno.Num()); err != nil {
		return err
	}
	return fromDir.deleteEntry(fromName)
}

// List returns the names of the entries in the directory at path, in slot
// order.
func (fsys *Filesystem) List(path string) ([]string, error) {
	di, err := fsys.resolve(path)
	if err != nil {
		return nil, err
	}
	return di.entries()
}
