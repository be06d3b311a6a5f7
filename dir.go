package sfs

import (
	"bytes"
	"encoding/binary"
)

const (
	// DirNameLength is the dirent name field size; names are NUL-padded, so
	// the longest usable name is one byte shorter.
	DirNameLength = 48

	// DirentSize is the on-image stride of one directory entry: the name
	// field, an int32 inode number and reserved padding up to 64 bytes.
	DirentSize = 64

	// MaxNameLength is the longest entry name a dirent can hold.
	MaxNameLength = DirNameLength - 1
)

// dirent is one decoded directory entry. An entry with inum 0 is a
// tombstone: a free slot that insertion reuses before extending the file.
type dirent struct {
	name string
	inum int
}

func encodeDirent(d dirent) [DirentSize]byte {
	var buf [DirentSize]byte
	copy(buf[:DirNameLength], d.name)
	binary.LittleEndian.PutUint32(buf[DirNameLength:], uint32(int32(d.inum)))
	return buf
}

func decodeDirent(buf []byte) dirent {
	name := buf[:DirNameLength]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	return dirent{
		name: string(name),
		inum: int(int32(binary.LittleEndian.Uint32(buf[DirNameLength:]))),
	}
}

// directoryInit verifies the root directory and initializes it if it does
// not exist. The root inode is forced: its bitmap bit is set directly
// rather than going through the allocator.
func (fsys *Filesystem) directoryInit() error {
	ibm := fsys.bs.inodeBitmap()
	root := fsys.getInode(RootInode)
	if ibm.get(RootInode) && root.IsDir() {
		return nil
	}

	ibm.set(RootInode)
	root.zero()
	root.setInum(RootInode)
	root.setMode(ModeDir)
	return nil
}

// direntCount is how many slots the directory file holds, tombstones
// included.
func (ino *Inode) direntCount() int {
	return ino.Size() / DirentSize
}

// direntAt reads the slot at idx. Anything short of a full dirent is a
// failure.
func (ino *Inode) direntAt(idx int) (dirent, error) {
	var buf [DirentSize]byte
	n, err := ino.read(buf[:], idx*DirentSize)
	if err != nil {
		return dirent{}, err
	}
	if n != DirentSize {
		return dirent{}, ErrInvalid
	}
	return decodeDirent(buf[:]), nil
}

// lookupSlot returns the index of the first slot whose name matches
// exactly, or ErrNotFound.
func (ino *Inode) lookupSlot(name string) (int, error) {
	if name == "" || len(name) > MaxNameLength {
		return 0, ErrNotFound
	}
	for i := 0; i < ino.direntCount(); i++ {
		d, err := ino.direntAt(i)
		if err != nil {
			return 0, err
		}
		if d.inum != 0 && d.name == name {
			return i, nil
		}
	}
	return 0, ErrNotFound
}

// lookup resolves an entry name to its inode number.
func (ino *Inode) lookup(name string) (int, error) {
	if !ino.Valid() {
		return 0, ErrInvalid
	}
	if !ino.IsDir() {
		return 0, ErrNotDirectory
	}
	idx, err := ino.lookupSlot(name)
	if err != nil {
		return 0, err
	}
	d, err := ino.direntAt(idx)
	if err != nil {
		return 0, err
	}
	return d.inum, nil
}

// readEntry returns the dnum-th live entry, skipping tombstones.
func (ino *Inode) readEntry(dnum int) (dirent, error) {
	if !ino.Valid() || dnum < 0 {
		return dirent{}, ErrInvalid
	}
	seen := 0
	for i := 0; i < ino.direntCount(); i++ {
		d, err := ino.direntAt(i)
		if err != nil {
			return dirent{}, err
		}
		if d.inum == 0 {
			continue
		}
		if seen == dnum {
			return d, nil
		}
		seen++
	}
	return dirent{}, ErrNotFound
}

// putEntry inserts name -> inum into the directory, reusing the first
// tombstone slot before extending the file, and bumps the target's link
// count. Both inodes must be live.
func (ino *Inode) putEntry(name string, inum int) error {
	target := ino.fs.getInode(inum)
	if !ino.Valid() || !target.Valid() {
		return ErrInvalid
	}
	if name == "" {
		return ErrInvalid
	}
	if len(name) > MaxNameLength {
		return ErrNameTooLong
	}

	offset := ino.Size()
	for i := 0; i < ino.direntCount(); i++ {
		d, err := ino.direntAt(i)
		if err != nil {
			return err
		}
		if d.inum == 0 {
			offset = i * DirentSize
			break
		}
	}

	buf := encodeDirent(dirent{name: name, inum: inum})
	n, err := ino.write(buf[:], offset)
	if err != nil {
		return err
	}
	if n != DirentSize {
		// partial growth left a torn entry; take it back out
		if serr := ino.shrink(offset); serr != nil {
			return serr
		}
		return ErrNoSpace
	}

	target.addLinks(1)
	return nil
}

// deleteEntry removes the entry with the given name, dropping the target's
// link count and freeing the inode when it reaches zero. The slot becomes a
// tombstone; it is not compacted.
func (ino *Inode) deleteEntry(name string) error {
	if !ino.Valid() {
		return ErrInvalid
	}
	idx, err := ino.lookupSlot(name)
	if err != nil {
		return err
	}
	d, err := ino.direntAt(idx)
	if err != nil {
		return err
	}

	target := ino.fs.getInode(d.inum)
	if !target.Valid() {
		return ErrInvalid
	}
	if target.addLinks(-1) <= 0 {
		if err := ino.fs.freeInode(d.inum); err != nil {
			return err
		}
	}

	var zero [DirentSize]byte
	n, err := ino.write(zero[:], idx*DirentSize)
	if err != nil {
		return err
	}
	if n != DirentSize {
		return ErrInvalid
	}
	return nil
}

// entries lists the names of all live entries in slot order.
func (ino *Inode) entries() ([]string, error) {
	if !ino.Valid() {
		return nil, ErrInvalid
	}
	if !ino.IsDir() {
		return nil, ErrNotDirectory
	}
	var names []string
	for i := 0; i < ino.direntCount(); i++ {
		d, err := ino.direntAt(i)
		if err != nil {
			return nil, err
		}
		if d.inum != 0 {
			names = append(names, d.name)
		}
	}
	return names, nil
}
