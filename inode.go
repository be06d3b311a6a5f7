package sfs

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
)

const (
	// NDirect is the number of direct block pointers in an inode record.
	NDirect = 12
	// NIndirect is the number of block pointers held by the indirect block.
	NIndirect = BlockSize / 4

	// InodeSize is the on-image stride of one inode record: five int32
	// fields, NDirect direct pointers and the indirect pointer.
	InodeSize = (5 + NDirect + 1) * 4
	// InodeCount is the fixed size of the inode table. Inode 0 is the
	// permanently reserved null inode.
	InodeCount = 256

	// RootInode is the well-known inode number of the root directory.
	RootInode = 1

	// MaxFileSize is the largest file the direct + indirect layout can address.
	MaxFileSize = (NDirect + NIndirect) * BlockSize
)

// Field offsets inside an inode record. All fields are little-endian int32.
const (
	inoOffInum     = 0
	inoOffMode     = 4
	inoOffRefs     = 8
	inoOffLinks    = 12
	inoOffSize     = 16
	inoOffDirect   = 20
	inoOffIndirect = inoOffDirect + NDirect*4
)

// inodeTableBlocks is how many blocks the inode table occupies, starting at
// block 1.
func inodeTableBlocks() int {
	return bytesToBlocks(InodeCount * InodeSize)
}

// Inode is a handle onto one record of the mapped inode table. Every field
// access goes through the record bytes, so mutations land in the image
// immediately and no separate flush step exists.
type Inode struct {
	fs  *Filesystem
	num int
	d   []byte
}

// inodeInit reserves the null inode and the blocks holding the inode table.
// Block 0 is also reserved; it carries the bitmaps and doubles as the null
// block pointer.
func (fsys *Filesystem) inodeInit() {
	bbm := fsys.bs.blockBitmap()
	bbm.set(0)
	for b := 1; b <= inodeTableBlocks(); b++ {
		bbm.set(b)
	}
	fsys.bs.inodeBitmap().set(0)
}

func (fsys *Filesystem) inodeRecord(inum int) []byte {
	// The table is a packed array starting at block 1; records may straddle
	// block boundaries, which is fine against the flat mapping.
	off := BlockSize + inum*InodeSize
	return fsys.bs.data[off : off+InodeSize]
}

// GetInode returns a handle onto the inode with the given number, or
// ErrInvalid when the number is out of range. The null inode 0 is out of
// range. The inode bitmap is not consulted; use Valid for that.
func (fsys *Filesystem) GetInode(inum int) (*Inode, error) {
	ino := fsys.getInode(inum)
	if ino == nil {
		return nil, ErrInvalid
	}
	return ino, nil
}

func (fsys *Filesystem) getInode(inum int) *Inode {
	if inum <= 0 || inum >= InodeCount {
		return nil
	}
	return &Inode{fs: fsys, num: inum, d: fsys.inodeRecord(inum)}
}

// allocInode claims the first free inode at index 2 or above, zeroes its
// record and stamps the mode. The link count starts at zero; it is owned by
// the directory layer.
func (fsys *Filesystem) allocInode(mode int) (int, error) {
	ibm := fsys.bs.inodeBitmap()
	inum := ibm.firstClear(2, InodeCount)
	if inum < 0 {
		return 0, ErrNoSpace
	}
	ibm.set(inum)
	ino := fsys.getInode(inum)
	ino.zero()
	ino.setInum(inum)
	ino.setMode(mode)
	return inum, nil
}

// freeInode releases the inode and every block it owns. Freeing an inode
// that is already clear is a no-op.
func (fsys *Filesystem) freeInode(inum int) error {
	ino := fsys.getInode(inum)
	if ino == nil {
		return nil
	}
	ibm := fsys.bs.inodeBitmap()
	if !ibm.get(inum) {
		return nil
	}
	if err := ino.shrink(0); err != nil {
		return err
	}
	ibm.clear(inum)
	return nil
}

// Valid reports whether the handle refers to an in-use inode.
func (ino *Inode) Valid() bool {
	return ino != nil && ino.num != 0 && ino.fs.bs.inodeBitmap().get(ino.num)
}

func (ino *Inode) geti32(off int) int {
	return int(int32(binary.LittleEndian.Uint32(ino.d[off:])))
}

func (ino *Inode) puti32(off, v int) {
	binary.LittleEndian.PutUint32(ino.d[off:], uint32(int32(v)))
}

func (ino *Inode) zero() {
	for i := range ino.d {
		ino.d[i] = 0
	}
}

// Num returns the inode number of this handle.
func (ino *Inode) Num() int { return ino.num }

// Mode returns the Unix mode bits stored in the inode.
func (ino *Inode) Mode() int { return ino.geti32(inoOffMode) }

// Links returns the hard-link count.
func (ino *Inode) Links() int { return ino.geti32(inoOffLinks) }

// Refs returns the reserved reference count. It is maintained but not
// enforced.
func (ino *Inode) Refs() int { return ino.geti32(inoOffRefs) }

// Size returns the file size in bytes.
func (ino *Inode) Size() int { return ino.geti32(inoOffSize) }

// IsDir reports whether the inode's mode carries the directory type bit.
func (ino *Inode) IsDir() bool { return IsDir(ino.Mode()) }

func (ino *Inode) setInum(v int) { ino.puti32(inoOffInum, v) }
func (ino *Inode) setMode(v int) { ino.puti32(inoOffMode, v) }
func (ino *Inode) setSize(v int) { ino.puti32(inoOffSize, v) }

func (ino *Inode) addLinks(delta int) int {
	n := ino.Links() + delta
	ino.puti32(inoOffLinks, n)
	return n
}

func (ino *Inode) directSlot(i int) int {
	return ino.geti32(inoOffDirect + i*4)
}

func (ino *Inode) setDirectSlot(i, bnum int) {
	ino.puti32(inoOffDirect+i*4, bnum)
}

func (ino *Inode) indirect() int {
	return ino.geti32(inoOffIndirect)
}

func (ino *Inode) setIndirect(bnum int) {
	ino.puti32(inoOffIndirect, bnum)
}

// bnumAt returns the block number stored in file-block slot k. Slots in
// [NDirect, NDirect+NIndirect) live in the indirect block; reading one of
// them while the indirect block is unallocated is an error.
func (ino *Inode) bnumAt(k int) (int, error) {
	switch {
	case k < 0 || k >= NDirect+NIndirect:
		return 0, ErrInvalid
	case k < NDirect:
		return ino.directSlot(k), nil
	}
	ind := ino.indirect()
	if ind == 0 {
		return 0, ErrInvalid
	}
	b := ino.fs.bs.block(ind)
	return int(int32(binary.LittleEndian.Uint32(b[(k-NDirect)*4:]))), nil
}

func (ino *Inode) setBnumAt(k, bnum int) error {
	switch {
	case k < 0 || k >= NDirect+NIndirect:
		return ErrInvalid
	case k < NDirect:
		ino.setDirectSlot(k, bnum)
		return nil
	}
	ind := ino.indirect()
	if ind == 0 {
		return ErrInvalid
	}
	b := ino.fs.bs.block(ind)
	binary.LittleEndian.PutUint32(b[(k-NDirect)*4:], uint32(int32(bnum)))
	return nil
}

// grow extends the file to size bytes, allocating data blocks (and the
// indirect block once the direct slots run out) as needed. On allocator
// failure the size is clamped to the blocks actually owned and ErrNoSpace
// is returned, leaving the inode consistent.
func (ino *Inode) grow(size int) error {
	if !ino.Valid() || size < ino.Size() {
		return ErrInvalid
	}

	cur := bytesToBlocks(ino.Size())
	tgt := bytesToBlocks(size)

	for cur < tgt {
		if cur >= NDirect+NIndirect {
			ino.setSize(BlockSize * cur)
			return ErrNoSpace
		}
		if cur >= NDirect && ino.indirect() == 0 {
			ind, err := ino.fs.bs.allocBlock()
			if err != nil {
				ino.setSize(BlockSize * cur)
				return err
			}
			ino.setIndirect(ind)
		}
		bnum, err := ino.fs.bs.allocBlock()
		if err != nil {
			// a freshly allocated but still empty indirect table goes back
			if cur <= NDirect && ino.indirect() != 0 {
				ino.fs.bs.freeBlock(ino.indirect())
				ino.setIndirect(0)
			}
			ino.setSize(BlockSize * cur)
			return err
		}
		if err := ino.setBnumAt(cur, bnum); err != nil {
			ino.fs.bs.freeBlock(bnum)
			ino.setSize(BlockSize * cur)
			return err
		}
		cur++
	}

	ino.setSize(size)
	return nil
}

// shrink truncates the file to size bytes, releasing blocks from the top of
// the table down. Once the block count fits in the direct slots the
// indirect block itself is released. The block table is packed with no
// internal gaps; hitting a zero slot here means the image is corrupt.
func (ino *Inode) shrink(size int) error {
	if !ino.Valid() || size > ino.Size() {
		return ErrInvalid
	}

	cur := bytesToBlocks(ino.Size())
	tgt := bytesToBlocks(size)

	for tgt < cur {
		bnum, err := ino.bnumAt(cur - 1)
		if err != nil || bnum == 0 {
			log.Printf("sfs: inode %d: gap in block table at slot %d", ino.num, cur-1)
			return ErrCorrupt
		}
		ino.fs.bs.freeBlock(bnum)
		if err := ino.setBnumAt(cur-1, 0); err != nil {
			return err
		}
		cur--
	}

	if tgt <= NDirect && ino.indirect() != 0 {
		ino.fs.bs.freeBlock(ino.indirect())
		ino.setIndirect(0)
	}

	ino.setSize(size)
	return nil
}

// read copies up to len(p) bytes starting at file offset off into p,
// clamped to the end of the file. It returns the number of bytes copied.
func (ino *Inode) read(p []byte, off int) (int, error) {
	if !ino.Valid() || off < 0 {
		return 0, ErrInvalid
	}
	size := ino.Size()
	if off >= size {
		return 0, nil
	}
	if len(p) > size-off {
		p = p[:size-off]
	}

	n := 0
	for n < len(p) {
		k := (off + n) / BlockSize
		bnum, err := ino.bnumAt(k)
		if err != nil || bnum == 0 {
			return n, ErrCorrupt
		}
		b := ino.fs.bs.block(bnum)
		n += copy(p[n:], b[(off+n)%BlockSize:])
	}
	return n, nil
}

// write copies p into the file starting at offset off, growing the file to
// off+len(p) first. Short writes happen when growth stops at the allocator
// or the file size limit; a write that stores no bytes at all is an error.
func (ino *Inode) write(p []byte, off int) (int, error) {
	if !ino.Valid() || off < 0 || len(p) == 0 {
		return 0, ErrInvalid
	}

	growErr := error(nil)
	if off+len(p) > ino.Size() {
		growErr = ino.grow(off + len(p))
	}

	size := ino.Size()
	n := 0
	for n < len(p) && off+n < size {
		k := (off + n) / BlockSize
		bnum, err := ino.bnumAt(k)
		if err != nil || bnum == 0 {
			return n, ErrCorrupt
		}
		b := ino.fs.bs.block(bnum)
		n += copy(b[(off+n)%BlockSize:], p[n:min(len(p), size-off)])
	}
	if n == 0 {
		// a write call must never return 0 on a non-empty request
		if growErr == nil {
			growErr = ErrNoSpace
		}
		return 0, growErr
	}
	return n, nil
}

// ReadAt implements io.ReaderAt over the file body so an inode can back an
// io.SectionReader.
func (ino *Inode) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(MaxFileSize) {
		return 0, ErrInvalid
	}
	n, err := ino.read(p, int(off))
	if err != nil {
		return n, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// String renders the inode state for debugging.
func (ino *Inode) String() string {
	if !ino.Valid() {
		return "inode(N/A)"
	}
	return fmt.Sprintf("inode(inum=%d mode=%o links=%d refs=%d size=%d blocks=%d)",
		ino.num, ino.Mode(), ino.Links(), ino.Refs(), ino.Size(), bytesToBlocks(ino.Size()))
}

// Stat describes an inode the way the stat operation reports it. Times are
// not tracked by the filesystem and are reported as zero.
type Stat struct {
	Ino     int
	Mode    int
	Nlink   int
	Uid     int
	Gid     int
	Size    int
	Blksize int
	Blocks  int
}

func (ino *Inode) stat() (*Stat, error) {
	if !ino.Valid() {
		return nil, ErrInvalid
	}
	return &Stat{
		Ino:     ino.num,
		Mode:    ino.Mode(),
		Nlink:   ino.Links(),
		Uid:     ino.fs.uid,
		Gid:     ino.fs.gid,
		Size:    ino.Size(),
		Blksize: BlockSize,
		Blocks:  bytesToBlocks(ino.Size()),
	}, nil
}
