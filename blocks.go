package sfs

// BlockSize is the size of a single block in the image, in bytes.
const BlockSize = 4096

// Block 0 carries both allocation bitmaps: the block bitmap packed at the
// start, the inode bitmap at a fixed offset. The fixed offset caps how many
// blocks a single image can address.
const (
	blockBitmapOff = 0
	inodeBitmapOff = 256

	// MaxBlockCount is the largest number of blocks an image can hold before
	// the block bitmap would run into the inode bitmap region.
	MaxBlockCount = inodeBitmapOff * 8

	// DefaultBlockCount matches the classic 1 MiB image.
	DefaultBlockCount = 256
)

// BlockStore is a fixed-size array of equal-sized blocks backed by a flat
// byte mapping, either an mmap'd image file or an in-memory buffer. Block
// number 0 is never handed out by the allocator; it is reserved as the null
// pointer sentinel in inode block tables and holds the bitmaps.
type BlockStore struct {
	data   []byte
	blocks int
	syncer func(data []byte) error
	closer func(data []byte) error
}

// NewMemImage returns a memory-backed block store of the given block count,
// zero-filled like a freshly created image file. It is mainly useful for
// tests and for Restore.
func NewMemImage(blocks int) (*BlockStore, error) {
	if blocks <= 0 || blocks > MaxBlockCount {
		return nil, ErrInvalidImage
	}
	return newBlockStore(make([]byte, blocks*BlockSize), nil, nil)
}

func newBlockStore(data []byte, syncer, closer func([]byte) error) (*BlockStore, error) {
	if len(data) == 0 || len(data)%BlockSize != 0 {
		return nil, ErrInvalidImage
	}
	blocks := len(data) / BlockSize
	if blocks > MaxBlockCount {
		return nil, ErrInvalidImage
	}
	return &BlockStore{data: data, blocks: blocks, syncer: syncer, closer: closer}, nil
}

// BlockCount returns the total number of blocks in the store.
func (bs *BlockStore) BlockCount() int {
	return bs.blocks
}

// Bytes exposes the raw image so it can be snapshotted. The returned slice
// aliases the mapping; it stays valid until Close.
func (bs *BlockStore) Bytes() []byte {
	return bs.data
}

// block returns the mapped bytes of block n. The caller must not hold the
// slice across a call that may allocate or free blocks.
func (bs *BlockStore) block(n int) []byte {
	return bs.data[n*BlockSize : (n+1)*BlockSize]
}

func (bs *BlockStore) blockBitmap() bitmap {
	return bitmap(bs.data[blockBitmapOff:inodeBitmapOff])
}

func (bs *BlockStore) inodeBitmap() bitmap {
	return bitmap(bs.data[inodeBitmapOff : inodeBitmapOff+InodeCount/8])
}

// allocBlock claims the first free block, zeroes it and returns its number.
// Zeroing on allocation keeps recycled blocks from leaking stale pointers
// into a fresh indirect table.
func (bs *BlockStore) allocBlock() (int, error) {
	bbm := bs.blockBitmap()
	n := bbm.firstClear(0, bs.blocks)
	if n < 0 {
		return 0, ErrNoSpace
	}
	bbm.set(n)
	b := bs.block(n)
	for i := range b {
		b[i] = 0
	}
	return n, nil
}

// freeBlock releases block n back to the allocator. Out-of-range numbers
// and the null block 0 are ignored.
func (bs *BlockStore) freeBlock(n int) {
	if n <= 0 || n >= bs.blocks {
		return
	}
	bs.blockBitmap().clear(n)
}

// Sync flushes the mapping to its backing file, if any.
func (bs *BlockStore) Sync() error {
	if bs.syncer == nil {
		return nil
	}
	return bs.syncer(bs.data)
}

// Close releases the mapping. The store must not be used afterwards.
func (bs *BlockStore) Close() error {
	if bs.closer == nil {
		return nil
	}
	closer := bs.closer
	bs.closer = nil
	return closer(bs.data)
}

// bytesToBlocks rounds a byte count up to whole blocks.
func bytesToBlocks(n int) int {
	return (n + BlockSize - 1) / BlockSize
}
