package sfs

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Snapshots carry a whole image in a small framed container: a fixed header
// followed by the compressed image bytes.

const snapshotVersion = 1

var snapshotMagic = [4]byte{'s', 'f', 's', 'i'}

type snapshotHeader struct {
	Magic       [4]byte
	Version     uint16
	Comp        Compression
	BlockCount  uint32
	PayloadSize uint32
}

// ErrInvalidSnapshot is returned when a snapshot stream is not recognized.
var ErrInvalidSnapshot = errors.New("invalid snapshot, sfs signature not found")

// Dump writes a snapshot of the whole image to w using the given codec.
func (fsys *Filesystem) Dump(w io.Writer, comp Compression) error {
	payload, err := comp.compress(fsys.bs.Bytes())
	if err != nil {
		return err
	}
	hdr := snapshotHeader{
		Magic:       snapshotMagic,
		Version:     snapshotVersion,
		Comp:        comp,
		BlockCount:  uint32(fsys.bs.BlockCount()),
		PayloadSize: uint32(len(payload)),
	}
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

// Restore reads a snapshot stream and returns a memory-backed block store
// holding the restored image. Mount it with New. RestoreFile restores a
// snapshot stream straight into an image file.
func Restore(r io.Reader) (*BlockStore, error) {
	var hdr snapshotHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}
	if hdr.Magic != snapshotMagic {
		return nil, ErrInvalidSnapshot
	}
	if hdr.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, hdr.Version)
	}

	payload := make([]byte, hdr.PayloadSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	data, err := hdr.Comp.decompress(payload)
	if err != nil {
		return nil, err
	}
	if len(data) != int(hdr.BlockCount)*BlockSize {
		return nil, fmt.Errorf("%w: payload is %d bytes, header says %d blocks",
			ErrInvalidSnapshot, len(data), hdr.BlockCount)
	}
	return newBlockStore(data, nil, nil)
}

// RestoreFile restores a snapshot stream into the image file at path.
func RestoreFile(r io.Reader, path string) error {
	bs, err := Restore(r)
	if err != nil {
		return err
	}
	out, err := createImage(path, bs.BlockCount())
	if err != nil {
		return err
	}
	copy(out.Bytes(), bs.Bytes())
	return out.Close()
}
