package sfs

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"strings"
)

// Compression identifies the codec a snapshot payload was written with.
type Compression uint16

const (
	CompNone Compression = iota
	CompZlib
	CompZSTD
	CompXZ
)

func (c Compression) String() string {
	switch c {
	case CompNone:
		return "None"
	case CompZlib:
		return "Zlib"
	case CompZSTD:
		return "ZSTD"
	case CompXZ:
		return "XZ"
	}
	return fmt.Sprintf("Compression(%d)", c)
}

// ParseCompression maps a codec name (as used on the CLI) to its id.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "none":
		return CompNone, nil
	case "zlib":
		return CompZlib, nil
	case "zstd":
		return CompZSTD, nil
	case "xz":
		return CompXZ, nil
	}
	return 0, fmt.Errorf("unsupported compression type %q", s)
}

// CompHandler bundles the compress and decompress halves of one codec.
type CompHandler struct {
	Compress   func(buf []byte) ([]byte, error)
	Decompress func(buf []byte) ([]byte, error)
}

var compHandlers = map[Compression]*CompHandler{
	CompNone: {
		Compress:   func(buf []byte) ([]byte, error) { return buf, nil },
		Decompress: func(buf []byte) ([]byte, error) { return buf, nil },
	},
	CompZlib: {
		Compress: func(buf []byte) ([]byte, error) {
			var out bytes.Buffer
			w := zlib.NewWriter(&out)
			if _, err := w.Write(buf); err != nil {
				w.Close()
				return nil, err
			}
			if err := w.Close(); err != nil {
				return nil, err
			}
			return out.Bytes(), nil
		},
		Decompress: MakeDecompressorErr(func(r io.Reader) (io.ReadCloser, error) {
			return zlib.NewReader(r)
		}),
	},
}

// RegisterCompHandler allows registering custom compression codecs.
func RegisterCompHandler(c Compression, h *CompHandler) {
	compHandlers[c] = h
}

// MakeDecompressorErr turns a reader-constructor into a buffer-level
// decompress function.
func MakeDecompressorErr(open func(r io.Reader) (io.ReadCloser, error)) func([]byte) ([]byte, error) {
	return func(buf []byte) ([]byte, error) {
		rc, err := open(bytes.NewReader(buf))
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
}

func (c Compression) compress(buf []byte) ([]byte, error) {
	h, ok := compHandlers[c]
	if !ok || h.Compress == nil {
		return nil, fmt.Errorf("%s compression not supported", c)
	}
	return h.Compress(buf)
}

func (c Compression) decompress(buf []byte) ([]byte, error) {
	h, ok := compHandlers[c]
	if !ok || h.Decompress == nil {
		return nil, fmt.Errorf("%s decompression not supported", c)
	}
	return h.Decompress(buf)
}
