package sfs

import "github.com/klauspost/compress/zstd"

func zstdCompress(buf []byte) ([]byte, error) {
	w, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	out := w.EncodeAll(buf, nil)
	if err := w.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

func zstdDecompress(buf []byte) ([]byte, error) {
	r, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.DecodeAll(buf, nil)
}

func init() {
	RegisterCompHandler(CompZSTD, &CompHandler{
		Compress:   zstdCompress,
		Decompress: zstdDecompress,
	})
}
