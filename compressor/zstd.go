package compressor

import (
	"github.com/klauspost/compress/zstd"
)

// ZstdCompressor zstd用のコンプレッサー
type ZstdCompressor struct{}

// Compress 圧縮
func (z *ZstdCompressor) Compress(src []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil) // nilだと内部バッファを持つエンコーダー
	if err != nil {
		return nil, ErrIncompressible
	}
	defer enc.Close()

	compressed := enc.EncodeAll(src, nil)

	if len(compressed) >= len(src) {
		return nil, ErrNotShrunk
	}

	return compressed, nil
}

// Decompress 解凍
func (z *ZstdCompressor) Decompress(src []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	decompressed, err := dec.DecodeAll(src, nil)
	if err != nil {
		return nil, err
	}
	return decompressed, nil
}
