package ordertree

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// uint32ByteSize is the number of bytes in a uint32.
const uint32ByteSize = 4

// compressColumn compresses a column of uint32-s with LZ4 block compression.
func compressColumn(data []uint32) ([]byte, error) {
	buf := new(bytes.Buffer)

	err := binary.Write(buf, binary.LittleEndian, data)
	if err != nil {
		return nil, fmt.Errorf("encode column: %w", err)
	}

	compressed := make([]byte, lz4.CompressBlockBound(buf.Len()))

	written, err := lz4.CompressBlock(buf.Bytes(), compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("compress column: %w", err)
	}

	// Incompressible input is reported as zero bytes written; keep it raw.
	if written == 0 {
		return append([]byte{0}, buf.Bytes()...), nil
	}

	return append([]byte{1}, compressed[:written]...), nil
}

// decompressColumn restores a column produced by compressColumn.
// `result` must be preallocated with the original length.
func decompressColumn(data []byte, result []uint32) error {
	if len(result) == 0 {
		return nil
	}

	if len(data) == 0 {
		return fmt.Errorf("decompress column: empty block for %d values", len(result))
	}

	raw := data[1:]

	if data[0] == 1 {
		raw = make([]byte, len(result)*uint32ByteSize)

		read, err := lz4.UncompressBlock(data[1:], raw)
		if err != nil {
			return fmt.Errorf("decompress column: %w", err)
		}

		if read != len(raw) {
			return fmt.Errorf("decompress column: %d bytes instead of %d", read, len(raw))
		}
	}

	err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, result)
	if err != nil {
		return fmt.Errorf("decode column: %w", err)
	}

	return nil
}

// deltaEncode replaces each element with the difference from its predecessor,
// in place. Parent and child handles of neighbouring arena slots are close to
// each other, so deltas compress better.
func deltaEncode(data []uint32) {
	for i := len(data) - 1; i > 0; i-- {
		data[i] -= data[i-1]
	}
}

// deltaDecode reverses deltaEncode in place.
func deltaDecode(data []uint32) {
	for i := 1; i < len(data); i++ {
		data[i] += data[i-1]
	}
}
