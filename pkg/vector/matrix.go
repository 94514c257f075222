package vector

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	matrixVersion    uint32 = 1
	matrixHeaderSize        = 16
)

// EncodeMatrix serializes rows as a 4-byte magic, a little-endian uint32
// version, row count and dimension, followed by the row-major float32 values.
func EncodeMatrix(magic string, rows [][]float32) ([]byte, error) {
	if len(magic) != 4 {
		return nil, fmt.Errorf("matrix magic must be 4 bytes, got %q", magic)
	}

	dim := 0
	if len(rows) > 0 {
		var err error
		if dim, err = Dimensions(rows); err != nil {
			return nil, err
		}
	}
	if len(rows) > math.MaxUint32 || dim > math.MaxUint32 {
		return nil, fmt.Errorf("matrix too large: %d x %d", len(rows), dim)
	}

	buf := make([]byte, matrixHeaderSize+len(rows)*dim*4)
	copy(buf, magic)
	binary.LittleEndian.PutUint32(buf[4:], matrixVersion)
	binary.LittleEndian.PutUint32(buf[8:], uint32(len(rows)))
	binary.LittleEndian.PutUint32(buf[12:], uint32(dim))

	off := matrixHeaderSize
	for _, row := range rows {
		for _, f := range row {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(f))
			off += 4
		}
	}
	return buf, nil
}

// DecodeMatrix parses data written by EncodeMatrix with the same magic.
func DecodeMatrix(magic string, data []byte) ([][]float32, error) {
	if len(data) < matrixHeaderSize {
		return nil, fmt.Errorf("%w: %d byte header", ErrCorrupt, len(data))
	}
	if string(data[:4]) != magic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorrupt, data[:4])
	}
	if v := binary.LittleEndian.Uint32(data[4:]); v != matrixVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
	}

	n := int(binary.LittleEndian.Uint32(data[8:]))
	dim := int(binary.LittleEndian.Uint32(data[12:]))
	if (n == 0) != (dim == 0) {
		return nil, fmt.Errorf("%w: %d rows of dimension %d", ErrCorrupt, n, dim)
	}
	payload := len(data) - matrixHeaderSize
	if dim == 0 && payload != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, payload)
	}
	if dim > 0 && (payload%(dim*4) != 0 || payload/(dim*4) != n) {
		return nil, fmt.Errorf("%w: %d payload bytes for %d rows of dimension %d", ErrCorrupt, payload, n, dim)
	}

	rows := make([][]float32, n)
	off := matrixHeaderSize
	for i := range rows {
		row := make([]float32, dim)
		for j := range row {
			row[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
			off += 4
		}
		rows[i] = row
	}
	return rows, nil
}
