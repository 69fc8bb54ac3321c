package store

import (
	"encoding/binary"
	"math"
)

// EncodeVector serializes a vector as little-endian float32s for BLOB storage.
func EncodeVector(v []float32) []byte {
	const size = 4
	out := make([]byte, len(v)*size)
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(f))
	}
	return out
}

// DecodeVector deserializes a little-endian float32 BLOB back into a vector.
func DecodeVector(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
