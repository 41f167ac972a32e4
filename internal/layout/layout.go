// Package layout encodes cloth buffers in the byte layout shared with GPU
// storage buffers, run files and stream clients.
//
// All scalars are little-endian IEEE-754 float32. Vertex records are three
// floats (stride 12); spring records are origin, neighbour and rest length,
// with the two indices stored as floats.
package layout

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/san-kum/clothsim/internal/cloth"
)

const (
	// VertexStride is the size of one position or velocity record.
	VertexStride = 12
	// SpringStride is the size of one spring record.
	SpringStride = 12
)

// ErrShortBuffer indicates a buffer whose length is not a whole number of
// records.
var ErrShortBuffer = errors.New("layout: buffer length is not a multiple of the record stride")

var le = binary.LittleEndian

func putFloat(b []byte, f float32) {
	le.PutUint32(b, math.Float32bits(f))
}

func getFloat(b []byte) float32 {
	return math.Float32frombits(le.Uint32(b))
}

// AppendVec3s appends one record per vector to dst.
func AppendVec3s(dst []byte, vs []mgl32.Vec3) []byte {
	off := len(dst)
	dst = grow(dst, len(vs)*VertexStride)
	for _, v := range vs {
		putFloat(dst[off:], v[0])
		putFloat(dst[off+4:], v[1])
		putFloat(dst[off+8:], v[2])
		off += VertexStride
	}
	return dst
}

// DecodeVec3s decodes vertex records into dst, reusing its storage when large
// enough.
func DecodeVec3s(dst []mgl32.Vec3, b []byte) ([]mgl32.Vec3, error) {
	if len(b)%VertexStride != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortBuffer, len(b))
	}
	n := len(b) / VertexStride
	if cap(dst) < n {
		dst = make([]mgl32.Vec3, n)
	}
	dst = dst[:n]
	for i := range dst {
		r := b[i*VertexStride:]
		dst[i] = mgl32.Vec3{getFloat(r), getFloat(r[4:]), getFloat(r[8:])}
	}
	return dst, nil
}

// FlattenVec3s returns x0, y0, z0, x1, ... for consumers that want plain
// float arrays.
func FlattenVec3s(dst []float32, vs []mgl32.Vec3) []float32 {
	dst = dst[:0]
	for _, v := range vs {
		dst = append(dst, v[0], v[1], v[2])
	}
	return dst
}

// AppendSprings appends one record per spring.
func AppendSprings(dst []byte, springs []cloth.Spring) []byte {
	off := len(dst)
	dst = grow(dst, len(springs)*SpringStride)
	for _, s := range springs {
		putFloat(dst[off:], float32(s.Origin))
		putFloat(dst[off+4:], float32(s.Neighbor))
		putFloat(dst[off+8:], s.RestLength)
		off += SpringStride
	}
	return dst
}

// SpringFloats returns the spring records as a float slice, the form uploaded
// to the GPU.
func SpringFloats(springs []cloth.Spring) []float32 {
	out := make([]float32, 0, len(springs)*3)
	for _, s := range springs {
		out = append(out, float32(s.Origin), float32(s.Neighbor), s.RestLength)
	}
	return out
}

// DecodeSprings is the inverse of AppendSprings.
func DecodeSprings(b []byte) ([]cloth.Spring, error) {
	if len(b)%SpringStride != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortBuffer, len(b))
	}
	out := make([]cloth.Spring, len(b)/SpringStride)
	for i := range out {
		r := b[i*SpringStride:]
		out[i] = cloth.Spring{
			Origin:     uint32(getFloat(r)),
			Neighbor:   uint32(getFloat(r[4:])),
			RestLength: getFloat(r[8:]),
		}
	}
	return out, nil
}

// WriteVec3s streams vertex records to w.
func WriteVec3s(w io.Writer, vs []mgl32.Vec3) error {
	_, err := w.Write(AppendVec3s(make([]byte, 0, len(vs)*VertexStride), vs))
	return err
}

// ReadVec3s reads exactly n vertex records from r.
func ReadVec3s(r io.Reader, n int) ([]mgl32.Vec3, error) {
	buf := make([]byte, n*VertexStride)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("layout: read %d vertices: %w", n, err)
	}
	return DecodeVec3s(nil, buf)
}

func grow(b []byte, n int) []byte {
	if cap(b)-len(b) < n {
		nb := make([]byte, len(b), len(b)+n)
		copy(nb, b)
		b = nb
	}
	return b[:len(b)+n]
}
