package layout

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// FrameHeaderSize is the frame counter (uint64) plus simulated time (float64)
// that precede the position records of a stream frame.
const FrameHeaderSize = 16

// AppendFrame appends a stream frame: header then one record per position.
func AppendFrame(dst []byte, frame uint64, t float64, positions []mgl32.Vec3) []byte {
	off := len(dst)
	dst = grow(dst, FrameHeaderSize)
	le.PutUint64(dst[off:], frame)
	le.PutUint64(dst[off+8:], math.Float64bits(t))
	return AppendVec3s(dst, positions)
}

// DecodeFrame splits a stream frame, reusing dst for the positions.
func DecodeFrame(dst []mgl32.Vec3, b []byte) (uint64, float64, []mgl32.Vec3, error) {
	if len(b) < FrameHeaderSize {
		return 0, 0, nil, fmt.Errorf("%w: frame of %d bytes", ErrShortBuffer, len(b))
	}
	frame := le.Uint64(b)
	t := math.Float64frombits(le.Uint64(b[8:]))
	positions, err := DecodeVec3s(dst, b[FrameHeaderSize:])
	if err != nil {
		return 0, 0, nil, err
	}
	return frame, t, positions, nil
}

// FrameCounter reads the frame counter of an encoded frame, or 0 when b is
// too short.
func FrameCounter(b []byte) uint64 {
	if len(b) < FrameHeaderSize {
		return 0
	}
	return le.Uint64(b)
}
