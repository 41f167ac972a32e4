package layout

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/san-kum/clothsim/internal/cloth"
)

const (
	// PackedParamsSize is the 13-scalar block without padding.
	PackedParamsSize = 52
	// Std140ParamsSize is the uniform block size under std140 rules.
	Std140ParamsSize = 64
)

// std140 offsets. sphereCenter is a vec3 and starts on a 16-byte boundary;
// vertexMass fills the fourth component slot.
const (
	offDeltaTime           = 0
	offVertexCount         = 4
	offSphereRadius        = 8
	offSphereCenter        = 16
	offVertexMass          = 28
	offStructuralStiffness = 32
	offShearStiffness      = 36
	offBendStiffness       = 40
	offStructuralDamping   = 44
	offShearDamping        = 48
	offBendDamping         = 52
)

func scalars(p *cloth.Parameters) [13]float32 {
	return [13]float32{
		p.DeltaTime,
		float32(p.VertexCount),
		p.SphereRadius,
		p.SphereCenter[0], p.SphereCenter[1], p.SphereCenter[2],
		p.VertexMass,
		p.StructuralStiffness, p.ShearStiffness, p.BendStiffness,
		p.StructuralDamping, p.ShearDamping, p.BendDamping,
	}
}

// PackParams encodes p as 13 consecutive floats. vertexCount is stored as a
// float like the spring indices.
func PackParams(p *cloth.Parameters) [PackedParamsSize]byte {
	var b [PackedParamsSize]byte
	for i, f := range scalars(p) {
		putFloat(b[i*4:], f)
	}
	return b
}

// UnpackParams decodes a block produced by PackParams.
func UnpackParams(b []byte) (cloth.Parameters, error) {
	if len(b) != PackedParamsSize {
		return cloth.Parameters{}, fmt.Errorf("layout: packed parameter block is %d bytes, want %d", len(b), PackedParamsSize)
	}
	f := func(i int) float32 { return getFloat(b[i*4:]) }
	return cloth.Parameters{
		DeltaTime:           f(0),
		VertexCount:         uint32(f(1)),
		SphereRadius:        f(2),
		SphereCenter:        mgl32.Vec3{f(3), f(4), f(5)},
		VertexMass:          f(6),
		StructuralStiffness: f(7),
		ShearStiffness:      f(8),
		BendStiffness:       f(9),
		StructuralDamping:   f(10),
		ShearDamping:        f(11),
		BendDamping:         f(12),
	}, nil
}

// Std140Params encodes p for a GLSL uniform block declared as
//
//	layout(std140) uniform Params {
//	    float deltaTime; uint vertexCount; float sphereRadius;
//	    vec3 sphereCenter; float vertexMass;
//	    float structuralStiffness, shearStiffness, bendStiffness;
//	    float structuralDamping, shearDamping, bendDamping;
//	};
func Std140Params(p *cloth.Parameters) [Std140ParamsSize]byte {
	var b [Std140ParamsSize]byte
	putFloat(b[offDeltaTime:], p.DeltaTime)
	le.PutUint32(b[offVertexCount:], p.VertexCount)
	putFloat(b[offSphereRadius:], p.SphereRadius)
	putFloat(b[offSphereCenter:], p.SphereCenter[0])
	putFloat(b[offSphereCenter+4:], p.SphereCenter[1])
	putFloat(b[offSphereCenter+8:], p.SphereCenter[2])
	putFloat(b[offVertexMass:], p.VertexMass)
	putFloat(b[offStructuralStiffness:], p.StructuralStiffness)
	putFloat(b[offShearStiffness:], p.ShearStiffness)
	putFloat(b[offBendStiffness:], p.BendStiffness)
	putFloat(b[offStructuralDamping:], p.StructuralDamping)
	putFloat(b[offShearDamping:], p.ShearDamping)
	putFloat(b[offBendDamping:], p.BendDamping)
	return b
}
