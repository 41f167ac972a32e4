package cloth

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Gravity is the constant acceleration applied to every vertex.
var Gravity = mgl32.Vec3{0, -9.81, 0}

const (
	DefaultMass                = 0.3
	DefaultStructuralStiffness = 20.0
	DefaultShearStiffness      = 20.0
	DefaultBendStiffness       = 10.0
	DefaultStructuralDamping   = 1.0
	DefaultShearDamping        = 1.0
	DefaultBendDamping         = 0.1
	DefaultSphereRadius        = 10.0
)

// Coefficients are the spring constants of one category.
type Coefficients struct {
	Stiffness float32
	Damping   float32
}

// Material holds the per-vertex mass and the three spring categories.
type Material struct {
	Mass       float32
	Structural Coefficients
	Shear      Coefficients
	Bend       Coefficients
}

// DefaultMaterial returns a light, fairly stiff cloth.
func DefaultMaterial() Material {
	return Material{
		Mass:       DefaultMass,
		Structural: Coefficients{Stiffness: DefaultStructuralStiffness, Damping: DefaultStructuralDamping},
		Shear:      Coefficients{Stiffness: DefaultShearStiffness, Damping: DefaultShearDamping},
		Bend:       Coefficients{Stiffness: DefaultBendStiffness, Damping: DefaultBendDamping},
	}
}

// Validate rejects non-positive mass or stiffness and negative damping.
func (m Material) Validate() error {
	if !(m.Mass > 0) || isInf(m.Mass) {
		return &ConfigError{Field: "mass", Value: float64(m.Mass), Wrapped: ErrInvalidMass}
	}
	for _, c := range []Category{Structural, Shear, Bend} {
		co := m.Coefficients(c)
		if !(co.Stiffness > 0) || isInf(co.Stiffness) {
			return &ConfigError{Field: c.String() + ".stiffness", Value: float64(co.Stiffness), Wrapped: ErrInvalidStiffness}
		}
		if !(co.Damping >= 0) || isInf(co.Damping) {
			return &ConfigError{Field: c.String() + ".damping", Value: float64(co.Damping), Wrapped: ErrInvalidDamping}
		}
	}
	return nil
}

// Coefficients returns the constants for category c.
func (m Material) Coefficients(c Category) Coefficients {
	switch c {
	case Shear:
		return m.Shear
	case Bend:
		return m.Bend
	default:
		return m.Structural
	}
}

// Sphere is the static collider.
type Sphere struct {
	Center mgl32.Vec3
	Radius float32
}

// DefaultSphere returns a radius-10 sphere at the origin.
func DefaultSphere() Sphere {
	return Sphere{Radius: DefaultSphereRadius}
}

// Validate rejects a negative or non-finite radius.
func (s Sphere) Validate() error {
	if !(s.Radius >= 0) || isInf(s.Radius) {
		return &ConfigError{Field: "sphere.radius", Value: float64(s.Radius), Wrapped: ErrInvalidSphere}
	}
	return nil
}

// Parameters is the per-frame constant block read by both stages. Field
// order follows the uniform block layout.
type Parameters struct {
	DeltaTime           float32
	VertexCount         uint32
	SphereRadius        float32
	SphereCenter        mgl32.Vec3
	VertexMass          float32
	StructuralStiffness float32
	ShearStiffness      float32
	BendStiffness       float32
	StructuralDamping   float32
	ShearDamping        float32
	BendDamping         float32
}

// NewParameters assembles a parameter block. DeltaTime is left at zero and
// filled in per frame.
func NewParameters(vertexCount int, m Material, s Sphere) Parameters {
	return Parameters{
		VertexCount:         uint32(vertexCount),
		SphereRadius:        s.Radius,
		SphereCenter:        s.Center,
		VertexMass:          m.Mass,
		StructuralStiffness: m.Structural.Stiffness,
		ShearStiffness:      m.Shear.Stiffness,
		BendStiffness:       m.Bend.Stiffness,
		StructuralDamping:   m.Structural.Damping,
		ShearDamping:        m.Shear.Damping,
		BendDamping:         m.Bend.Damping,
	}
}

// Coefficients returns stiffness and damping for category c.
func (p *Parameters) Coefficients(c Category) (stiffness, damping float32) {
	switch c {
	case Shear:
		return p.ShearStiffness, p.ShearDamping
	case Bend:
		return p.BendStiffness, p.BendDamping
	default:
		return p.StructuralStiffness, p.StructuralDamping
	}
}

// Sphere returns the collider described by the block.
func (p *Parameters) Sphere() Sphere {
	return Sphere{Center: p.SphereCenter, Radius: p.SphereRadius}
}

func validTimestep(dt float32) bool {
	return dt >= 0 && !isInf(dt)
}

func isInf(f float32) bool {
	return math.IsInf(float64(f), 0)
}
