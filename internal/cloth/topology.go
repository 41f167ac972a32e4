package cloth

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// SpringsPerVertex is the fixed stride of the spring list.
const SpringsPerVertex = 12

// Category selects the material coefficients of a spring slot.
type Category uint8

const (
	Structural Category = iota
	Shear
	Bend
)

func (c Category) String() string {
	switch c {
	case Structural:
		return "structural"
	case Shear:
		return "shear"
	case Bend:
		return "bend"
	default:
		return "unknown"
	}
}

// CategoryOf maps a slot within a vertex block to its category.
func CategoryOf(slot int) Category {
	return Category(slot / 4)
}

// Spring links Origin to Neighbor. Neighbor equals the topology sentinel when
// the link falls outside the grid; RestLength is set either way.
type Spring struct {
	Origin     uint32
	Neighbor   uint32
	RestLength float32
}

// neighborOffsets are (row, col) deltas in slot order.
var neighborOffsets = [SpringsPerVertex][2]int{
	// structural
	{0, -1}, {-1, 0}, {0, 1}, {1, 0},
	// shear
	{-1, -1}, {1, -1}, {1, 1}, {-1, 1},
	// bend
	{0, -2}, {-2, 0}, {0, 2}, {2, 0},
}

// restFactor scales the grid unit per category.
var restFactor = [3]float32{1, math.Sqrt2, 2}

// Topology is the static description of a cloth: initial positions, the
// spring list, and the render mesh.
type Topology struct {
	Resolution uint32
	Size       float32
	Center     mgl32.Vec3

	Positions []mgl32.Vec3
	Springs   []Spring
	UVs       []mgl32.Vec2
	Indices   []uint32
}

// BuildGrid lays out Resolution² vertices on a horizontal square of side size
// centred at center, then links each vertex to its 12 grid neighbours.
// Identical inputs yield identical output.
func BuildGrid(resolution uint32, size float32, center mgl32.Vec3) (*Topology, error) {
	if resolution < 2 {
		return nil, &ConfigError{Field: "resolution", Value: float64(resolution), Wrapped: ErrInvalidResolution}
	}
	if !(size > 0) || math.IsInf(float64(size), 0) {
		return nil, &ConfigError{Field: "size", Value: float64(size), Wrapped: ErrInvalidSize}
	}

	r := int(resolution)
	n := r * r
	t := &Topology{
		Resolution: resolution,
		Size:       size,
		Center:     center,
		Positions:  make([]mgl32.Vec3, n),
		Springs:    make([]Spring, n*SpringsPerVertex),
		UVs:        make([]mgl32.Vec2, n),
		Indices:    make([]uint32, 0, (r-1)*(r-1)*6),
	}

	unit := t.Unit()
	uvStep := 1 / float32(r-1)
	half := size / 2
	for row := 0; row < r; row++ {
		for col := 0; col < r; col++ {
			v := row*r + col
			t.Positions[v] = mgl32.Vec3{
				center[0] + float32(row)*unit - half,
				center[1],
				center[2] + float32(col)*unit - half,
			}
			t.UVs[v] = mgl32.Vec2{float32(row) * uvStep, float32(col) * uvStep}
		}
	}

	sentinel := t.Sentinel()
	for v := 0; v < n; v++ {
		row, col := v/r, v%r
		base := v * SpringsPerVertex
		for k, off := range neighborOffsets {
			nr, nc := row+off[0], col+off[1]
			neighbor := sentinel
			if nr >= 0 && nr < r && nc >= 0 && nc < r {
				neighbor = uint32(nr*r + nc)
			}
			t.Springs[base+k] = Spring{
				Origin:     uint32(v),
				Neighbor:   neighbor,
				RestLength: unit * restFactor[CategoryOf(k)],
			}
		}
	}

	for row := 0; row < r-1; row++ {
		for col := 0; col < r-1; col++ {
			a := uint32(row*r + col)
			b := a + 1
			c := uint32((row+1)*r + col)
			d := c + 1
			t.Indices = append(t.Indices, a, b, c, b, d, c)
		}
	}

	return t, nil
}

// VertexCount returns Resolution².
func (t *Topology) VertexCount() int {
	return int(t.Resolution) * int(t.Resolution)
}

// Sentinel is the neighbour index meaning "no neighbour", one past the last
// vertex.
func (t *Topology) Sentinel() uint32 {
	return t.Resolution * t.Resolution
}

// Unit is the rest distance between axis-adjacent vertices.
func (t *Topology) Unit() float32 {
	return t.Size / float32(t.Resolution-1)
}

// SpringsOf returns the 12-slot block of vertex v.
func (t *Topology) SpringsOf(v int) []Spring {
	base := v * SpringsPerVertex
	return t.Springs[base : base+SpringsPerVertex]
}

// Valid reports whether s links to a real vertex.
func (t *Topology) Valid(s Spring) bool {
	return s.Neighbor < t.Sentinel()
}

// SentinelCount returns how many of v's slots have no neighbour.
func (t *Topology) SentinelCount(v int) int {
	count := 0
	for _, s := range t.SpringsOf(v) {
		if !t.Valid(s) {
			count++
		}
	}
	return count
}

// ValidSprings counts non-sentinel slots per category over the whole grid.
// Each physical link is counted once from each end.
func (t *Topology) ValidSprings() [3]int {
	var counts [3]int
	for i, s := range t.Springs {
		if t.Valid(s) {
			counts[CategoryOf(i%SpringsPerVertex)]++
		}
	}
	return counts
}

// Edges returns each structural link once, as ordered vertex pairs.
func (t *Topology) Edges() [][2]uint32 {
	edges := make([][2]uint32, 0, 2*t.VertexCount())
	for v := 0; v < t.VertexCount(); v++ {
		// slots 2 and 3 point forward along col and row
		for _, s := range t.SpringsOf(v)[2:4] {
			if t.Valid(s) {
				edges = append(edges, [2]uint32{s.Origin, s.Neighbor})
			}
		}
	}
	return edges
}
