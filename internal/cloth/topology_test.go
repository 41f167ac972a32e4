package cloth

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/go-cmp/cmp"
)

func TestBuildGrid_InvalidConfig(t *testing.T) {
	tests := []struct {
		name       string
		resolution uint32
		size       float32
		want       error
	}{
		{"zero resolution", 0, 1, ErrInvalidResolution},
		{"single vertex", 1, 1, ErrInvalidResolution},
		{"zero size", 3, 0, ErrInvalidSize},
		{"negative size", 3, -2, ErrInvalidSize},
		{"NaN size", 3, float32(math.NaN()), ErrInvalidSize},
		{"Inf size", 3, float32(math.Inf(1)), ErrInvalidSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildGrid(tt.resolution, tt.size, mgl32.Vec3{})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("expected ConfigError, got %T", err)
			}
		})
	}
}

func TestBuildGrid_Counts(t *testing.T) {
	for _, r := range []uint32{2, 3, 4, 7, 25} {
		topo, err := BuildGrid(r, 10, mgl32.Vec3{})
		if err != nil {
			t.Fatalf("R=%d: %v", r, err)
		}
		n := int(r * r)
		if len(topo.Positions) != n {
			t.Errorf("R=%d: expected %d positions, got %d", r, n, len(topo.Positions))
		}
		if len(topo.Springs) != 12*n {
			t.Errorf("R=%d: expected %d springs, got %d", r, 12*n, len(topo.Springs))
		}
		if len(topo.UVs) != n {
			t.Errorf("R=%d: expected %d uvs, got %d", r, n, len(topo.UVs))
		}
		if want := int((r - 1) * (r - 1) * 6); len(topo.Indices) != want {
			t.Errorf("R=%d: expected %d indices, got %d", r, want, len(topo.Indices))
		}
		if topo.Sentinel() != r*r {
			t.Errorf("R=%d: expected sentinel %d, got %d", r, r*r, topo.Sentinel())
		}
	}
}

func TestBuildGrid_Deterministic(t *testing.T) {
	center := mgl32.Vec3{1.5, 10, -3}
	a, err := BuildGrid(9, 35, center)
	if err != nil {
		t.Fatal(err)
	}
	b, err := BuildGrid(9, 35, center)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("topology differs between builds (-first +second):\n%s", diff)
	}
}

func TestBuildGrid_SlotOrigins(t *testing.T) {
	topo, _ := BuildGrid(5, 4, mgl32.Vec3{})
	for i, s := range topo.Springs {
		if int(s.Origin) != i/SpringsPerVertex {
			t.Fatalf("slot %d: origin %d, want %d", i, s.Origin, i/SpringsPerVertex)
		}
	}
}

func TestBuildGrid_RestLengths(t *testing.T) {
	topo, _ := BuildGrid(6, 35, mgl32.Vec3{})
	unit := topo.Unit()
	want := map[Category]float32{
		Structural: unit,
		Shear:      unit * float32(math.Sqrt2),
		Bend:       unit * 2,
	}

	for i, s := range topo.Springs {
		c := CategoryOf(i % SpringsPerVertex)
		if math.Abs(float64(s.RestLength-want[c])) > 1e-5 {
			t.Fatalf("slot %d (%s): rest %f, want %f", i, c, s.RestLength, want[c])
		}
	}
}

func TestBuildGrid_RestMatchesGeometry(t *testing.T) {
	topo, _ := BuildGrid(8, 12, mgl32.Vec3{0, 3, 0})
	for _, s := range topo.Springs {
		if !topo.Valid(s) {
			continue
		}
		d := topo.Positions[s.Neighbor].Sub(topo.Positions[s.Origin]).Len()
		if math.Abs(float64(d-s.RestLength)) > 1e-4 {
			t.Fatalf("spring %d->%d: distance %f, rest %f", s.Origin, s.Neighbor, d, s.RestLength)
		}
	}
}

func TestBuildGrid_ThreeByThree(t *testing.T) {
	topo, err := BuildGrid(3, 2, mgl32.Vec3{})
	if err != nil {
		t.Fatal(err)
	}
	if topo.Unit() != 1 {
		t.Fatalf("expected unit 1, got %f", topo.Unit())
	}

	springs := topo.SpringsOf(4)
	neighbors := make([]uint32, len(springs))
	for i, s := range springs {
		neighbors[i] = s.Neighbor
	}

	sentinel := topo.Sentinel()
	want := []uint32{
		3, 1, 5, 7,
		0, 6, 8, 2,
		sentinel, sentinel, sentinel, sentinel,
	}
	if diff := cmp.Diff(want, neighbors); diff != "" {
		t.Errorf("neighbors of vertex 4 (-want +got):\n%s", diff)
	}

	for k, s := range springs {
		var rest float32
		switch CategoryOf(k) {
		case Structural:
			rest = 1
		case Shear:
			rest = float32(math.Sqrt2)
		case Bend:
			rest = 2
		}
		if math.Abs(float64(s.RestLength-rest)) > 1e-6 {
			t.Errorf("slot %d: rest %f, want %f", k, s.RestLength, rest)
		}
	}
}

func TestBuildGrid_Sentinels(t *testing.T) {
	for _, r := range []uint32{2, 3, 5, 10} {
		topo, _ := BuildGrid(r, 1, mgl32.Vec3{})
		last := int(r) - 1
		corners := []int{0, last, last * int(r), int(r*r) - 1}
		for _, v := range corners {
			if got := topo.SentinelCount(v); got < 6 {
				t.Errorf("R=%d corner %d: %d sentinel slots, want at least 6", r, v, got)
			}
		}
	}

	topo, _ := BuildGrid(7, 1, mgl32.Vec3{})
	for row := 2; row <= 4; row++ {
		for col := 2; col <= 4; col++ {
			v := row*7 + col
			if got := topo.SentinelCount(v); got != 0 {
				t.Errorf("interior vertex (%d,%d): %d sentinel slots", row, col, got)
			}
		}
	}
}

func TestBuildGrid_Positions(t *testing.T) {
	center := mgl32.Vec3{0, 10, 0}
	topo, _ := BuildGrid(25, 35, center)

	first := topo.Positions[0]
	last := topo.Positions[len(topo.Positions)-1]
	if !first.ApproxEqualThreshold(mgl32.Vec3{-17.5, 10, -17.5}, 1e-4) {
		t.Errorf("unexpected first vertex %v", first)
	}
	if !last.ApproxEqualThreshold(mgl32.Vec3{17.5, 10, 17.5}, 1e-4) {
		t.Errorf("unexpected last vertex %v", last)
	}
	if topo.UVs[0] != (mgl32.Vec2{0, 0}) || !topo.UVs[len(topo.UVs)-1].ApproxEqual(mgl32.Vec2{1, 1}) {
		t.Errorf("unexpected uv range %v .. %v", topo.UVs[0], topo.UVs[len(topo.UVs)-1])
	}
}

func TestBuildGrid_Winding(t *testing.T) {
	topo, _ := BuildGrid(4, 3, mgl32.Vec3{})
	for i := 0; i < len(topo.Indices); i += 3 {
		a := topo.Positions[topo.Indices[i]]
		b := topo.Positions[topo.Indices[i+1]]
		c := topo.Positions[topo.Indices[i+2]]
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Y() <= 0 {
			t.Fatalf("triangle %d normal %v does not face +Y", i/3, n)
		}
	}
}

func TestValidSprings(t *testing.T) {
	topo, _ := BuildGrid(4, 1, mgl32.Vec3{})
	got := topo.ValidSprings()
	// links are counted from both ends
	want := [3]int{2 * 2 * 4 * 3, 2 * 2 * 3 * 3, 2 * 2 * 4 * 2}
	if got != want {
		t.Errorf("ValidSprings() = %v, want %v", got, want)
	}
}

func TestCategoryOf(t *testing.T) {
	for slot := 0; slot < SpringsPerVertex; slot++ {
		var want Category
		switch {
		case slot < 4:
			want = Structural
		case slot < 8:
			want = Shear
		default:
			want = Bend
		}
		if got := CategoryOf(slot); got != want {
			t.Errorf("CategoryOf(%d) = %s, want %s", slot, got, want)
		}
	}
}

func TestEdges(t *testing.T) {
	topo, _ := BuildGrid(5, 1, mgl32.Vec3{})
	edges := topo.Edges()
	if want := 2 * 5 * 4; len(edges) != want {
		t.Fatalf("expected %d edges, got %d", want, len(edges))
	}
	seen := make(map[[2]uint32]bool)
	for _, e := range edges {
		if e[0] >= e[1] {
			t.Errorf("edge %v is not forward", e)
		}
		if seen[e] {
			t.Errorf("duplicate edge %v", e)
		}
		seen[e] = true
	}
}
