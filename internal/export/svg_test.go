package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/viz"
)

func TestCanvasToSVG(t *testing.T) {
	if CanvasToSVG(nil, 1) != "" {
		t.Error("expected empty output for nil canvas")
	}
	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	svg := CanvasToSVG(c, 2)
	if n := strings.Count(svg, "<circle"); n != 2 {
		t.Errorf("expected 2 dots, got %d", n)
	}
	if !strings.Contains(svg, `width="8" height="8"`) {
		t.Errorf("unexpected header: %s", svg[:120])
	}
}

func TestWriteMeshSVG(t *testing.T) {
	topo, _ := cloth.BuildGrid(4, 35, mgl32.Vec3{0, 10, 0})
	var buf bytes.Buffer
	if err := WriteMeshSVG(&buf, topo, topo.Positions, cloth.DefaultSphere(), MeshOptions{}); err != nil {
		t.Fatal(err)
	}
	svg := buf.String()
	if n := strings.Count(svg, "<line"); n != len(topo.Edges()) {
		t.Errorf("expected %d lines, got %d", len(topo.Edges()), n)
	}
	if !strings.Contains(svg, `fill="#6a994e"`) {
		t.Error("missing sphere")
	}
	if !strings.HasSuffix(svg, "</svg>") {
		t.Error("unterminated svg")
	}

	if err := WriteMeshSVG(&buf, topo, topo.Positions[:3], cloth.DefaultSphere(), MeshOptions{}); err == nil {
		t.Error("expected error for short positions")
	}
}

func TestSeriesToSVG(t *testing.T) {
	if SeriesToSVG([]float64{1}, []float64{1}, 10, 10, "red") != "" {
		t.Error("expected empty output for a single point")
	}
	svg := SeriesToSVG([]float64{0, 1, 2}, []float64{5, 5, 5}, 100, 50, "red")
	if !strings.Contains(svg, "M0.0,") || strings.Count(svg, " L") != 2 {
		t.Errorf("unexpected path: %s", svg)
	}
}
