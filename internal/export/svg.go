package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/viz"
)

const background = "#0a0a0a"

func header(sb *strings.Builder, width, height int) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

// CanvasToSVG converts a braille canvas to SVG dots, scale pixels per dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}
	w, h := canvas.Dots()

	var sb strings.Builder
	header(&sb, int(float64(w)*scale), int(float64(h)*scale))
	sb.WriteString(`<g fill="#00ff00">` + "\n")
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if canvas.IsSet(x, y) {
				fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n",
					float64(x)*scale+scale/2, float64(y)*scale+scale/2, scale*0.4)
			}
		}
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// MeshOptions controls a wireframe render.
type MeshOptions struct {
	Width, Height int
	Stroke        string
	SphereFill    string
	Camera        *viz.Camera
}

func (o *MeshOptions) defaults(positions []mgl32.Vec3, sphere cloth.Sphere) {
	if o.Width <= 0 {
		o.Width = 800
	}
	if o.Height <= 0 {
		o.Height = 600
	}
	if o.Stroke == "" {
		o.Stroke = "#f2e8cf"
	}
	if o.SphereFill == "" {
		o.SphereFill = "#6a994e"
	}
	if o.Camera == nil {
		o.Camera = viz.FrameScene(positions, sphere)
	}
}

// WriteMeshSVG renders the structural wireframe of positions over the sphere.
func WriteMeshSVG(w io.Writer, topo *cloth.Topology, positions []mgl32.Vec3, sphere cloth.Sphere, opts MeshOptions) error {
	if len(positions) != topo.VertexCount() {
		return fmt.Errorf("export: %d positions for %d vertices", len(positions), topo.VertexCount())
	}
	opts.defaults(positions, sphere)
	p := opts.Camera.Projector(opts.Width, opts.Height)

	var sb strings.Builder
	header(&sb, opts.Width, opts.Height)
	if sphere.Radius > 0 {
		if x, y, depth, _ := p.Project(sphere.Center); depth > 0 {
			fmt.Fprintf(&sb, `<circle cx="%d" cy="%d" r="%d" fill="%s" fill-opacity="0.6"/>`+"\n",
				x, y, p.ScreenRadius(sphere.Radius, depth), opts.SphereFill)
		}
	}

	fmt.Fprintf(&sb, `<g stroke="%s" stroke-width="1" fill="none">`+"\n", opts.Stroke)
	for _, e := range topo.Edges() {
		x0, y0, d0, _ := p.Project(positions[e[0]])
		x1, y1, d1, _ := p.Project(positions[e[1]])
		if d0 <= 0 || d1 <= 0 {
			continue
		}
		fmt.Fprintf(&sb, `<line x1="%d" y1="%d" x2="%d" y2="%d"/>`+"\n", x0, y0, x1, y1)
	}
	sb.WriteString("</g>\n</svg>")

	_, err := io.WriteString(w, sb.String())
	return err
}

// SeriesToSVG plots ys against xs as a single polyline.
func SeriesToSVG(xs, ys []float64, width, height int, strokeColor string) string {
	if len(xs) < 2 || len(xs) != len(ys) {
		return ""
	}

	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := range xs {
		minX, maxX = min(minX, xs[i]), max(maxX, xs[i])
		minY, maxY = min(minY, ys[i]), max(maxY, ys[i])
	}

	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	rangeY *= 1.2

	var sb strings.Builder
	header(&sb, width, height)
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor)
	for i := range xs {
		x := (xs[i] - minX) / rangeX * float64(width)
		y := float64(height) - (ys[i]-minY)/rangeY*float64(height)
		if i > 0 {
			sb.WriteString(" L")
		}
		fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
	}
	sb.WriteString(`"/>` + "\n</svg>")
	return sb.String()
}
