package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorilla/websocket"
	"go.uber.org/zap/zaptest"

	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/layout"
)

type simSource struct{ *cloth.Simulator }

func (simSource) Name() string { return "cpu" }

func newTestServer(t *testing.T) (*Server, *httptest.Server, *cloth.Topology) {
	t.Helper()
	topo, err := cloth.BuildGrid(5, 35, mgl32.Vec3{0, 12, 0})
	if err != nil {
		t.Fatal(err)
	}
	sim, err := cloth.NewSimulator(topo, cloth.DefaultMaterial(), cloth.DefaultSphere())
	if err != nil {
		t.Fatal(err)
	}
	s, err := New(simSource{sim}, topo, cloth.DefaultSphere(), 1.0/60, 200, zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts, topo
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) (uint64, []mgl32.Vec3) {
	t.Helper()
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if kind != websocket.BinaryMessage {
		t.Fatalf("expected binary frame, got message type %d", kind)
	}
	frame, _, positions, err := layout.DecodeFrame(nil, data)
	if err != nil {
		t.Fatal(err)
	}
	return frame, positions
}

func TestNew_RejectsFPS(t *testing.T) {
	topo, _ := cloth.BuildGrid(2, 1, mgl32.Vec3{})
	sim, _ := cloth.NewSimulator(topo, cloth.DefaultMaterial(), cloth.DefaultSphere())
	if _, err := New(simSource{sim}, topo, cloth.DefaultSphere(), 0.01, 0, nil); err == nil {
		t.Error("expected error for zero fps")
	}
}

func TestStream_MeshThenFrames(t *testing.T) {
	s, ts, topo := newTestServer(t)
	conn := dial(t, ts)

	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if kind != websocket.TextMessage {
		t.Fatalf("expected text mesh message, got type %d", kind)
	}
	var mesh MeshMessage
	if err := json.Unmarshal(data, &mesh); err != nil {
		t.Fatal(err)
	}
	if mesh.Type != "mesh" || mesh.VertexCount != 25 || len(mesh.Indices) != len(topo.Indices) || len(mesh.UVs) != 50 {
		t.Errorf("unexpected mesh message %+v", mesh)
	}
	if mesh.SphereRadius != cloth.DefaultSphereRadius {
		t.Errorf("unexpected sphere radius %f", mesh.SphereRadius)
	}

	frame, positions := readFrame(t, conn)
	if frame != 0 || len(positions) != 25 {
		t.Fatalf("expected initial frame 0 with 25 vertices, got %d with %d", frame, len(positions))
	}
	if positions[0] != topo.Positions[0] {
		t.Errorf("initial frame does not match rest positions")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	var last uint64
	for i := 0; i < 3; i++ {
		f, _ := readFrame(t, conn)
		if f <= last {
			t.Fatalf("frames not increasing: %d after %d", f, last)
		}
		last = f
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestStream_PauseAndStatus(t *testing.T) {
	s, ts, _ := newTestServer(t)
	conn := dial(t, ts)
	conn.ReadMessage()
	readFrame(t, conn)

	paused := true
	if err := conn.WriteJSON(Control{Pause: &paused}); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for !s.Status().Paused {
		if time.Now().After(deadline) {
			t.Fatal("pause never applied")
		}
		time.Sleep(5 * time.Millisecond)
	}

	resp, err := http.Get(ts.URL + "/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var st Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.Backend != "cpu" || st.Clients != 1 || !st.Paused || st.Frame != 0 {
		t.Errorf("unexpected status %+v", st)
	}
}
