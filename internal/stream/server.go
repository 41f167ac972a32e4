// Package stream serves a running cloth to browsers over websockets.
//
// A client receives one JSON mesh message on connect, then binary frames in
// the layout frame encoding. Clients may send {"pause": bool}.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/layout"
)

const writeTimeout = 2 * time.Second

// Source is the stepping side of a stream.
type Source interface {
	Name() string
	Step(dt float32) error
	Positions() []mgl32.Vec3
	Frame() uint64
}

// MeshMessage describes the static part of the cloth.
type MeshMessage struct {
	Type         string     `json:"type"`
	Backend      string     `json:"backend"`
	Resolution   uint32     `json:"resolution"`
	VertexCount  int        `json:"vertexCount"`
	Indices      []uint32   `json:"indices"`
	UVs          []float32  `json:"uvs"`
	SphereCenter [3]float32 `json:"sphereCenter"`
	SphereRadius float32    `json:"sphereRadius"`
	FrameHeader  int        `json:"frameHeader"`
}

// Control is a client request.
type Control struct {
	Pause *bool `json:"pause,omitempty"`
}

// Status is served at /status.
type Status struct {
	Backend string  `json:"backend"`
	Frame   uint64  `json:"frame"`
	Time    float64 `json:"time"`
	Clients int     `json:"clients"`
	Paused  bool    `json:"paused"`
	Error   string  `json:"error,omitempty"`
}

type Server struct {
	src    Source
	mesh   []byte
	dt     float32
	period time.Duration
	log    *zap.Logger

	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex
	last    *[]byte
	simTime float64
	err     error

	paused atomic.Bool
	frames sync.Pool
}

// New builds a server streaming src at fps frames per second.
func New(src Source, topo *cloth.Topology, sphere cloth.Sphere, dt float32, fps int, log *zap.Logger) (*Server, error) {
	if fps <= 0 {
		return nil, errors.New("stream: fps must be positive")
	}
	if log == nil {
		log = zap.NewNop()
	}
	uvs := make([]float32, 0, 2*len(topo.UVs))
	for _, uv := range topo.UVs {
		uvs = append(uvs, uv[0], uv[1])
	}
	mesh, err := json.Marshal(MeshMessage{
		Type:         "mesh",
		Backend:      src.Name(),
		Resolution:   topo.Resolution,
		VertexCount:  topo.VertexCount(),
		Indices:      topo.Indices,
		UVs:          uvs,
		SphereCenter: sphere.Center,
		SphereRadius: sphere.Radius,
		FrameHeader:  layout.FrameHeaderSize,
	})
	if err != nil {
		return nil, err
	}

	size := layout.FrameHeaderSize + topo.VertexCount()*layout.VertexStride
	s := &Server{
		src:     src,
		mesh:    mesh,
		dt:      dt,
		period:  time.Second / time.Duration(fps),
		log:     log,
		clients: make(map[*websocket.Conn]*sync.Mutex),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.frames.New = func() any {
		b := make([]byte, 0, size)
		return &b
	}
	s.publish()
	return s, nil
}

// Handler routes /ws and /status.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/status", s.handleStatus)
	return mux
}

// Run steps and broadcasts until ctx is done or the source fails.
func (s *Server) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return ctx.Err()
		case <-ticker.C:
		}
		if s.paused.Load() {
			continue
		}
		if err := s.src.Step(s.dt); err != nil {
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
			s.log.Error("stream step failed", zap.Uint64("frame", s.src.Frame()), zap.Error(err))
			s.closeAll()
			return err
		}
		s.mu.Lock()
		s.simTime += float64(s.dt)
		s.mu.Unlock()
		s.publish()
		s.broadcast()
	}
}

// publish encodes the committed frame into a pooled buffer and makes it the
// latest.
func (s *Server) publish() {
	buf := s.frames.Get().(*[]byte)
	s.mu.RLock()
	t := s.simTime
	s.mu.RUnlock()
	*buf = layout.AppendFrame((*buf)[:0], s.src.Frame(), t, s.src.Positions())

	s.mu.Lock()
	prev := s.last
	s.last = buf
	s.mu.Unlock()
	if prev != nil {
		s.frames.Put(prev)
	}
}

func (s *Server) broadcast() {
	s.mu.RLock()
	frame := *s.last
	var dead []*websocket.Conn
	for conn, wmu := range s.clients {
		if err := write(conn, wmu, websocket.BinaryMessage, frame); err != nil {
			s.log.Debug("stream client dropped", zap.String("remote", conn.RemoteAddr().String()), zap.Error(err))
			dead = append(dead, conn)
		}
	}
	s.mu.RUnlock()

	if len(dead) > 0 {
		s.mu.Lock()
		for _, conn := range dead {
			delete(s.clients, conn)
			conn.Close()
		}
		s.mu.Unlock()
	}
}

func write(conn *websocket.Conn, wmu *sync.Mutex, kind int, data []byte) error {
	wmu.Lock()
	defer wmu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(kind, data)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	wmu := &sync.Mutex{}
	if err := write(conn, wmu, websocket.TextMessage, s.mesh); err != nil {
		return
	}
	// the latest frame goes out before the client joins the broadcast set
	s.mu.Lock()
	if err := write(conn, wmu, websocket.BinaryMessage, *s.last); err != nil {
		s.mu.Unlock()
		return
	}
	s.clients[conn] = wmu
	s.mu.Unlock()
	s.log.Info("stream client connected", zap.String("remote", r.RemoteAddr))

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
	}()

	for {
		var msg Control
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Pause != nil {
			s.paused.Store(*msg.Pause)
			s.log.Info("stream pause", zap.Bool("paused", *msg.Pause))
		}
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.Status())
}

func (s *Server) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Status{
		Backend: s.src.Name(),
		Frame:   layout.FrameCounter(*s.last),
		Time:    s.simTime,
		Clients: len(s.clients),
		Paused:  s.paused.Load(),
	}
	if s.err != nil {
		st.Error = s.err.Error()
	}
	return st
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn, wmu := range s.clients {
		wmu.Lock()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeTimeout))
		wmu.Unlock()
		conn.Close()
		delete(s.clients, conn)
	}
}
