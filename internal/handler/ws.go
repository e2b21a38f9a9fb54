package handler

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"archivum/internal/domain"
	"archivum/internal/layout"
	"archivum/internal/metrics"
	"archivum/internal/service"
)

const (
	// writeWait bounds a single frame write before the session is torn down.
	writeWait = 10 * time.Second

	// pongWait is how long a client may stay silent before the read fails.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// sessionFrameBuffer absorbs snapshot bursts per session. When a client
	// cannot drain it, newer snapshots are dropped; each one is complete, so
	// the next delivered frame supersedes everything missed.
	sessionFrameBuffer = 16
)

// Envelope frame types. Server to client: graph, nodes_tick, done.
// Client to server: update_node, restart, stop.
const (
	TypeGraph      = "graph"
	TypeNodesTick  = "nodes_tick"
	TypeDone       = "done"
	TypeUpdateNode = "update_node"
	TypeRestart    = "restart"
	TypeStop       = "stop"
)

// seedRing requests a ring seed on restart instead of the default spiral.
const seedRing = "ring"

// Envelope is the JSON frame exchanged over a layout session. Type selects
// which of the optional fields are meaningful.
type Envelope struct {
	Type string `json:"type"`

	// Server to client: the renderer bootstrap (graph + seeded nodes) and
	// per-tick position snapshots.
	Graph *domain.Graph `json:"graph,omitempty"`
	Nodes []layout.Node `json:"nodes,omitempty"`

	// Client to server: one authoritative node position. Dragged carries
	// the id of the node held by the pointer, nil once it is released.
	Update  *layout.NodeUpdate `json:"update,omitempty"`
	Dragged *int64             `json:"dragged,omitempty"`

	// Client to server: seed shape for a restart.
	Seed string `json:"seed,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// LayoutSessions upgrades /ws/layout connections and runs one layout engine
// per connected visualization session. Sessions are tracked so server
// shutdown can close every engine.
type LayoutSessions struct {
	svc     *service.GraphService
	bus     *service.EventBus
	params  layout.Params
	spacing float64

	mu       sync.Mutex
	sessions map[string]*layoutSession
}

// NewLayoutSessions creates the session manager. params tunes every engine;
// spacing tunes the seed spread.
func NewLayoutSessions(svc *service.GraphService, bus *service.EventBus, params layout.Params, spacing float64) *LayoutSessions {
	return &LayoutSessions{
		svc:      svc,
		bus:      bus,
		params:   params,
		spacing:  spacing,
		sessions: make(map[string]*layoutSession),
	}
}

// Count returns the number of live sessions.
func (m *LayoutSessions) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CloseAll tears down every live session. Used on server shutdown so no
// engine goroutine outlives the HTTP server.
func (m *LayoutSessions) CloseAll() {
	m.mu.Lock()
	sessions := make([]*layoutSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}

func (m *LayoutSessions) add(s *layoutSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.id] = s
}

func (m *LayoutSessions) remove(s *layoutSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, s.id)
}

// layoutSession is one connected visualization client: its socket, its
// engine controller, and the frame queue between them.
type layoutSession struct {
	id     string
	conn   *websocket.Conn
	ctrl   *layout.Controller
	frames chan Envelope

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// close ends the session. The read pump unblocks via the closed conn and the
// handler's teardown path does the rest.
func (s *layoutSession) close() {
	s.closeOnce.Do(func() {
		s.cancel()
		s.conn.Close()
	})
}

// ServeHTTP upgrades the connection and runs the session until the client
// disconnects or the server shuts down.
// GET /ws/layout
func (m *LayoutSessions) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Layout session upgrade failed: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	session := &layoutSession{
		id:     uuid.NewString(),
		conn:   conn,
		frames: make(chan Envelope, sessionFrameBuffer),
		ctx:    ctx,
		cancel: cancel,
	}

	session.ctrl = layout.NewController(m.params,
		func(nodes []layout.Node) {
			// Never block the engine pump: a full queue drops this
			// snapshot and the drop is visible in metrics.
			select {
			case session.frames <- Envelope{Type: TypeNodesTick, Nodes: nodes}:
			default:
				metrics.LayoutSnapshotsDropped.Inc()
			}
		},
		func() {
			select {
			case session.frames <- Envelope{Type: TypeDone}:
			case <-ctx.Done():
			}
		},
	)

	m.add(session)
	metrics.LayoutSessionsActive.Inc()
	metrics.LayoutSessionsTotal.Inc()
	log.Printf("Layout session %s connected from %s", session.id, r.RemoteAddr)

	events := make(chan service.Event, 64)
	m.bus.Subscribe(events)

	defer func() {
		m.remove(session)
		m.bus.Unsubscribe(events)
		session.close()
		session.ctrl.Close()
		metrics.LayoutSessionsActive.Dec()
		log.Printf("Layout session %s closed", session.id)
	}()

	go session.writePump()
	go m.watchGraphEvents(session, events)

	if !m.restart(session, "") {
		return
	}

	m.readPump(session)
}

// restart loads the current graph, seeds it, ships the renderer bootstrap,
// and (re)starts the engine. Used for the initial load, client-requested
// restarts, and graph-change events. Returns false when the graph cannot be
// loaded.
func (m *LayoutSessions) restart(s *layoutSession, seed string) bool {
	graph, err := m.svc.LayoutGraph(s.ctx)
	if err != nil {
		log.Printf("Layout session %s: failed to load graph: %v", s.id, err)
		return false
	}

	nodes := domain.LayoutNodes(graph)
	var seeded []layout.Node
	switch seed {
	case seedRing:
		seeded = layout.SeedRing(nodes, m.spacing)
	default:
		seeded = layout.SeedSpiral(nodes, m.spacing)
	}

	select {
	case s.frames <- Envelope{Type: TypeGraph, Graph: graph, Nodes: seeded}:
	case <-s.ctx.Done():
		return false
	}

	s.ctrl.Start(seeded)
	return true
}

// readPump applies client envelopes to the engine until the connection
// drops. Malformed or unknown envelopes are logged and skipped; they never
// end the session.
func (m *LayoutSessions) readPump(s *layoutSession) {
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var env Envelope
		if err := s.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("Layout session %s read error: %v", s.id, err)
			}
			return
		}

		switch env.Type {
		case TypeUpdateNode:
			if env.Update == nil {
				log.Printf("Layout session %s: update_node without update, skipping", s.id)
				continue
			}
			metrics.LayoutDragUpdates.Inc()
			if env.Dragged != nil {
				s.ctrl.Drag(env.Update.ID, env.Update.X, env.Update.Y)
			} else {
				s.ctrl.Release(env.Update.ID, env.Update.X, env.Update.Y)
			}

		case TypeRestart:
			if !m.restart(s, env.Seed) {
				return
			}

		case TypeStop:
			s.ctrl.Stop()

		default:
			log.Printf("Layout session %s: unknown message type %q, skipping", s.id, env.Type)
		}
	}
}

// writePump owns all writes on the socket: queued frames plus keep-alive
// pings. It exits when the session context ends or a write fails.
func (s *layoutSession) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case env := <-s.frames:
			start := time.Now()
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(env); err != nil {
				s.close()
				return
			}
			if env.Type == TypeNodesTick {
				metrics.LayoutTicksRelayed.Inc()
				metrics.LayoutSnapshotWriteSeconds.Observe(time.Since(start).Seconds())
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.close()
				return
			}

		case <-s.ctx.Done():
			return
		}
	}
}

// watchGraphEvents restarts the session whenever the archive graph changes,
// so every connected view converges on the fresh node set.
func (m *LayoutSessions) watchGraphEvents(s *layoutSession, events <-chan service.Event) {
	for {
		select {
		case ev := <-events:
			if !ev.Type.GraphChanged() {
				continue
			}
			if !m.restart(s, "") {
				return
			}

		case <-s.ctx.Done():
			return
		}
	}
}
