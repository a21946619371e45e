package live

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"StockDash/internal/observability"
)

const (
	pingEvery   = 45 * time.Second
	readTimeout = 90 * time.Second
	outBuffer   = 256
)

// Channel names used for metrics.
const (
	ChannelLive    = "live"
	ChannelIndices = "indices"
)

// client is one websocket connection with a buffered outbound queue.
type client struct {
	c    *websocket.Conn
	out  chan any
	done chan struct{}
}

// Publish queues v without blocking; a slow client drops messages.
func (cl *client) Publish(v any) {
	select {
	case cl.out <- v:
	default:
	}
}

func (cl *client) writer() {
	ping := time.NewTicker(pingEvery)
	defer ping.Stop()
	for {
		select {
		case v := <-cl.out:
			_ = cl.c.WriteJSON(v)
		case <-ping.C:
			_ = cl.c.WriteMessage(websocket.PingMessage, nil)
		case <-cl.done:
			return
		}
	}
}

// readLoop reads text frames until the connection closes, passing each to fn.
func (cl *client) readLoop(fn func(data []byte)) {
	_ = cl.c.SetReadDeadline(time.Now().Add(readTimeout))
	cl.c.SetPongHandler(func(string) error {
		_ = cl.c.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})
	for {
		mt, data, err := cl.c.ReadMessage()
		if err != nil {
			return
		}
		if mt == websocket.TextMessage {
			fn(data)
		}
	}
}

// ControlMsg is sent by the browser on /ws/live.
type ControlMsg struct {
	Action   string `json:"action"`
	Symbol   string `json:"symbol"`
	Range    string `json:"range"`
	Interval string `json:"interval"`
}

type statusMsg struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// Hub serves the live chart and index strip websockets. Index subscribers
// share one broadcast; every live connection owns exactly one poll context.
type Hub struct {
	Poller  *Poller
	Metrics *observability.Metrics
	// Normalize maps user input to a provider symbol.
	Normalize func(string) string
	// AllowedOrigins lists cross-origin pages that may open a socket.
	// Same-origin requests are always accepted.
	AllowedOrigins []string

	mu      sync.RWMutex
	clients map[*client]struct{}
	latest  *IndexSnapshot
	live    atomic.Int64

	upgradeOnce sync.Once
	upgrader    websocket.Upgrader
}

// NewHub creates a hub around the per-viewer poller.
func NewHub(p *Poller, m *observability.Metrics) *Hub {
	return &Hub{
		Poller:    p,
		Metrics:   m,
		Normalize: strings.ToUpper,
		clients:   make(map[*client]struct{}),
	}
}

// Publish broadcasts v to every index strip subscriber.
func (h *Hub) Publish(v any) {
	if snap, ok := v.(IndexSnapshot); ok {
		h.mu.Lock()
		h.latest = &snap
		h.mu.Unlock()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.Publish(v)
	}
}

// checkOrigin accepts requests without an Origin header, from the serving
// host, or from one of AllowedOrigins.
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range h.AllowedOrigins {
		if strings.EqualFold(strings.TrimSuffix(allowed, "/"), origin) {
			return true
		}
	}
	return false
}

func (h *Hub) upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	h.upgradeOnce.Do(func() {
		h.upgrader = websocket.Upgrader{
			CheckOrigin:       h.checkOrigin,
			EnableCompression: true,
		}
	})
	return h.upgrader.Upgrade(w, r, nil)
}

// LiveViewers returns the number of open live chart connections.
func (h *Hub) LiveViewers() int {
	return int(h.live.Load())
}

// Subscribers returns the number of index strip clients.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeIndices upgrades the request and streams index snapshots.
func (h *Hub) ServeIndices(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrade(w, r)
	if err != nil {
		log.Printf("[WARN] indices upgrade from %s: %v", r.RemoteAddr, err)
		return
	}
	defer conn.Close()
	cl := &client{c: conn, out: make(chan any, outBuffer), done: make(chan struct{})}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	latest := h.latest
	h.mu.Unlock()
	h.Metrics.ClientConnected(ChannelIndices, 1)

	go cl.writer()
	if latest != nil {
		cl.Publish(*latest)
	}
	cl.readLoop(func([]byte) {})

	close(cl.done)
	h.mu.Lock()
	delete(h.clients, cl)
	h.mu.Unlock()
	h.Metrics.ClientConnected(ChannelIndices, -1)
}

// ServeLive upgrades the request and runs the start/stop protocol for one viewer.
func (h *Hub) ServeLive(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrade(w, r)
	if err != nil {
		log.Printf("[WARN] live upgrade from %s: %v", r.RemoteAddr, err)
		return
	}
	defer conn.Close()
	cl := &client{c: conn, out: make(chan any, outBuffer), done: make(chan struct{})}
	h.live.Add(1)
	defer h.live.Add(-1)
	h.Metrics.ClientConnected(ChannelLive, 1)
	defer h.Metrics.ClientConnected(ChannelLive, -1)

	go cl.writer()
	cl.Publish(statusMsg{Kind: "status", Text: "Connected"})

	v := &viewer{hub: h, cl: cl}
	cl.readLoop(func(data []byte) {
		var ctrl ControlMsg
		if err := json.Unmarshal(data, &ctrl); err != nil {
			cl.Publish(statusMsg{Kind: "error", Text: "invalid control message"})
			return
		}
		v.control(r.Context(), ctrl)
	})

	v.halt()
	close(cl.done)
}

// viewer tracks the single poll context of a live connection.
type viewer struct {
	hub    *Hub
	cl     *client
	cancel context.CancelFunc
	result chan Session
}

func (v *viewer) control(ctx context.Context, ctrl ControlMsg) {
	switch strings.ToLower(ctrl.Action) {
	case "start":
		symbol := v.hub.Normalize(strings.TrimSpace(ctrl.Symbol))
		if symbol == "" {
			v.cl.Publish(statusMsg{Kind: "error", Text: "symbol is required"})
			return
		}
		v.halt()
		s := Start(NewSession(symbol, ctrl.Range, ctrl.Interval))
		pctx, cancel := context.WithCancel(ctx)
		v.cancel = cancel
		v.result = make(chan Session, 1)
		go func(result chan<- Session) {
			result <- v.hub.Poller.Run(pctx, s, v.cl)
		}(v.result)
	case "stop":
		s, ok := v.halt()
		if !ok || s.State == Stopped {
			return
		}
		s = Stop(s)
		v.cl.Publish(Event{Kind: EventStopped, Symbol: s.Symbol, State: s.State, Close: s.LastClose, Time: time.Now(), Reason: s.StopReason})
	default:
		log.Printf("[WARN] Unknown live control action %q", ctrl.Action)
		v.cl.Publish(statusMsg{Kind: "error", Text: "unknown action"})
	}
}

// halt cancels the running poll context and waits for its final session.
func (v *viewer) halt() (Session, bool) {
	if v.cancel == nil {
		return Session{}, false
	}
	v.cancel()
	s := <-v.result
	v.cancel, v.result = nil, nil
	return s, true
}
