package render

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/newthinker/botdeck/internal/core"
)

// Stream event types
const (
	EventChart  = "chart"
	EventBar    = "bar"
	EventPanels = "panels"
	EventAlert  = "alert"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	clientBuffer = 32
)

// Event is one message pushed to stream clients.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ClientCounter receives the number of connected clients. metrics.Registry
// implements it.
type ClientCounter interface {
	SetStreamClients(n int)
}

type streamClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *streamClient) close() {
	c.once.Do(func() { close(c.send) })
}

// Stream is a Sink that broadcasts frames to websocket clients. Full
// redraws carry every bar; tick and merge updates carry only the current
// bar. New clients first receive the latest chart, with every incremental
// update folded in, and the latest panels.
type Stream struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger
	counter  ClientCounter

	mu         sync.RWMutex
	clients    map[string]*streamClient
	lastChart  *ChartFrame
	lastPanels []byte
	closed     bool
}

// NewStream creates a websocket broadcaster. A nil counter is allowed.
func NewStream(logger *zap.Logger, counter ClientCounter) *Stream {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stream{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:  logger,
		counter: counter,
		clients: make(map[string]*streamClient),
	}
}

func (s *Stream) RenderChart(frame ChartFrame) {
	s.mu.Lock()
	s.remember(frame)
	s.mu.Unlock()

	if fullRedraws[frame.Reason] {
		s.broadcast(s.encode(Event{Type: EventChart, Data: frame}))
		return
	}

	s.broadcast(s.encode(Event{Type: EventBar, Data: struct {
		BotID     int64          `json:"bot_id"`
		Timeframe core.Timeframe `json:"timeframe"`
		Reason    string         `json:"reason"`
		Bar       core.Bar       `json:"bar"`
	}{frame.BotID, frame.Timeframe, frame.Reason, frame.Current}}))
}

// remember keeps the chart replayed to new clients. Incremental frames
// update the current bar in place. Caller holds mu.
func (s *Stream) remember(frame ChartFrame) {
	last := s.lastChart
	if fullRedraws[frame.Reason] || last == nil || last.BotID != frame.BotID || last.Timeframe != frame.Timeframe {
		kept := frame
		kept.Bars = append([]core.Bar(nil), frame.Bars...)
		s.lastChart = &kept
		return
	}

	n := len(last.Bars)
	switch {
	case n > 0 && last.Bars[n-1].Time == frame.Current.Time:
		last.Bars[n-1] = frame.Current
	case n == 0 || frame.Current.Time > last.Bars[n-1].Time:
		last.Bars = append(last.Bars, frame.Current)
	default:
		return
	}
	last.Current = frame.Current
	last.Reason = frame.Reason
}

func (s *Stream) RenderPanels(frame PanelFrame) {
	data := s.encode(Event{Type: EventPanels, Data: frame})
	s.mu.Lock()
	s.lastPanels = data
	s.mu.Unlock()
	s.broadcast(data)
}

func (s *Stream) RenderAlert(frame AlertFrame) {
	s.broadcast(s.encode(Event{Type: EventAlert, Data: frame}))
}

func (s *Stream) encode(ev Event) []byte {
	data, err := json.Marshal(ev)
	if err != nil {
		s.logger.Error("failed to encode stream event", zap.String("type", ev.Type), zap.Error(err))
		return nil
	}
	return data
}

// broadcast queues data for every client. Clients whose buffer is full are
// dropped rather than allowed to stall the poll loop.
func (s *Stream) broadcast(data []byte) {
	if data == nil {
		return
	}

	s.mu.RLock()
	var slow []*streamClient
	for _, c := range s.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	s.mu.RUnlock()

	for _, c := range slow {
		s.logger.Warn("dropping slow stream client", zap.String("client", c.id))
		s.remove(c)
	}
}

// ServeHTTP upgrades the request and streams events until the client leaves.
func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &streamClient{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, clientBuffer),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	var replay [][]byte
	if s.lastChart != nil {
		replay = append(replay, s.encode(Event{Type: EventChart, Data: *s.lastChart}))
	}
	replay = append(replay, s.lastPanels)
	for _, data := range replay {
		if data != nil {
			c.send <- data
		}
	}
	s.clients[c.id] = c
	n := len(s.clients)
	s.mu.Unlock()

	s.count(n)
	s.logger.Debug("stream client connected", zap.String("client", c.id), zap.String("remote", r.RemoteAddr))

	go s.writeLoop(c)
	s.readLoop(c)
}

// readLoop discards client messages and detects disconnects.
func (s *Stream) readLoop(c *streamClient) {
	defer s.remove(c)

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Stream) writeLoop(c *streamClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.remove(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.remove(c)
				return
			}
		}
	}
}

func (s *Stream) remove(c *streamClient) {
	s.mu.Lock()
	_, ok := s.clients[c.id]
	delete(s.clients, c.id)
	n := len(s.clients)
	s.mu.Unlock()

	if ok {
		c.close()
		s.count(n)
		s.logger.Debug("stream client disconnected", zap.String("client", c.id))
	}
}

func (s *Stream) count(n int) {
	if s.counter != nil {
		s.counter.SetStreamClients(n)
	}
}

// Clients returns the number of connected clients.
func (s *Stream) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Close disconnects every client and refuses new ones.
func (s *Stream) Close() {
	s.mu.Lock()
	s.closed = true
	clients := make([]*streamClient, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.clients = make(map[string]*streamClient)
	s.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	s.count(0)
}
