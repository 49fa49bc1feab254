package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/codesync/codesync/pkg/logger"
	"github.com/gorilla/websocket"
)

const (
	maxMessageSize = 512 * 1024
	pingTime       = pongTime * 9 / 10
	pongTime       = 60 * time.Second
	writeWait      = 10 * time.Second
	sendBuffer     = 256
)

type (
	Upgrader struct {
		websocket.Upgrader
	}
	WSMessageHandler func(message []byte, err error)
)

type WS struct {
	conn deadlinedConn
	send chan []byte

	mu     sync.Mutex
	closed bool

	OnMessage WSMessageHandler

	shutdown *sync.WaitGroup
	Done     chan struct{}

	log *logger.Logger
}

var DefaultUpgrader = Upgrader{websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	WriteBufferPool: &sync.Pool{},
}}

// NewUpgrader returns an upgrader that accepts only the given origin,
// or any origin when it is empty.
func NewUpgrader(origin string) *Upgrader {
	u := DefaultUpgrader
	switch origin {
	case "*":
		u.CheckOrigin = func(r *http.Request) bool { return true }
	case "":
	default:
		u.CheckOrigin = func(r *http.Request) bool { return r.Header.Get("Origin") == origin }
	}
	return &u
}

// NewServer upgrades an HTTP request and wraps the connection.
func NewServer(w http.ResponseWriter, r *http.Request, up *Upgrader, log *logger.Logger) (*WS, error) {
	if up == nil {
		up = &DefaultUpgrader
	}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return newSocket(conn, log), nil
}

func newSocket(conn *websocket.Conn, log *logger.Logger) *WS {
	shut := sync.WaitGroup{}
	shut.Add(2)
	return &WS{
		conn:     deadlinedConn{sock: conn, wt: writeWait},
		send:     make(chan []byte, sendBuffer),
		shutdown: &shut,
		Done:     make(chan struct{}),
		log:      log,
	}
}

// Listen starts the reader and writer pumps.
// The returned channel closes when the connection is gone.
func (ws *WS) Listen() chan struct{} {
	go ws.writer()
	go ws.reader()
	go func() {
		ws.shutdown.Wait()
		close(ws.Done)
	}()
	return ws.Done
}

// Write queues a message for delivery.
// A slow consumer with a full queue loses the message instead of
// stalling the rest of the server, and a connection that is already
// gone swallows it silently: the caller may legitimately race the
// peer's disconnect.
func (ws *WS) Write(data []byte) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.closed {
		return
	}
	select {
	case ws.send <- data:
	default:
		ws.log.Warn().Msg("ws send queue overflow, message dropped")
	}
}

func (ws *WS) Close() {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if !ws.closed {
		ws.closed = true
		close(ws.send)
	}
}

// reader pumps messages from the websocket connection to the OnMessage callback.
// Blocking, must be called as goroutine. Serializes all websocket reads.
func (ws *WS) reader() {
	defer func() {
		ws.Close()
		ws.shutdown.Done()
		_ = ws.conn.close()
	}()
	ws.conn.setup(func(conn *websocket.Conn) {
		conn.SetReadLimit(maxMessageSize)
		_ = conn.SetReadDeadline(time.Now().Add(pongTime))
		conn.SetPongHandler(func(string) error { _ = conn.SetReadDeadline(time.Now().Add(pongTime)); return nil })
	})
	for {
		message, err := ws.conn.read()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				ws.log.Error().Err(err).Msg("ws read fail")
			}
			break
		}
		ws.OnMessage(message, err)
	}
}

// writer pumps messages from the send channel to the websocket connection.
// Blocking, must be called as goroutine. Serializes all websocket writes.
func (ws *WS) writer() {
	ticker := time.NewTicker(pingTime)
	defer func() {
		ticker.Stop()
		ws.shutdown.Done()
		_ = ws.conn.close()
	}()
	for {
		select {
		case message, ok := <-ws.send:
			if !ok {
				_ = ws.conn.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := ws.conn.write(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			if err := ws.conn.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
