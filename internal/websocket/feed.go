// Package websocket broadcasts live chart updates and notifications to
// connected presentation clients.
package websocket

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/netlens/netlens/internal/logging"
	"github.com/netlens/netlens/internal/notify"
	"github.com/netlens/netlens/pkg/types"
)

type Feed struct {
	upgrader       websocket.Upgrader
	clients        map[*websocket.Conn]*clientConn
	allowedOrigins []string
	pingInterval   time.Duration
	stopCh         chan struct{}
	stopOnce       sync.Once
	wg             sync.WaitGroup
	mu             sync.RWMutex
}

type clientConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *clientConn) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteMessage(messageType, data)
}

func NewFeed() *Feed {
	feed := &Feed{
		clients:      make(map[*websocket.Conn]*clientConn),
		pingInterval: 30 * time.Second,
		stopCh:       make(chan struct{}),
	}
	feed.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return feed.isAllowedOrigin(r.Header.Get("Origin"), r.Host)
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	feed.startPingLoop()
	return feed
}

func (f *Feed) SetAllowedOrigins(origins []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allowedOrigins = origins
}

// Handle upgrades the request and keeps the connection registered until the
// client disconnects. The feed only reads for disconnect detection.
func (f *Feed) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("chart feed upgrade failed", logging.Field{Key: "error", Value: err})
		return
	}
	defer conn.Close()

	conn.SetReadLimit(4096)

	client := &clientConn{conn: conn}
	f.mu.Lock()
	f.clients[conn] = client
	f.mu.Unlock()

	greeting, _ := json.Marshal(map[string]interface{}{
		"type": "connected",
		"time": time.Now().Unix(),
	})
	if err := client.writeMessage(websocket.TextMessage, greeting); err != nil {
		f.removeClient(conn)
		return
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	f.removeClient(conn)
}

type feedMessage struct {
	Type   string            `json:"type"`
	Point  *types.ChartPoint `json:"point,omitempty"`
	Notice *notify.Notice    `json:"notice,omitempty"`
	Time   int64             `json:"time"`
}

// ChartUpdate implements session.Listener: every accepted sample and phase
// summary is pushed to all connected clients.
func (f *Feed) ChartUpdate(p types.ChartPoint) {
	msgType := "sample"
	if p.Summary {
		msgType = "summary"
	}
	f.broadcast(feedMessage{
		Type:  msgType,
		Point: &p,
		Time:  time.Now().Unix(),
	})
}

// Notify implements notify.Sink so transient notices reach the chart UI.
func (f *Feed) Notify(n notify.Notice) {
	f.broadcast(feedMessage{
		Type:   "notice",
		Notice: &n,
		Time:   time.Now().Unix(),
	})
}

func (f *Feed) broadcast(msg feedMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		logging.Warn("chart feed marshal failed", logging.Field{Key: "error", Value: err})
		return
	}

	f.mu.RLock()
	clients := make([]*clientConn, 0, len(f.clients))
	for _, client := range f.clients {
		clients = append(clients, client)
	}
	f.mu.RUnlock()

	for _, client := range clients {
		if err := client.writeMessage(websocket.TextMessage, data); err != nil {
			f.removeClient(client.conn)
			client.conn.Close()
		}
	}
}

func (f *Feed) removeClient(conn *websocket.Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.clients, conn)
}

func (f *Feed) ClientCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

func (f *Feed) isAllowedOrigin(origin, host string) bool {
	f.mu.RLock()
	origins := f.allowedOrigins
	f.mu.RUnlock()

	if len(origins) == 0 {
		// Same-host only when no explicit allowlist is configured.
		parsed, err := url.Parse(origin)
		if err != nil || parsed.Host == "" {
			return origin == ""
		}
		return strings.EqualFold(parsed.Host, host)
	}
	for _, allowed := range origins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func (f *Feed) startPingLoop() {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		ticker := time.NewTicker(f.pingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-f.stopCh:
				return
			case <-ticker.C:
				f.pingClients()
			}
		}
	}()
}

func (f *Feed) pingClients() {
	f.mu.RLock()
	clients := make([]*clientConn, 0, len(f.clients))
	for _, client := range f.clients {
		clients = append(clients, client)
	}
	f.mu.RUnlock()

	for _, client := range clients {
		if err := client.writeMessage(websocket.PingMessage, nil); err != nil {
			f.removeClient(client.conn)
			client.conn.Close()
		}
	}
}

func (f *Feed) Close() {
	f.stopOnce.Do(func() {
		close(f.stopCh)
	})
	f.wg.Wait()
}
