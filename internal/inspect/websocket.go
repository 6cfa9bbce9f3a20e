package inspect

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/skellyview/pkg/store"
)

// client is one websocket connection. All writes go through send so that
// only the writer goroutine touches the connection for writing.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// handleWebSocket upgrades the connection, greets the client with the
// current snapshot and then streams changes until the client goes away.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	logger := s.logger.With("client", c.id)

	// The snapshot is taken with the client list locked so that every later
	// change reaches the client after its hello.
	s.mu.Lock()
	snap := s.reg.Snapshot()
	hello, err := json.Marshal(Message{Type: MessageHello, ClientID: c.id, Snapshot: &snap})
	if err != nil {
		s.mu.Unlock()
		conn.Close()
		return
	}
	c.send <- hello
	s.clients[c] = true
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.ClientConnected()
	}
	logger.Info("websocket client connected")

	go s.writeLoop(c)
	s.readLoop(c)

	s.removeClient(c)
	logger.Info("websocket client disconnected")
}

// readLoop applies client commands until the connection fails.
func (s *Server) readLoop(c *client) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			s.queue(c, Message{Type: MessageError, Error: "invalid command: " + err.Error()})
			continue
		}
		if msg := s.apply(cmd); msg != "" {
			s.queue(c, Message{Type: MessageError, Error: msg})
		}
	}
}

// apply runs one command against the registry. It returns a non-empty
// message when the command is rejected.
func (s *Server) apply(cmd Command) string {
	switch cmd.Type {
	case CommandTrigger:
		if cmd.Tracker == "" {
			return "trigger needs a tracker"
		}
		s.reg.Fetch().TriggerDataFetch(cmd.Tracker)
	case CommandReset:
		s.reg.Fetch().ResetFetchTracker()
	case CommandFrame:
		if cmd.Frame == nil {
			s.reg.Animation().ClearFrameNumber()
		} else {
			s.reg.Animation().SetFrameNumber(*cmd.Frame)
		}
	case CommandPlay:
		s.reg.Animation().Play()
	case CommandPause:
		s.reg.Animation().Pause()
	default:
		return "unknown command " + string(cmd.Type)
	}
	return ""
}

// writeLoop drains the client's queue onto the connection.
func (s *Server) writeLoop(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

// broadcastChange queues a change for every client. It runs on the
// goroutine that wrote to the store, so it never blocks: clients whose
// queue is full are disconnected.
func (s *Server) broadcastChange(change store.Change) {
	data, err := json.Marshal(Message{Type: MessageChange, Change: &change})
	if err != nil {
		s.logger.Warn("encode change failed", "store", change.Store, "field", change.Field, "error", err)
		return
	}

	s.mu.RLock()
	var slow []*client
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	s.mu.RUnlock()

	for _, c := range slow {
		s.logger.Warn("dropping slow websocket client", "client", c.id)
		s.removeClient(c)
	}
}

// queue sends one message to one client without blocking.
func (s *Server) queue(c *client, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.clients[c] {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// removeClient unregisters c and closes its queue. Safe to call twice.
func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	if !s.clients[c] {
		s.mu.Unlock()
		return
	}
	delete(s.clients, c)
	close(c.send)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ClientDisconnected()
	}
}

// closeClients disconnects every client.
func (s *Server) closeClients() {
	s.mu.RLock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, c := range clients {
		s.removeClient(c)
	}
}
