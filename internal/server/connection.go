package server

import (
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Watchers only ever send control frames
	maxMessageSize = 512

	sendBuffer = 64
)

// ErrSendQueueFull is returned when a watcher is not keeping up.
var ErrSendQueueFull = errors.New("watcher send queue full")

// Connection is one websocket watcher. A watcher either follows a single
// game, optionally as one of its players, or the public lobby.
type Connection struct {
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}
	gameID   string
	playerID string
	clock    quartz.Clock
	logger   *log.Logger

	closeOnce sync.Once
}

func newConnection(conn *websocket.Conn, gameID, playerID string, clock quartz.Clock, logger *log.Logger) *Connection {
	return &Connection{
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
		gameID:   gameID,
		playerID: playerID,
		clock:    clock,
		logger:   logger,
	}
}

// Lobby reports whether the watcher follows the public lobby.
func (c *Connection) Lobby() bool { return c.gameID == "" }

// Enqueue queues an encoded message without blocking.
func (c *Connection) Enqueue(data []byte) error {
	select {
	case <-c.done:
		return websocket.ErrCloseSent
	default:
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close asks the write pump to send a close frame and release the socket.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	return nil
}

// Done is closed once the connection has shut down.
func (c *Connection) Done() <-chan struct{} { return c.done }

func (c *Connection) start() {
	go c.writePump()
	go c.readPump()
}

// readPump drains control frames so pongs are processed and closes the
// connection when the peer goes away. Socket deadlines are wall clock.
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("Watcher read error", "error", err)
			}
			return
		}
	}
}

func (c *Connection) writePump() {
	ticker := c.clock.NewTicker(pingPeriod, "watcher", "ping")
	defer func() {
		ticker.Stop()
		_ = c.Close()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}
