package transport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oceanlight-game/server/internal/v1/logging"
	"github.com/oceanlight-game/server/internal/v1/metrics"
	"github.com/oceanlight-game/server/internal/v1/protocol"
	"github.com/oceanlight-game/server/internal/v1/types"
	"go.uber.org/zap"
)

const (
	// writeWait bounds a single write to the peer.
	writeWait = 10 * time.Second

	// pongWait is how long the connection survives without a pong or an
	// inbound frame before the read side gives up. Generous, because a
	// browser tab in the background throttles timers hard.
	pongWait = 120 * time.Second

	// pingPeriod must be well under pongWait so the peer always has a
	// ping to answer before the deadline hits.
	pingPeriod = 54 * time.Second

	// maxMessageSize caps one inbound frame. Client messages are small;
	// the host's NPC snapshot is the largest legitimate frame and fits
	// comfortably under 64KiB.
	maxMessageSize = 64 * 1024
)

var errClientGone = errors.New("client connection is closed")

// wsConnection is the subset of *websocket.Conn the client uses, split out
// so tests can drive the pumps without a real socket.
type wsConnection interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
	SetWriteDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
}

// Client owns one player's WebSocket connection. It implements
// types.ClientSender: the room hands it encoded frames, and the pumps move
// them to and from the wire.
//
// Two outbound queues give lifecycle frames (welcome, join/leave, host
// changes, map changes) a lane that position batches cannot starve. The
// droppable queue sheds the oldest frame under backpressure, since a stale
// position batch is worthless once a newer one exists.
type Client struct {
	conn     wsConnection
	room     types.Roomer
	playerID types.PlayerIdType

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once

	send         chan []byte // droppable: position batches, relays, chat
	prioritySend chan []byte // lifecycle frames, never silently dropped
}

func newClient(conn wsConnection, r types.Roomer) *Client {
	return &Client{
		conn:         conn,
		room:         r,
		send:         make(chan []byte, 256),
		prioritySend: make(chan []byte, 64),
	}
}

// Send queues a frame on the droppable lane. When the queue is full the
// oldest queued frame is discarded to make room; only a queue that stays
// full through both attempts loses the new frame.
func (c *Client) Send(frame []byte) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return errClientGone
	}
	c.mu.RUnlock()

	// Disconnect can close the channel between the flag check and the
	// send below.
	defer func() {
		if r := recover(); r != nil {
			logging.GetLogger().Debug("Send raced client disconnect", zap.Any("panic", r))
		}
	}()

	select {
	case c.send <- frame:
		return nil
	default:
	}

	select {
	case <-c.send:
		metrics.DroppedFrames.WithLabelValues("send").Inc()
	default:
	}

	select {
	case c.send <- frame:
		return nil
	default:
		metrics.DroppedFrames.WithLabelValues("send").Inc()
		return errors.New("send queue full")
	}
}

// SendPriority queues a lifecycle frame. The queue is bounded, so a peer
// that cannot drain it in time loses the frame with an error rather than
// blocking the room; the caller logs and the readPump's deadline will
// reap the connection shortly after.
func (c *Client) SendPriority(frame []byte) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return errClientGone
	}
	c.mu.RUnlock()

	defer func() {
		if r := recover(); r != nil {
			logging.GetLogger().Debug("SendPriority raced client disconnect", zap.Any("panic", r))
		}
	}()

	select {
	case c.prioritySend <- frame:
		return nil
	default:
		metrics.DroppedFrames.WithLabelValues("priority").Inc()
		return errors.New("priority queue full")
	}
}

// Disconnect closes the outbound queues, which makes the writePump drain,
// send a close frame, and tear down the connection.
func (c *Client) Disconnect() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.send)
		close(c.prioritySend)
	})
}

// readPump owns the read side of the connection. It decodes each text
// frame and hands it to the room; decode never fails, so malformed input
// reaches the room as an Invalid message and is handled there. Exit, for
// any reason, removes the player from the room.
func (c *Client) readPump() {
	defer func() {
		c.room.RemovePlayer(context.Background(), c.playerID)
		c.Disconnect()
		c.conn.Close()
		metrics.DecConnection()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.GetLogger().Debug("WebSocket closed unexpectedly",
					zap.Int("player_id", int(c.playerID)), zap.Error(err))
			}
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		c.room.HandleMessage(context.Background(), c.playerID, protocol.Decode(data))
	}
}

// writePump owns the write side of the connection. The priority queue is
// drained ahead of the droppable one so lifecycle frames are never stuck
// behind a backlog of position batches.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.prioritySend:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if !c.writeFrame(frame) {
				return
			}
		default:
		}

		select {
		case frame, ok := <-c.prioritySend:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if !c.writeFrame(frame) {
				return
			}
		case frame, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if !c.writeFrame(frame) {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) writeFrame(frame []byte) bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		logging.Error(context.Background(), "error writing frame",
			zap.Int("player_id", int(c.playerID)), zap.Error(err))
		return false
	}
	return true
}
