package transport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oceanlight-game/server/internal/v1/protocol"
	"github.com/oceanlight-game/server/internal/v1/types"
)

// writtenFrame is one frame captured by fakeConn's write side.
type writtenFrame struct {
	messageType int
	data        []byte
}

type inboundFrame struct {
	messageType int
	data        []byte
}

// fakeConn implements wsConnection without a socket. The read side is fed
// through a channel; closing the conn unblocks ReadMessage with an error.
type fakeConn struct {
	mu      sync.Mutex
	writes  []writtenFrame
	closed  bool
	inbound chan inboundFrame
	done    chan struct{}

	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan inboundFrame, 16),
		done:    make(chan struct{}),
	}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case frame, ok := <-f.inbound:
		if !ok {
			return 0, nil, errors.New("inbound closed")
		}
		return frame.messageType, frame.data, nil
	case <-f.done:
		return 0, nil, errors.New("connection closed")
	}
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("write on closed connection")
	}
	f.writes = append(f.writes, writtenFrame{messageType: messageType, data: data})
	return nil
}

func (f *fakeConn) Close() error {
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.closed = true
		f.mu.Unlock()
		close(f.done)
	})
	return nil
}

func (f *fakeConn) SetWriteDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (f *fakeConn) SetReadLimit(int64)                {}
func (f *fakeConn) SetPongHandler(func(string) error) {}

func (f *fakeConn) writtenFrames() []writtenFrame {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]writtenFrame, len(f.writes))
	copy(out, f.writes)
	return out
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// fakeRoom implements types.Roomer and records what the pumps hand it.
type fakeRoom struct {
	mu       sync.Mutex
	messages []protocol.Message
	removed  []types.PlayerIdType

	addPlayerID  types.PlayerIdType
	addPlayerErr error
}

func (r *fakeRoom) GetID() types.RoomIdType { return "ocean_fake" }

func (r *fakeRoom) AddPlayer(types.ClientSender, types.DisplayNameType) (types.PlayerIdType, error) {
	return r.addPlayerID, r.addPlayerErr
}

func (r *fakeRoom) RemovePlayer(_ context.Context, id types.PlayerIdType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, id)
}

func (r *fakeRoom) HandleMessage(_ context.Context, _ types.PlayerIdType, msg protocol.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *fakeRoom) handledMessages() []protocol.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]protocol.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

func (r *fakeRoom) removedPlayers() []types.PlayerIdType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.PlayerIdType, len(r.removed))
	copy(out, r.removed)
	return out
}
