package room

import (
	"context"
	"sync"
	"testing"

	"github.com/oceanlight-game/server/internal/v1/protocol"
	"github.com/oceanlight-game/server/internal/v1/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// sentFrame is one frame captured by mockConn, with the queue it went to.
type sentFrame struct {
	data     []byte
	priority bool
}

// mockConn implements types.ClientSender and records every frame so tests
// can assert on exactly what the room sent.
type mockConn struct {
	mu           sync.Mutex
	frames       []sentFrame
	failSends    bool
	disconnected bool
}

func (m *mockConn) Send(frame []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSends {
		return assert.AnError
	}
	m.frames = append(m.frames, sentFrame{data: frame})
	return nil
}

func (m *mockConn) SendPriority(frame []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSends {
		return assert.AnError
	}
	m.frames = append(m.frames, sentFrame{data: frame, priority: true})
	return nil
}

func (m *mockConn) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnected = true
}

func (m *mockConn) isDisconnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disconnected
}

// framesOfType returns every captured frame with the given wire tag,
// parsed for field assertions.
func (m *mockConn) framesOfType(t protocol.MsgType) []gjson.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []gjson.Result
	for _, f := range m.frames {
		parsed := gjson.ParseBytes(f.data)
		if parsed.Get("t").Int() == int64(t) {
			out = append(out, parsed)
		}
	}
	return out
}

func (m *mockConn) countOfType(t protocol.MsgType) int {
	return len(m.framesOfType(t))
}

// lastOfType returns the most recent frame with the given tag.
func (m *mockConn) lastOfType(t protocol.MsgType) (gjson.Result, bool) {
	frames := m.framesOfType(t)
	if len(frames) == 0 {
		return gjson.Result{}, false
	}
	return frames[len(frames)-1], true
}

// wasPriority reports whether the most recent frame with the given tag
// went through the priority queue.
func (m *mockConn) wasPriority(t protocol.MsgType) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.frames) - 1; i >= 0; i-- {
		parsed := gjson.ParseBytes(m.frames[i].data)
		if parsed.Get("t").Int() == int64(t) {
			return m.frames[i].priority
		}
	}
	return false
}

func (m *mockConn) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = nil
}

// newTestRoom creates a room with a slow tick so timing does not bleed
// into dispatch assertions, and tears it down with the test.
func newTestRoom(t *testing.T) *Room {
	t.Helper()
	r := NewRoom(context.Background(), "ocean_test", 10, 1, nil)
	t.Cleanup(func() { r.Destroy("test cleanup") })
	return r
}

// addTestPlayer admits a mock connection and returns both halves.
func addTestPlayer(t *testing.T, r *Room, name string) (*mockConn, int) {
	t.Helper()
	conn := &mockConn{}
	id, err := r.AddPlayer(conn, types.DisplayNameType(name))
	require.NoError(t, err)
	return conn, int(id)
}

func playerID(id int) types.PlayerIdType {
	return types.PlayerIdType(id)
}

// validCreature is a minimal creature that passes validation.
func validCreature() *protocol.Creature {
	return &protocol.Creature{Type: "fish", Class: "tuna", Seed: 7}
}

// joinGame puts the player in game so broadcasts include it.
func joinGame(t *testing.T, r *Room, id int) {
	t.Helper()
	r.HandleMessage(context.Background(), playerID(id), protocol.JoinGame{Creature: validCreature()})
}
