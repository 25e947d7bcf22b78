package room

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// TestDestroyStopsTickGoroutine relies on TestMain's goleak verification:
// a tick loop that outlives Destroy would be reported as a leak.
func TestDestroyStopsTickGoroutine(t *testing.T) {
	r := NewRoom(context.Background(), "ocean_leak", 10, 50, nil)
	_, err := r.AddPlayer(&mockConn{}, "ticker")
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	r.Destroy("test")
}

// TestShutdownStopsSweepGoroutine verifies the manager's background sweep
// and pending cleanup timers do not leak past Shutdown.
func TestShutdownStopsSweepGoroutine(t *testing.T) {
	m := NewManager(context.Background(), 10, 2, 1)
	m.gracePeriod = time.Hour
	extra := m.CreateRoom("ocean_pending")
	id, err := extra.AddPlayer(&mockConn{}, "brief")
	require.NoError(t, err)
	extra.RemovePlayer(context.Background(), id)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))
}
