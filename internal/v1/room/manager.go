package room

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oceanlight-game/server/internal/v1/logging"
	"github.com/oceanlight-game/server/internal/v1/metrics"
	"github.com/oceanlight-game/server/internal/v1/types"
	"go.uber.org/zap"
)

const (
	// DefaultCleanupGracePeriod is how long an empty room survives before
	// the delayed re-check destroys it. The window prevents create/destroy
	// thrashing when a single player reconnects.
	DefaultCleanupGracePeriod = 10 * time.Second

	// DefaultSweepInterval is the period of the background sweep that
	// reclaims rooms the grace path missed.
	DefaultSweepInterval = 30 * time.Second

	// nearFullRatio is the fill ratio beyond which a room's placement
	// score is halved, reserving the last slots for friends joining via a
	// preferred room id.
	nearFullRatio = 0.8
)

// Stats is the aggregate view served by GET /stats.
type Stats struct {
	Rooms             int `json:"rooms"`
	Players           int `json:"players"`
	MaxPlayersPerRoom int `json:"maxPlayersPerRoom"`
	MinRooms          int `json:"minRooms"`
}

// Info is one room's entry in the GET /rooms listing.
type Info struct {
	ID         string `json:"id"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	HostID     int    `json:"hostId"`
	WorldSeed  uint32 `json:"worldSeed"`
	NpcSeed    uint32 `json:"npcSeed"`
}

// Manager is the process-wide room directory. It owns creation,
// placement, and reclamation; it never reaches into a room's state beyond
// the room's own accessors, so the manager lock and room locks never
// nest in the dangerous direction.
type Manager struct {
	mu              sync.Mutex
	rooms           map[types.RoomIdType]*Room
	pendingCleanups map[types.RoomIdType]*time.Timer
	nextRoomID      int

	maxPlayersPerRoom int
	minRooms          int
	tickRate          int
	gracePeriod       time.Duration
	sweepInterval     time.Duration

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager creates the directory, pre-creates minRooms rooms, and
// starts the background sweep.
func NewManager(ctx context.Context, maxPlayersPerRoom, minRooms, tickRate int) *Manager {
	m := &Manager{
		rooms:             make(map[types.RoomIdType]*Room),
		pendingCleanups:   make(map[types.RoomIdType]*time.Timer),
		maxPlayersPerRoom: maxPlayersPerRoom,
		minRooms:          minRooms,
		tickRate:          tickRate,
		gracePeriod:       DefaultCleanupGracePeriod,
		sweepInterval:     DefaultSweepInterval,
	}
	m.ctx, m.cancel = context.WithCancel(ctx)

	m.mu.Lock()
	for range minRooms {
		m.createRoomLocked("")
	}
	m.mu.Unlock()

	m.wg.Add(1)
	go m.runSweep()

	return m
}

// FindRoom places a joiner. The preferred room wins when it exists and
// has capacity; otherwise the fullest room with capacity wins, except
// that rooms beyond the near-full ratio have their score halved. When no
// room has capacity a new one is created.
func (m *Manager) FindRoom(preferredID types.RoomIdType) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()

	if preferredID != "" {
		if r, ok := m.rooms[preferredID]; ok && r.PlayerCount() < r.MaxPlayers() {
			m.cancelPendingCleanupLocked(preferredID)
			return r
		}
	}

	var best *Room
	bestScore := -1.0
	for _, r := range m.rooms {
		count := r.PlayerCount()
		if count >= r.MaxPlayers() {
			continue
		}
		score := float64(count)
		if float64(count)/float64(r.MaxPlayers()) > nearFullRatio {
			score *= 0.5
		}
		if score > bestScore {
			best = r
			bestScore = score
		}
	}
	if best != nil {
		m.cancelPendingCleanupLocked(best.GetID())
		return best
	}

	return m.createRoomLocked("")
}

// CreateRoom registers a new room, minting an ocean_<n> id unless a
// custom one is given.
func (m *Manager) CreateRoom(customID types.RoomIdType) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createRoomLocked(customID)
}

func (m *Manager) createRoomLocked(customID types.RoomIdType) *Room {
	id := customID
	if id == "" {
		m.nextRoomID++
		id = types.RoomIdType(fmt.Sprintf("ocean_%d", m.nextRoomID))
	}

	r := NewRoom(m.ctx, id, m.maxPlayersPerRoom, m.tickRate, m.handleEmptyRoom)
	m.rooms[id] = r

	metrics.ActiveRooms.Inc()
	logging.Info(m.ctx, "Room created",
		zap.String("room_id", string(id)),
		zap.Int("max_players", m.maxPlayersPerRoom),
	)
	return r
}

// GetRoom looks up a room by id.
func (m *Manager) GetRoom(id types.RoomIdType) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	return r, ok
}

// DestroyRoom removes the room from the directory and tears it down. The
// teardown happens outside the manager lock so closing a room full of
// connections cannot stall placement.
func (m *Manager) DestroyRoom(id types.RoomIdType, reason string) {
	m.mu.Lock()
	r, ok := m.rooms[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.rooms, id)
	m.cancelPendingCleanupLocked(id)
	metrics.ActiveRooms.Dec()
	m.mu.Unlock()

	r.Destroy(reason)
}

// handleEmptyRoom is the room's onEmpty callback. Destruction is
// deferred by the grace period and re-checked: a player admitted in the
// meantime keeps the room alive, and the minRooms floor is never
// violated.
func (m *Manager) handleEmptyRoom(id types.RoomIdType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rooms[id]; !ok {
		return
	}
	if len(m.rooms) <= m.minRooms {
		return
	}

	m.cancelPendingCleanupLocked(id)
	m.pendingCleanups[id] = time.AfterFunc(m.gracePeriod, func() {
		m.mu.Lock()
		delete(m.pendingCleanups, id)
		r, ok := m.rooms[id]
		if !ok || !r.IsEmpty() || len(m.rooms) <= m.minRooms {
			m.mu.Unlock()
			if ok {
				logging.Info(context.Background(), "Cancelled room cleanup - room is active",
					zap.String("room_id", string(id)))
			}
			return
		}
		delete(m.rooms, id)
		metrics.ActiveRooms.Dec()
		m.mu.Unlock()

		r.Destroy("empty past grace period")
	})

	logging.Info(context.Background(), "Room empty, cleanup scheduled",
		zap.String("room_id", string(id)),
		zap.Duration("grace_period", m.gracePeriod),
	)
}

// cancelPendingCleanupLocked stops a scheduled destruction, if any.
func (m *Manager) cancelPendingCleanupLocked(id types.RoomIdType) {
	if timer, ok := m.pendingCleanups[id]; ok {
		timer.Stop()
		delete(m.pendingCleanups, id)
	}
}

// runSweep periodically reclaims empty rooms the grace path missed,
// always keeping at least minRooms alive.
func (m *Manager) runSweep() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Manager) sweep() {
	m.mu.Lock()
	var victims []*Room
	remaining := len(m.rooms)
	for id, r := range m.rooms {
		if remaining <= m.minRooms {
			break
		}
		if !r.IsEmpty() {
			continue
		}
		delete(m.rooms, id)
		m.cancelPendingCleanupLocked(id)
		metrics.ActiveRooms.Dec()
		victims = append(victims, r)
		remaining--
	}
	m.mu.Unlock()

	for _, r := range victims {
		r.Destroy("reclaimed by cleanup sweep")
	}
	if len(victims) > 0 {
		logging.Info(m.ctx, "Cleanup sweep reclaimed empty rooms",
			zap.Int("count", len(victims)))
	}
}

// GetStats aggregates the directory for the HTTP surface.
func (m *Manager) GetStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := Stats{
		Rooms:             len(m.rooms),
		MaxPlayersPerRoom: m.maxPlayersPerRoom,
		MinRooms:          m.minRooms,
	}
	for _, r := range m.rooms {
		stats.Players += r.PlayerCount()
	}
	return stats
}

// GetRoomList returns every room's summary, sorted by player count
// descending (ties by id for stable output).
func (m *Manager) GetRoomList() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := make([]Info, 0, len(m.rooms))
	for _, r := range m.rooms {
		worldSeed, npcSeed := r.Seeds()
		list = append(list, Info{
			ID:         string(r.GetID()),
			Players:    r.PlayerCount(),
			MaxPlayers: r.MaxPlayers(),
			HostID:     int(r.HostID()),
			WorldSeed:  worldSeed,
			NpcSeed:    npcSeed,
		})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Players != list[j].Players {
			return list[i].Players > list[j].Players
		}
		return list[i].ID < list[j].ID
	})
	return list
}

// Shutdown stops the sweep, cancels pending cleanup timers, and destroys
// every room, closing all their connections. Returns ctx.Err if the
// teardown outlives the caller's deadline.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.cancel()

	m.mu.Lock()
	for id, timer := range m.pendingCleanups {
		timer.Stop()
		delete(m.pendingCleanups, id)
	}
	rooms := make([]*Room, 0, len(m.rooms))
	for id, r := range m.rooms {
		rooms = append(rooms, r)
		delete(m.rooms, id)
		metrics.ActiveRooms.Dec()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, r := range rooms {
			r.Destroy("server shutting down")
		}
		m.wg.Wait()
	}()

	select {
	case <-done:
		logging.Info(ctx, "All rooms closed", zap.Int("count", len(rooms)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
