// Package room owns the game world state: each Room is an isolation
// boundary holding a player set, the NPC simulation host, the
// deterministic seeds, the dead-NPC set, and the tick-driven position
// broadcast. The Manager owns the directory of rooms.
package room

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/oceanlight-game/server/internal/v1/logging"
	"github.com/oceanlight-game/server/internal/v1/metrics"
	"github.com/oceanlight-game/server/internal/v1/protocol"
	"github.com/oceanlight-game/server/internal/v1/types"
	"go.uber.org/zap"
	"k8s.io/utils/set"
)

const (
	// DefaultMaxPlayers is the room capacity when none is configured.
	DefaultMaxPlayers = 100

	// DefaultTickRate is the broadcast loop frequency in ticks per second.
	DefaultTickRate = 20

	// DefaultWorldSeed seeds rooms that have never seen a map change. The
	// NPC seed is always the master seed plus one, so clients holding only
	// the master seed can reconstruct it.
	DefaultWorldSeed uint32 = 12345

	// NoHost marks an empty host slot. Player ids start at 1.
	NoHost types.PlayerIdType = 0

	// excludeNone is passed to broadcastLocked when every player should
	// receive the frame.
	excludeNone types.PlayerIdType = 0
)

var (
	// ErrRoomFull is returned when admission would exceed the room's fixed
	// capacity.
	ErrRoomFull = errors.New("room is full")

	// ErrRoomClosed is returned when a player is admitted to a room that
	// has already been destroyed.
	ErrRoomClosed = errors.New("room is closed")
)

// warnKey identifies one (player, message type) pair for the
// log-once-per-offender policy on malformed input.
type warnKey struct {
	player  types.PlayerIdType
	msgType protocol.MsgType
}

// Room is one isolated game world. All state is guarded by mu; the tick
// goroutine and message handlers serialise through it, so different rooms
// run in parallel with no coordination.
type Room struct {
	id         types.RoomIdType
	maxPlayers int
	tickRate   int

	mu           sync.RWMutex
	players      map[types.PlayerIdType]*Player
	nextPlayerID types.PlayerIdType
	hostID       types.PlayerIdType
	worldSeed    uint32
	npcSeed      uint32
	deadNpcIds   set.Set[string]
	tickCount    uint64
	warned       map[warnKey]struct{}
	destroyed    bool

	onEmpty func(types.RoomIdType)

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewRoom creates a room with the default seeds and starts its tick loop.
// onEmptyCallback fires (on its own goroutine) whenever the last player
// leaves.
func NewRoom(ctx context.Context, id types.RoomIdType, maxPlayers, tickRate int, onEmptyCallback func(types.RoomIdType)) *Room {
	if maxPlayers <= 0 {
		maxPlayers = DefaultMaxPlayers
	}
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}

	r := &Room{
		id:         id,
		maxPlayers: maxPlayers,
		tickRate:   tickRate,
		players:    make(map[types.PlayerIdType]*Player),
		hostID:     NoHost,
		deadNpcIds: set.New[string](),
		warned:     make(map[warnKey]struct{}),
		onEmpty:    onEmptyCallback,
	}
	r.applySeedLocked(DefaultWorldSeed)
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.run()

	return r
}

// applySeedLocked binds both seeds to one master seed in a single
// operation and resets the dead-NPC set, which is scoped to the seed.
func (r *Room) applySeedLocked(masterSeed uint32) {
	r.worldSeed = masterSeed
	r.npcSeed = masterSeed + 1 // uint32 arithmetic wraps mod 2^32
	r.deadNpcIds = set.New[string]()
}

// GetID returns the room id.
func (r *Room) GetID() types.RoomIdType {
	return r.id
}

// PlayerCount returns the number of connected players.
func (r *Room) PlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// MaxPlayers returns the fixed room capacity.
func (r *Room) MaxPlayers() int {
	return r.maxPlayers
}

// HostID returns the current host slot, or NoHost when the room is empty.
func (r *Room) HostID() types.PlayerIdType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hostID
}

// Seeds returns the current world and NPC seeds.
func (r *Room) Seeds() (worldSeed, npcSeed uint32) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.worldSeed, r.npcSeed
}

// IsEmpty reports whether no players remain.
func (r *Room) IsEmpty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players) == 0
}

// TickCount returns the number of ticks elapsed since creation.
func (r *Room) TickCount() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tickCount
}

// AddPlayer admits a connection, allocates the next player id, elects the
// player as host when the slot is empty, and sends the WELCOME frame. The
// join is not broadcast; that happens when the player sends JOIN_GAME.
func (r *Room) AddPlayer(conn types.ClientSender, name types.DisplayNameType) (types.PlayerIdType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.destroyed {
		return 0, ErrRoomClosed
	}
	if len(r.players) >= r.maxPlayers {
		return 0, ErrRoomFull
	}

	r.nextPlayerID++
	id := r.nextPlayerID
	p := newPlayer(id, name, conn)
	r.players[id] = p

	isHost := false
	if r.hostID == NoHost {
		r.hostID = id
		isHost = true
	}

	welcome := protocol.Welcome{
		T:          protocol.MsgTypeWelcome,
		ID:         int(id),
		RoomID:     string(r.id),
		WorldSeed:  r.worldSeed,
		NpcSeed:    r.npcSeed,
		HostID:     int(r.hostID),
		IsHost:     isHost,
		Players:    r.inGameSnapshotsLocked(id),
		DeadNpcIds: r.deadNpcIds.SortedList(),
	}
	r.sendToLocked(p, welcome, true)

	metrics.RoomPlayers.WithLabelValues(string(r.id)).Set(float64(len(r.players)))
	logging.Info(r.ctx, "Player joined room",
		zap.String("room_id", string(r.id)),
		zap.Int("player_id", int(id)),
		zap.String("name", string(name)),
		zap.Bool("is_host", isHost),
	)

	return id, nil
}

// RemovePlayer deletes the player, announces the leave to everyone still
// in the room, migrates the host slot when needed, and fires the onEmpty
// callback when the last player is gone. Removing an unknown id is a
// no-op, so a racing close and kick stay idempotent.
func (r *Room) RemovePlayer(ctx context.Context, playerID types.PlayerIdType) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[playerID]; !ok {
		return
	}
	delete(r.players, playerID)

	// Leave is announced after the player is gone from the map, so no
	// broadcast can include a removed player.
	r.broadcastLocked(protocol.PlayerLeave{
		T:  protocol.MsgTypePlayerLeave,
		ID: int(playerID),
	}, excludeNone, true)

	if r.hostID == playerID {
		r.migrateHostLocked(ctx)
	}

	if len(r.players) > 0 {
		metrics.RoomPlayers.WithLabelValues(string(r.id)).Set(float64(len(r.players)))
	} else {
		metrics.RoomPlayers.DeleteLabelValues(string(r.id))
	}

	logging.Info(ctx, "Player left room",
		zap.String("room_id", string(r.id)),
		zap.Int("player_id", int(playerID)),
		zap.Int("remaining", len(r.players)),
	)

	if len(r.players) == 0 && r.onEmpty != nil {
		go r.onEmpty(r.id)
	}
}

// migrateHostLocked hands the host slot to the remaining player with the
// lowest id, preferring players that are already in game so the NPC
// simulation restarts from a client that has a world loaded. The new host
// learns directly via HOST_ASSIGNED; everyone else via HOST_CHANGED.
func (r *Room) migrateHostLocked(ctx context.Context) {
	r.hostID = NoHost
	if len(r.players) == 0 {
		return
	}

	next := r.pickHostLocked()
	r.hostID = next.ID

	r.sendToLocked(next, protocol.HostAssigned{
		T:      protocol.MsgTypeHostAssigned,
		IsHost: true,
	}, true)
	r.broadcastLocked(protocol.HostChanged{
		T:      protocol.MsgTypeHostChanged,
		HostID: int(next.ID),
	}, next.ID, true)

	logging.Info(ctx, "Host migrated",
		zap.String("room_id", string(r.id)),
		zap.Int("new_host_id", int(next.ID)),
	)
}

// pickHostLocked returns the lowest-id in-game player, falling back to
// the lowest-id connected player. Join order is the succession order.
func (r *Room) pickHostLocked() *Player {
	var inGame, any *Player
	for _, p := range r.players {
		if any == nil || p.ID < any.ID {
			any = p
		}
		if p.InGame && (inGame == nil || p.ID < inGame.ID) {
			inGame = p
		}
	}
	if inGame != nil {
		return inGame
	}
	return any
}

// inGameSnapshotsLocked collects the welcome snapshot: every player that
// is already in game, except the one being welcomed. Always non-nil so
// the wire field is a list, never null.
func (r *Room) inGameSnapshotsLocked(exclude types.PlayerIdType) []protocol.PlayerSnapshot {
	snapshots := make([]protocol.PlayerSnapshot, 0, len(r.players))
	for _, p := range r.players {
		if p.ID == exclude || !p.InGame {
			continue
		}
		snapshots = append(snapshots, p.snapshot())
	}
	return snapshots
}

// run is the per-room tick goroutine. It fires every 1000/tickRate ms
// until the room is destroyed.
func (r *Room) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(time.Second / time.Duration(r.tickRate))
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.tick()
		}
	}
}

// tick folds every in-game player's current position into one
// BATCH_POSITIONS frame sent to all players, the sampled player included,
// so clients can reconcile their own record for interpolation.
func (r *Room) tick() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.destroyed {
		return
	}

	r.tickCount++
	serverTime := time.Now().UnixMilli()

	samples := make([]protocol.PositionSample, 0, len(r.players))
	for _, p := range r.players {
		if p.InGame {
			samples = append(samples, p.sample())
		}
	}

	if len(samples) > 0 {
		r.broadcastLocked(protocol.BatchPositions{
			T:    protocol.MsgTypeBatchPositions,
			Time: serverTime,
			P:    samples,
		}, excludeNone, false)
		metrics.TickBroadcasts.Inc()
	}

	if r.tickCount%uint64(r.tickRate*30) == 0 && len(r.players) > 0 {
		logging.Info(r.ctx, fmt.Sprintf("%d players active", len(r.players)),
			zap.String("room_id", string(r.id)),
		)
	}
}

// broadcastLocked encodes msg once and submits it to every player except
// exclude. A failed send is logged with the offending player id and never
// stops delivery to the remaining recipients.
func (r *Room) broadcastLocked(msg any, exclude types.PlayerIdType, priority bool) {
	frame, err := protocol.Encode(msg)
	if err != nil {
		logging.Error(r.ctx, "Failed to encode broadcast frame",
			zap.String("room_id", string(r.id)), zap.Error(err))
		return
	}

	for id, p := range r.players {
		if id == exclude {
			continue
		}
		r.sendFrameLocked(p, frame, priority)
	}
}

// sendToLocked encodes and sends one message to a single player.
func (r *Room) sendToLocked(p *Player, msg any, priority bool) {
	frame, err := protocol.Encode(msg)
	if err != nil {
		logging.Error(r.ctx, "Failed to encode frame",
			zap.String("room_id", string(r.id)), zap.Error(err))
		return
	}
	r.sendFrameLocked(p, frame, priority)
}

func (r *Room) sendFrameLocked(p *Player, frame []byte, priority bool) {
	var err error
	if priority {
		err = p.conn.SendPriority(frame)
	} else {
		err = p.conn.Send(frame)
	}
	if err != nil {
		logging.Warn(r.ctx, "Send to player failed, continuing broadcast",
			zap.String("room_id", string(r.id)),
			zap.Int("player_id", int(p.ID)),
			zap.Error(err),
		)
	}
}

// warnOnceLocked logs at most one warning per (player, type) pair. Every
// later offence from the same player on the same type is dropped
// silently.
func (r *Room) warnOnceLocked(ctx context.Context, playerID types.PlayerIdType, t protocol.MsgType, msg string, fields ...zap.Field) {
	key := warnKey{player: playerID, msgType: t}
	if _, seen := r.warned[key]; seen {
		return
	}
	r.warned[key] = struct{}{}

	fields = append(fields,
		zap.String("room_id", string(r.id)),
		zap.Int("player_id", int(playerID)),
		zap.String("message_type", t.String()),
	)
	logging.Warn(ctx, msg, fields...)
}

// newMasterSeed draws a uniform 32-bit master seed for a map change.
func newMasterSeed() uint32 {
	return rand.Uint32()
}

// Destroy tears the room down: the tick loop stops, every owned
// connection is closed, and the player map is cleared. Messages arriving
// on those connections afterwards hit the destroyed guard and are
// ignored.
func (r *Room) Destroy(reason string) {
	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		return
	}
	r.destroyed = true
	r.cancel()

	targets := make([]types.ClientSender, 0, len(r.players))
	for _, p := range r.players {
		targets = append(targets, p.conn)
	}
	r.players = make(map[types.PlayerIdType]*Player)
	r.hostID = NoHost
	r.mu.Unlock()

	for _, conn := range targets {
		conn.Disconnect()
	}
	r.wg.Wait()

	metrics.RoomPlayers.DeleteLabelValues(string(r.id))
	logging.Info(context.Background(), "Room destroyed",
		zap.String("room_id", string(r.id)),
		zap.String("reason", reason),
		zap.Int("disconnected", len(targets)),
	)
}
