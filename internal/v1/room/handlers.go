package room

import (
	"context"
	"time"

	"github.com/oceanlight-game/server/internal/v1/logging"
	"github.com/oceanlight-game/server/internal/v1/metrics"
	"github.com/oceanlight-game/server/internal/v1/protocol"
	"github.com/oceanlight-game/server/internal/v1/types"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Handler outcome labels for the messages_total metric.
const (
	statusOk       = "ok"
	statusRejected = "rejected" // malformed or out-of-contract input
	statusDropped  = "dropped"  // valid but intentionally ignored (non-host, duplicate)
	statusUnknown  = "unknown"
)

// HandleMessage dispatches one decoded frame from playerID. Handlers are
// defensive: malformed input is dropped with at most one warning per
// (player, type), and nothing a client sends can escape the room as an
// error. Frames from players that have already been removed are ignored.
func (r *Room) HandleMessage(ctx context.Context, playerID types.PlayerIdType, msg protocol.Message) {
	msgType := msg.MsgType()
	timer := prometheus.NewTimer(metrics.MessageHandlingDuration.WithLabelValues(msgType.String()))
	defer timer.ObserveDuration()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.destroyed {
		return
	}
	sender, ok := r.players[playerID]
	if !ok {
		return
	}

	status := statusOk
	switch m := msg.(type) {
	case protocol.Invalid:
		r.warnOnceLocked(ctx, playerID, protocol.MsgTypeInvalid, "Dropping undecodable frame")
		status = statusRejected
	case protocol.Position:
		status = r.handlePositionLocked(ctx, sender, m)
	case protocol.JoinGame:
		status = r.handleJoinGameLocked(ctx, sender, m)
	case protocol.CreatureUpdate:
		status = r.handleCreatureUpdateLocked(ctx, sender, m)
	case protocol.SizeUpdate:
		status = r.handleSizeUpdateLocked(ctx, sender, m)
	case protocol.Ping:
		r.sendToLocked(sender, protocol.Pong{
			T:          protocol.MsgTypePong,
			ClientTime: m.ClientTime,
			ServerTime: time.Now().UnixMilli(),
		}, false)
	case protocol.EatNPC:
		status = r.handleEatNPCLocked(ctx, sender, m)
	case protocol.NPCSnapshot:
		status = r.handleNPCSnapshotLocked(ctx, sender, m)
	case protocol.AbilityStart:
		status = r.handleAbilityLocked(ctx, sender, protocol.MsgTypeAbilityStart, m.AbilityFields)
	case protocol.AbilityStop:
		status = r.handleAbilityLocked(ctx, sender, protocol.MsgTypeAbilityStop, m.AbilityFields)
	case protocol.PrismPlace:
		status = r.handlePrismPlaceLocked(ctx, sender, m)
	case protocol.PrismRemove:
		status = r.handlePrismRemoveLocked(ctx, sender, m)
	case protocol.Chat:
		status = r.handleChatLocked(sender, m)
	case protocol.RequestMapChange:
		status = r.handleMapChangeLocked(ctx, sender)
	case protocol.EatPlayer:
		// TODO: decide where PvP kill arbitration lives - server-side scale
		// comparison here, or client-side with the server as relay - before
		// accepting this type.
		r.warnOnceLocked(ctx, playerID, protocol.MsgTypeEatPlayer, "EAT_PLAYER is not accepted yet")
		status = statusRejected
	default:
		r.warnOnceLocked(ctx, playerID, msgType, "Unhandled message type")
		status = statusUnknown
	}

	metrics.MessagesHandled.WithLabelValues(msgType.String(), status).Inc()
}

// handlePositionLocked stores a movement update in place. The whole
// update is rejected when the position is absent or out of bounds; an
// out-of-range scale keeps the previous scale while position and rotation
// still apply. No broadcast: the tick loop folds the new state into the
// next BATCH_POSITIONS.
func (r *Room) handlePositionLocked(ctx context.Context, sender *Player, m protocol.Position) string {
	if !protocol.IsValidPosition(m.Position) {
		r.warnOnceLocked(ctx, sender.ID, protocol.MsgTypePosition, "Invalid position update")
		return statusRejected
	}

	sender.Position = *m.Position
	sender.Rotation = m.Rotation // absent components decode to 0
	if protocol.IsValidScale(m.Scale) {
		sender.Scale = m.Scale
	}
	sender.LastUpdate = time.Now()
	return statusOk
}

// handleJoinGameLocked binds the creature and makes the player visible.
// PLAYER_JOIN goes to everyone except the joiner; the joiner already
// knows its own state.
func (r *Room) handleJoinGameLocked(ctx context.Context, sender *Player, m protocol.JoinGame) string {
	if !protocol.IsValidCreature(m.Creature) {
		r.warnOnceLocked(ctx, sender.ID, protocol.MsgTypeJoinGame, "Invalid creature on join")
		return statusRejected
	}

	creature := *m.Creature
	if creature.Variant < 0 {
		creature.Variant = 0
	}
	sender.Creature = &creature
	if m.Name != "" {
		sender.DisplayName = types.CleanDisplayName(m.Name)
	}
	sender.InGame = true

	r.broadcastLocked(protocol.PlayerJoin{
		T:              protocol.MsgTypePlayerJoin,
		PlayerSnapshot: sender.snapshot(),
	}, sender.ID, true)

	logging.Info(ctx, "Player entered game",
		zap.String("room_id", string(r.id)),
		zap.Int("player_id", int(sender.ID)),
		zap.String("creature_type", creature.Type),
		zap.String("creature_class", creature.Class),
	)
	return statusOk
}

func (r *Room) handleCreatureUpdateLocked(ctx context.Context, sender *Player, m protocol.CreatureUpdate) string {
	if !protocol.IsValidCreature(m.Creature) {
		r.warnOnceLocked(ctx, sender.ID, protocol.MsgTypeCreatureUpdate, "Invalid creature update")
		return statusRejected
	}

	creature := *m.Creature
	if creature.Variant < 0 {
		creature.Variant = 0
	}
	sender.Creature = &creature

	r.broadcastLocked(protocol.CreatureUpdateRelay{
		T:        protocol.MsgTypeCreatureUpdate,
		ID:       int(sender.ID),
		Creature: creature,
	}, sender.ID, false)
	return statusOk
}

func (r *Room) handleSizeUpdateLocked(ctx context.Context, sender *Player, m protocol.SizeUpdate) string {
	if !protocol.IsValidScale(m.Scale) {
		r.warnOnceLocked(ctx, sender.ID, protocol.MsgTypeSizeUpdate, "Scale out of range")
		return statusRejected
	}

	sender.Scale = m.Scale
	r.broadcastLocked(protocol.SizeUpdateRelay{
		T:     protocol.MsgTypeSizeUpdate,
		ID:    int(sender.ID),
		Scale: m.Scale,
	}, sender.ID, false)
	return statusOk
}

// handleEatNPCLocked arbitrates NPC kills. The dead set makes the event
// idempotent per seed: when the host and a colliding eater both report
// the same npcId, only the first report produces an NPC_DEATH. The
// broadcast includes the eater so confirmation arrives through the same
// channel as everyone else's.
func (r *Room) handleEatNPCLocked(ctx context.Context, sender *Player, m protocol.EatNPC) string {
	if m.NpcID == "" {
		r.warnOnceLocked(ctx, sender.ID, protocol.MsgTypeEatNPC, "EAT_NPC without npcId")
		return statusRejected
	}
	if r.deadNpcIds.Has(m.NpcID) {
		return statusDropped
	}

	r.deadNpcIds.Insert(m.NpcID)
	r.broadcastLocked(protocol.NPCDeath{
		T:       protocol.MsgTypeNPCDeath,
		NpcID:   m.NpcID,
		EatenBy: int(sender.ID),
	}, excludeNone, false)
	return statusOk
}

// handleNPCSnapshotLocked relays the host's NPC state to the rest of the
// room. A snapshot from anyone but the current host is dropped silently:
// that is the whole arbitration mechanism after a host migration, a stale
// host simply stops matching hostID.
func (r *Room) handleNPCSnapshotLocked(ctx context.Context, sender *Player, m protocol.NPCSnapshot) string {
	if sender.ID != r.hostID {
		return statusDropped
	}
	if !protocol.IsValidNPCSnapshot(m) {
		r.warnOnceLocked(ctx, sender.ID, protocol.MsgTypeNPCSnapshot, "Malformed NPC snapshot from host")
		return statusRejected
	}

	r.broadcastLocked(protocol.NPCSnapshotRelay{
		T:    protocol.MsgTypeNPCSnapshot,
		Tick: *m.Tick,
		Fish: m.Fish,
	}, sender.ID, false)
	return statusOk
}

func (r *Room) handleAbilityLocked(ctx context.Context, sender *Player, t protocol.MsgType, m protocol.AbilityFields) string {
	if !protocol.IsValidAbility(m.Ability) {
		r.warnOnceLocked(ctx, sender.ID, t, "Unknown ability", zap.String("ability", m.Ability))
		return statusRejected
	}

	r.broadcastLocked(protocol.AbilityRelay{
		T:         t,
		ID:        int(sender.ID),
		Ability:   m.Ability,
		Color:     m.Color,
		Terrain:   m.Terrain,
		MimicSeed: m.MimicSeed,
	}, sender.ID, false)
	return statusOk
}

func (r *Room) handlePrismPlaceLocked(ctx context.Context, sender *Player, m protocol.PrismPlace) string {
	if len(m.PrismID) == 0 || len(m.Position) == 0 || len(m.Quaternion) == 0 {
		r.warnOnceLocked(ctx, sender.ID, protocol.MsgTypePrismPlace, "PRISM_PLACE missing required fields")
		return statusRejected
	}

	r.broadcastLocked(protocol.PrismPlaceRelay{
		T:          protocol.MsgTypePrismPlace,
		ID:         int(sender.ID),
		PrismID:    m.PrismID,
		Position:   m.Position,
		Quaternion: m.Quaternion,
		Length:     m.Length,
		Radius:     m.Radius,
		Color:      m.Color,
		Roughness:  m.Roughness,
		Metalness:  m.Metalness,
		Emissive:   m.Emissive,
	}, sender.ID, false)
	return statusOk
}

func (r *Room) handlePrismRemoveLocked(ctx context.Context, sender *Player, m protocol.PrismRemove) string {
	if len(m.PrismID) == 0 {
		r.warnOnceLocked(ctx, sender.ID, protocol.MsgTypePrismRemove, "PRISM_REMOVE without prismId")
		return statusRejected
	}

	r.broadcastLocked(protocol.PrismRemoveRelay{
		T:       protocol.MsgTypePrismRemove,
		ID:      int(sender.ID),
		PrismID: m.PrismID,
	}, sender.ID, false)
	return statusOk
}

// handleChatLocked relays a chat line. Empty text is dropped silently,
// long text is truncated to MaxChatLength runes, and showProximity
// defaults to true when the client omits it.
func (r *Room) handleChatLocked(sender *Player, m protocol.Chat) string {
	if m.Text == "" {
		return statusDropped
	}

	text := m.Text
	if runes := []rune(text); len(runes) > protocol.MaxChatLength {
		text = string(runes[:protocol.MaxChatLength])
	}

	showProximity := true
	if m.ShowProximity != nil {
		showProximity = *m.ShowProximity
	}

	r.broadcastLocked(protocol.ChatBroadcast{
		T:             protocol.MsgTypeChat,
		SenderID:      int(sender.ID),
		Sender:        string(sender.DisplayName),
		Text:          text,
		IsEmoji:       m.IsEmoji,
		ShowProximity: showProximity,
	}, sender.ID, false)
	return statusOk
}

// handleMapChangeLocked rerolls the world. Both seeds derive from one
// fresh master seed and the dead-NPC set resets with them. The broadcast
// carries only the master seed; clients reconstruct the NPC seed with the
// same plus-one derivation.
func (r *Room) handleMapChangeLocked(ctx context.Context, sender *Player) string {
	masterSeed := newMasterSeed()
	r.applySeedLocked(masterSeed)

	r.broadcastLocked(protocol.MapChange{
		T:           protocol.MsgTypeMapChange,
		Seed:        masterSeed,
		RequestedBy: int(sender.ID),
	}, excludeNone, true)

	logging.Info(ctx, "Map regenerated",
		zap.String("room_id", string(r.id)),
		zap.Uint32("world_seed", r.worldSeed),
		zap.Uint32("npc_seed", r.npcSeed),
		zap.Int("requested_by", int(sender.ID)),
	)
	return statusOk
}
