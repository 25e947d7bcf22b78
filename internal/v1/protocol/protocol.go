// Package protocol defines the wire format spoken between the game server
// and its clients: one JSON object per WebSocket text frame, carrying an
// integer type tag under the short key "t" and type-specific fields in the
// same object. The package is stateless; decoding never returns an error,
// it returns a distinguished Invalid message instead.
package protocol

import "fmt"

// MsgType is the integer tag identifying a message's shape and semantics.
// The tag space is organised by decade.
type MsgType int

const (
	// MsgTypeInvalid is the distinguished result of a failed decode. It is
	// never a valid wire tag.
	MsgTypeInvalid MsgType = -1

	// 1-9: connection lifecycle.
	MsgTypeWelcome     MsgType = 1
	MsgTypePlayerJoin  MsgType = 2
	MsgTypePlayerLeave MsgType = 3
	MsgTypePing        MsgType = 4
	MsgTypePong        MsgType = 5

	// 10-19: movement.
	MsgTypePosition       MsgType = 10
	MsgTypeBatchPositions MsgType = 11

	// 20-29: creature.
	MsgTypeJoinGame       MsgType = 20
	MsgTypeCreatureUpdate MsgType = 21
	MsgTypeSizeUpdate     MsgType = 22

	// 30-39: NPCs and the host role that simulates them.
	MsgTypeNPCSpawn      MsgType = 30
	MsgTypeNPCBatchSpawn MsgType = 31
	MsgTypeNPCDeath      MsgType = 32
	MsgTypeEatNPC        MsgType = 33
	MsgTypeNPCSnapshot   MsgType = 34
	MsgTypeHostAssigned  MsgType = 35
	MsgTypeHostChanged   MsgType = 36

	// 40-49: PvP.
	MsgTypeEatPlayer     MsgType = 40
	MsgTypePlayerEaten   MsgType = 41
	MsgTypePlayerDied    MsgType = 42
	MsgTypePlayerRespawn MsgType = 43

	// 60-69: room switching. Enumerated, no handler; a connection is
	// admitted to exactly one room for its lifetime.
	MsgTypeSwitchRoom MsgType = 62

	// 70-79: world synchronisation.
	MsgTypeRequestMapChange MsgType = 70
	MsgTypeMapChange        MsgType = 71

	// 80-89: abilities.
	MsgTypeAbilityStart MsgType = 80
	MsgTypeAbilityStop  MsgType = 81

	// 90-99: structures and chat.
	MsgTypePrismPlace  MsgType = 90
	MsgTypePrismRemove MsgType = 91
	MsgTypeChat        MsgType = 92
)

var msgTypeNames = map[MsgType]string{
	MsgTypeInvalid:          "INVALID",
	MsgTypeWelcome:          "WELCOME",
	MsgTypePlayerJoin:       "PLAYER_JOIN",
	MsgTypePlayerLeave:      "PLAYER_LEAVE",
	MsgTypePing:             "PING",
	MsgTypePong:             "PONG",
	MsgTypePosition:         "POSITION",
	MsgTypeBatchPositions:   "BATCH_POSITIONS",
	MsgTypeJoinGame:         "JOIN_GAME",
	MsgTypeCreatureUpdate:   "CREATURE_UPDATE",
	MsgTypeSizeUpdate:       "SIZE_UPDATE",
	MsgTypeNPCSpawn:         "NPC_SPAWN",
	MsgTypeNPCBatchSpawn:    "NPC_BATCH_SPAWN",
	MsgTypeNPCDeath:         "NPC_DEATH",
	MsgTypeEatNPC:           "EAT_NPC",
	MsgTypeNPCSnapshot:      "NPC_SNAPSHOT",
	MsgTypeHostAssigned:     "HOST_ASSIGNED",
	MsgTypeHostChanged:      "HOST_CHANGED",
	MsgTypeEatPlayer:        "EAT_PLAYER",
	MsgTypePlayerEaten:      "PLAYER_EATEN",
	MsgTypePlayerDied:       "PLAYER_DIED",
	MsgTypePlayerRespawn:    "PLAYER_RESPAWN",
	MsgTypeSwitchRoom:       "SWITCH_ROOM",
	MsgTypeRequestMapChange: "REQUEST_MAP_CHANGE",
	MsgTypeMapChange:        "MAP_CHANGE",
	MsgTypeAbilityStart:     "ABILITY_START",
	MsgTypeAbilityStop:      "ABILITY_STOP",
	MsgTypePrismPlace:       "PRISM_PLACE",
	MsgTypePrismRemove:      "PRISM_REMOVE",
	MsgTypeChat:             "CHAT",
}

// String returns the canonical name of the tag, or TYPE_<n> for tags the
// server has never heard of. Used for log fields and metric labels.
func (t MsgType) String() string {
	if name, ok := msgTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TYPE_%d", int(t))
}

// Message is the result of decoding one inbound frame. Concrete variants
// carry exactly the fields their wire type defines; dispatch is by type
// switch on the variant.
type Message interface {
	MsgType() MsgType
}

// Invalid is returned when a frame cannot be parsed at all: not JSON, not
// an object, or a missing/non-integer "t" tag.
type Invalid struct{}

func (Invalid) MsgType() MsgType { return MsgTypeInvalid }

// Unknown is returned for a well-formed frame whose integer tag has no
// client-origin contract (unassigned tags, server-origin tags echoed back,
// and enumerated-but-unhandled types such as SWITCH_ROOM).
type Unknown struct {
	Tag MsgType
}

func (u Unknown) MsgType() MsgType { return u.Tag }
