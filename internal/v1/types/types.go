package types

import (
	"context"
	"strings"

	"github.com/oceanlight-game/server/internal/v1/protocol"
)

// --- Core Domain Types ---

// PlayerIdType identifies a player within a single room. Ids are assigned
// monotonically on admission and never reused for the room's lifetime.
type PlayerIdType int

// RoomIdType identifies a room, unique across the process.
type RoomIdType string

// DisplayNameType is the human-readable name a player presents.
type DisplayNameType string

// MaxDisplayNameLength caps display names on set.
const MaxDisplayNameLength = 20

// DefaultDisplayName is used when a connection supplies no name.
const DefaultDisplayName DisplayNameType = "Player"

// CleanDisplayName trims surrounding whitespace and truncates to
// MaxDisplayNameLength characters. The cut is on runes, not bytes, so a
// multibyte name never ends mid-sequence. An empty result falls back to
// DefaultDisplayName.
func CleanDisplayName(raw string) DisplayNameType {
	name := strings.TrimSpace(raw)
	if name == "" {
		return DefaultDisplayName
	}
	if runes := []rune(name); len(runes) > MaxDisplayNameLength {
		name = string(runes[:MaxDisplayNameLength])
	}
	return DisplayNameType(name)
}

// --- Shared Interfaces ---

// ClientSender is the behavior the room layer needs from a connected client.
// Sends are non-blocking submissions into the client's bounded outbound
// queues; the room never blocks on a slow peer.
type ClientSender interface {
	// Send queues a droppable frame (positions, snapshots, chat, relays).
	Send(frame []byte) error
	// SendPriority queues a lifecycle frame that must not be dropped while
	// the client lives (welcome, joins, leaves, host changes, map changes).
	SendPriority(frame []byte) error
	// Disconnect forcefully closes the underlying connection. Used during
	// room destruction; a normal client close is observed by the read pump.
	Disconnect()
}

// Roomer is the behavior the transport layer needs from a room.
// This allows the transport package to route frames without depending on
// the room package.
type Roomer interface {
	GetID() RoomIdType
	AddPlayer(client ClientSender, name DisplayNameType) (PlayerIdType, error)
	RemovePlayer(ctx context.Context, playerID PlayerIdType)
	HandleMessage(ctx context.Context, playerID PlayerIdType, msg protocol.Message)
}
