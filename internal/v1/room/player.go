package room

import (
	"time"

	"github.com/oceanlight-game/server/internal/v1/protocol"
	"github.com/oceanlight-game/server/internal/v1/types"
)

// Player is one connected participant in one room. The room owns the
// record; the connection only carries a back-reference to the room and the
// assigned id. All fields are guarded by the owning room's mutex.
type Player struct {
	ID          types.PlayerIdType
	DisplayName types.DisplayNameType

	Position protocol.Vec3
	Rotation protocol.Vec3
	Scale    float64

	// Creature is nil until a valid JOIN_GAME binds one.
	Creature *protocol.Creature

	// InGame latches true on JOIN_GAME and never reverts until removal.
	InGame bool

	// LastUpdate is the time of the last accepted position update.
	LastUpdate time.Time

	conn types.ClientSender
}

// newPlayer builds a freshly admitted player at the spawn point.
func newPlayer(id types.PlayerIdType, name types.DisplayNameType, conn types.ClientSender) *Player {
	return &Player{
		ID:          id,
		DisplayName: name,
		Position:    protocol.Vec3{X: 0, Y: 10, Z: 0},
		Scale:       1,
		LastUpdate:  time.Now(),
		conn:        conn,
	}
}

// snapshot captures the player as seen by other clients, used in WELCOME
// and PLAYER_JOIN payloads.
func (p *Player) snapshot() protocol.PlayerSnapshot {
	return protocol.PlayerSnapshot{
		ID:       int(p.ID),
		Name:     string(p.DisplayName),
		Position: p.Position,
		Rotation: p.Rotation,
		Scale:    p.Scale,
		Creature: p.Creature,
	}
}

// sample captures the compact per-tick position record.
func (p *Player) sample() protocol.PositionSample {
	return protocol.PositionSample{
		ID: int(p.ID),
		X:  p.Position.X,
		Y:  p.Position.Y,
		Z:  p.Position.Z,
		RX: p.Rotation.X,
		RY: p.Rotation.Y,
		RZ: p.Rotation.Z,
		S:  p.Scale,
	}
}
