package protocol

import "encoding/json"

// Vec3 is a 3-tuple of reals. Components missing from a payload decode
// to 0.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Creature describes the body a player inhabits. Type and Class are short
// identifiers chosen by the client; Seed drives client-side generation.
type Creature struct {
	Type    string `json:"type"`
	Class   string `json:"class"`
	Variant int    `json:"variant"`
	Seed    int64  `json:"seed"`
}

// --- Client-origin messages ---

// Position is the high-rate movement update. The position record must be
// present and in bounds or the whole update is rejected; a scale outside
// (0, 100) leaves the previous scale in place.
type Position struct {
	Position *Vec3   `json:"position"`
	Rotation Vec3    `json:"rotation"`
	Scale    float64 `json:"scale"`
}

func (Position) MsgType() MsgType { return MsgTypePosition }

// JoinGame binds a creature to the player and makes it visible to the
// room. Name is optional.
type JoinGame struct {
	Name     string    `json:"name"`
	Creature *Creature `json:"creature"`
}

func (JoinGame) MsgType() MsgType { return MsgTypeJoinGame }

// CreatureUpdate replaces the bound creature.
type CreatureUpdate struct {
	Creature *Creature `json:"creature"`
}

func (CreatureUpdate) MsgType() MsgType { return MsgTypeCreatureUpdate }

// SizeUpdate changes only the player's scale.
type SizeUpdate struct {
	Scale float64 `json:"scale"`
}

func (SizeUpdate) MsgType() MsgType { return MsgTypeSizeUpdate }

// Ping carries an opaque client timestamp echoed back in the Pong.
type Ping struct {
	ClientTime float64 `json:"clientTime"`
}

func (Ping) MsgType() MsgType { return MsgTypePing }

// EatNPC reports that the sender ate an NPC. Idempotent per npcId for the
// lifetime of the current seed.
type EatNPC struct {
	NpcID string `json:"npcId"`
}

func (EatNPC) MsgType() MsgType { return MsgTypeEatNPC }

// NPCSnapshot is one frame of NPC state produced by the room's host. Fish
// is relayed verbatim and never inspected.
type NPCSnapshot struct {
	Tick *float64        `json:"tick"`
	Fish json.RawMessage `json:"fish"`
}

func (NPCSnapshot) MsgType() MsgType { return MsgTypeNPCSnapshot }

// AbilityFields are shared by ability start and stop events. The optional
// fields are forwarded only when present.
type AbilityFields struct {
	Ability   string          `json:"ability"`
	Color     json.RawMessage `json:"color,omitempty"`
	Terrain   json.RawMessage `json:"terrain,omitempty"`
	MimicSeed json.RawMessage `json:"mimicSeed,omitempty"`
}

// AbilityStart begins an ability effect.
type AbilityStart struct {
	AbilityFields
}

func (AbilityStart) MsgType() MsgType { return MsgTypeAbilityStart }

// AbilityStop ends an ability effect.
type AbilityStop struct {
	AbilityFields
}

func (AbilityStop) MsgType() MsgType { return MsgTypeAbilityStop }

// PrismPlace places a light prism structure. The geometry and material
// fields are opaque to the server.
type PrismPlace struct {
	PrismID    json.RawMessage `json:"prismId"`
	Position   json.RawMessage `json:"position"`
	Quaternion json.RawMessage `json:"quaternion"`
	Length     json.RawMessage `json:"length,omitempty"`
	Radius     json.RawMessage `json:"radius,omitempty"`
	Color      json.RawMessage `json:"color,omitempty"`
	Roughness  json.RawMessage `json:"roughness,omitempty"`
	Metalness  json.RawMessage `json:"metalness,omitempty"`
	Emissive   json.RawMessage `json:"emissive,omitempty"`
}

func (PrismPlace) MsgType() MsgType { return MsgTypePrismPlace }

// PrismRemove removes a previously placed prism.
type PrismRemove struct {
	PrismID json.RawMessage `json:"prismId"`
}

func (PrismRemove) MsgType() MsgType { return MsgTypePrismRemove }

// Chat is a room-wide text message.
type Chat struct {
	Text          string `json:"text"`
	IsEmoji       bool   `json:"isEmoji"`
	ShowProximity *bool  `json:"showProximity"`
}

func (Chat) MsgType() MsgType { return MsgTypeChat }

// RequestMapChange asks the room to reroll its seeds.
type RequestMapChange struct{}

func (RequestMapChange) MsgType() MsgType { return MsgTypeRequestMapChange }

// EatPlayer is enumerated but has no accepted contract yet; the room
// rejects it.
type EatPlayer struct{}

func (EatPlayer) MsgType() MsgType { return MsgTypeEatPlayer }

// --- Server-origin messages ---

// PlayerSnapshot is the per-player record embedded in Welcome and
// PlayerJoin.
type PlayerSnapshot struct {
	ID       int       `json:"id"`
	Name     string    `json:"name"`
	Position Vec3      `json:"position"`
	Rotation Vec3      `json:"rotation"`
	Scale    float64   `json:"scale"`
	Creature *Creature `json:"creature"`
}

// Welcome is sent once to each new connection. Players lists only the
// other players that are already in game; DeadNpcIds lets the late joiner
// suppress NPCs eaten since the current seed.
type Welcome struct {
	T          MsgType          `json:"t"`
	ID         int              `json:"id"`
	RoomID     string           `json:"roomId"`
	WorldSeed  uint32           `json:"worldSeed"`
	NpcSeed    uint32           `json:"npcSeed"`
	HostID     int              `json:"hostId"`
	IsHost     bool             `json:"isHost"`
	Players    []PlayerSnapshot `json:"players"`
	DeadNpcIds []string         `json:"deadNpcIds"`
}

// PlayerJoin announces a player that entered the game.
type PlayerJoin struct {
	T MsgType `json:"t"`
	PlayerSnapshot
}

// PlayerLeave announces a departed player.
type PlayerLeave struct {
	T  MsgType `json:"t"`
	ID int     `json:"id"`
}

// Pong answers a Ping directly to its sender.
type Pong struct {
	T          MsgType `json:"t"`
	ClientTime float64 `json:"clientTime"`
	ServerTime int64   `json:"serverTime"`
}

// PositionSample is one player's entry in a BatchPositions frame.
type PositionSample struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
	RX float64 `json:"rx"`
	RY float64 `json:"ry"`
	RZ float64 `json:"rz"`
	S  float64 `json:"s"`
}

// BatchPositions is the tick broadcast folding every in-game player's
// current position into one frame.
type BatchPositions struct {
	T    MsgType          `json:"t"`
	Time int64            `json:"time"`
	P    []PositionSample `json:"p"`
}

// CreatureUpdateRelay forwards a creature change to the rest of the room.
type CreatureUpdateRelay struct {
	T        MsgType  `json:"t"`
	ID       int      `json:"id"`
	Creature Creature `json:"creature"`
}

// SizeUpdateRelay forwards a scale change to the rest of the room.
type SizeUpdateRelay struct {
	T     MsgType `json:"t"`
	ID    int     `json:"id"`
	Scale float64 `json:"scale"`
}

// NPCDeath confirms an eaten NPC to the whole room, the eater included.
type NPCDeath struct {
	T       MsgType `json:"t"`
	NpcID   string  `json:"npcId"`
	EatenBy int     `json:"eatenBy"`
}

// NPCSnapshotRelay forwards the host's snapshot to the rest of the room.
type NPCSnapshotRelay struct {
	T    MsgType         `json:"t"`
	Tick float64         `json:"tick"`
	Fish json.RawMessage `json:"fish"`
}

// HostAssigned is sent directly to a player that just became host.
type HostAssigned struct {
	T      MsgType `json:"t"`
	IsHost bool    `json:"isHost"`
}

// HostChanged tells everyone else who the new host is.
type HostChanged struct {
	T      MsgType `json:"t"`
	HostID int     `json:"hostId"`
}

// MapChange distributes the new master seed to the whole room. Clients
// derive the NPC seed as (seed + 1) mod 2^32.
type MapChange struct {
	T           MsgType `json:"t"`
	Seed        uint32  `json:"seed"`
	RequestedBy int     `json:"requestedBy"`
}

// AbilityRelay forwards an ability start or stop, stamped with the
// sender's id.
type AbilityRelay struct {
	T         MsgType         `json:"t"`
	ID        int             `json:"id"`
	Ability   string          `json:"ability"`
	Color     json.RawMessage `json:"color,omitempty"`
	Terrain   json.RawMessage `json:"terrain,omitempty"`
	MimicSeed json.RawMessage `json:"mimicSeed,omitempty"`
}

// PrismPlaceRelay forwards a prism placement, stamped with the sender's id.
type PrismPlaceRelay struct {
	T          MsgType         `json:"t"`
	ID         int             `json:"id"`
	PrismID    json.RawMessage `json:"prismId"`
	Position   json.RawMessage `json:"position"`
	Quaternion json.RawMessage `json:"quaternion"`
	Length     json.RawMessage `json:"length,omitempty"`
	Radius     json.RawMessage `json:"radius,omitempty"`
	Color      json.RawMessage `json:"color,omitempty"`
	Roughness  json.RawMessage `json:"roughness,omitempty"`
	Metalness  json.RawMessage `json:"metalness,omitempty"`
	Emissive   json.RawMessage `json:"emissive,omitempty"`
}

// PrismRemoveRelay forwards a prism removal, stamped with the sender's id.
type PrismRemoveRelay struct {
	T       MsgType         `json:"t"`
	ID      int             `json:"id"`
	PrismID json.RawMessage `json:"prismId"`
}

// ChatBroadcast forwards a chat line with the sender's identity attached.
type ChatBroadcast struct {
	T             MsgType `json:"t"`
	SenderID      int     `json:"senderId"`
	Sender        string  `json:"sender"`
	Text          string  `json:"text"`
	IsEmoji       bool    `json:"isEmoji"`
	ShowProximity bool    `json:"showProximity"`
}
