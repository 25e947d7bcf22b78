package protocol

import (
	"bytes"
	"math"
)

// World bounds for accepted positions. Equality is accepted; only values
// strictly beyond the bound are rejected.
const (
	MaxPositionXZ = 1000.0
	MaxPositionY  = 100.0
)

// Scale must be strictly inside (0, 100).
const MaxScale = 100.0

// MaxChatLength is the relayed chat text cap; longer texts are truncated.
const MaxChatLength = 200

// abilities is the closed set of relayable ability identifiers.
var abilities = map[string]struct{}{
	"sprinter": {},
	"stacker":  {},
	"camper":   {},
	"attacker": {},
}

// IsValidPosition reports whether p is a present, finite position within
// the world bounds.
func IsValidPosition(p *Vec3) bool {
	if p == nil {
		return false
	}
	for _, v := range [3]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	if math.Abs(p.X) > MaxPositionXZ || math.Abs(p.Z) > MaxPositionXZ {
		return false
	}
	return math.Abs(p.Y) <= MaxPositionY
}

// IsValidCreature reports whether c is a present creature with non-empty
// type and class identifiers. Seed is numeric by construction after
// decode; variant is normalised at bind time.
func IsValidCreature(c *Creature) bool {
	return c != nil && c.Type != "" && c.Class != ""
}

// IsValidNPCSnapshot reports whether s carries a numeric tick and a fish
// sequence. Element shapes are not re-validated; the payload is relayed
// opaquely.
func IsValidNPCSnapshot(s NPCSnapshot) bool {
	if s.Tick == nil || math.IsNaN(*s.Tick) || math.IsInf(*s.Tick, 0) {
		return false
	}
	fish := bytes.TrimSpace(s.Fish)
	return len(fish) > 0 && fish[0] == '['
}

// IsValidScale reports whether s is strictly inside (0, 100). NaN fails
// both comparisons.
func IsValidScale(s float64) bool {
	return s > 0 && s < MaxScale
}

// IsValidAbility reports whether name is one of the relayable abilities.
func IsValidAbility(name string) bool {
	_, ok := abilities[name]
	return ok
}
