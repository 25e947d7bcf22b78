package protocol

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidPosition_Bounds(t *testing.T) {
	tests := []struct {
		name string
		pos  *Vec3
		want bool
	}{
		{"Nil record", nil, false},
		{"Origin", &Vec3{}, true},
		{"X on the bound", &Vec3{X: 1000}, true},
		{"X just past the bound", &Vec3{X: 1000.01}, false},
		{"Negative X on the bound", &Vec3{X: -1000}, true},
		{"Negative X past the bound", &Vec3{X: -1000.01}, false},
		{"Z past the bound", &Vec3{Z: 2000}, false},
		{"Y on the bound", &Vec3{Y: 100}, true},
		{"Y past the bound", &Vec3{Y: 100.5}, false},
		{"Deep Y", &Vec3{Y: -100}, true},
		{"Too deep Y", &Vec3{Y: -101}, false},
		{"NaN component", &Vec3{X: math.NaN()}, false},
		{"Infinite component", &Vec3{Z: math.Inf(1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidPosition(tt.pos))
		})
	}
}

func TestIsValidScale_StrictOpenInterval(t *testing.T) {
	tests := []struct {
		name  string
		scale float64
		want  bool
	}{
		{"Zero", 0, false},
		{"Just above zero", 0.01, true},
		{"Typical", 1, true},
		{"Just below the cap", 99.9, true},
		{"At the cap", 100, false},
		{"Above the cap", 150, false},
		{"Negative", -1, false},
		{"NaN", math.NaN(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidScale(tt.scale))
		})
	}
}

func TestIsValidCreature(t *testing.T) {
	tests := []struct {
		name     string
		creature *Creature
		want     bool
	}{
		{"Nil", nil, false},
		{"Complete", &Creature{Type: "fish", Class: "tuna", Seed: 7}, true},
		{"Missing type", &Creature{Class: "tuna"}, false},
		{"Missing class", &Creature{Type: "fish"}, false},
		{"Zero seed is fine", &Creature{Type: "fish", Class: "tuna"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidCreature(tt.creature))
		})
	}
}

func TestIsValidNPCSnapshot(t *testing.T) {
	tick := 42.0
	badTick := math.NaN()

	tests := []struct {
		name string
		snap NPCSnapshot
		want bool
	}{
		{"Tick and fish array", NPCSnapshot{Tick: &tick, Fish: json.RawMessage(`[{"id":"f1"}]`)}, true},
		{"Empty fish array still a sequence", NPCSnapshot{Tick: &tick, Fish: json.RawMessage(`[]`)}, true},
		{"Leading whitespace", NPCSnapshot{Tick: &tick, Fish: json.RawMessage(" [1]")}, true},
		{"Missing tick", NPCSnapshot{Fish: json.RawMessage(`[]`)}, false},
		{"NaN tick", NPCSnapshot{Tick: &badTick, Fish: json.RawMessage(`[]`)}, false},
		{"Missing fish", NPCSnapshot{Tick: &tick}, false},
		{"Fish not a sequence", NPCSnapshot{Tick: &tick, Fish: json.RawMessage(`{"id":"f1"}`)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidNPCSnapshot(tt.snap))
		})
	}
}

func TestIsValidAbility(t *testing.T) {
	for _, name := range []string{"sprinter", "stacker", "camper", "attacker"} {
		assert.True(t, IsValidAbility(name), name)
	}
	assert.False(t, IsValidAbility(""))
	assert.False(t, IsValidAbility("teleporter"))
	assert.False(t, IsValidAbility("Sprinter"), "ability names are case sensitive")
}
