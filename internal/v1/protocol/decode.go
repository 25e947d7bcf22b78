package protocol

import (
	"encoding/json"
	"math"

	"github.com/tidwall/gjson"
)

// Decode parses one inbound frame. It never returns an error: frames that
// are not JSON objects or carry a missing or non-integer "t" tag decode to
// Invalid, well-formed frames with an unrecognised tag decode to Unknown,
// and a frame whose body does not fit its tag's shape decodes to Invalid.
func Decode(frame []byte) Message {
	if !gjson.ValidBytes(frame) {
		return Invalid{}
	}
	tag := gjson.GetBytes(frame, "t")
	if tag.Type != gjson.Number || tag.Num != math.Trunc(tag.Num) {
		return Invalid{}
	}

	switch MsgType(tag.Int()) {
	case MsgTypePing:
		return unmarshal[Ping](frame)
	case MsgTypePosition:
		return unmarshal[Position](frame)
	case MsgTypeJoinGame:
		return unmarshal[JoinGame](frame)
	case MsgTypeCreatureUpdate:
		return unmarshal[CreatureUpdate](frame)
	case MsgTypeSizeUpdate:
		return unmarshal[SizeUpdate](frame)
	case MsgTypeEatNPC:
		return unmarshal[EatNPC](frame)
	case MsgTypeNPCSnapshot:
		return unmarshal[NPCSnapshot](frame)
	case MsgTypeEatPlayer:
		return unmarshal[EatPlayer](frame)
	case MsgTypeRequestMapChange:
		return unmarshal[RequestMapChange](frame)
	case MsgTypeAbilityStart:
		return unmarshal[AbilityStart](frame)
	case MsgTypeAbilityStop:
		return unmarshal[AbilityStop](frame)
	case MsgTypePrismPlace:
		return unmarshal[PrismPlace](frame)
	case MsgTypePrismRemove:
		return unmarshal[PrismRemove](frame)
	case MsgTypeChat:
		return unmarshal[Chat](frame)
	default:
		return Unknown{Tag: MsgType(tag.Int())}
	}
}

// unmarshal decodes the frame into the variant for its tag, collapsing any
// shape mismatch into Invalid.
func unmarshal[M Message](frame []byte) Message {
	var m M
	if err := json.Unmarshal(frame, &m); err != nil {
		return Invalid{}
	}
	return m
}

// Encode marshals a server-origin message into one wire frame.
func Encode(msg any) ([]byte, error) {
	return json.Marshal(msg)
}
