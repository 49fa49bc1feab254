// Package api defines the wire API between the coordination server and its clients.
//
// Each message is a JSON-encoded packet of the following structure:
//
//	t - (required) one of the predefined unique packet types;
//	p - (optional) packet payload with arbitrary data.
//
// Packets differentiate by their predefined types with which it is possible
// to unwrap the payload into distinct request/response data structures.
//
// Example:
//
//	{"t":101,"p":{"roomKey":"abcd1234","userId":"u1","name":"Alice"}}
package api

import (
	"github.com/goccy/go-json"
)

type PT uint8

type In struct {
	T       PT              `json:"t"`
	Payload json.RawMessage `json:"p,omitempty"` // raw for the 2-pass unmarshal
}

type Out struct {
	T       PT  `json:"t"`
	Payload any `json:"p,omitempty"`
}

// Packet codes:
//
//	1xx - client requests
//	2xx - server pushes
const (
	JoinRoom      PT = 101
	OwnerEdit     PT = 102
	ProposeChange PT = 103
	AcceptChange  PT = 104
	RejectChange  PT = 105
	DesktopPush   PT = 106
	WebrtcOffer   PT = 110
	WebrtcAnswer  PT = 111
	WebrtcIce     PT = 112
	ScreenStarted PT = 113
	ScreenStopped PT = 114

	RoleAssigned      PT = 201
	CodeSnapshot      PT = 202
	CodeUpdated       PT = 203
	ChangePending     PT = 204
	ChangeResolved    PT = 205
	ParticipantJoined PT = 206
	ParticipantLeft   PT = 207
	RoomUsers         PT = 208
	PeerScreenStarted PT = 210
	PeerScreenStopped PT = 211
)

func (p PT) String() string {
	switch p {
	case JoinRoom:
		return "JoinRoom"
	case OwnerEdit:
		return "OwnerEdit"
	case ProposeChange:
		return "ProposeChange"
	case AcceptChange:
		return "AcceptChange"
	case RejectChange:
		return "RejectChange"
	case DesktopPush:
		return "DesktopPush"
	case WebrtcOffer:
		return "WebrtcOffer"
	case WebrtcAnswer:
		return "WebrtcAnswer"
	case WebrtcIce:
		return "WebrtcIce"
	case ScreenStarted:
		return "ScreenStarted"
	case ScreenStopped:
		return "ScreenStopped"
	case RoleAssigned:
		return "RoleAssigned"
	case CodeSnapshot:
		return "CodeSnapshot"
	case CodeUpdated:
		return "CodeUpdated"
	case ChangePending:
		return "ChangePending"
	case ChangeResolved:
		return "ChangeResolved"
	case ParticipantJoined:
		return "ParticipantJoined"
	case ParticipantLeft:
		return "ParticipantLeft"
	case RoomUsers:
		return "RoomUsers"
	case PeerScreenStarted:
		return "PeerScreenStarted"
	case PeerScreenStopped:
		return "PeerScreenStopped"
	default:
		return "Unknown"
	}
}

// Unwrap deserializes a packet payload into the T structure,
// returns nil on malformed data.
func Unwrap[T any](data []byte) *T {
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		return nil
	}
	return out
}
