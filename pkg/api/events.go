package api

import "github.com/goccy/go-json"

type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
)

// StreamKind tags one of the two independent media channels
// a pair of participants may have between them.
type StreamKind string

const (
	StreamCamera StreamKind = "camera"
	StreamScreen StreamKind = "screen"
)

func (k StreamKind) Valid() bool { return k == StreamCamera || k == StreamScreen }

// Participant is the public record of one room member.
type Participant struct {
	UserID string `json:"userId"`
	ConnID string `json:"connectionId"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	Color  string `json:"color"`
}

// client → server

type JoinRoomRequest struct {
	RoomKey string `json:"roomKey"`
	UserID  string `json:"userId"`
	Name    string `json:"displayName"`
}

type OwnerEditRequest struct {
	RoomKey string `json:"roomKey"`
	Code    string `json:"code"`
}

type ProposeChangeRequest struct {
	RoomKey string `json:"roomKey"`
	Code    string `json:"code"`
}

type AcceptChangeRequest struct {
	RoomKey  string `json:"roomKey"`
	ChangeID string `json:"changeId"`
}

type RejectChangeRequest struct {
	RoomKey  string `json:"roomKey"`
	ChangeID string `json:"changeId"`
}

// DesktopPushRequest is the editor-extension variant of an owner edit:
// the extension pushes its whole buffer together with file metadata.
type DesktopPushRequest struct {
	RoomKey  string `json:"roomKey"`
	Code     string `json:"code"`
	FileName string `json:"fileName"`
	Language string `json:"language"`
}

// WebrtcSignalRequest carries an opaque signaling blob to one connection.
// The server never looks inside Payload.
type WebrtcSignalRequest struct {
	To      string          `json:"toConnectionId"`
	Payload json.RawMessage `json:"payload"`
	Kind    StreamKind      `json:"streamKind"`
}

type ScreenLifecycleRequest struct {
	RoomKey string `json:"roomKey"`
}

// server → client

type RoleAssignedPush struct {
	Role        Role        `json:"role"`
	Participant Participant `json:"participant"`
}

type CodeSnapshotPush struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	FileName string `json:"fileName"`
}

type CodeUpdatedPush struct {
	Code string `json:"code"`
}

type ChangePendingPush struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	FromName  string `json:"fromName"`
	Timestamp int64  `json:"timestamp"`
}

type ChangeResolvedPush struct {
	ChangeID string `json:"changeId"`
	Code     string `json:"code"`
	Accepted bool   `json:"accepted"`
}

type ParticipantJoinedPush struct {
	Participant Participant `json:"participant"`
}

type ParticipantLeftPush struct {
	ConnID string `json:"connectionId"`
}

type RoomUsersPush struct {
	Users []Participant `json:"users"`
}

type WebrtcSignalPush struct {
	From     string          `json:"fromConnectionId"`
	FromName string          `json:"fromName"`
	Payload  json.RawMessage `json:"payload"`
	Kind     StreamKind      `json:"streamKind"`
}

type PeerScreenPush struct {
	ConnID string `json:"connectionId"`
}
