package coordinator

import (
	"github.com/codesync/codesync/pkg/api"
	"github.com/codesync/codesync/pkg/com"
	"github.com/codesync/codesync/pkg/logger"
	"github.com/codesync/codesync/pkg/session"
)

// Messenger is the outbound half of one client connection.
// The real implementation is com.SocketClient; tests substitute
// a recorder.
type Messenger interface {
	Id() com.Uid
	Notify(t api.PT, data any)
	Disconnect()
}

// User is one connected client with everything the hub knows
// about it between events.
type User struct {
	Messenger

	// Name and RoomKey are set on a successful join and read only
	// from the hub loop.
	Name    string
	RoomKey string

	log *logger.Logger
}

func NewUser(m Messenger, log *logger.Logger) *User {
	return &User{Messenger: m, log: log}
}

func (u *User) SendRole(p *session.Participant) {
	u.Notify(api.RoleAssigned, api.RoleAssignedPush{Role: p.Role, Participant: p.Public()})
}

func (u *User) SendSnapshot(room *session.Room) {
	u.Notify(api.CodeSnapshot, api.CodeSnapshotPush{
		Code:     room.Code,
		Language: room.Language,
		FileName: room.FileName,
	})
}

func (u *User) SendCodeUpdated(code string) {
	u.Notify(api.CodeUpdated, api.CodeUpdatedPush{Code: code})
}

func (u *User) SendChangePending(change *session.PendingChange) {
	u.Notify(api.ChangePending, api.ChangePendingPush{
		ID:        change.ID.String(),
		Code:      change.Code,
		FromName:  change.FromName,
		Timestamp: change.CreatedAt.UnixMilli(),
	})
}

func (u *User) SendChangeResolved(id com.Uid, code string, accepted bool) {
	u.Notify(api.ChangeResolved, api.ChangeResolvedPush{
		ChangeID: id.String(),
		Code:     code,
		Accepted: accepted,
	})
}

func (u *User) SendParticipantJoined(p *session.Participant) {
	u.Notify(api.ParticipantJoined, api.ParticipantJoinedPush{Participant: p.Public()})
}

func (u *User) SendParticipantLeft(conn com.Uid) {
	u.Notify(api.ParticipantLeft, api.ParticipantLeftPush{ConnID: conn.String()})
}

func (u *User) SendRoomUsers(users []api.Participant) {
	u.Notify(api.RoomUsers, api.RoomUsersPush{Users: users})
}

// ForwardSignal relays an opaque signaling blob to this user,
// annotated with its sender.
func (u *User) ForwardSignal(t api.PT, from *User, rq api.WebrtcSignalRequest) {
	u.Notify(t, api.WebrtcSignalPush{
		From:     from.Id().String(),
		FromName: from.Name,
		Payload:  rq.Payload,
		Kind:     rq.Kind,
	})
}

func (u *User) SendPeerScreen(t api.PT, conn com.Uid) {
	u.Notify(t, api.PeerScreenPush{ConnID: conn.String()})
}
