package session

import (
	"time"

	"github.com/codesync/codesync/pkg/api"
	"github.com/codesync/codesync/pkg/com"
)

// PendingChange is an editor's proposed code text waiting for
// the owner's verdict.
type PendingChange struct {
	ID        com.Uid
	Code      string
	FromConn  com.Uid
	FromName  string
	CreatedAt time.Time
}

// Room holds the whole state of one collaboration session: the
// authoritative code buffer, its participants and the outstanding
// proposals. A room exists only while someone is connected to it.
//
// Rooms are not safe for concurrent use; all mutations must come
// from the hub's single event loop.
type Room struct {
	Key      string
	Code     string
	Language string
	FileName string

	participants map[string]*Participant // keyed by user id
	pending      map[com.Uid]*PendingChange

	// connection of the editor extension that last pushed its buffer,
	// if any; used by clients to route code back to the desktop
	desktopOwner com.Uid
}

func newRoom(key, code, language, fileName string) *Room {
	return &Room{
		Key:          key,
		Code:         code,
		Language:     language,
		FileName:     fileName,
		participants: make(map[string]*Participant, 2),
		pending:      make(map[com.Uid]*PendingChange, 1),
	}
}

// Join adds a participant or revives a previous one.
//
// A known user id is the reconnect path: the stored record gets the
// fresh connection id and keeps its role. A new user id gets the
// owner role when the room has no owner, editor otherwise. The role
// decision and the commit happen in one step so two racing joins
// can never both end up owning the room.
func (r *Room) Join(userID, name string, conn com.Uid) (p *Participant, reconnected bool) {
	if prev, ok := r.participants[userID]; ok {
		prev.ConnID = conn
		prev.Name = name
		return prev, true
	}
	role := api.RoleEditor
	if r.Owner() == nil {
		role = api.RoleOwner
	}
	p = &Participant{UserID: userID, ConnID: conn, Name: name, Role: role}
	r.participants[userID] = p
	return p, false
}

// Leave removes the participant owning the given connection.
// A connection id with no participant (stale or already replaced
// by a reconnect) is a no-op.
func (r *Room) Leave(conn com.Uid) *Participant {
	p := r.FindByConn(conn)
	if p == nil {
		return nil
	}
	delete(r.participants, p.UserID)
	if r.desktopOwner == conn {
		r.desktopOwner = com.NilUid
	}
	return p
}

func (r *Room) FindByConn(conn com.Uid) *Participant {
	for _, p := range r.participants {
		if p.ConnID == conn {
			return p
		}
	}
	return nil
}

func (r *Room) Owner() *Participant {
	for _, p := range r.participants {
		if p.Role == api.RoleOwner {
			return p
		}
	}
	return nil
}

// Others lists every participant except the given connection.
func (r *Room) Others(conn com.Uid) []*Participant {
	out := make([]*Participant, 0, len(r.participants))
	for _, p := range r.participants {
		if p.ConnID != conn {
			out = append(out, p)
		}
	}
	return out
}

func (r *Room) IsEmpty() bool { return len(r.participants) == 0 }

func (r *Room) HasPending(id com.Uid) bool { return r.pending[id] != nil }

func (r *Room) PendingCount() int { return len(r.pending) }

// OwnerEdit replaces the authoritative code, but only when the
// calling connection really holds the owner role. The stored role
// is checked, never the client's claim.
func (r *Room) OwnerEdit(conn com.Uid, code string) bool {
	p := r.FindByConn(conn)
	if p == nil || p.Role != api.RoleOwner {
		return false
	}
	r.Code = code
	return true
}

// DesktopPush is the editor-extension variant of an owner edit:
// the whole buffer plus its file metadata. Same authority rule.
func (r *Room) DesktopPush(conn com.Uid, code, fileName, language string) bool {
	if !r.OwnerEdit(conn, code) {
		return false
	}
	if fileName != "" {
		r.FileName = fileName
	}
	if language != "" {
		r.Language = language
	}
	r.desktopOwner = conn
	return true
}

// Propose registers a new pending change from an editor.
// The authoritative code is not touched.
func (r *Room) Propose(conn com.Uid, code string) *PendingChange {
	p := r.FindByConn(conn)
	if p == nil || p.Role != api.RoleEditor {
		return nil
	}
	change := &PendingChange{
		ID:        com.NewUid(),
		Code:      code,
		FromConn:  conn,
		FromName:  p.Name,
		CreatedAt: time.Now(),
	}
	r.pending[change.ID] = change
	return change
}

// Accept resolves a pending change by adopting its text.
// Unknown ids are a no-op: the change may have been resolved by a
// racing owner action already.
func (r *Room) Accept(conn com.Uid, id com.Uid) *PendingChange {
	change := r.resolve(conn, id)
	if change != nil {
		r.Code = change.Code
	}
	return change
}

// Reject resolves a pending change by discarding its text.
func (r *Room) Reject(conn com.Uid, id com.Uid) *PendingChange {
	return r.resolve(conn, id)
}

func (r *Room) resolve(conn com.Uid, id com.Uid) *PendingChange {
	p := r.FindByConn(conn)
	if p == nil || p.Role != api.RoleOwner {
		return nil
	}
	change, ok := r.pending[id]
	if !ok {
		return nil
	}
	delete(r.pending, id)
	return change
}

// Roster returns the wire records of all participants except the
// given connection.
func (r *Room) Roster(conn com.Uid) []api.Participant {
	others := r.Others(conn)
	out := make([]api.Participant, 0, len(others))
	for _, p := range others {
		out = append(out, p.Public())
	}
	return out
}
