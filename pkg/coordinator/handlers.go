package coordinator

import (
	"context"

	"github.com/codesync/codesync/pkg/api"
	"github.com/codesync/codesync/pkg/com"
	"github.com/codesync/codesync/pkg/session"
	"github.com/codesync/codesync/pkg/storage"
)

func (h *Hub) handleJoin(usr *User, rq *api.JoinRoomRequest) {
	if rq == nil || rq.RoomKey == "" || rq.UserID == "" || rq.Name == "" {
		h.log.Debug().Msg("join dropped: missing fields")
		return
	}
	if usr.RoomKey != "" && usr.RoomKey != rq.RoomKey {
		h.log.Warn().Msgf("connection %v tried to join a second room", usr.Id())
		return
	}

	room, created := h.registry.GetOrCreate(rq.RoomKey)
	p, reconnected := room.Join(rq.UserID, rq.Name, usr.Id())
	usr.Name = rq.Name
	usr.RoomKey = rq.RoomKey

	usr.SendSnapshot(room)
	usr.SendRole(p)
	usr.SendRoomUsers(room.Roster(usr.Id()))
	h.broadcast(room, usr.Id(), func(u *User) { u.SendParticipantJoined(p) })

	if created {
		metricRooms.Inc()
		h.seedFromStore(room.Key)
	}
	if !reconnected {
		metricParticipants.Inc()
	}
	h.log.Info().
		Str("room", room.Key).
		Str("role", string(p.Role)).
		Bool("reconnect", reconnected).
		Msgf("%s joined", p.Name)
}

// seedFromStore loads a previously saved buffer for a brand-new room.
// The read is asynchronous and its result applies only if nobody has
// touched the room in the meantime; live state always wins.
func (h *Hub) seedFromStore(key string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		doc, err := h.store.Load(ctx, key)
		if err != nil {
			h.log.Warn().Err(err).Str("room", key).Msg("room load failed")
			return
		}
		if doc == nil {
			return
		}
		h.queue(command{fn: func() { h.applySeed(key, *doc) }})
	}()
}

func (h *Hub) applySeed(key string, doc storage.RoomDoc) {
	room := h.registry.Find(key)
	if room == nil {
		return
	}
	if room.Code != h.conf.Session.Code || room.PendingCount() > 0 {
		return
	}
	room.Code = doc.Code
	if doc.Language != "" {
		room.Language = doc.Language
	}
	if doc.FileName != "" {
		room.FileName = doc.FileName
	}
	h.broadcast(room, com.NilUid, func(u *User) { u.SendSnapshot(room) })
	h.log.Debug().Str("room", key).Msg("room seeded from store")
}

func (h *Hub) handleOwnerEdit(usr *User, rq *api.OwnerEditRequest) {
	if rq == nil {
		return
	}
	room := h.roomOf(rq.RoomKey)
	if room == nil {
		return
	}
	if !room.OwnerEdit(usr.Id(), rq.Code) {
		h.reject(usr, "edit")
		return
	}
	h.broadcast(room, usr.Id(), func(u *User) { u.SendCodeUpdated(room.Code) })
	h.persist(room)
}

func (h *Hub) handleDesktopPush(usr *User, rq *api.DesktopPushRequest) {
	if rq == nil {
		return
	}
	room := h.roomOf(rq.RoomKey)
	if room == nil {
		return
	}
	if !room.DesktopPush(usr.Id(), rq.Code, rq.FileName, rq.Language) {
		h.reject(usr, "desktop push")
		return
	}
	h.broadcast(room, usr.Id(), func(u *User) { u.SendSnapshot(room) })
	h.persist(room)
}

func (h *Hub) handlePropose(usr *User, rq *api.ProposeChangeRequest) {
	if rq == nil {
		return
	}
	room := h.roomOf(rq.RoomKey)
	if room == nil {
		return
	}
	change := room.Propose(usr.Id(), rq.Code)
	if change == nil {
		h.reject(usr, "propose")
		return
	}
	metricProposals.Inc()
	h.broadcast(room, com.NilUid, func(u *User) { u.SendChangePending(change) })
}

func (h *Hub) handleAccept(usr *User, rq *api.AcceptChangeRequest) {
	if rq == nil {
		return
	}
	room := h.roomOf(rq.RoomKey)
	if room == nil {
		return
	}
	id, err := com.UidFrom(rq.ChangeID)
	if err != nil {
		h.log.Debug().Msgf("accept dropped: bad change id %q", rq.ChangeID)
		return
	}
	change := room.Accept(usr.Id(), id)
	if change == nil {
		// stale id or not the owner, both are silent
		h.log.Debug().Str("room", room.Key).Msgf("accept is a no-op for %v", id)
		return
	}
	metricResolutions.WithLabelValues("accepted").Inc()
	h.broadcast(room, com.NilUid, func(u *User) { u.SendChangeResolved(id, room.Code, true) })
	h.persist(room)
}

func (h *Hub) handleReject(usr *User, rq *api.RejectChangeRequest) {
	if rq == nil {
		return
	}
	room := h.roomOf(rq.RoomKey)
	if room == nil {
		return
	}
	id, err := com.UidFrom(rq.ChangeID)
	if err != nil {
		h.log.Debug().Msgf("reject dropped: bad change id %q", rq.ChangeID)
		return
	}
	change := room.Reject(usr.Id(), id)
	if change == nil {
		h.log.Debug().Str("room", room.Key).Msgf("reject is a no-op for %v", id)
		return
	}
	metricResolutions.WithLabelValues("rejected").Inc()
	h.broadcast(room, com.NilUid, func(u *User) { u.SendChangeResolved(id, room.Code, false) })
}

// handleSignal forwards an opaque WebRTC blob to exactly one peer.
// The hub annotates who it came from but never inspects the payload,
// so camera and screen negotiations stay fully independent streams.
func (h *Hub) handleSignal(t api.PT, usr *User, rq *api.WebrtcSignalRequest) {
	if rq == nil || !rq.Kind.Valid() {
		h.log.Debug().Msgf("signal %v dropped: bad stream kind", t)
		return
	}
	to, err := com.UidFrom(rq.To)
	if err != nil {
		h.log.Debug().Msgf("signal %v dropped: bad target %q", t, rq.To)
		return
	}
	target, err := h.users.Find(to)
	if err != nil {
		// peer already gone, nothing to relay to
		h.log.Debug().Msgf("signal %v dropped: peer %v is offline", t, to)
		return
	}
	metricSignals.WithLabelValues(string(rq.Kind)).Inc()
	target.ForwardSignal(t, usr, *rq)
}

func (h *Hub) handleScreen(t api.PT, usr *User, rq *api.ScreenLifecycleRequest) {
	if rq == nil {
		return
	}
	room := h.roomOf(rq.RoomKey)
	if room == nil {
		return
	}
	if room.FindByConn(usr.Id()) == nil {
		h.reject(usr, "screen share")
		return
	}
	out := api.PeerScreenStarted
	if t == api.ScreenStopped {
		out = api.PeerScreenStopped
	}
	h.broadcast(room, usr.Id(), func(u *User) { u.SendPeerScreen(out, usr.Id()) })
}

func (h *Hub) handleLeave(usr *User) {
	if usr.RoomKey == "" {
		return
	}
	room := h.registry.Find(usr.RoomKey)
	if room == nil {
		return
	}
	p := room.Leave(usr.Id())
	if p == nil {
		// the slot was already taken over by a reconnect
		return
	}
	metricParticipants.Dec()
	h.broadcast(room, usr.Id(), func(u *User) { u.SendParticipantLeft(usr.Id()) })
	h.log.Info().Str("room", room.Key).Msgf("%s left", p.Name)

	if room.IsEmpty() {
		h.persist(room)
		if h.registry.RemoveIfEmpty(room.Key) {
			metricRooms.Dec()
		}
	}
}

// roomOf resolves the room a request addresses; an unknown key drops
// the event. Per-connection authority checks happen inside the session
// methods against the stored roles.
func (h *Hub) roomOf(key string) *session.Room {
	if key == "" {
		return nil
	}
	return h.registry.Find(key)
}

func (h *Hub) reject(usr *User, op string) {
	metricRejectedOps.Inc()
	h.log.Warn().Msgf("%s by %v rejected: no authority", op, usr.Id())
}
