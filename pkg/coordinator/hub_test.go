package coordinator

import (
	"testing"

	"github.com/codesync/codesync/pkg/api"
	"github.com/codesync/codesync/pkg/com"
	"github.com/codesync/codesync/pkg/config"
	"github.com/codesync/codesync/pkg/logger"
	"github.com/codesync/codesync/pkg/storage"
	"github.com/goccy/go-json"
)

// fakeConn records outbound packets instead of writing a socket.
type fakeConn struct {
	id   com.Uid
	msgs []api.Out
}

func (f *fakeConn) Id() com.Uid               { return f.id }
func (f *fakeConn) Notify(t api.PT, data any) { f.msgs = append(f.msgs, api.Out{T: t, Payload: data}) }
func (f *fakeConn) Disconnect()               {}

func (f *fakeConn) typed(t api.PT) []api.Out {
	var out []api.Out
	for _, m := range f.msgs {
		if m.T == t {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeConn) count(t api.PT) int { return len(f.typed(t)) }

func (f *fakeConn) last(t *testing.T, pt api.PT) api.Out {
	t.Helper()
	msgs := f.typed(pt)
	if len(msgs) == 0 {
		t.Fatalf("no %v message recorded", pt)
	}
	return msgs[len(msgs)-1]
}

func newTestHub() *Hub {
	conf := config.Coordinator{
		Session: config.Session{
			Code:     "// Start coding together!\n",
			Language: "javascript",
			FileName: "index.js",
		},
	}
	return NewHub(conf, storage.Nop{}, logger.Default())
}

// join wires a fake connection into the hub and joins it to a room,
// all synchronously the way the hub loop would.
func join(h *Hub, room, userID, name string) (*User, *fakeConn) {
	f := &fakeConn{id: com.NewUid()}
	u := NewUser(f, h.log)
	h.users.Put(u.Id(), u)
	h.handleJoin(u, &api.JoinRoomRequest{RoomKey: room, UserID: userID, Name: name})
	return u, f
}

func disconnect(h *Hub, u *User) {
	h.handleLeave(u)
	h.users.RemoveByKey(u.Id())
}

func TestJoinHandshake(t *testing.T) {
	h := newTestHub()
	_, alice := join(h, "r1", "ua", "Alice")

	snap := alice.last(t, api.CodeSnapshot).Payload.(api.CodeSnapshotPush)
	if snap.Code != "// Start coding together!\n" || snap.Language != "javascript" || snap.FileName != "index.js" {
		t.Errorf("wrong snapshot: %+v", snap)
	}
	role := alice.last(t, api.RoleAssigned).Payload.(api.RoleAssignedPush)
	if role.Role != api.RoleOwner {
		t.Errorf("first joiner got role %v", role.Role)
	}
	users := alice.last(t, api.RoomUsers).Payload.(api.RoomUsersPush)
	if len(users.Users) != 0 {
		t.Errorf("expected empty roster, got %d entries", len(users.Users))
	}

	_, bob := join(h, "r1", "ub", "Bob")
	if got := bob.last(t, api.RoleAssigned).Payload.(api.RoleAssignedPush); got.Role != api.RoleEditor {
		t.Errorf("second joiner got role %v", got.Role)
	}
	roster := bob.last(t, api.RoomUsers).Payload.(api.RoomUsersPush)
	if len(roster.Users) != 1 || roster.Users[0].Name != "Alice" {
		t.Errorf("wrong roster for Bob: %+v", roster.Users)
	}
	joined := alice.last(t, api.ParticipantJoined).Payload.(api.ParticipantJoinedPush)
	if joined.Participant.Name != "Bob" {
		t.Errorf("Alice saw %q join", joined.Participant.Name)
	}
}

func TestJoinRequiresAllFields(t *testing.T) {
	h := newTestHub()
	f := &fakeConn{id: com.NewUid()}
	u := NewUser(f, h.log)
	h.users.Put(u.Id(), u)
	h.handleJoin(u, &api.JoinRoomRequest{RoomKey: "r1", UserID: "", Name: "Alice"})
	if len(f.msgs) != 0 {
		t.Errorf("join without user id produced %d messages", len(f.msgs))
	}
	if h.registry.Has("r1") {
		t.Error("room was created for an invalid join")
	}
}

func TestOwnerEditBroadcast(t *testing.T) {
	h := newTestHub()
	ua, alice := join(h, "r1", "ua", "Alice")
	_, bob := join(h, "r1", "ub", "Bob")

	h.handleOwnerEdit(ua, &api.OwnerEditRequest{RoomKey: "r1", Code: "x = 1"})

	if got := bob.last(t, api.CodeUpdated).Payload.(api.CodeUpdatedPush); got.Code != "x = 1" {
		t.Errorf("Bob got code %q", got.Code)
	}
	if alice.count(api.CodeUpdated) != 0 {
		t.Error("the edit echoed back to its author")
	}
	if h.registry.Find("r1").Code != "x = 1" {
		t.Error("authoritative code not updated")
	}
}

func TestEditorDirectEditRejected(t *testing.T) {
	h := newTestHub()
	_, alice := join(h, "r1", "ua", "Alice")
	ub, _ := join(h, "r1", "ub", "Bob")

	h.handleOwnerEdit(ub, &api.OwnerEditRequest{RoomKey: "r1", Code: "hacked"})

	if alice.count(api.CodeUpdated) != 0 {
		t.Error("editor edit was broadcast")
	}
	if h.registry.Find("r1").Code == "hacked" {
		t.Error("editor edit mutated the authoritative code")
	}
}

func TestProposeAcceptFlow(t *testing.T) {
	h := newTestHub()
	ua, alice := join(h, "r1", "ua", "Alice")
	ub, bob := join(h, "r1", "ub", "Bob")

	h.handlePropose(ub, &api.ProposeChangeRequest{RoomKey: "r1", Code: "x = 1"})

	pending := alice.last(t, api.ChangePending).Payload.(api.ChangePendingPush)
	if pending.Code != "x = 1" || pending.FromName != "Bob" {
		t.Fatalf("wrong pending change: %+v", pending)
	}
	if bob.count(api.ChangePending) != 1 {
		t.Error("proposer did not get the pending notice")
	}
	if h.registry.Find("r1").Code == "x = 1" {
		t.Fatal("proposal mutated the code before any verdict")
	}

	h.handleAccept(ua, &api.AcceptChangeRequest{RoomKey: "r1", ChangeID: pending.ID})

	res := bob.last(t, api.ChangeResolved).Payload.(api.ChangeResolvedPush)
	if !res.Accepted || res.Code != "x = 1" || res.ChangeID != pending.ID {
		t.Errorf("wrong resolution: %+v", res)
	}
	if h.registry.Find("r1").Code != "x = 1" {
		t.Error("accepted change was not adopted")
	}
}

func TestProposeRejectFlow(t *testing.T) {
	h := newTestHub()
	ua, alice := join(h, "r1", "ua", "Alice")
	ub, bob := join(h, "r1", "ub", "Bob")

	h.handleOwnerEdit(ua, &api.OwnerEditRequest{RoomKey: "r1", Code: "x = 1"})
	h.handlePropose(ub, &api.ProposeChangeRequest{RoomKey: "r1", Code: "x = 2"})
	pending := alice.last(t, api.ChangePending).Payload.(api.ChangePendingPush)

	h.handleReject(ua, &api.RejectChangeRequest{RoomKey: "r1", ChangeID: pending.ID})

	res := bob.last(t, api.ChangeResolved).Payload.(api.ChangeResolvedPush)
	if res.Accepted || res.Code != "x = 1" {
		t.Errorf("wrong resolution: %+v", res)
	}
	if h.registry.Find("r1").Code != "x = 1" {
		t.Error("rejected change leaked into the code")
	}
}

func TestEditorCannotResolve(t *testing.T) {
	h := newTestHub()
	_, alice := join(h, "r1", "ua", "Alice")
	ub, bob := join(h, "r1", "ub", "Bob")

	h.handlePropose(ub, &api.ProposeChangeRequest{RoomKey: "r1", Code: "x = 1"})
	pending := bob.last(t, api.ChangePending).Payload.(api.ChangePendingPush)

	h.handleAccept(ub, &api.AcceptChangeRequest{RoomKey: "r1", ChangeID: pending.ID})

	if alice.count(api.ChangeResolved) != 0 || bob.count(api.ChangeResolved) != 0 {
		t.Error("an editor resolved its own change")
	}
	if h.registry.Find("r1").Code == "x = 1" {
		t.Error("self-accept mutated the code")
	}
}

func TestResolutionIsIdempotent(t *testing.T) {
	h := newTestHub()
	ua, _ := join(h, "r1", "ua", "Alice")
	ub, bob := join(h, "r1", "ub", "Bob")

	h.handlePropose(ub, &api.ProposeChangeRequest{RoomKey: "r1", Code: "x = 1"})
	pending := bob.last(t, api.ChangePending).Payload.(api.ChangePendingPush)

	h.handleAccept(ua, &api.AcceptChangeRequest{RoomKey: "r1", ChangeID: pending.ID})
	h.handleReject(ua, &api.RejectChangeRequest{RoomKey: "r1", ChangeID: pending.ID})
	h.handleAccept(ua, &api.AcceptChangeRequest{RoomKey: "r1", ChangeID: "unknown-id"})

	if n := bob.count(api.ChangeResolved); n != 1 {
		t.Errorf("change resolved %d times", n)
	}
}

func TestSignalRelay(t *testing.T) {
	h := newTestHub()
	ua, alice := join(h, "r1", "ua", "Alice")
	ub, bob := join(h, "r1", "ub", "Bob")

	payload := json.RawMessage(`{"sdp":"offer-blob"}`)
	h.handleSignal(api.WebrtcOffer, ub, &api.WebrtcSignalRequest{
		To: ua.Id().String(), Payload: payload, Kind: api.StreamScreen,
	})

	sig := alice.last(t, api.WebrtcOffer).Payload.(api.WebrtcSignalPush)
	if sig.From != ub.Id().String() || sig.FromName != "Bob" {
		t.Errorf("wrong sender annotation: %+v", sig)
	}
	if sig.Kind != api.StreamScreen {
		t.Errorf("stream kind changed in transit: %v", sig.Kind)
	}
	if string(sig.Payload) != string(payload) {
		t.Error("payload was not forwarded verbatim")
	}
	if bob.count(api.WebrtcOffer) != 0 {
		t.Error("signal echoed back to the sender")
	}
}

func TestSignalValidation(t *testing.T) {
	h := newTestHub()
	ua, alice := join(h, "r1", "ua", "Alice")
	ub, _ := join(h, "r1", "ub", "Bob")

	// bogus stream kind
	h.handleSignal(api.WebrtcIce, ub, &api.WebrtcSignalRequest{To: ua.Id().String(), Kind: "microphone"})
	// unparsable target
	h.handleSignal(api.WebrtcIce, ub, &api.WebrtcSignalRequest{To: "???", Kind: api.StreamCamera})
	// valid but disconnected target
	h.handleSignal(api.WebrtcIce, ub, &api.WebrtcSignalRequest{To: com.NewUid().String(), Kind: api.StreamCamera})

	if alice.count(api.WebrtcIce) != 0 {
		t.Error("an invalid signal was relayed")
	}
}

func TestScreenLifecycleBroadcast(t *testing.T) {
	h := newTestHub()
	_, alice := join(h, "r1", "ua", "Alice")
	ub, bob := join(h, "r1", "ub", "Bob")

	h.handleScreen(api.ScreenStarted, ub, &api.ScreenLifecycleRequest{RoomKey: "r1"})
	started := alice.last(t, api.PeerScreenStarted).Payload.(api.PeerScreenPush)
	if started.ConnID != ub.Id().String() {
		t.Errorf("wrong sharer id %q", started.ConnID)
	}
	if bob.count(api.PeerScreenStarted) != 0 {
		t.Error("screen start echoed back to the sharer")
	}

	h.handleScreen(api.ScreenStopped, ub, &api.ScreenLifecycleRequest{RoomKey: "r1"})
	if alice.count(api.PeerScreenStopped) != 1 {
		t.Error("screen stop was not broadcast")
	}
}

func TestLeaveBroadcastAndRoomRemoval(t *testing.T) {
	h := newTestHub()
	ua, _ := join(h, "r1", "ua", "Alice")
	ub, bob := join(h, "r1", "ub", "Bob")

	disconnect(h, ua)
	left := bob.last(t, api.ParticipantLeft).Payload.(api.ParticipantLeftPush)
	if left.ConnID != ua.Id().String() {
		t.Errorf("wrong leaver id %q", left.ConnID)
	}
	if !h.registry.Has("r1") {
		t.Fatal("room dropped while still occupied")
	}

	disconnect(h, ub)
	if h.registry.Has("r1") {
		t.Error("empty room was not removed")
	}
}

func TestVacatedOwnerSlotGoesToNextNewJoiner(t *testing.T) {
	h := newTestHub()
	ua, _ := join(h, "r1", "ua", "Alice")
	_, _ = join(h, "r1", "ub", "Bob")

	disconnect(h, ua)
	_, carol := join(h, "r1", "uc", "Carol")

	if got := carol.last(t, api.RoleAssigned).Payload.(api.RoleAssignedPush); got.Role != api.RoleOwner {
		t.Errorf("Carol got role %v, want owner", got.Role)
	}
}

func TestReconnectKeepsRoleAndSkipsLeave(t *testing.T) {
	h := newTestHub()
	ua, _ := join(h, "r1", "ua", "Alice")
	_, bob := join(h, "r1", "ub", "Bob")

	// same user id, fresh connection, before the old leave arrives
	ua2, alice2 := join(h, "r1", "ua", "Alice")
	if got := alice2.last(t, api.RoleAssigned).Payload.(api.RoleAssignedPush); got.Role != api.RoleOwner {
		t.Errorf("reconnect got role %v, want owner", got.Role)
	}

	// the stale connection's leave must not evict the revived participant
	disconnect(h, ua)
	if bob.count(api.ParticipantLeft) != 0 {
		t.Error("stale leave was broadcast")
	}
	room := h.registry.Find("r1")
	if room == nil || room.FindByConn(ua2.Id()) == nil {
		t.Fatal("reconnected participant is gone")
	}
}

func TestDesktopPushBroadcastsMetadata(t *testing.T) {
	h := newTestHub()
	ua, _ := join(h, "r1", "ua", "Alice")
	_, bob := join(h, "r1", "ub", "Bob")

	h.handleDesktopPush(ua, &api.DesktopPushRequest{
		RoomKey: "r1", Code: "print('hi')", FileName: "main.py", Language: "python",
	})

	snap := bob.last(t, api.CodeSnapshot).Payload.(api.CodeSnapshotPush)
	if snap.Code != "print('hi')" || snap.FileName != "main.py" || snap.Language != "python" {
		t.Errorf("wrong desktop snapshot: %+v", snap)
	}
}

func TestRoomsAreIsolated(t *testing.T) {
	h := newTestHub()
	ua, _ := join(h, "r1", "ua", "Alice")
	_, other := join(h, "r2", "uc", "Carol")

	h.handleOwnerEdit(ua, &api.OwnerEditRequest{RoomKey: "r1", Code: "x = 1"})

	if other.count(api.CodeUpdated) != 0 {
		t.Error("an edit leaked into another room")
	}
	if h.registry.Find("r2").Code == "x = 1" {
		t.Error("another room's code was mutated")
	}
}

func TestSeedAppliesOnlyToUntouchedRoom(t *testing.T) {
	h := newTestHub()
	ua, alice := join(h, "r1", "ua", "Alice")

	h.applySeed("r1", storage.RoomDoc{Code: "saved", Language: "go", FileName: "main.go"})
	snap := alice.last(t, api.CodeSnapshot).Payload.(api.CodeSnapshotPush)
	if snap.Code != "saved" || snap.Language != "go" {
		t.Errorf("seed was not applied: %+v", snap)
	}

	// once somebody typed, a late seed must lose to live state
	h.handleOwnerEdit(ua, &api.OwnerEditRequest{RoomKey: "r1", Code: "live"})
	h.applySeed("r1", storage.RoomDoc{Code: "stale"})
	if h.registry.Find("r1").Code != "live" {
		t.Error("a late seed overwrote live edits")
	}
}
