package session

import (
	"testing"

	"github.com/codesync/codesync/pkg/com"
	"github.com/codesync/codesync/pkg/config"
)

var testDefaults = config.Session{Code: "// Start coding together!\n", Language: "javascript", FileName: "index.js"}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	reg := NewRegistry(testDefaults)

	a, created := reg.GetOrCreate("abcd1234")
	if !created {
		t.Errorf("first access didn't create the room")
	}
	if a.Code != testDefaults.Code || a.Language != "javascript" || a.FileName != "index.js" {
		t.Errorf("fresh room didn't get the configured defaults")
	}

	b, created := reg.GetOrCreate("abcd1234")
	if created {
		t.Errorf("second access created a new room")
	}
	if a != b {
		t.Errorf("same key returned different rooms")
	}
	if reg.Len() != 1 {
		t.Errorf("expected one room, got %v", reg.Len())
	}
}

func TestRemoveIfEmpty(t *testing.T) {
	reg := NewRegistry(testDefaults)
	room, _ := reg.GetOrCreate("abcd1234")
	alice, _ := room.Join("u-alice", "Alice", com.NewUid())

	if reg.RemoveIfEmpty("abcd1234") {
		t.Errorf("occupied room was removed")
	}

	room.Leave(alice.ConnID)
	if !reg.RemoveIfEmpty("abcd1234") {
		t.Errorf("empty room was kept")
	}
	if reg.Has("abcd1234") {
		t.Errorf("removed room still present")
	}

	// idempotent on unknown keys
	if reg.RemoveIfEmpty("missing") {
		t.Errorf("removal of unknown key reported success")
	}
}

func TestRoomsAreIsolated(t *testing.T) {
	reg := NewRegistry(testDefaults)
	a, _ := reg.GetOrCreate("room-a")
	b, _ := reg.GetOrCreate("room-b")

	alice, _ := a.Join("u-alice", "Alice", com.NewUid())
	a.OwnerEdit(alice.ConnID, "only in a")

	if b.Code != testDefaults.Code {
		t.Errorf("edit in one room leaked into another")
	}
	if owner := b.Owner(); owner != nil {
		t.Errorf("participant leaked into another room: %v", owner.UserID)
	}
}
