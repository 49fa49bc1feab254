// Package storage is the best-effort side-cache for room buffers.
// The in-memory state always stays authoritative for a live session;
// everything here may fail or be absent without affecting the protocol.
package storage

import (
	"context"

	"github.com/codesync/codesync/pkg/config"
	"github.com/codesync/codesync/pkg/logger"
)

// RoomDoc is the persisted part of a room.
type RoomDoc struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	FileName string `json:"fileName"`
}

type Store interface {
	// Save persists the room document under its room key.
	Save(ctx context.Context, key string, doc RoomDoc) error
	// Load returns the stored document or nil when there is none.
	Load(ctx context.Context, key string) (*RoomDoc, error)
	Close() error
}

// New picks a store implementation from the config.
// No configured address means no persistence at all.
func New(conf config.Storage, log *logger.Logger) Store {
	if !conf.IsEnabled() {
		return Nop{}
	}
	return NewRedis(conf, log)
}

// Nop is the store used when persistence is turned off.
type Nop struct{}

func (Nop) Save(context.Context, string, RoomDoc) error    { return nil }
func (Nop) Load(context.Context, string) (*RoomDoc, error) { return nil, nil }
func (Nop) Close() error                                   { return nil }
