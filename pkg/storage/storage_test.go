package storage

import (
	"context"
	"testing"

	"github.com/codesync/codesync/pkg/config"
	"github.com/codesync/codesync/pkg/logger"
)

func TestFactoryPicksNopWithoutAddress(t *testing.T) {
	st := New(config.Storage{}, logger.Default())
	if _, ok := st.(Nop); !ok {
		t.Errorf("expected the nop store, got %T", st)
	}

	st = New(config.Storage{RedisAddress: "localhost:6379"}, logger.Default())
	if _, ok := st.(*Redis); !ok {
		t.Errorf("expected the redis store, got %T", st)
	}
}

func TestNopIsSilent(t *testing.T) {
	st := Nop{}
	if err := st.Save(context.Background(), "k", RoomDoc{Code: "x"}); err != nil {
		t.Errorf("nop save errored: %v", err)
	}
	doc, err := st.Load(context.Background(), "k")
	if err != nil {
		t.Errorf("nop load errored: %v", err)
	}
	if doc != nil {
		t.Errorf("nop load returned data: %+v", doc)
	}
	if err := st.Close(); err != nil {
		t.Errorf("nop close errored: %v", err)
	}
}
