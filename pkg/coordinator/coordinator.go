// Package coordinator is the session coordination service: it accepts
// client sockets, runs the room protocol and relays WebRTC signaling
// between paired participants.
package coordinator

import (
	"context"
	"net/http"

	"github.com/codesync/codesync/pkg/api"
	"github.com/codesync/codesync/pkg/com"
	"github.com/codesync/codesync/pkg/config"
	"github.com/codesync/codesync/pkg/logger"
	"github.com/codesync/codesync/pkg/monitoring"
	"github.com/codesync/codesync/pkg/network/httpx"
	"github.com/codesync/codesync/pkg/server"
	"github.com/codesync/codesync/pkg/storage"
)

type Coordinator struct {
	conf     config.Config
	hub      *Hub
	store    storage.Store
	services server.Services
	log      *logger.Logger
}

func New(conf config.Config, log *logger.Logger) (*Coordinator, error) {
	store := storage.New(conf.Coordinator.Storage, log)
	hub := NewHub(conf.Coordinator, store, log)

	srv, err := httpx.NewServer(
		conf.Coordinator.Server.GetAddr(),
		func(*httpx.Server) http.Handler {
			h := http.NewServeMux()
			h.HandleFunc("/ws", hub.handleClientConnection)
			h.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
			return h
		},
		httpx.WithServerConfig(conf.Coordinator.Server),
		httpx.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	c := &Coordinator{conf: conf, hub: hub, store: store, log: log, services: server.New(log)}
	c.services.Add(srv)
	if conf.Coordinator.Monitoring.IsEnabled() {
		c.services.Add(monitoring.New(conf.Coordinator.Monitoring, "cord", log))
	}
	return c, nil
}

func (c *Coordinator) Run() {
	go c.hub.Run()
	c.services.Start()
}

func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.hub.Stop()
	err := c.services.Stop(ctx)
	if e := c.store.Close(); e != nil {
		c.log.Error().Err(e).Msg("store close fail")
		if err == nil {
			err = e
		}
	}
	return err
}

// handleClientConnection owns one socket for its whole life: it queues
// every inbound packet onto the hub loop and a single leave command
// when the socket dies, whatever the cause.
func (h *Hub) handleClientConnection(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if err := recover(); err != nil {
			h.log.Error().Msgf("recovered from a panic: %v", err)
		}
	}()
	conn, err := com.NewConnection(w, r, h.upgrader, h.log)
	if err != nil {
		h.log.Error().Err(err).Msg("couldn't init client connection")
		return
	}
	usr := NewUser(conn, h.log)
	conn.OnPacket(func(in api.In) error {
		h.queue(command{user: usr, packet: &in})
		return nil
	})
	h.users.Put(usr.Id(), usr)
	<-conn.Listen()
	h.queue(command{user: usr, leave: true})
	h.users.RemoveByKey(usr.Id())
}
