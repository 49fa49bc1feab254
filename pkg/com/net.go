package com

import (
	"net/http"

	"github.com/codesync/codesync/pkg/api"
	"github.com/codesync/codesync/pkg/logger"
	"github.com/codesync/codesync/pkg/network/websocket"
	"github.com/goccy/go-json"
)

// SocketClient is one typed packet connection to a client.
type SocketClient struct {
	id   Uid
	conn *websocket.WS
	log  *logger.Logger
}

// NewConnection upgrades the request and wraps the socket into
// a packet-typed connection with its own direction-tagged logger.
func NewConnection(w http.ResponseWriter, r *http.Request, up *websocket.Upgrader, log *logger.Logger) (*SocketClient, error) {
	id := NewUid()
	dirLog := log.Extend(log.With().Str("cid", id.Short()))
	conn, err := websocket.NewServer(w, r, up, dirLog)
	if err != nil {
		return nil, err
	}
	dirLog.Debug().Str(logger.DirectionField, "←").Msg("Connect")
	return &SocketClient{id: id, conn: conn, log: dirLog}, nil
}

// OnPacket sets the inbound packet handler.
// Must be called before Listen.
func (c *SocketClient) OnPacket(fn func(in api.In) error) {
	c.conn.OnMessage = func(message []byte, err error) {
		if err != nil {
			c.log.Error().Err(err).Send()
			return
		}
		var packet api.In
		if err := json.Unmarshal(message, &packet); err != nil {
			c.log.Error().Err(err).Msg("malformed packet")
			return
		}
		c.log.Debug().Str(logger.DirectionField, "←").Msgf("%v", packet.T)
		if err := fn(packet); err != nil {
			c.log.Error().Err(err).Send()
		}
	}
}

// Notify sends a message and doesn't wait for an answer.
func (c *SocketClient) Notify(t api.PT, data any) {
	c.log.Debug().Str(logger.DirectionField, "→").Msgf("%v", t)
	r, err := json.Marshal(api.Out{T: t, Payload: data})
	if err != nil {
		c.log.Error().Err(err).Send()
		return
	}
	c.conn.Write(r)
}

func (c *SocketClient) Listen() chan struct{} { return c.conn.Listen() }

func (c *SocketClient) Disconnect() {
	c.conn.Close()
	c.log.Debug().Str(logger.DirectionField, "x").Msg("Close")
}

func (c *SocketClient) Id() Uid        { return c.id }
func (c *SocketClient) String() string { return c.id.String() }
