package coordinator

import (
	"context"
	"time"

	"github.com/codesync/codesync/pkg/api"
	"github.com/codesync/codesync/pkg/com"
	"github.com/codesync/codesync/pkg/config"
	"github.com/codesync/codesync/pkg/logger"
	"github.com/codesync/codesync/pkg/network/websocket"
	"github.com/codesync/codesync/pkg/session"
	"github.com/codesync/codesync/pkg/storage"
)

// storeTimeout bounds every side-cache round-trip so a slow or dead
// Redis never holds anything up.
const storeTimeout = 3 * time.Second

type command struct {
	user   *User
	packet *api.In
	leave  bool
	// fn carries completions of the hub's own async work back into
	// the loop (e.g. a finished side-cache read).
	fn func()
}

// Hub runs the whole protocol on one goroutine: every client packet,
// disconnect and async completion is queued as a command and applied
// in order, run-to-completion. That is what lets the session package
// stay lock-free.
type Hub struct {
	conf     config.Coordinator
	registry *session.Registry
	users    com.Map[com.Uid, *User]
	store    storage.Store
	upgrader *websocket.Upgrader

	commands chan command
	done     chan struct{}

	log *logger.Logger
}

func NewHub(conf config.Coordinator, store storage.Store, log *logger.Logger) *Hub {
	return &Hub{
		conf:     conf,
		registry: session.NewRegistry(conf.Session),
		users:    com.NewMap[com.Uid, *User](),
		store:    store,
		upgrader: websocket.NewUpgrader(conf.Origin.ClientWs),
		commands: make(chan command, 512),
		done:     make(chan struct{}),
		log:      log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case cmd := <-h.commands:
			h.dispatch(cmd)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) Stop() { close(h.done) }

// queue never blocks a producer past hub shutdown.
func (h *Hub) queue(cmd command) {
	select {
	case h.commands <- cmd:
	case <-h.done:
	}
}

func (h *Hub) dispatch(cmd command) {
	if cmd.fn != nil {
		cmd.fn()
		return
	}
	if cmd.leave {
		h.handleLeave(cmd.user)
		return
	}
	h.handlePacket(cmd.user, cmd.packet)
}

func (h *Hub) handlePacket(usr *User, in *api.In) {
	switch in.T {
	case api.JoinRoom:
		h.handleJoin(usr, api.Unwrap[api.JoinRoomRequest](in.Payload))
	case api.OwnerEdit:
		h.handleOwnerEdit(usr, api.Unwrap[api.OwnerEditRequest](in.Payload))
	case api.DesktopPush:
		h.handleDesktopPush(usr, api.Unwrap[api.DesktopPushRequest](in.Payload))
	case api.ProposeChange:
		h.handlePropose(usr, api.Unwrap[api.ProposeChangeRequest](in.Payload))
	case api.AcceptChange:
		h.handleAccept(usr, api.Unwrap[api.AcceptChangeRequest](in.Payload))
	case api.RejectChange:
		h.handleReject(usr, api.Unwrap[api.RejectChangeRequest](in.Payload))
	case api.WebrtcOffer, api.WebrtcAnswer, api.WebrtcIce:
		h.handleSignal(in.T, usr, api.Unwrap[api.WebrtcSignalRequest](in.Payload))
	case api.ScreenStarted, api.ScreenStopped:
		h.handleScreen(in.T, usr, api.Unwrap[api.ScreenLifecycleRequest](in.Payload))
	default:
		h.log.Warn().Msgf("unknown packet %v from %v", in.T, usr.Id())
	}
}

// broadcast hands every room member except one to the send callback.
func (h *Hub) broadcast(room *session.Room, except com.Uid, send func(*User)) {
	for _, p := range room.Others(except) {
		if usr, err := h.users.Find(p.ConnID); err == nil {
			send(usr)
		}
	}
}

// persist snapshots the room buffer into the side-cache without
// holding up the loop; a failed write only logs.
func (h *Hub) persist(room *session.Room) {
	key := room.Key
	doc := storage.RoomDoc{Code: room.Code, Language: room.Language, FileName: room.FileName}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := h.store.Save(ctx, key, doc); err != nil {
			h.log.Warn().Err(err).Str("room", key).Msg("room save failed")
		}
	}()
}
