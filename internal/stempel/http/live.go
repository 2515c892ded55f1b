package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vibestempel/stempeld/internal/stempel/bus"
	"github.com/vibestempel/stempeld/pkg/slogx"
	"github.com/vibestempel/stempeld/pkg/stempelsdk"
)

const liveWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Admin token auth already gates the handshake; the dashboard may be
	// served from a different origin than the API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// outFrame is one control reply queued for the write pump. after, when set,
// runs on the pump goroutine once the frame is on the wire; the subscribe
// handler uses it to register the subscription only after its ack is written,
// so the seed snapshot can never precede the ack.
type outFrame struct {
	msg   stempelsdk.LiveMessage
	after func()
}

// LiveHandler serves GET /v1/admin/live, the dashboard's websocket. Each
// connection owns one bus subscriber; closing the connection releases every
// subscription it holds.
type LiveHandler struct {
	Bus    *bus.Bus
	Logger *slog.Logger
}

func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		log.Warn("live upgrade failed", "err", err)
		return
	}
	defer ws.Close()

	sub := h.Bus.NewSubscriber()
	defer sub.Close()

	// gorilla connections allow a single concurrent writer, so snapshots
	// and control replies funnel through one write pump. stopped unblocks
	// the read loop if the pump dies first.
	out := make(chan outFrame, 4)
	done := make(chan struct{})
	stopped := make(chan struct{})
	go h.writePump(ws, sub, out, done, stopped, log)
	defer close(done)

	h.readLoop(r, ws, sub, out, stopped, log)
}

func (h *LiveHandler) readLoop(
	r *http.Request,
	ws *websocket.Conn,
	sub *bus.Subscriber,
	out chan<- outFrame,
	stopped <-chan struct{},
	log *slog.Logger,
) {
	send := func(frame outFrame) bool {
		select {
		case out <- frame:
			return true
		case <-stopped:
			return false
		}
	}
	reply := func(msg stempelsdk.LiveMessage) bool {
		return send(outFrame{msg: msg})
	}

	for {
		var req stempelsdk.LiveRequest
		if err := ws.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("live connection read failed", "err", err)
			}
			return
		}

		switch req.Action {
		case "subscribe":
			if !bus.ValidTable(req.Table) {
				if !reply(stempelsdk.LiveMessage{Type: "error", Table: req.Table, Error: "unknown_table"}) {
					return
				}
				continue
			}
			// Subscribe runs on the pump once the ack is written. The seed
			// it pushes shares the latest-wins subscriber channel with every
			// broadcast, so the dashboard sees subscribed, then the current
			// state, then changes in order.
			table := req.Table
			ok := send(outFrame{
				msg: stempelsdk.LiveMessage{Type: "subscribed", Table: table},
				after: func() {
					err := sub.Subscribe(r.Context(), table)
					if err != nil && !errors.Is(err, bus.ErrSubscriberClosed) {
						// Subscription stands; broadcasts fill in the view.
						log.Warn("initial snapshot failed", "table", table, "err", err)
					}
				},
			})
			if !ok {
				return
			}
		case "unsubscribe":
			sub.Unsubscribe(req.Table)
		default:
			if !reply(stempelsdk.LiveMessage{Type: "error", Error: "unknown_action"}) {
				return
			}
		}
	}
}

func (h *LiveHandler) writePump(
	ws *websocket.Conn,
	sub *bus.Subscriber,
	out <-chan outFrame,
	done <-chan struct{},
	stopped chan<- struct{},
	log *slog.Logger,
) {
	defer close(stopped)

	for {
		var msg stempelsdk.LiveMessage
		var after func()

		select {
		case <-done:
			return
		case frame := <-out:
			msg = frame.msg
			after = frame.after
		case snap, ok := <-sub.C():
			if !ok {
				return
			}
			payload, err := json.Marshal(toSDKLeaderboard(snap.Aggregates))
			if err != nil {
				log.Error("snapshot marshal failed", "table", snap.Table, "err", err)
				continue
			}
			msg = stempelsdk.LiveMessage{Type: "snapshot", Table: snap.Table, Payload: payload}
		}

		_ = ws.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
		if err := ws.WriteJSON(msg); err != nil {
			log.Warn("live connection write failed", "err", err)
			// Unblock the read loop so the connection tears down.
			_ = ws.Close()
			return
		}
		if after != nil {
			after()
		}
	}
}
