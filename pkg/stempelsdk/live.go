package stempelsdk

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// LiveConn is an open dashboard subscription channel.
type LiveConn struct {
	ws *websocket.Conn
}

// SubscribeLive opens the admin live websocket. The caller owns the returned
// connection and must Close it.
func (c *Client) SubscribeLive(ctx context.Context) (*LiveConn, error) {
	if c.AdminToken == "" {
		return nil, &APIError{Status: http.StatusUnauthorized, Code: "unauthorized", Description: "AdminLogin first"}
	}

	wsURL := strings.Replace(c.BaseURL, "http", "ws", 1) + "/v1/admin/live"
	header := http.Header{"Authorization": []string{"Bearer " + c.AdminToken}}

	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return nil, decodeError(resp)
		}
		return nil, err
	}
	return &LiveConn{ws: ws}, nil
}

// Subscribe requests snapshot delivery for table changes.
func (lc *LiveConn) Subscribe(table string) error {
	return lc.ws.WriteJSON(LiveRequest{Action: "subscribe", Table: table})
}

// Unsubscribe stops snapshot delivery for table.
func (lc *LiveConn) Unsubscribe(table string) error {
	return lc.ws.WriteJSON(LiveRequest{Action: "unsubscribe", Table: table})
}

// Next blocks until the server sends the next message or timeout elapses.
func (lc *LiveConn) Next(timeout time.Duration) (LiveMessage, error) {
	if err := lc.ws.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return LiveMessage{}, err
	}
	var msg LiveMessage
	if err := lc.ws.ReadJSON(&msg); err != nil {
		return LiveMessage{}, err
	}
	return msg, nil
}

// NextSnapshot skips non-snapshot messages and decodes the next snapshot's
// leaderboard entries.
func (lc *LiveConn) NextSnapshot(timeout time.Duration) ([]LeaderboardEntry, error) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		msg, err := lc.Next(remaining)
		if err != nil {
			return nil, err
		}
		if msg.Type != "snapshot" {
			continue
		}
		var entries []LeaderboardEntry
		if err := json.Unmarshal(msg.Payload, &entries); err != nil {
			return nil, err
		}
		return entries, nil
	}
}

func (lc *LiveConn) Close() error {
	_ = lc.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return lc.ws.Close()
}
