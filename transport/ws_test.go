package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-vscp/protocol"
)

// newEchoServer answers every EVENT with the same event and every CMD
// with a positive reply. It requires Basic auth when user is set.
func newEchoServer(t *testing.T, user, password string) string {
	t.Helper()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user != "" {
			u, p, ok := r.BasicAuth()
			if !ok || u != user || p != password {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Noise the client must skip
		_ = conn.WriteMessage(websocket.BinaryMessage, []byte{0x01})
		_ = conn.WriteMessage(websocket.TextMessage, []byte("not json"))

		for {
			var msg map[string]json.RawMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			var typ string
			_ = json.Unmarshal(msg["type"], &typ)
			switch typ {
			case "EVENT":
				reply := map[string]json.RawMessage{"type": msg["type"], "event": msg["event"]}
				if err := conn.WriteJSON(reply); err != nil {
					return
				}
			case "CMD":
				if err := conn.WriteJSON(map[string]interface{}{"type": "+", "command": msg["command"]}); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWSClientRoundTrip(t *testing.T) {
	url := newEchoServer(t, "admin", "secret")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := DialWS(ctx, url, WithCredentials("admin", "secret"))
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Command(ctx, "OPEN", nil))

	out := testEvent(protocol.ClassProtocol, protocol.TypeExtendedPageResponse, 0, 0, 0, 0xD0, 0xFF, 0xEE)
	require.NoError(t, client.Send(ctx, out))

	ev, err := client.Receive(ctx)
	require.NoError(t, err)
	assertSameEvent(t, out, ev)
	assert.Equal(t, out.DateTime.Unix(), ev.DateTime.Unix())
}

func TestWSClientFilter(t *testing.T) {
	url := newEchoServer(t, "", "")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	f, err := protocol.ParseFilter("0,0,0", "0,0xFFFF,0")
	require.NoError(t, err)

	client, err := DialWS(ctx, url, WithFilter(f))
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Send(ctx, testEvent(protocol.ClassMeasurement, 6, 1)))
	require.NoError(t, client.Send(ctx, testEvent(protocol.ClassProtocol, protocol.TypeGeneral, 2)))

	ev, err := client.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint16(protocol.ClassProtocol), ev.Class)
	assert.Equal(t, []byte{2}, ev.Data)
}

func TestDialWSErrors(t *testing.T) {
	url := newEchoServer(t, "admin", "secret")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := DialWS(ctx, url, WithCredentials("admin", "wrong"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	_, err = DialWS(ctx, "http://localhost:1/ws2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported URL scheme")
}

func TestWSClientClose(t *testing.T) {
	url := newEchoServer(t, "", "")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := DialWS(ctx, url)
	require.NoError(t, err)
	require.NoError(t, client.Close())

	_, err = client.Receive(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}
