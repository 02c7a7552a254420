package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/o2-exchange/sdk-go/params"
	"github.com/o2-exchange/sdk-go/pkg/apierr"
	"github.com/o2-exchange/sdk-go/pkg/types"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsServer accepts websocket connections and hands them to the test on a
// channel.
func wsServer(t *testing.T) (*httptest.Server, chan *websocket.Conn) {
	t.Helper()
	conns := make(chan *websocket.Conn, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- ws
	}))
	t.Cleanup(srv.Close)
	return srv, conns
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func fastStream(maxAttempts int) params.Stream {
	return params.Stream{
		ReconnectDelay:       5 * time.Millisecond,
		MaxReconnectDelay:    50 * time.Millisecond,
		MaxReconnectAttempts: maxAttempts,
		PingInterval:         time.Minute,
		PongTimeout:          time.Minute,
	}
}

func readFrame(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, msg, err := ws.ReadMessage()
	require.NoError(t, err)
	var frame map[string]any
	require.NoError(t, json.Unmarshal(msg, &frame))
	return frame
}

func TestSubscribeDepthReceivesFrames(t *testing.T) {
	srv, conns := wsServer(t)
	c, err := Dial(context.Background(), Options{URL: wsURL(srv), Stream: fastStream(0)})
	require.NoError(t, err)
	defer c.Disconnect()

	ch, err := c.SubscribeDepth("0xb0", 4)
	require.NoError(t, err)

	server := <-conns
	frame := readFrame(t, server)
	assert.Equal(t, "subscribe_depth", frame["action"])
	assert.Equal(t, "0xb0", frame["market_id"])
	assert.Equal(t, "4", frame["precision"])

	require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte(`{
		"action": "subscribe_depth",
		"market_id": "0xb0",
		"view": {
			"buys": [{"price": "99", "quantity": "7"}],
			"sells": [{"price": "100", "quantity": "5"}]
		}
	}`)))

	select {
	case update := <-ch:
		assert.Equal(t, types.MarketID("0xb0"), update.MarketID)
		require.NotNil(t, update.View)
		require.Len(t, update.View.Sells, 1)
		assert.Equal(t, types.FlexUint64(100), update.View.Sells[0].Price)
	case <-time.After(5 * time.Second):
		t.Fatal("no depth update")
	}
	assert.Equal(t, Connected, c.State())
}

func TestReconnectReplaysSubscriptions(t *testing.T) {
	srv, conns := wsServer(t)
	c, err := Dial(context.Background(), Options{URL: wsURL(srv), Stream: fastStream(0)})
	require.NoError(t, err)
	defer c.Disconnect()

	ch, err := c.SubscribeTrades("0xb0")
	require.NoError(t, err)

	first := <-conns
	frame := readFrame(t, first)
	assert.Equal(t, "subscribe_trades", frame["action"])

	// drop the connection; the client should come back and re-subscribe
	first.Close()

	second := <-conns
	frame = readFrame(t, second)
	assert.Equal(t, "subscribe_trades", frame["action"])
	assert.Equal(t, "0xb0", frame["market_id"])

	require.NoError(t, second.WriteMessage(websocket.TextMessage, []byte(`{
		"action": "subscribe_trades",
		"market_id": "0xb0",
		"trades": [],
		"seen_timestamp": "0"
	}`)))

	select {
	case update := <-ch:
		assert.Equal(t, types.MarketID("0xb0"), update.MarketID)
	case <-time.After(5 * time.Second):
		t.Fatal("no trade update after reconnect")
	}

	sawReconnecting, sawConnected := false, false
	for done := false; !done; {
		select {
		case ev := <-c.Lifecycle():
			switch ev.State {
			case Reconnecting:
				sawReconnecting = true
			case Connected:
				sawConnected = true
				done = true
			}
		case <-time.After(time.Second):
			done = true
		}
	}
	assert.True(t, sawReconnecting)
	assert.True(t, sawConnected)
}

func TestTerminatesAfterMaxAttempts(t *testing.T) {
	srv, conns := wsServer(t)
	c, err := Dial(context.Background(), Options{URL: wsURL(srv), Stream: fastStream(2)})
	require.NoError(t, err)

	ch, err := c.SubscribeDepth("0xb0", 2)
	require.NoError(t, err)

	server := <-conns
	srv.Close()
	server.Close()

	var final LifecycleEvent
	deadline := time.After(10 * time.Second)
	for !final.Final {
		select {
		case ev := <-c.Lifecycle():
			final = ev
		case <-deadline:
			t.Fatal("no terminal lifecycle event")
		}
	}
	assert.Equal(t, Terminated, final.State)
	assert.Equal(t, Terminated, c.State())

	var disc *apierr.DisconnectedError
	require.ErrorAs(t, c.Err(), &disc)

	// data channel closes on terminal loss
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed")
	}
}

func TestUnsubscribeOrdersIsConnectionGlobal(t *testing.T) {
	srv, conns := wsServer(t)
	c, err := Dial(context.Background(), Options{URL: wsURL(srv), Stream: fastStream(0)})
	require.NoError(t, err)
	defer c.Disconnect()

	_, err = c.SubscribeOrders([]types.Identity{types.AddressIdentity("0x01")})
	require.NoError(t, err)
	_, err = c.SubscribeOrders([]types.Identity{types.AddressIdentity("0x02")})
	require.NoError(t, err)
	_, err = c.SubscribeTrades("0xb0")
	require.NoError(t, err)

	server := <-conns
	for i := 0; i < 3; i++ {
		readFrame(t, server)
	}

	require.NoError(t, c.UnsubscribeOrders())
	frame := readFrame(t, server)
	assert.Equal(t, "unsubscribe_orders", frame["action"])

	c.mu.Lock()
	var actions []string
	for _, s := range c.subs {
		actions = append(actions, s.action)
	}
	c.mu.Unlock()
	assert.Equal(t, []string{"subscribe_trades"}, actions)
}

func TestDisconnectClosesChannels(t *testing.T) {
	srv, conns := wsServer(t)
	c, err := Dial(context.Background(), Options{URL: wsURL(srv), Stream: fastStream(0)})
	require.NoError(t, err)

	ch, err := c.SubscribeNonce([]types.Identity{types.ContractIdentity("0xaa")})
	require.NoError(t, err)
	<-conns

	require.NoError(t, c.Disconnect())
	require.NoError(t, c.Disconnect())

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed")
	}
	assert.Equal(t, Terminated, c.State())
	assert.NoError(t, c.Err())
}
