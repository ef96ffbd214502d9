package server

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-fretboard/playback"
)

type fakeConn struct {
	in  chan []byte
	out chan []byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{in: make(chan []byte, 16), out: make(chan []byte, 16)}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	data, ok := <-c.in
	if !ok {
		return 0, nil, io.EOF
	}
	return websocket.TextMessage, data, nil
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	if messageType == websocket.TextMessage {
		c.out <- data
	}
	return nil
}

func next(t *testing.T, c *fakeConn) WireMessage {
	t.Helper()
	select {
	case data := <-c.out:
		var w WireMessage
		require.NoError(t, json.Unmarshal(data, &w))
		return w
	case <-time.After(time.Second):
		t.Fatal("no frame written")
		return WireMessage{}
	}
}

func TestHubRelay(t *testing.T) {
	assert := assert.New(t)
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	a, b := newFakeConn(), newFakeConn()
	go hub.serve(a, "room")
	go hub.serve(b, "room")
	require.Eventually(t, func() bool { return hub.Clients("room") == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(1, hub.Bus().Members("room"))

	// a command from one peer reaches every peer, the sender included
	a.in <- []byte(`{"type":"seek","bar":3}`)
	for _, c := range []*fakeConn{a, b} {
		w := next(t, c)
		assert.Equal(TypeSeek, w.Type)
		assert.Equal("room", w.SyncID)
		assert.NotEmpty(w.Origin)
		require.NotNil(t, w.Bar)
		assert.Equal(3, *w.Bar)
	}

	// replies only go to the asking peer
	a.in <- []byte(`{"type":"ping"}`)
	assert.Equal(TypePong, next(t, a).Type)
	a.in <- []byte(`{"type":"seek"}`)
	w := next(t, a)
	assert.Equal(TypeError, w.Type)
	assert.Contains(w.Error, "seek needs")

	b.in <- []byte(`{"type":"transport","playing":false}`)
	for _, c := range []*fakeConn{a, b} {
		w := next(t, c)
		assert.Equal(TypeTransport, w.Type)
		require.NotNil(t, w.Playing)
		assert.False(*w.Playing)
	}

	// in-process publishers reach websocket peers too
	hub.Bus().Publish(playback.Message{SyncID: "room", Origin: "local", Command: playback.StopCmd{}})
	assert.Equal(TypeStop, next(t, a).Type)
	assert.Equal(TypeStop, next(t, b).Type)

	close(a.in)
	require.Eventually(t, func() bool { return hub.Clients("room") == 1 }, time.Second, 5*time.Millisecond)
	close(b.in)
	require.Eventually(t, func() bool { return hub.Clients("room") == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(0, hub.Bus().Members("room"))
}

func TestHubControllersFollowPeers(t *testing.T) {
	bus := playback.NewBus()
	hub := NewHub(bus)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	var got []playback.Command
	done := make(chan struct{}, 4)
	unsub := bus.Subscribe("room", func(m playback.Message) {
		got = append(got, m.Command)
		done <- struct{}{}
	})
	defer unsub()

	peer := newFakeConn()
	go hub.serve(peer, "room")
	require.Eventually(t, func() bool { return hub.Clients("room") == 1 }, time.Second, 5*time.Millisecond)

	peer.in <- []byte(`{"type":"seek","percent":0.25,"autoplay":true}`)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("command not published")
	}
	require.Len(t, got, 1)
	seek := got[0].(playback.SeekCmd)
	assert.Equal(t, 0.25, *seek.Percent)
	assert.True(t, seek.Autoplay)
	close(peer.in)
}

func TestHubStopped(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	cancel()
	<-hub.done

	assert.False(t, hub.Register(&Client{SyncID: "room", Send: make(chan []byte, 1)}))
}

func TestDecodeFrame(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
		cmd     playback.Command
	}{
		{"transport", `{"type":"transport","playing":true}`, false, playback.TransportCmd{Playing: true}},
		{"stop", `{"type":"stop"}`, false, playback.StopCmd{}},
		{"missing playing", `{"type":"transport"}`, true, nil},
		{"unknown type", `{"type":"rewind"}`, true, nil},
		{"negative bar", `{"type":"seek","bar":-1}`, true, nil},
		{"percent range", `{"type":"seek","percent":1.5}`, true, nil},
		{"no target", `{"type":"seek","autoplay":true}`, true, nil},
		{"not json", `seek`, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := DecodeFrame([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			cmd, isCmd := w.Command()
			assert.True(t, isCmd)
			assert.Equal(t, tt.cmd, cmd)
		})
	}
}

func TestEncodeMessage(t *testing.T) {
	data, err := EncodeMessage(playback.Message{SyncID: "room", Origin: "x", Command: playback.SeekTick(960, true)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"seek","syncId":"room","origin":"x","tick":960,"autoplay":true}`, string(data))

	w, err := DecodeFrame(data)
	require.NoError(t, err)
	cmd, _ := w.Command()
	assert.Equal(t, playback.SeekTick(960, true), cmd)
}
