package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxeledit.ai/internal/protocol"
	"voxeledit.ai/internal/sim/editor"
)

func startServer(t *testing.T) string {
	t.Helper()
	e, err := editor.New(editor.Config{ChunkSize: 4, BootstrapOrigin: true}, nil, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = e.Run(ctx) }()

	v, err := protocol.NewValidator()
	require.NoError(t, err)
	srv := httptest.NewServer(NewServer(e, v, log.New(io.Discard, "", 0)).Handler())
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string, hello string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(hello)))
	return conn
}

// readUntil returns the first message of the given type, skipping others.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) []byte {
	t.Helper()
	for i := 0; i < 16; i++ {
		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		base, err := protocol.DecodeBase(msg)
		require.NoError(t, err)
		if base.Type == typ {
			return msg
		}
	}
	t.Fatalf("no %s message", typ)
	return nil
}

func sendCmd(t *testing.T, conn *websocket.Conn, raw string) protocol.ResultMsg {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
	var res protocol.ResultMsg
	require.NoError(t, json.Unmarshal(readUntil(t, conn, protocol.TypeResult), &res))
	return res
}

func TestServer_HandshakeAndCommands(t *testing.T) {
	url := startServer(t)
	conn := dial(t, url, `{"type":"HELLO","protocol_version":"1.0","client_name":"host","want_chunks":true,"max_queue":16}`)

	var welcome protocol.WelcomeMsg
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	require.NoError(t, conn.ReadJSON(&welcome))
	assert.Equal(t, protocol.TypeWelcome, welcome.Type)
	assert.NotEmpty(t, welcome.SessionID)
	assert.Equal(t, 4, welcome.ChunkSize)
	assert.Equal(t, 1, welcome.Chunks)

	var sync protocol.ChunkVoxelsMsg
	require.NoError(t, json.Unmarshal(readUntil(t, conn, protocol.TypeChunkVoxels), &sync))
	assert.Equal(t, [3]int{0, 0, 0}, sync.Chunk)
	assert.Len(t, sync.Voxels, 1)

	res := sendCmd(t, conn, `{"type":"CMD","protocol_version":"1.0","id":"1","op":"SET_VOXEL",
		"chunk":[0,0,0],"pos":[1,0,0],"voxel":{"empty":false,"faces":[{},{},{"material":"grass"},{},{},{}]}}`)
	require.True(t, res.OK, res.Message)
	assert.Equal(t, "1", res.ID)

	res = sendCmd(t, conn, `{"type":"CMD","protocol_version":"1.0","id":"2","op":"FLOOD_FILL",
		"faces":[{"chunk":[0,0,0],"pos":[0,0,0],"dir":"UP"}]}`)
	require.True(t, res.OK, res.Message)
	require.Len(t, res.Faces, 2)
	require.NotNil(t, res.Faces[1].Center)
	assert.Equal(t, [3]float32{1.5, 1, 0.5}, *res.Faces[1].Center)

	res = sendCmd(t, conn, `{"type":"CMD","protocol_version":"1.0","id":"3","op":"FLOOD_FILL","faces":[]}`)
	assert.False(t, res.OK)
	assert.Equal(t, protocol.ErrProtoBadRequest, res.Code)
	assert.Equal(t, "3", res.ID)

	res = sendCmd(t, conn, `{"type":"CMD","protocol_version":"1.0","id":"4","op":"GET_VOXEL","chunk":[7,7,7],"pos":[0,0,0]}`)
	assert.False(t, res.OK)
	assert.Equal(t, protocol.ErrInvalidTarget, res.Code)
}

func TestServer_PushesDirtyChunks(t *testing.T) {
	url := startServer(t)
	host := dial(t, url, `{"type":"HELLO","protocol_version":"1.0","want_chunks":true}`)
	readUntil(t, host, protocol.TypeWelcome)
	readUntil(t, host, protocol.TypeChunkVoxels)

	tool := dial(t, url, `{"type":"HELLO","protocol_version":"1.0","client_name":"tool"}`)
	readUntil(t, tool, protocol.TypeWelcome)
	res := sendCmd(t, tool, `{"type":"CMD","protocol_version":"1.0","id":"x","op":"EXTRUDE",
		"faces":[{"chunk":[0,0,0],"pos":[0,0,0],"dir":"DOWN"}]}`)
	require.True(t, res.OK, res.Message)

	var push protocol.ChunkVoxelsMsg
	require.NoError(t, json.Unmarshal(readUntil(t, host, protocol.TypeChunkVoxels), &push))
	assert.Equal(t, [3]int{0, -1, 0}, push.Chunk)
	require.Len(t, push.Voxels, 1)
	assert.Equal(t, [3]int{0, 3, 0}, push.Voxels[0].Pos)
}

func TestServer_RejectsBadHello(t *testing.T) {
	url := startServer(t)
	for i, hello := range []string{
		`{"type":"CMD","protocol_version":"1.0","id":"1","op":"BOOTSTRAP"}`,
		`{"type":"HELLO","protocol_version":"0.9"}`,
		`{"type":"HELLO","protocol_version":"1.0","max_queue":99999}`,
	} {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			conn := dial(t, url, hello)
			_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
			_, _, err := conn.ReadMessage()
			require.Error(t, err)
			var ce *websocket.CloseError
			if assert.ErrorAs(t, err, &ce) {
				assert.Equal(t, websocket.ClosePolicyViolation, ce.Code)
			}
		})
	}
}

func TestServer_ResultsSurviveFullPushQueue(t *testing.T) {
	url := startServer(t)
	conn := dial(t, url, `{"type":"HELLO","protocol_version":"1.0","want_chunks":true,"max_queue":1}`)
	readUntil(t, conn, protocol.TypeWelcome)

	// Every edit dirties the chunk, so pushes pile up behind a queue of one
	// while the client is not reading.
	const n = 16
	for i := 0; i < n; i++ {
		raw := fmt.Sprintf(`{"type":"CMD","protocol_version":"1.0","id":"%d","op":"SET_VOXEL",
			"chunk":[0,0,0],"pos":[%d,1,%d],"voxel":{"empty":false,"faces":[{},{},{},{},{},{}]}}`, i, i%4, i/4)
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
	}

	seen := map[string]bool{}
	for len(seen) < n {
		var res protocol.ResultMsg
		require.NoError(t, json.Unmarshal(readUntil(t, conn, protocol.TypeResult), &res))
		require.True(t, res.OK, res.Message)
		seen[res.ID] = true
	}
}

type stalledEditor struct{ join chan editor.JoinRequest }

func (s stalledEditor) Join() chan<- editor.JoinRequest { return s.join }
func (s stalledEditor) Leave() chan<- string { return make(chan string) }
func (s stalledEditor) Do(context.Context, string, protocol.CmdMsg) (protocol.ResultMsg, error) {
	return protocol.ResultMsg{}, errors.New("editor stopped")
}

func TestServer_JoinTimesOutWhenEditorStopped(t *testing.T) {
	v, err := protocol.NewValidator()
	require.NoError(t, err)
	srv := NewServer(stalledEditor{join: make(chan editor.JoinRequest)}, v, log.New(io.Discard, "", 0))
	srv.JoinTimeout = 50 * time.Millisecond
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)

	conn := dial(t, "ws"+strings.TrimPrefix(hs.URL, "http"), `{"type":"HELLO","protocol_version":"1.0"}`)
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _, err = conn.ReadMessage()
	var ce *websocket.CloseError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, websocket.ClosePolicyViolation, ce.Code)
}
