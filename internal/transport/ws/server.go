package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"voxeledit.ai/internal/protocol"
	"voxeledit.ai/internal/sim/editor"
)

// Editor is the editor loop as seen by a connection.
type Editor interface {
	Join() chan<- editor.JoinRequest
	Leave() chan<- string
	Do(ctx context.Context, sessionID string, cmd protocol.CmdMsg) (protocol.ResultMsg, error)
}

// resultQueue bounds RESULT replies waiting for the writer; the reader blocks
// when it is full.
const resultQueue = 8

type Server struct {
	editor    Editor
	validator *protocol.Validator
	log       *log.Logger

	// MaxQueue caps the per-client push queue a HELLO may ask for.
	MaxQueue    int
	CmdTimeout  time.Duration
	JoinTimeout time.Duration

	upgrader websocket.Upgrader
}

func NewServer(e Editor, v *protocol.Validator, logger *log.Logger) *Server {
	return &Server{
		editor:      e,
		validator:   v,
		log:         logger,
		MaxQueue:    64,
		CmdTimeout:  5 * time.Second,
		JoinTimeout: 5 * time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, pushes := s.handshake(conn)
		if sessionID == "" {
			return
		}
		defer s.leave(sessionID)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// RESULT replies get their own queue: the editor trims pushes when the
		// client falls behind and must never take a reply with them.
		results := make(chan []byte, resultQueue)
		go writeLoop(ctx, cancel, conn, results, pushes)

		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			res, ok := s.handleMessage(ctx, sessionID, msg)
			if !ok {
				continue
			}
			b, err := json.Marshal(res)
			if err != nil {
				s.log.Printf("session=%s marshal result: %v", sessionID, err)
				continue
			}
			select {
			case results <- b:
			case <-ctx.Done():
				return
			}
		}
	}
}

// writeLoop is the only writer after the handshake. Queued results are
// written before any pending push.
func writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, results, pushes <-chan []byte) {
	defer cancel()
	for {
		var b []byte
		select {
		case b = <-results:
		default:
			select {
			case <-ctx.Done():
				return
			case b = <-results:
			case b = <-pushes:
			}
		}
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			return
		}
	}
}

// handleMessage returns false for frames that get no reply.
func (s *Server) handleMessage(ctx context.Context, sessionID string, msg []byte) (protocol.ResultMsg, bool) {
	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeCmd {
		return protocol.ResultMsg{}, false
	}

	var cmd protocol.CmdMsg
	if err := json.Unmarshal(msg, &cmd); err != nil {
		return protocol.NewResult(cmd).Fail(protocol.ErrProtoBadRequest, err.Error()), true
	}
	if err := s.validator.ValidateCmd(msg); err != nil {
		return protocol.NewResult(cmd).Fail(protocol.ErrProtoBadRequest, err.Error()), true
	}

	ctx2, cancel := context.WithTimeout(ctx, s.CmdTimeout)
	defer cancel()
	res, err := s.editor.Do(ctx2, sessionID, cmd)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return protocol.NewResult(cmd).Fail(protocol.ErrBusy, "editor busy"), true
		}
		return protocol.NewResult(cmd).Fail(protocol.ErrInternal, err.Error()), true
	}
	return res, true
}

func (s *Server) handshake(conn *websocket.Conn) (sessionID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return "", nil
	}
	if err := s.validator.ValidateHello(msg); err != nil {
		closeWith(conn, "bad HELLO")
		return "", nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return "", nil
	}
	if hello.ClientName == "" {
		hello.ClientName = "host"
	}

	maxQ := hello.MaxQueue
	if maxQ <= 0 {
		maxQ = 8
	}
	if s.MaxQueue > 0 && maxQ > s.MaxQueue {
		maxQ = s.MaxQueue
	}
	out = make(chan []byte, maxQ)

	respCh := make(chan editor.JoinResponse, 1)
	select {
	case s.editor.Join() <- editor.JoinRequest{
		Name:       hello.ClientName,
		WantChunks: hello.WantChunks,
		Out:        out,
		Resp:       respCh,
	}:
	case <-time.After(s.JoinTimeout):
		closeWith(conn, "editor unavailable")
		return "", nil
	}
	var resp editor.JoinResponse
	select {
	case resp = <-respCh:
	case <-time.After(s.JoinTimeout):
		closeWith(conn, "editor unavailable")
		return "", nil
	}

	if err := writeJSON(conn, resp.Welcome); err != nil {
		s.leave(resp.Welcome.SessionID)
		return "", nil
	}
	s.log.Printf("session=%s client=%q connected", resp.Welcome.SessionID, hello.ClientName)
	return resp.Welcome.SessionID, out
}

func (s *Server) leave(sessionID string) {
	select {
	case s.editor.Leave() <- sessionID:
	case <-time.After(time.Second):
		s.log.Printf("session=%s leave dropped", sessionID)
	}
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
