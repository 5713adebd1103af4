package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"voxeledit.ai/internal/protocol"
	"voxeledit.ai/internal/sim/voxel"
)

// Editor owns one voxel grid. All grid access happens on the Run goroutine;
// transports talk to it through Join, Leave and Do.
type Editor struct {
	cfg     Config
	log     *log.Logger
	grid    *voxel.Grid
	metrics *Metrics
	audit   AuditLogger
	now     func() time.Time

	join  chan JoinRequest
	leave chan string
	cmds  chan cmdReq
	stop  chan struct{}

	sessions map[string]*session
	seq      uint64
}

func New(cfg Config, logger *log.Logger, metrics *Metrics) (*Editor, error) {
	if cfg.ID == "" {
		cfg.ID = "editor_1"
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	g, err := voxel.NewGrid(cfg.ChunkSize)
	if err != nil {
		return nil, fmt.Errorf("editor %s: %w", cfg.ID, err)
	}
	e := &Editor{
		cfg:      cfg,
		log:      logger,
		grid:     g,
		metrics:  metrics,
		now:      time.Now,
		join:     make(chan JoinRequest, 16),
		leave:    make(chan string, 16),
		cmds:     make(chan cmdReq, 256),
		stop:     make(chan struct{}),
		sessions: map[string]*session{},
	}
	if cfg.BootstrapOrigin {
		c, err := g.Bootstrap()
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		c.ClearDirty()
	}
	e.metrics.setChunks(g.Len())
	return e, nil
}

func (e *Editor) ID() string { return e.cfg.ID }
func (e *Editor) ChunkSize() int { return e.cfg.ChunkSize }

func (e *Editor) Join() chan<- JoinRequest { return e.join }
func (e *Editor) Leave() chan<- string { return e.leave }

// SetAuditLogger must be called before Run.
func (e *Editor) SetAuditLogger(l AuditLogger) { e.audit = l }

func (e *Editor) Stop() { close(e.stop) }

func (e *Editor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.stop:
			return nil
		case req := <-e.join:
			e.handleJoin(req)
		case id := <-e.leave:
			e.handleLeave(id)
		case req := <-e.cmds:
			e.handleCmd(req)
		}
	}
}

// Do hands cmd to the editor loop and waits for its RESULT.
func (e *Editor) Do(ctx context.Context, sessionID string, cmd protocol.CmdMsg) (protocol.ResultMsg, error) {
	if e == nil || e.cmds == nil {
		return protocol.ResultMsg{}, errors.New("editor not available")
	}
	req := cmdReq{
		Session: sessionID,
		Cmd:     cmd,
		Resp:    make(chan protocol.ResultMsg, 1),
	}
	select {
	case e.cmds <- req:
	case <-ctx.Done():
		return protocol.ResultMsg{}, ctx.Err()
	}
	select {
	case res := <-req.Resp:
		return res, nil
	case <-ctx.Done():
		return protocol.ResultMsg{}, ctx.Err()
	}
}

func (e *Editor) handleJoin(req JoinRequest) {
	s := &session{
		id:         uuid.NewString(),
		name:       req.Name,
		wantChunks: req.WantChunks && req.Out != nil,
		out:        req.Out,
	}
	e.sessions[s.id] = s
	e.metrics.setSessions(len(e.sessions))
	e.log.Printf("join session=%s name=%q want_chunks=%v", s.id, s.name, s.wantChunks)

	if req.Resp != nil {
		resp := JoinResponse{Welcome: protocol.WelcomeMsg{
			Type:            protocol.TypeWelcome,
			ProtocolVersion: protocol.Version,
			SessionID:       s.id,
			EditorID:        e.cfg.ID,
			ChunkSize:       e.grid.ChunkSize(),
			Chunks:          e.grid.Len(),
		}}
		select {
		case req.Resp <- resp:
		default:
		}
	}

	// Initial sync: the whole grid, so the host can mesh from scratch.
	if s.wantChunks {
		for _, coord := range e.grid.ChunkKeys() {
			c, _ := e.grid.Chunk(coord)
			if b, err := marshalChunk(e.grid, c); err == nil {
				e.push(s, b)
			}
		}
	}
}

func (e *Editor) handleLeave(id string) {
	if _, ok := e.sessions[id]; !ok {
		return
	}
	delete(e.sessions, id)
	e.metrics.setSessions(len(e.sessions))
	e.log.Printf("leave session=%s", id)
}

func (e *Editor) handleCmd(req cmdReq) {
	start := e.now()
	res := e.apply(req.Cmd)
	e.metrics.observeCommand(res, e.now().Sub(start))
	e.writeAudit(req.Session, req.Cmd, res)
	e.flushDirty()

	if req.Resp == nil {
		return
	}
	select {
	case req.Resp <- res:
	default:
	}
}

func (e *Editor) writeAudit(sessionID string, cmd protocol.CmdMsg, res protocol.ResultMsg) {
	e.seq++
	if e.audit == nil {
		return
	}
	chunk, pos := auditTarget(cmd)
	entry := AuditEntry{
		Seq:     e.seq,
		Time:    e.now().UTC(),
		Session: sessionID,
		Action:  cmd.Op,
		Chunk:   chunk,
		Pos:     pos,
		Faces:   len(res.Faces),
		OK:      res.OK,
		Code:    res.Code,
	}
	if err := e.audit.WriteAudit(entry); err != nil {
		e.log.Printf("audit seq=%d: %v", entry.Seq, err)
	}
}

func auditTarget(cmd protocol.CmdMsg) (chunk, pos [3]int) {
	switch {
	case cmd.Op == protocol.OpSetVoxel || cmd.Op == protocol.OpGetVoxel:
		return cmd.Chunk, cmd.Pos
	case cmd.From != nil:
		return cmd.From.Chunk, cmd.From.Pos
	case cmd.To != nil:
		return cmd.To.Chunk, cmd.To.Pos
	case len(cmd.Faces) > 0:
		return cmd.Faces[0].Chunk, cmd.Faces[0].Pos
	}
	return chunk, pos
}

// push drops the oldest queued message when the client is behind.
func (e *Editor) push(s *session, b []byte) {
	select {
	case s.out <- b:
		return
	default:
	}
	e.metrics.droppedPush()
	select {
	case <-s.out:
	default:
	}
	select {
	case s.out <- b:
	default:
	}
}
