package editor

import (
	"time"

	"voxeledit.ai/internal/protocol"
)

type Config struct {
	ID              string
	ChunkSize       int
	BootstrapOrigin bool

	// 0 disables the guard.
	MaxFloodFaces int
	MaxRectVolume int
}

type JoinRequest struct {
	Name       string
	WantChunks bool
	// Out carries CHUNK_VOXELS pushes only; the oldest is dropped when full.
	Out        chan []byte
	Resp       chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
}

// AuditEntry records one handled command.
type AuditEntry struct {
	Seq     uint64    `json:"seq"`
	Time    time.Time `json:"time"`
	Session string    `json:"session"`
	Action  string    `json:"action"` // CMD op, e.g. "EXTRUDE"
	Chunk   [3]int    `json:"chunk"`
	Pos     [3]int    `json:"pos"`
	Faces   int       `json:"faces"`
	OK      bool      `json:"ok"`
	Code    string    `json:"code,omitempty"`
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

type cmdReq struct {
	Session string
	Cmd     protocol.CmdMsg
	Resp    chan protocol.ResultMsg
}

type session struct {
	id         string
	name       string
	wantChunks bool
	out        chan []byte
}
