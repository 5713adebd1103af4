package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello       = "HELLO"
	TypeWelcome     = "WELCOME"
	TypeCmd         = "CMD"
	TypeResult      = "RESULT"
	TypeChunkVoxels = "CHUNK_VOXELS"
)

// Command ops.
const (
	OpBootstrap  = "BOOTSTRAP"
	OpSetVoxel   = "SET_VOXEL"
	OpGetVoxel   = "GET_VOXEL"
	OpRectSelect = "RECT_SELECT"
	OpFloodFill  = "FLOOD_FILL"
	OpExtrude    = "EXTRUDE"
	OpIntrude    = "INTRUDE"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
