package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name,omitempty"`

	// Subscribe to CHUNK_VOXELS pushes after edits.
	WantChunks bool `json:"want_chunks,omitempty"`
	MaxQueue   int  `json:"max_queue,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	SessionID       string `json:"session_id"`
	EditorID        string `json:"editor_id"`
	ChunkSize       int    `json:"chunk_size"`
	Chunks          int    `json:"chunks"`
}

type FaceDataV1 struct {
	Material string `json:"material,omitempty"`
	Surface  string `json:"surface,omitempty"`
	Override bool   `json:"override,omitempty"`
}

// VoxelV1 lists faces in FORWARD, BACKWARD, UP, DOWN, LEFT, RIGHT order.
type VoxelV1 struct {
	Empty bool          `json:"empty"`
	Faces [6]FaceDataV1 `json:"faces"`
}

type FaceRef struct {
	Chunk [3]int `json:"chunk"`
	Pos   [3]int `json:"pos"`
	Dir   string `json:"dir"`

	// World-space face center; set on server responses only.
	Center *[3]float32 `json:"center,omitempty"`
}

// CMD (client -> server)
type CmdMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	Op              string `json:"op"`

	// SET_VOXEL / GET_VOXEL
	Chunk [3]int   `json:"chunk,omitempty"`
	Pos   [3]int   `json:"pos,omitempty"`
	Voxel *VoxelV1 `json:"voxel,omitempty"`

	// RECT_SELECT: From may be repeated via Anchors for shift-select unions.
	From    *FaceRef  `json:"from,omitempty"`
	To      *FaceRef  `json:"to,omitempty"`
	Anchors []FaceRef `json:"anchors,omitempty"`

	// FLOOD_FILL / EXTRUDE / INTRUDE
	Faces      []FaceRef `json:"faces,omitempty"`
	ByMaterial bool      `json:"by_material,omitempty"`
}

// RESULT (server -> client)
type ResultMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	ID              string    `json:"id"`
	Op              string    `json:"op"`
	OK              bool      `json:"ok"`
	Code            string    `json:"code,omitempty"`
	Message         string    `json:"message,omitempty"`
	Faces           []FaceRef `json:"faces,omitempty"`
	Voxel           *VoxelV1  `json:"voxel,omitempty"`
	Truncated       bool      `json:"truncated,omitempty"`
}

type VoxelCellV1 struct {
	Pos   [3]int        `json:"pos"`
	Faces [6]FaceDataV1 `json:"faces"`
}

// CHUNK_VOXELS (server -> client): every non-empty voxel of a chunk that
// changed since the last push.
type ChunkVoxelsMsg struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	Chunk           [3]int        `json:"chunk"`
	Size            int           `json:"size"`
	Origin          [3]float32    `json:"origin"`
	Voxels          []VoxelCellV1 `json:"voxels"`

	// base64 uvarint runs of empty/filled cells, y-major then z then x.
	Occupancy string `json:"occupancy"`
}

func NewResult(cmd CmdMsg) ResultMsg {
	return ResultMsg{
		Type:            TypeResult,
		ProtocolVersion: Version,
		ID:              cmd.ID,
		Op:              cmd.Op,
		OK:              true,
	}
}

func (r ResultMsg) Fail(code, msg string) ResultMsg {
	r.OK = false
	r.Code = code
	r.Message = msg
	r.Faces = nil
	r.Voxel = nil
	return r
}
