package editor

import (
	"encoding/json"

	"voxeledit.ai/internal/protocol"
	"voxeledit.ai/internal/sim/encoding"
	"voxeledit.ai/internal/sim/voxel"
)

// chunkVoxels lists every non-empty voxel of c. An empty Voxels slice tells
// the host to drop the chunk's mesh.
func chunkVoxels(g *voxel.Grid, c *voxel.Chunk) protocol.ChunkVoxelsMsg {
	origin := g.ChunkOrigin(c)
	msg := protocol.ChunkVoxelsMsg{
		Type:            protocol.TypeChunkVoxels,
		ProtocolVersion: protocol.Version,
		Chunk:           c.Coord().ToArray(),
		Size:            c.Size(),
		Origin:          [3]float32{origin.X(), origin.Y(), origin.Z()},
		Voxels:          make([]protocol.VoxelCellV1, 0, c.FilledCount()),
		Occupancy:       encoding.EncodeOccupancy(c),
	}
	for p, v := range c.All() {
		if v.IsEmpty() {
			continue
		}
		msg.Voxels = append(msg.Voxels, protocol.VoxelCellV1{Pos: p.ToArray(), Faces: facesToV1(v)})
	}
	return msg
}

func marshalChunk(g *voxel.Grid, c *voxel.Chunk) ([]byte, error) {
	return json.Marshal(chunkVoxels(g, c))
}

// flushDirty pushes every chunk changed by the last command to subscribed
// sessions and clears its dirty flag.
func (e *Editor) flushDirty() {
	dirty := e.grid.DirtyChunks()
	e.metrics.setChunks(e.grid.Len())
	if len(dirty) == 0 {
		return
	}

	var subs []*session
	for _, s := range e.sessions {
		if s.wantChunks {
			subs = append(subs, s)
		}
	}

	for _, c := range dirty {
		c.ClearDirty()
		if len(subs) == 0 {
			continue
		}
		b, err := marshalChunk(e.grid, c)
		if err != nil {
			e.log.Printf("chunk %s: %v", c.Coord(), err)
			continue
		}
		for _, s := range subs {
			e.push(s, b)
		}
	}
	e.metrics.regenerated(len(dirty))
}
