package editor

import (
	"fmt"

	"voxeledit.ai/internal/protocol"
	"voxeledit.ai/internal/sim/voxel"
	"voxeledit.ai/internal/sim/voxel/selection"
)

// cmdError carries a protocol error code out of command handling.
type cmdError struct {
	Code    string
	Message string
}

func (e *cmdError) Error() string { return e.Code + ": " + e.Message }

func badRequest(format string, args ...any) error {
	return &cmdError{Code: protocol.ErrBadRequest, Message: fmt.Sprintf(format, args...)}
}

func invalidTarget(format string, args ...any) error {
	return &cmdError{Code: protocol.ErrInvalidTarget, Message: fmt.Sprintf(format, args...)}
}

func (e *Editor) chunkRef(coord [3]int, pos [3]int) (*voxel.Chunk, voxel.Vec3i, error) {
	c, ok := e.grid.Chunk(voxel.FromArray(coord))
	if !ok {
		return nil, voxel.Vec3i{}, invalidTarget("no chunk at %v", coord)
	}
	return c, voxel.FromArray(pos), nil
}

func (e *Editor) faceFromRef(r protocol.FaceRef) (selection.FaceID, error) {
	dir, err := voxel.ParseFaceDirection(r.Dir)
	if err != nil {
		return selection.FaceID{}, badRequest("%v", err)
	}
	c, pos, err := e.chunkRef(r.Chunk, r.Pos)
	if err != nil {
		return selection.FaceID{}, err
	}
	if !pos.InBounds(c.Size()) {
		return selection.FaceID{}, badRequest("pos %v outside chunk of size %d", r.Pos, c.Size())
	}
	return selection.FaceID{Chunk: c, Pos: pos, Dir: dir}, nil
}

func (e *Editor) facesFromRefs(refs []protocol.FaceRef) ([]selection.FaceID, error) {
	out := make([]selection.FaceID, 0, len(refs))
	for _, r := range refs {
		f, err := e.faceFromRef(r)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func (e *Editor) refFromFace(f selection.FaceID) protocol.FaceRef {
	center := selection.FaceCenter(e.grid, f)
	ref := protocol.FaceRef{
		Chunk:  f.Chunk.Coord().ToArray(),
		Pos:    f.Pos.ToArray(),
		Dir:    f.Dir.String(),
		Center: &[3]float32{center.X(), center.Y(), center.Z()},
	}
	return ref
}

func (e *Editor) refsFromSet(s selection.FaceSet) []protocol.FaceRef {
	sorted := s.Sorted(e.grid)
	out := make([]protocol.FaceRef, 0, len(sorted))
	for _, f := range sorted {
		out = append(out, e.refFromFace(f))
	}
	return out
}

func voxelFromV1(v protocol.VoxelV1) voxel.Voxel {
	if v.Empty {
		return voxel.Empty
	}
	out := voxel.Voxel{Filled: true}
	for i, fd := range v.Faces {
		out.Faces[i] = voxel.FaceData{MaterialID: fd.Material, SurfaceID: fd.Surface, Override: fd.Override}
	}
	return out
}

func facesToV1(v voxel.Voxel) [voxel.NumFaces]protocol.FaceDataV1 {
	var out [voxel.NumFaces]protocol.FaceDataV1
	for i, fd := range v.Faces {
		out[i] = protocol.FaceDataV1{Material: fd.MaterialID, Surface: fd.SurfaceID, Override: fd.Override}
	}
	return out
}

func voxelToV1(v voxel.Voxel) protocol.VoxelV1 {
	if v.IsEmpty() {
		return protocol.VoxelV1{Empty: true}
	}
	return protocol.VoxelV1{Faces: facesToV1(v)}
}
