package edit

import (
	"voxeledit.ai/internal/sim/voxel"
	"voxeledit.ai/internal/sim/voxel/selection"
)

type move struct {
	src  selection.FaceID
	v    voxel.Voxel
	next voxel.Vec3i
}

// Extrude pushes each face one cell outward: the owning voxel is copied to
// pos+normal (creating chunks as needed) and the copied voxels' faces are
// returned. Every source is sampled before anything is written.
func Extrude(g *voxel.Grid, faces []selection.FaceID) selection.FaceSet {
	var moves []move
	for _, f := range faces {
		if !g.Owns(f.Chunk) || !f.Dir.Valid() {
			continue
		}
		v := f.Chunk.At(f.Pos)
		if v.IsEmpty() {
			continue
		}
		moves = append(moves, move{src: f, v: v, next: f.Pos.Add(f.Dir.Normal())})
	}

	out := selection.FaceSet{}
	for _, m := range moves {
		c, local := g.Resolve(m.src.Chunk, m.next, true)
		c.Set(local, m.v)
		out.Add(selection.FaceID{Chunk: c, Pos: local, Dir: m.src.Dir})
	}
	return out
}

// Intrude pulls each face one cell inward: the owning voxel is cleared and
// the faces of the now exposed voxels behind it are returned.
func Intrude(g *voxel.Grid, faces []selection.FaceID) selection.FaceSet {
	var moves []move
	for _, f := range faces {
		if !g.Owns(f.Chunk) || !f.Dir.Valid() {
			continue
		}
		if f.Chunk.At(f.Pos).IsEmpty() {
			continue
		}
		moves = append(moves, move{src: f, next: f.Pos.Sub(f.Dir.Normal())})
	}

	for _, m := range moves {
		m.src.Chunk.Set(m.src.Pos, voxel.Empty)
	}

	out := selection.FaceSet{}
	for _, m := range moves {
		c, local := g.Resolve(m.src.Chunk, m.next, false)
		if c.At(local).IsEmpty() {
			continue
		}
		out.Add(selection.FaceID{Chunk: c, Pos: local, Dir: m.src.Dir})
	}
	return out
}
