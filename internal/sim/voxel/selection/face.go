package selection

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"voxeledit.ai/internal/sim/voxel"
)

// ErrTraversalLimit reports a flood fill stopped by FloodFillOptions.MaxFaces.
var ErrTraversalLimit = errors.New("traversal limit reached")

// FaceID identifies one selectable face. It is comparable; two ids are equal
// iff chunk, local position and direction are equal.
type FaceID struct {
	Chunk *voxel.Chunk
	Pos   voxel.Vec3i
	Dir   voxel.FaceDirection
}

func (f FaceID) String() string {
	if f.Chunk == nil {
		return fmt.Sprintf("<nil>%s/%s", f.Pos, f.Dir)
	}
	return fmt.Sprintf("%s%s/%s", f.Chunk.Coord(), f.Pos, f.Dir)
}

type FaceSet map[FaceID]struct{}

func (s FaceSet) Add(f FaceID) { s[f] = struct{}{} }

func (s FaceSet) Has(f FaceID) bool {
	_, ok := s[f]
	return ok
}

func (s FaceSet) Union(o FaceSet) {
	for f := range o {
		s[f] = struct{}{}
	}
}

func (s FaceSet) Equal(o FaceSet) bool {
	if len(s) != len(o) {
		return false
	}
	for f := range s {
		if _, ok := o[f]; !ok {
			return false
		}
	}
	return true
}

// Sorted returns the faces ordered by global position then direction, so
// responses are stable across runs.
func (s FaceSet) Sorted(g *voxel.Grid) []FaceID {
	out := make([]FaceID, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := g.Global(out[i].Chunk, out[i].Pos), g.Global(out[j].Chunk, out[j].Pos)
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		return out[i].Dir < out[j].Dir
	})
	return out
}

// FaceCenter is the world-space center of the face quad.
func FaceCenter(g *voxel.Grid, f FaceID) mgl32.Vec3 {
	p := g.Global(f.Chunk, f.Pos)
	n := f.Dir.Normal()
	center := mgl32.Vec3{float32(p.X) + 0.5, float32(p.Y) + 0.5, float32(p.Z) + 0.5}
	return center.Add(mgl32.Vec3{float32(n.X), float32(n.Y), float32(n.Z)}.Mul(0.5))
}

func checkFace(g *voxel.Grid, f FaceID) error {
	if !g.Owns(f.Chunk) {
		return fmt.Errorf("%w: %s", voxel.ErrForeignChunk, f)
	}
	if !f.Dir.Valid() {
		return fmt.Errorf("invalid face direction %d", f.Dir)
	}
	return nil
}
