package selection

import (
	"voxeledit.ai/internal/sim/voxel"
	"voxeledit.ai/internal/sim/voxel/mathx"
)

// RectSelect returns every non-empty voxel face in the axis-aligned box
// spanned by a and b. All results carry a's direction.
func RectSelect(g *voxel.Grid, a, b FaceID) (FaceSet, error) {
	if err := checkFace(g, a); err != nil {
		return nil, err
	}
	if err := checkFace(g, b); err != nil {
		return nil, err
	}

	off := g.Global(b.Chunk, b.Pos).Sub(g.Global(a.Chunk, a.Pos))
	step := voxel.Vec3i{
		X: mathx.StepToward(off.X),
		Y: mathx.StepToward(off.Y),
		Z: mathx.StepToward(off.Z),
	}

	out := FaceSet{}
	for x := 0; mathx.AbsInt(x) <= mathx.AbsInt(off.X); x += step.X {
		for y := 0; mathx.AbsInt(y) <= mathx.AbsInt(off.Y); y += step.Y {
			for z := 0; mathx.AbsInt(z) <= mathx.AbsInt(off.Z); z += step.Z {
				p := a.Pos.Add(voxel.Vec3i{X: x, Y: y, Z: z})
				c, local := g.Resolve(a.Chunk, p, false)
				if c.At(local).IsEmpty() {
					continue
				}
				out.Add(FaceID{Chunk: c, Pos: local, Dir: a.Dir})
			}
		}
	}
	return out, nil
}

// RectSelectAll unions RectSelect(anchor, face) over every anchor distinct
// from face, the shift-click extension of an existing selection.
func RectSelectAll(g *voxel.Grid, anchors []FaceID, face FaceID) (FaceSet, error) {
	out := FaceSet{}
	for _, a := range anchors {
		if a == face {
			continue
		}
		s, err := RectSelect(g, a, face)
		if err != nil {
			return nil, err
		}
		out.Union(s)
	}
	return out, nil
}

// RectVolume is the number of cells RectSelect would scan.
func RectVolume(g *voxel.Grid, a, b FaceID) int {
	off := g.Global(b.Chunk, b.Pos).Sub(g.Global(a.Chunk, a.Pos))
	return (mathx.AbsInt(off.X) + 1) * (mathx.AbsInt(off.Y) + 1) * (mathx.AbsInt(off.Z) + 1)
}
