package selection

import (
	"voxeledit.ai/internal/sim/voxel"
)

type FloodFillOptions struct {
	// ByMaterial restricts expansion to faces whose material, surface and
	// override flag all match the seed's face in the seed direction.
	ByMaterial bool
	// MaxFaces stops traversal once this many faces are emitted (0 = no limit).
	MaxFaces int
}

func FloodFill(g *voxel.Grid, seed FaceID, byMaterial bool) (FaceSet, error) {
	return FloodFillWith(g, seed, FloodFillOptions{ByMaterial: byMaterial})
}

// FloodFillWith expands breadth-first from seed across coplanar, exposed and
// optionally material-matching faces. Positions are tracked in the seed
// chunk's frame and only resolved to an owning chunk when emitted.
//
// The seed itself is never occlusion-checked; it is always part of the result.
// When MaxFaces stops the walk the partial set is returned with ErrTraversalLimit.
func FloodFillWith(g *voxel.Grid, seed FaceID, opts FloodFillOptions) (FaceSet, error) {
	if err := checkFace(g, seed); err != nil {
		return nil, err
	}

	dir := seed.Dir
	normal := dir.Normal()
	planar := dir.Planar()
	want := seed.Chunk.At(seed.Pos).Face(dir)

	out := FaceSet{}
	visited := map[voxel.Vec3i]struct{}{seed.Pos: {}}
	queue := []voxel.Vec3i{seed.Pos}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		c, local := g.Resolve(seed.Chunk, n, false)
		out.Add(FaceID{Chunk: c, Pos: local, Dir: dir})

		for _, d := range planar {
			p := n.Add(d)
			if _, seen := visited[p]; seen {
				continue
			}
			cand := g.Voxel(seed.Chunk, p)
			if cand.IsEmpty() {
				continue
			}
			if opts.ByMaterial && cand.Face(dir) != want {
				continue
			}
			if !g.Voxel(seed.Chunk, p.Add(normal)).IsEmpty() {
				// occluded
				continue
			}
			visited[p] = struct{}{}
			queue = append(queue, p)
		}

		// Checked after expansion so a pending neighbor of the last face
		// still counts as truncation.
		if opts.MaxFaces > 0 && len(out) >= opts.MaxFaces {
			if len(queue) > 0 {
				return out, ErrTraversalLimit
			}
			return out, nil
		}
	}
	return out, nil
}

// FloodFillAll unions the fills of several seeds. MaxFaces bounds the union:
// later seeds only get what earlier ones left of the budget.
func FloodFillAll(g *voxel.Grid, seeds []FaceID, opts FloodFillOptions) (FaceSet, error) {
	out := FaceSet{}
	for _, s := range seeds {
		per := opts
		if opts.MaxFaces > 0 {
			per.MaxFaces = opts.MaxFaces - len(out)
			if per.MaxFaces <= 0 {
				return out, ErrTraversalLimit
			}
		}
		fs, err := FloodFillWith(g, s, per)
		out.Union(fs)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}
