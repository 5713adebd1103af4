package voxel

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"voxeledit.ai/internal/sim/voxel/mathx"
)

var (
	ErrInvalidChunkSize = errors.New("chunk size must be positive")
	ErrChunkExists      = errors.New("chunk already exists")
	ErrForeignChunk     = errors.New("chunk does not belong to this grid")
)

// Grid is a sparse mapping from chunk coordinate to chunk. Chunks are only
// created by CreateChunk or write-path resolution and never removed.
// Accessed only from the editor loop goroutine.
type Grid struct {
	size   int
	chunks map[Vec3i]*Chunk
}

func NewGrid(chunkSize int) (*Grid, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChunkSize, chunkSize)
	}
	return &Grid{
		size:   chunkSize,
		chunks: map[Vec3i]*Chunk{},
	}, nil
}

func (g *Grid) ChunkSize() int { return g.size }
func (g *Grid) Len() int { return len(g.chunks) }

func (g *Grid) Chunk(coord Vec3i) (*Chunk, bool) {
	c, ok := g.chunks[coord]
	return c, ok
}

// Owns reports whether c is the chunk this grid stores at c's coordinate.
func (g *Grid) Owns(c *Chunk) bool {
	if c == nil {
		return false
	}
	return g.chunks[c.coord] == c
}

// CreateChunk never overwrites: an occupied coordinate returns the existing
// chunk together with ErrChunkExists.
func (g *Grid) CreateChunk(coord Vec3i) (*Chunk, error) {
	if c, ok := g.chunks[coord]; ok {
		return c, fmt.Errorf("%w at %s", ErrChunkExists, coord)
	}
	c := newChunk(coord, g.size)
	g.chunks[coord] = c
	return c, nil
}

// ChunkAt returns the chunk at coord, creating it when allowed.
func (g *Grid) ChunkAt(coord Vec3i, allowCreate bool) (*Chunk, bool) {
	if c, ok := g.chunks[coord]; ok {
		return c, true
	}
	if !allowCreate {
		return nil, false
	}
	c, _ := g.CreateChunk(coord)
	return c, true
}

// Bootstrap creates the origin chunk holding a single solid voxel at (0,0,0).
func (g *Grid) Bootstrap() (*Chunk, error) {
	c, err := g.CreateChunk(Vec3i{})
	if err != nil {
		return c, err
	}
	c.Set(Vec3i{}, Voxel{Filled: true})
	return c, nil
}

// Resolve maps a position relative to origin into the owning chunk and an
// in-bounds local position. In-bounds positions return unchanged without a
// lookup. When the neighbor chunk is missing and creation is not allowed,
// (origin, p) is returned as-is; sampling it reads Empty.
func (g *Grid) Resolve(origin *Chunk, p Vec3i, allowCreate bool) (*Chunk, Vec3i) {
	if p.InBounds(g.size) {
		return origin, p
	}
	delta := Vec3i{
		X: mathx.FloorDiv(p.X, g.size),
		Y: mathx.FloorDiv(p.Y, g.size),
		Z: mathx.FloorDiv(p.Z, g.size),
	}
	local := p.Sub(delta.Scale(g.size))
	coord := origin.Coord().Add(delta)

	if c, ok := g.chunks[coord]; ok {
		return c, local
	}
	if allowCreate {
		c, _ := g.CreateChunk(coord)
		return c, local
	}
	return origin, p
}

func (g *Grid) Voxel(c *Chunk, p Vec3i) Voxel {
	rc, rp := g.Resolve(c, p, false)
	return rc.At(rp)
}

func (g *Grid) SetVoxel(c *Chunk, p Vec3i, v Voxel) {
	rc, rp := g.Resolve(c, p, true)
	rc.Set(rp, v)
}

// Global converts a chunk-relative position to grid-global coordinates.
func (g *Grid) Global(c *Chunk, p Vec3i) Vec3i {
	return c.Coord().Scale(g.size).Add(p)
}

// Locate finds the chunk and local position for a global coordinate.
func (g *Grid) Locate(global Vec3i, allowCreate bool) (*Chunk, Vec3i, bool) {
	coord := Vec3i{
		X: mathx.FloorDiv(global.X, g.size),
		Y: mathx.FloorDiv(global.Y, g.size),
		Z: mathx.FloorDiv(global.Z, g.size),
	}
	local := global.Sub(coord.Scale(g.size))
	c, ok := g.ChunkAt(coord, allowCreate)
	return c, local, ok
}

// ChunkOrigin is the world-space corner of c, for host-side placement.
func (g *Grid) ChunkOrigin(c *Chunk) mgl32.Vec3 {
	o := c.Coord().Scale(g.size)
	return mgl32.Vec3{float32(o.X), float32(o.Y), float32(o.Z)}
}

func (g *Grid) ChunkKeys() []Vec3i {
	keys := make([]Vec3i, 0, len(g.chunks))
	for k := range g.chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return lessVec(keys[i], keys[j]) })
	return keys
}

// DirtyChunks returns dirty chunks in coordinate order without clearing them.
func (g *Grid) DirtyChunks() []*Chunk {
	var out []*Chunk
	for _, k := range g.ChunkKeys() {
		if c := g.chunks[k]; c.dirty {
			out = append(out, c)
		}
	}
	return out
}

func lessVec(a, b Vec3i) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}
