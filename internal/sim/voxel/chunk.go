package voxel

import "iter"

// Chunk is a dense size^3 block of voxels owned by exactly one Grid.
// It keeps its own coordinate instead of a pointer back to the grid.
type Chunk struct {
	coord Vec3i
	size  int
	cells []Voxel // len = size^3

	dirty bool
}

func newChunk(coord Vec3i, size int) *Chunk {
	return &Chunk{
		coord: coord,
		size:  size,
		cells: make([]Voxel, size*size*size),
	}
}

func (c *Chunk) Coord() Vec3i { return c.coord }
func (c *Chunk) Size() int { return c.size }

func (c *Chunk) index(x, y, z int) int {
	// x fastest, then z, then y
	return x + z*c.size + y*c.size*c.size
}

func (c *Chunk) inBounds(x, y, z int) bool {
	return x >= 0 && x < c.size && y >= 0 && y < c.size && z >= 0 && z < c.size
}

// Sample never fails: out-of-range coordinates read as Empty.
func (c *Chunk) Sample(x, y, z int) Voxel {
	if c == nil || !c.inBounds(x, y, z) {
		return Empty
	}
	return c.cells[c.index(x, y, z)]
}

func (c *Chunk) At(p Vec3i) Voxel { return c.Sample(p.X, p.Y, p.Z) }

// Set is a no-op out of range. The dirty flag is raised only when the stored
// value actually changes.
func (c *Chunk) Set(p Vec3i, v Voxel) {
	if c == nil || !c.inBounds(p.X, p.Y, p.Z) {
		return
	}
	i := c.index(p.X, p.Y, p.Z)
	if c.cells[i] == v {
		return
	}
	c.cells[i] = v
	c.dirty = true
}

func (c *Chunk) Dirty() bool { return c.dirty }
func (c *Chunk) ClearDirty() { c.dirty = false }

// All yields every cell in index order. The sequence can be ranged over
// any number of times.
func (c *Chunk) All() iter.Seq2[Vec3i, Voxel] {
	return func(yield func(Vec3i, Voxel) bool) {
		if c == nil {
			return
		}
		for y := 0; y < c.size; y++ {
			for z := 0; z < c.size; z++ {
				for x := 0; x < c.size; x++ {
					if !yield(Vec3i{X: x, Y: y, Z: z}, c.cells[c.index(x, y, z)]) {
						return
					}
				}
			}
		}
	}
}

// FilledCount is the number of non-empty cells.
func (c *Chunk) FilledCount() int {
	n := 0
	for _, v := range c.cells {
		if v.Filled {
			n++
		}
	}
	return n
}
