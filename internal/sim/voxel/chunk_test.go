package voxel

import "testing"

func TestChunkSampleOutOfBoundsIsEmpty(t *testing.T) {
	c := newChunk(Vec3i{}, 4)
	c.Set(Vec3i{X: 3, Y: 3, Z: 3}, Voxel{Filled: true})
	for _, p := range [][3]int{{-1, 0, 0}, {4, 0, 0}, {0, -1, 0}, {0, 0, 4}} {
		if v := c.Sample(p[0], p[1], p[2]); v != Empty {
			t.Fatalf("sample %v: expected canonical empty, got %+v", p, v)
		}
	}
	if c.Sample(3, 3, 3).IsEmpty() {
		t.Fatalf("expected stored voxel")
	}
	var nilChunk *Chunk
	if !nilChunk.Sample(0, 0, 0).IsEmpty() {
		t.Fatalf("nil chunk must sample empty")
	}
}

func TestChunkDirtyOnlyOnChange(t *testing.T) {
	c := newChunk(Vec3i{}, 4)
	if c.Dirty() {
		t.Fatalf("new chunk should be clean")
	}

	c.Set(Vec3i{X: 1}, Empty)
	if c.Dirty() {
		t.Fatalf("writing the same value must not mark dirty")
	}

	v := Solid(FaceData{MaterialID: "brick", SurfaceID: "B1"})
	c.Set(Vec3i{X: 1}, v)
	if !c.Dirty() {
		t.Fatalf("expected dirty after change")
	}
	c.ClearDirty()
	c.Set(Vec3i{X: 1}, v)
	if c.Dirty() {
		t.Fatalf("rewriting identical voxel marked dirty")
	}

	c.Set(Vec3i{X: 9}, v)
	if c.Dirty() {
		t.Fatalf("out-of-bounds write must be a no-op")
	}

	c.Set(Vec3i{X: 1}, v.WithFace(FaceUp, FaceData{MaterialID: "brick", SurfaceID: "B2"}))
	if !c.Dirty() {
		t.Fatalf("face change should mark dirty")
	}
}

func TestChunkAllVisitsEveryCellInOrder(t *testing.T) {
	c := newChunk(Vec3i{}, 3)
	c.Set(Vec3i{X: 2, Y: 1, Z: 0}, Voxel{Filled: true})

	count := 0
	filled := 0
	var first, last Vec3i
	for p, v := range c.All() {
		if count == 0 {
			first = p
		}
		last = p
		count++
		if v.Filled {
			filled++
			if p != (Vec3i{X: 2, Y: 1, Z: 0}) {
				t.Fatalf("filled cell at unexpected position %s", p)
			}
		}
	}
	if count != 27 || filled != 1 {
		t.Fatalf("count=%d filled=%d", count, filled)
	}
	if first != (Vec3i{}) || last != (Vec3i{X: 2, Y: 2, Z: 2}) {
		t.Fatalf("unexpected order first=%s last=%s", first, last)
	}

	again := 0
	for range c.All() {
		again++
	}
	if again != count {
		t.Fatalf("sequence not restartable: %d vs %d", again, count)
	}
}

func TestFaceDirectionTable(t *testing.T) {
	for d := FaceDirection(0); d < NumFaces; d++ {
		n := d.Normal()
		for _, p := range d.Planar() {
			dot := p.X*n.X + p.Y*n.Y + p.Z*n.Z
			if dot != 0 {
				t.Fatalf("%s: planar offset %s not orthogonal to normal %s", d, p, n)
			}
		}
		parsed, err := ParseFaceDirection(d.String())
		if err != nil || parsed != d {
			t.Fatalf("parse %s: %v %v", d, parsed, err)
		}
	}
	if FaceForward.Normal() != (Vec3i{Z: 1}) || FaceLeft.Normal() != (Vec3i{X: -1}) {
		t.Fatalf("unexpected normals")
	}
	if _, err := ParseFaceDirection("SIDEWAYS"); err == nil {
		t.Fatalf("expected error for unknown direction")
	}
}
