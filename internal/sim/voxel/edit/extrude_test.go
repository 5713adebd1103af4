package edit

import (
	"testing"

	"voxeledit.ai/internal/sim/voxel"
	"voxeledit.ai/internal/sim/voxel/selection"
)

var brick = voxel.Solid(voxel.FaceData{MaterialID: "brick", SurfaceID: "BR"})

func setup(t *testing.T) (*voxel.Grid, *voxel.Chunk) {
	t.Helper()
	g, err := voxel.NewGrid(4)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	c, err := g.CreateChunk(voxel.Vec3i{})
	if err != nil {
		t.Fatalf("origin: %v", err)
	}
	return g, c
}

func TestExtrudeCopiesOutward(t *testing.T) {
	g, c := setup(t)
	c.Set(voxel.Vec3i{X: 1, Y: 3, Z: 1}, brick)
	c.Set(voxel.Vec3i{X: 2, Y: 3, Z: 1}, brick)
	c.ClearDirty()

	faces := []selection.FaceID{
		{Chunk: c, Pos: voxel.Vec3i{X: 1, Y: 3, Z: 1}, Dir: voxel.FaceUp},
		{Chunk: c, Pos: voxel.Vec3i{X: 2, Y: 3, Z: 1}, Dir: voxel.FaceUp},
		{Chunk: c, Pos: voxel.Vec3i{X: 0, Y: 0, Z: 0}, Dir: voxel.FaceUp}, // empty, skipped
	}
	got := Extrude(g, faces)
	if len(got) != 2 {
		t.Fatalf("expected 2 new faces, got %d", len(got))
	}

	above, ok := g.Chunk(voxel.Vec3i{Y: 1})
	if !ok {
		t.Fatalf("extrude should create the chunk above")
	}
	if above.Sample(1, 0, 1) != brick || above.Sample(2, 0, 1) != brick {
		t.Fatalf("voxels not copied")
	}
	if !got.Has(selection.FaceID{Chunk: above, Pos: voxel.Vec3i{X: 1, Y: 0, Z: 1}, Dir: voxel.FaceUp}) {
		t.Fatalf("missing resolved face in new chunk")
	}
	if c.Dirty() {
		t.Fatalf("source chunk should be untouched")
	}
}

func TestExtrudeSamplesBeforeWriting(t *testing.T) {
	g, c := setup(t)
	c.Set(voxel.Vec3i{X: 0}, brick)
	wood := voxel.Solid(voxel.FaceData{MaterialID: "wood"})
	c.Set(voxel.Vec3i{X: 1}, wood)

	// Right face of x=0 extrudes into x=1 while x=1 extrudes into x=2.
	faces := []selection.FaceID{
		{Chunk: c, Pos: voxel.Vec3i{X: 0}, Dir: voxel.FaceRight},
		{Chunk: c, Pos: voxel.Vec3i{X: 1}, Dir: voxel.FaceRight},
	}
	Extrude(g, faces)
	if c.Sample(2, 0, 0) != wood {
		t.Fatalf("x=2 should receive the original x=1 voxel")
	}
	if c.Sample(1, 0, 0) != brick {
		t.Fatalf("x=1 should receive the x=0 voxel")
	}
}

func TestIntrudeClearsAndExposes(t *testing.T) {
	g, c := setup(t)
	c.Set(voxel.Vec3i{X: 1, Y: 0, Z: 1}, brick)
	c.Set(voxel.Vec3i{X: 1, Y: 1, Z: 1}, brick)
	c.Set(voxel.Vec3i{X: 2, Y: 1, Z: 1}, brick)

	faces := []selection.FaceID{
		{Chunk: c, Pos: voxel.Vec3i{X: 1, Y: 1, Z: 1}, Dir: voxel.FaceUp},
		{Chunk: c, Pos: voxel.Vec3i{X: 2, Y: 1, Z: 1}, Dir: voxel.FaceUp},
	}
	got := Intrude(g, faces)
	if !c.Sample(1, 1, 1).IsEmpty() || !c.Sample(2, 1, 1).IsEmpty() {
		t.Fatalf("intruded voxels should be empty")
	}
	if len(got) != 1 || !got.Has(selection.FaceID{Chunk: c, Pos: voxel.Vec3i{X: 1, Y: 0, Z: 1}, Dir: voxel.FaceUp}) {
		t.Fatalf("expected the exposed face below, got %v", got)
	}
	if g.Len() != 1 {
		t.Fatalf("intrude must not create chunks")
	}
}
