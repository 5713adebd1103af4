package encoding

import (
	"testing"

	"voxeledit.ai/internal/sim/voxel"
)

func TestOccupancy_RoundTrip(t *testing.T) {
	g, err := voxel.NewGrid(4)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	c, _ := g.CreateChunk(voxel.Vec3i{})
	solid := voxel.Voxel{Filled: true}
	for _, p := range []voxel.Vec3i{{X: 0}, {X: 1}, {X: 3, Y: 1}, {X: 3, Y: 3, Z: 3}} {
		c.Set(p, solid)
	}

	got, err := DecodeOccupancy(EncodeOccupancy(c), 64)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	i := 0
	for p, v := range c.All() {
		if got[i] != v.Filled {
			t.Fatalf("cell %d %s: got %v want %v", i, p, got[i], v.Filled)
		}
		i++
	}
}

func TestOccupancy_EmptyChunk(t *testing.T) {
	g, _ := voxel.NewGrid(2)
	c, _ := g.CreateChunk(voxel.Vec3i{})
	got, err := DecodeOccupancy(EncodeOccupancy(c), 8)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i, f := range got {
		if f {
			t.Fatalf("cell %d should be empty", i)
		}
	}
}

func TestOccupancy_Malformed(t *testing.T) {
	g, _ := voxel.NewGrid(2)
	c, _ := g.CreateChunk(voxel.Vec3i{})
	enc := EncodeOccupancy(c)

	if _, err := DecodeOccupancy(enc, 9); err == nil {
		t.Fatalf("expected short-cover error")
	}
	if _, err := DecodeOccupancy(enc, 7); err == nil {
		t.Fatalf("expected overrun error")
	}
	if _, err := DecodeOccupancy("!!", 8); err == nil {
		t.Fatalf("expected base64 error")
	}
	if _, err := DecodeOccupancy("gA==", 8); err == nil {
		t.Fatalf("expected truncated varint error")
	}
}
