package voxel

import "fmt"

type Vec3i struct {
	X int
	Y int
	Z int
}

func (v Vec3i) Add(o Vec3i) Vec3i { return Vec3i{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z} }
func (v Vec3i) Sub(o Vec3i) Vec3i { return Vec3i{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z} }
func (v Vec3i) Scale(k int) Vec3i { return Vec3i{X: v.X * k, Y: v.Y * k, Z: v.Z * k} }
func (v Vec3i) Neg() Vec3i { return Vec3i{X: -v.X, Y: -v.Y, Z: -v.Z} }
func (v Vec3i) ToArray() [3]int { return [3]int{v.X, v.Y, v.Z} }
func FromArray(a [3]int) Vec3i { return Vec3i{X: a[0], Y: a[1], Z: a[2]} }
func (v Vec3i) String() string { return fmt.Sprintf("(%d,%d,%d)", v.X, v.Y, v.Z) }
func (v Vec3i) InBounds(size int) bool {
	return v.X >= 0 && v.X < size && v.Y >= 0 && v.Y < size && v.Z >= 0 && v.Z < size
}

// Unit vectors. Forward is +Z, Right is +X, Up is +Y.
var (
	Forward  = Vec3i{Z: 1}
	Backward = Vec3i{Z: -1}
	Up       = Vec3i{Y: 1}
	Down     = Vec3i{Y: -1}
	Left     = Vec3i{X: -1}
	Right    = Vec3i{X: 1}
)

type FaceDirection uint8

const (
	FaceForward FaceDirection = iota
	FaceBackward
	FaceUp
	FaceDown
	FaceLeft
	FaceRight

	NumFaces = 6
)

var faceNames = [NumFaces]string{"FORWARD", "BACKWARD", "UP", "DOWN", "LEFT", "RIGHT"}

var faceNormals = [NumFaces]Vec3i{Forward, Backward, Up, Down, Left, Right}

var facePlanar = [NumFaces][4]Vec3i{
	FaceForward:  {Up, Down, Left, Right},
	FaceBackward: {Up, Down, Left, Right},
	FaceUp:       {Forward, Backward, Left, Right},
	FaceDown:     {Forward, Backward, Left, Right},
	FaceLeft:     {Up, Down, Forward, Backward},
	FaceRight:    {Up, Down, Forward, Backward},
}

func (d FaceDirection) Valid() bool { return d < NumFaces }

func (d FaceDirection) String() string {
	if !d.Valid() {
		return fmt.Sprintf("FaceDirection(%d)", uint8(d))
	}
	return faceNames[d]
}

// Normal is the outward unit normal of the face.
func (d FaceDirection) Normal() Vec3i {
	if !d.Valid() {
		return Vec3i{}
	}
	return faceNormals[d]
}

// Planar returns the four in-plane neighbor offsets (both polarities of the
// two axes orthogonal to the normal).
func (d FaceDirection) Planar() [4]Vec3i {
	if !d.Valid() {
		return [4]Vec3i{}
	}
	return facePlanar[d]
}

func ParseFaceDirection(s string) (FaceDirection, error) {
	for i, n := range faceNames {
		if n == s {
			return FaceDirection(i), nil
		}
	}
	return 0, fmt.Errorf("unknown face direction %q", s)
}

// FaceData is the per-face surface assignment of a voxel.
type FaceData struct {
	MaterialID string
	SurfaceID  string // barcode
	Override   bool
}

// Voxel is a value type; the zero value is the canonical empty voxel.
type Voxel struct {
	Filled bool
	Faces  [NumFaces]FaceData
}

// Empty is the canonical empty voxel returned by out-of-range reads.
var Empty = Voxel{}

func (v Voxel) IsEmpty() bool { return !v.Filled }

func (v Voxel) Face(d FaceDirection) FaceData {
	if !d.Valid() {
		return FaceData{}
	}
	return v.Faces[d]
}

func (v Voxel) Material(d FaceDirection) string { return v.Face(d).MaterialID }
func (v Voxel) Surface(d FaceDirection) string { return v.Face(d).SurfaceID }
func (v Voxel) Override(d FaceDirection) bool { return v.Face(d).Override }

// Solid returns a non-empty voxel with every face set to fd.
func Solid(fd FaceData) Voxel {
	v := Voxel{Filled: true}
	for i := range v.Faces {
		v.Faces[i] = fd
	}
	return v
}

// WithFace returns a copy of v with face d replaced.
func (v Voxel) WithFace(d FaceDirection, fd FaceData) Voxel {
	if d.Valid() {
		v.Faces[d] = fd
	}
	return v
}
