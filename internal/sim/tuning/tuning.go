package tuning

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	ChunkSize       int  `yaml:"chunk_size"`
	BootstrapOrigin bool `yaml:"bootstrap_origin"`

	// Guards against runaway selections; 0 disables a guard.
	MaxFloodFaces int `yaml:"max_flood_faces"`
	MaxRectVolume int `yaml:"max_rect_volume"`

	ClientQueue int `yaml:"client_queue"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion: "1.0",
		ChunkSize:       32,
		BootstrapOrigin: true,
		MaxFloodFaces:   65536,
		MaxRectVolume:   1 << 20,
		ClientQueue:     64,
	}
}

// Load reads a tuning file on top of Defaults, so keys missing from the file
// keep their default values.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	var errs []error
	if t.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunk_size must be positive, got %d", t.ChunkSize))
	}
	if t.MaxFloodFaces < 0 {
		errs = append(errs, fmt.Errorf("max_flood_faces must be >= 0, got %d", t.MaxFloodFaces))
	}
	if t.MaxRectVolume < 0 {
		errs = append(errs, fmt.Errorf("max_rect_volume must be >= 0, got %d", t.MaxRectVolume))
	}
	if t.ClientQueue < 0 {
		errs = append(errs, fmt.Errorf("client_queue must be >= 0, got %d", t.ClientQueue))
	}
	return errors.Join(errs...)
}
