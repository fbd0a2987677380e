package renderer

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/df07/go-tile-pathtracer/pkg/scene"
)

// ErrInvalidConfig is returned when a render configuration fails validation
var ErrInvalidConfig = errors.New("invalid render config")

// Config controls a single render
type Config struct {
	Sampling   scene.SamplingConfig `toml:"sampling"`
	Workers    int                  `toml:"workers"`    // 0 = one per logical CPU
	Seed       int64                `toml:"seed"`       // Worker i samples with Seed+i
	Integrator string               `toml:"integrator"` // "path" or "normals"
}

// DefaultConfig returns the configuration used when nothing is specified
func DefaultConfig() Config {
	return Config{
		Sampling: scene.SamplingConfig{
			Width:           400,
			Height:          225,
			SamplesPerPixel: 100,
			MaxDepth:        50,
		},
		Workers:    0,
		Seed:       1,
		Integrator: "path",
	}
}

// Validate checks that the configuration describes a renderable image
func (c Config) Validate() error {
	switch {
	case c.Sampling.Width < 1 || c.Sampling.Height < 1:
		return fmt.Errorf("%w: image size %dx%d", ErrInvalidConfig, c.Sampling.Width, c.Sampling.Height)
	case c.Sampling.SamplesPerPixel < 1:
		return fmt.Errorf("%w: samples per pixel %d", ErrInvalidConfig, c.Sampling.SamplesPerPixel)
	case c.Sampling.MaxDepth < 0:
		return fmt.Errorf("%w: max depth %d", ErrInvalidConfig, c.Sampling.MaxDepth)
	case c.Sampling.RussianRouletteMinBounces < 0:
		return fmt.Errorf("%w: russian roulette min bounces %d", ErrInvalidConfig, c.Sampling.RussianRouletteMinBounces)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

// LoadConfig reads a TOML render configuration on top of DefaultConfig
func LoadConfig(path string) (Config, error) {
	return LoadConfigOver(path, DefaultConfig())
}

// LoadConfigOver reads a TOML render configuration on top of base.
// Keys absent from the file keep the value from base.
func LoadConfigOver(path string, base Config) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return base, fmt.Errorf("failed to read config: %w", err)
	}
	defer f.Close()

	config, err := DecodeConfig(f, base)
	if err != nil {
		return base, fmt.Errorf("%s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return base, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

// DecodeConfig decodes TOML from r over base without validating the result
func DecodeConfig(r io.Reader, base Config) (Config, error) {
	config := base
	decoder := toml.NewDecoder(r).DisallowUnknownFields()
	if err := decoder.Decode(&config); err != nil {
		return base, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return config, nil
}

// MergeSamplingConfig applies the non-zero fields of override on top of base
func MergeSamplingConfig(base, override scene.SamplingConfig) scene.SamplingConfig {
	result := base
	if override.Width != 0 {
		result.Width = override.Width
	}
	if override.Height != 0 {
		result.Height = override.Height
	}
	if override.SamplesPerPixel != 0 {
		result.SamplesPerPixel = override.SamplesPerPixel
	}
	if override.MaxDepth != 0 {
		result.MaxDepth = override.MaxDepth
	}
	if override.RussianRouletteMinBounces != 0 {
		result.RussianRouletteMinBounces = override.RussianRouletteMinBounces
	}
	return result
}
