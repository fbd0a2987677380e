package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-tile-pathtracer/pkg/core"
	"github.com/df07/go-tile-pathtracer/pkg/scene"
)

const testSceneYAML = `name: Lone Sphere
camera:
  look_from: [0, 0, 2]
  look_at: [0, 0, 0]
  vfov: 40
sampling:
  width: 32
  height: 32
  samples_per_pixel: 4
  max_depth: 8
materials:
  grey:
    type: lambertian
    albedo: [0.5, 0.5, 0.5]
objects:
  - type: sphere
    center: [0, 0, 0]
    radius: 0.5
    material: grey
`

func TestCreateOutputDir(t *testing.T) {
	tests := []struct {
		name      string
		sceneName string
		want      string
	}{
		{"builtin scene", "default", filepath.Join("output", "default")},
		{"other builtin", "spheregrid", filepath.Join("output", "spheregrid")},
		{"description file", "scenes/lone-sphere.yaml", filepath.Join("output", "lone-sphere")},
		{"nested toml file", "a/b/room.toml", filepath.Join("output", "room")},
		{"empty name", "", filepath.Join("output", "default")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, createOutputDir(tt.sceneName))
		})
	}
}

func TestResolveConfig(t *testing.T) {
	s := scene.NewSphereGridScene()
	configPath := filepath.Join(t.TempDir(), "render.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("seed = 5\n[sampling]\nsamples_per_pixel = 8\nmax_depth = 6\n"), 0o644))

	tests := []struct {
		name        string
		opts        renderOptions
		wantWidth   int
		wantSamples int
		wantDepth   int
		wantSeed    int64
	}{
		{"scene recommendation", renderOptions{}, 600, 50, 50, 1},
		{"config file over scene", renderOptions{config: configPath}, 600, 8, 6, 5},
		{"flags over config file", renderOptions{config: configPath, width: 64, samples: 2, seed: 9, seedSet: true}, 64, 2, 6, 9},
		{"explicit zero seed", renderOptions{config: configPath, seedSet: true}, 600, 8, 6, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := resolveConfig(s, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.wantWidth, config.Sampling.Width)
			assert.Equal(t, tt.wantSamples, config.Sampling.SamplesPerPixel)
			assert.Equal(t, tt.wantDepth, config.Sampling.MaxDepth)
			assert.Equal(t, tt.wantSeed, config.Seed)
			assert.Equal(t, s.SamplingConfig.RussianRouletteMinBounces, config.Sampling.RussianRouletteMinBounces)
		})
	}

	t.Run("invalid flag value", func(t *testing.T) {
		_, err := resolveConfig(s, renderOptions{workers: -1})
		assert.Error(t, err)
	})
}

func TestRunRender(t *testing.T) {
	dir := t.TempDir()
	scenePath := filepath.Join(dir, "lone-sphere.yaml")
	require.NoError(t, os.WriteFile(scenePath, []byte(testSceneYAML), 0o644))

	t.Run("writes file in requested format", func(t *testing.T) {
		out := filepath.Join(dir, "out", "lone.ppm")
		opts := renderOptions{scene: scenePath, width: 16, height: 8, samples: 1, workers: 3, output: out}
		require.NoError(t, runRender(context.Background(), opts, &bytes.Buffer{}, core.DiscardLogger()))

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "P3\n16 8\n255\n"))
	})

	t.Run("stdout", func(t *testing.T) {
		var stdout bytes.Buffer
		opts := renderOptions{scene: "default", width: 8, height: 4, samples: 1, depth: 2, output: "-"}
		require.NoError(t, runRender(context.Background(), opts, &stdout, core.DiscardLogger()))
		assert.Equal(t, 3+8*4, strings.Count(stdout.String(), "\n"))
	})

	t.Run("bare file name from scenes dir", func(t *testing.T) {
		var stdout bytes.Buffer
		opts := renderOptions{scene: "lone-sphere.yaml", scenesDir: dir, samples: 1, output: "-"}
		require.NoError(t, runRender(context.Background(), opts, &stdout, core.DiscardLogger()))
		assert.True(t, strings.HasPrefix(stdout.String(), "P3\n32 32\n255\n"))
	})

	t.Run("unknown scene", func(t *testing.T) {
		opts := renderOptions{scene: "nonexistent", output: "-"}
		err := runRender(context.Background(), opts, &bytes.Buffer{}, core.DiscardLogger())
		assert.ErrorIs(t, err, scene.ErrUnknownScene)
	})

	t.Run("unsupported output format", func(t *testing.T) {
		opts := renderOptions{scene: "default", width: 4, height: 4, samples: 1, output: filepath.Join(dir, "out.gif")}
		assert.Error(t, runRender(context.Background(), opts, &bytes.Buffer{}, core.DiscardLogger()))
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		opts := renderOptions{scene: "default", width: 8, height: 8, samples: 1, output: "-"}
		assert.ErrorIs(t, runRender(ctx, opts, &bytes.Buffer{}, core.DiscardLogger()), context.Canceled)
	})
}

func TestRenderCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"render", "--scene", "materials", "--width", "6", "--height", "4",
		"--samples", "1", "--integrator", "normals", "--output", "-", "--log-level", "debug"})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.True(t, strings.HasPrefix(stdout.String(), "P3\n6 4\n255\n"))
	assert.Contains(t, stderr.String(), "render complete")
}

func TestRenderCommandSeed(t *testing.T) {
	render := func(extra ...string) string {
		t.Helper()
		var stdout bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&stdout)
		cmd.SetErr(&bytes.Buffer{})
		args := []string{"render", "--scene", "default", "--width", "8", "--height", "6",
			"--samples", "4", "--depth", "5", "--workers", "2", "--output", "-", "--log-level", "error"}
		cmd.SetArgs(append(args, extra...))
		require.NoError(t, cmd.ExecuteContext(context.Background()))
		return stdout.String()
	}

	unset := render()
	assert.Equal(t, unset, render("--seed", "1"), "default seed is 1")
	assert.NotEqual(t, unset, render("--seed", "0"), "--seed 0 must be honoured")
}

func TestScenesCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lone-sphere.yaml"), []byte(testSceneYAML), 0o644))

	var stdout bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"scenes", "--scenes-dir", dir})

	require.NoError(t, cmd.Execute())
	for _, info := range scene.BuiltinScenes() {
		assert.Contains(t, stdout.String(), info.ID)
	}
	assert.Contains(t, stdout.String(), "Lone Sphere")
}

func TestInvalidLogLevel(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"scenes", "--log-level", "loud"})
	assert.Error(t, cmd.Execute())
}
