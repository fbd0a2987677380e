package renderer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/df07/go-tile-pathtracer/pkg/core"
	"github.com/df07/go-tile-pathtracer/pkg/integrator"
	"github.com/df07/go-tile-pathtracer/pkg/scene"
)

// TileScheduler renders a scene by splitting the image into one contiguous
// pixel range per worker. Each worker writes only its own range of the shared
// framebuffer, so no locking is needed.
type TileScheduler struct {
	scene      *scene.Scene
	integrator integrator.Integrator
	config     Config
	logger     *slog.Logger
}

// NewTileScheduler creates a scheduler for the given scene and integrator
func NewTileScheduler(s *scene.Scene, integ integrator.Integrator, config Config, logger *slog.Logger) *TileScheduler {
	if logger == nil {
		logger = core.DiscardLogger()
	}
	return &TileScheduler{
		scene:      s,
		integrator: integ,
		config:     config,
		logger:     logger,
	}
}

// Render traces every pixel and returns once all workers have finished.
// A failing worker cancels the others and no partial image is returned.
func (ts *TileScheduler) Render(ctx context.Context) (*Framebuffer, RenderStats, error) {
	var stats RenderStats

	if err := ts.config.Validate(); err != nil {
		return nil, stats, err
	}
	if ts.scene == nil || ts.scene.Camera == nil {
		return nil, stats, fmt.Errorf("%w: scene has no camera, call Build first", ErrInvalidConfig)
	}
	if ts.integrator == nil {
		return nil, stats, fmt.Errorf("%w: no integrator", ErrInvalidConfig)
	}

	sampling := ts.config.Sampling
	workers := ts.config.Workers
	if workers == 0 {
		workers = DefaultWorkers()
	}

	fb := NewFramebuffer(sampling.Width, sampling.Height, sampling.SamplesPerPixel)
	ranges := PartitionPixels(len(fb.Pixels), workers)

	stats.TotalPixels = len(fb.Pixels)
	stats.TotalSamples = len(fb.Pixels) * sampling.SamplesPerPixel
	stats.Workers = workers
	stats.PixelsPerWorker = make([]int, workers)
	for i, r := range ranges {
		stats.PixelsPerWorker[i] = r.Len()
	}

	ts.logger.Info("starting render",
		"scene", ts.scene.Name,
		"width", sampling.Width,
		"height", sampling.Height,
		"samples", sampling.SamplesPerPixel,
		"depth", sampling.MaxDepth,
		"workers", workers,
		"seed", ts.config.Seed,
	)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range ranges {
		g.Go(func() (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = fmt.Errorf("worker %d panicked: %v", i, rec)
				}
			}()
			return ts.renderRange(gctx, i, r, fb)
		})
	}

	if err := g.Wait(); err != nil {
		ts.logger.Error("render failed", "error", err)
		return nil, stats, err
	}

	stats.Duration = time.Since(start)
	ts.logger.Info("render complete", "stats", stats)

	return fb, stats, nil
}

// renderRange accumulates every sample of the pixels in r into fb
func (ts *TileScheduler) renderRange(ctx context.Context, worker int, r PixelRange, fb *Framebuffer) error {
	sampler := core.NewSeededSampler(ts.config.Seed + int64(worker))
	camera := ts.scene.Camera
	samples := ts.config.Sampling.SamplesPerPixel

	// The first and last pixel centers map to 0 and 1
	sDenom := float64(max(fb.Width-1, 1))
	tDenom := float64(max(fb.Height-1, 1))

	ts.logger.Debug("worker started", "worker", worker, "start", r.Start, "end", r.End)

	for x := r.Start; x < r.End; x++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		row := x / fb.Width
		col := x % fb.Width

		var sum core.Vec3
		for i := 0; i < samples; i++ {
			s := (float64(col) + sampler.Get1D()) / sDenom
			t := (float64(row) + sampler.Get1D()) / tDenom
			ray := camera.GetRay(s, t, sampler)
			sum = sum.Add(ts.integrator.RayColor(ray, ts.scene, sampler))
		}
		fb.Pixels[x] = sum
	}

	return nil
}
