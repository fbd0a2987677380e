package renderer

import (
	"log/slog"
	"time"
)

// RenderStats contains statistics about a finished render
type RenderStats struct {
	TotalPixels     int           // Total number of pixels rendered
	TotalSamples    int           // Total number of camera rays traced
	Workers         int           // Number of worker goroutines
	PixelsPerWorker []int         // Size of each worker's pixel range
	Duration        time.Duration // Wall time of the render
}

// SamplesPerSecond returns the sample throughput of the render
func (s RenderStats) SamplesPerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.TotalSamples) / s.Duration.Seconds()
}

// LogValue implements slog.LogValuer
func (s RenderStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("pixels", s.TotalPixels),
		slog.Int("samples", s.TotalSamples),
		slog.Int("workers", s.Workers),
		slog.Duration("duration", s.Duration),
		slog.Float64("samples_per_sec", s.SamplesPerSecond()),
	)
}
