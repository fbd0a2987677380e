package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/df07/go-tile-pathtracer/pkg/core"
	"github.com/df07/go-tile-pathtracer/pkg/geometry"
	"github.com/df07/go-tile-pathtracer/pkg/integrator"
	"github.com/df07/go-tile-pathtracer/pkg/output"
	"github.com/df07/go-tile-pathtracer/pkg/renderer"
	"github.com/df07/go-tile-pathtracer/pkg/scene"
)

// Config controls the web server
type Config struct {
	Port       int    // Port to listen on
	ScenesDir  string // Directory searched for scene description files
	Workers    int    // Workers per render; 0 = one per logical CPU
	MaxPixels  int    // Largest width*height a request may ask for
	MaxSamples int    // Largest width*height*samples a request may trace
}

// DefaultConfig returns the server defaults
func DefaultConfig() Config {
	return Config{
		Port:       8080,
		ScenesDir:  "scenes",
		MaxPixels:  2000 * 2000,
		MaxSamples: 1 << 26,
	}
}

// Server handles web requests for the path tracer
type Server struct {
	config Config
	logger *slog.Logger
	echo   *echo.Echo
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene      string        // Scene name or description file
	Width      int           // Image width
	Height     int           // Image height
	Samples    int           // Samples per pixel
	Depth      int           // Maximum bounces
	Seed       int64         // Base sampler seed
	Integrator string        // "path" or "normals"
	Format     output.Format // Encoded image format
}

// NewServer creates a new web server
func NewServer(config Config, logger *slog.Logger) *Server {
	if config.MaxPixels <= 0 {
		config.MaxPixels = DefaultConfig().MaxPixels
	}
	if config.MaxSamples <= 0 {
		config.MaxSamples = DefaultConfig().MaxSamples
	}
	if logger == nil {
		logger = core.DiscardLogger()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{config: config, logger: logger, echo: e}

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet},
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(c.Request().Context(), level, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			)
			return nil
		},
	}))

	// API endpoints
	e.GET("/api/health", s.handleHealth)
	e.GET("/api/scenes", s.handleScenes)
	e.GET("/api/render", s.handleRender)

	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.logger.Info("starting web server", "url", "http://localhost"+addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight renders until ctx expires
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists the built-in and file scenes
func (s *Server) handleScenes(c echo.Context) error {
	scenes, err := scene.ListScenes(s.config.ScenesDir)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"scenes": scenes})
}

// handleRender renders a scene synchronously and returns the encoded image
func (s *Server) handleRender(c echo.Context) error {
	req, err := s.parseRenderRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	sceneObj, err := s.createScene(req)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, scene.ErrUnknownScene) {
			status = http.StatusNotFound
		}
		return c.JSON(status, map[string]string{"error": err.Error()})
	}

	config := renderer.DefaultConfig()
	config.Sampling = renderer.MergeSamplingConfig(sceneObj.SamplingConfig, scene.SamplingConfig{
		Width:           req.Width,
		Height:          req.Height,
		SamplesPerPixel: req.Samples,
		MaxDepth:        req.Depth,
	})
	// Cost grows with every traced camera ray, not just the image size
	sampling := config.Sampling
	if total := sampling.Width * sampling.Height * sampling.SamplesPerPixel; total > s.config.MaxSamples {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": fmt.Sprintf(
			"%dx%d at %d samples per pixel exceeds the %d sample limit",
			sampling.Width, sampling.Height, sampling.SamplesPerPixel, s.config.MaxSamples)})
	}

	config.Workers = s.config.Workers
	config.Seed = req.Seed
	config.Integrator = req.Integrator

	integ, err := integrator.New(config.Integrator, config.Sampling)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	logger := s.logger.With("scene", req.Scene)
	fb, stats, err := renderer.NewTileScheduler(sceneObj, integ, config, logger).Render(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	var buf bytes.Buffer
	if err := output.Encode(&buf, fb, req.Format); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	header := c.Response().Header()
	header.Set("X-Render-Duration", stats.Duration.Round(time.Millisecond).String())
	header.Set("X-Render-Samples", strconv.Itoa(stats.TotalSamples))
	header.Set("X-Render-Workers", strconv.Itoa(stats.Workers))
	return c.Blob(http.StatusOK, req.Format.ContentType(), buf.Bytes())
}

// parseRenderRequest parses query parameters. Zero size, samples and depth fall
// back to the scene's recommendation.
func (s *Server) parseRenderRequest(c echo.Context) (*RenderRequest, error) {
	req := &RenderRequest{
		Scene:      c.QueryParam("scene"),
		Integrator: c.QueryParam("integrator"),
	}
	if req.Scene == "" {
		req.Scene = "default"
	}

	var err error
	if req.Width, err = parseIntParam(c, "width", 0, 1, 4000); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(c, "height", 0, 1, 4000); err != nil {
		return nil, err
	}
	if req.Samples, err = parseIntParam(c, "samples", 0, 1, 10000); err != nil {
		return nil, err
	}
	if req.Depth, err = parseIntParam(c, "depth", 0, 1, 500); err != nil {
		return nil, err
	}
	seed, err := parseIntParam(c, "seed", 1, 0, 1<<31-1)
	if err != nil {
		return nil, err
	}
	req.Seed = int64(seed)

	req.Format = output.FormatPNG
	if name := c.QueryParam("format"); name != "" {
		if req.Format, err = output.ParseFormat(name); err != nil {
			return nil, err
		}
	}

	return req, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(c echo.Context, key string, defaultValue, min, max int) (int, error) {
	value := c.QueryParam(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter: %v", key, err)
	}
	if parsed < min || parsed > max {
		return 0, fmt.Errorf("%s must be between %d and %d, got %d", key, min, max, parsed)
	}
	return parsed, nil
}

// createScene loads the requested scene with its camera matched to the requested image shape
func (s *Server) createScene(req *RenderRequest) (*scene.Scene, error) {
	sceneObj, err := scene.Load(s.resolveScene(req.Scene))
	if err != nil {
		return nil, err
	}

	width, height := req.Width, req.Height
	if width == 0 {
		width = sceneObj.SamplingConfig.Width
	}
	if height == 0 {
		height = sceneObj.SamplingConfig.Height
	}
	if width*height > s.config.MaxPixels {
		return nil, fmt.Errorf("image of %dx%d exceeds the %d pixel limit", width, height, s.config.MaxPixels)
	}

	if req.Width != 0 || req.Height != 0 {
		sceneObj.CameraConfig = geometry.MergeCameraConfig(sceneObj.CameraConfig, geometry.CameraConfig{
			AspectRatio: float64(width) / float64(height),
		})
		if err := sceneObj.Build(); err != nil {
			return nil, err
		}
	}
	return sceneObj, nil
}

// resolveScene maps a bare file name onto the scenes directory.
// Only files listed by ListScenes are served from disk.
func (s *Server) resolveScene(name string) string {
	scenes, err := scene.ListScenes(s.config.ScenesDir)
	if err != nil {
		return name
	}
	for _, info := range scenes {
		if info.Type == "file" && (info.ID == name || filepath.Base(info.FilePath) == name) {
			return info.FilePath
		}
	}
	if scene.IsDescriptionFile(name) {
		// Not in the scenes directory; refuse arbitrary paths
		return filepath.Join(s.config.ScenesDir, filepath.Base(name))
	}
	return name
}
