package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/df07/go-tile-pathtracer/pkg/core"
	"github.com/df07/go-tile-pathtracer/pkg/geometry"
	"github.com/df07/go-tile-pathtracer/pkg/integrator"
	"github.com/df07/go-tile-pathtracer/pkg/output"
	"github.com/df07/go-tile-pathtracer/pkg/renderer"
	"github.com/df07/go-tile-pathtracer/pkg/scene"
	"github.com/df07/go-tile-pathtracer/web/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// renderOptions holds the flags of the render command
type renderOptions struct {
	scene      string
	config     string
	scenesDir  string
	width      int
	height     int
	samples    int
	depth      int
	workers    int
	seed       int64
	seedSet    bool // --seed was given, so 0 is a valid choice
	integrator string
	output     string
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:          "pathtracer",
		Short:        "Multi-threaded CPU path tracer",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := core.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			slog.SetDefault(core.NewLogger(cmd.ErrOrStderr(), level))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")

	root.AddCommand(newRenderCmd(), newScenesCmd(), newServeCmd())
	return root
}

func newRenderCmd() *cobra.Command {
	opts := renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a scene to an image file",
		Long: `Render a built-in scene or a scene description file.

Sampling settings come from the scene, then the --config file, then flags.
Output format follows the file extension (.ppm, .png, .bmp, .tif).
Use --output - to write PPM to stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.seedSet = cmd.Flags().Changed("seed")
			return runRender(cmd.Context(), opts, cmd.OutOrStdout(), slog.Default())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.scene, "scene", "default", "Built-in scene name or description file")
	flags.StringVar(&opts.config, "config", "", "TOML render configuration file")
	flags.StringVar(&opts.scenesDir, "scenes-dir", "scenes", "Directory searched for description files named without a path")
	flags.IntVar(&opts.width, "width", 0, "Image width (0 = scene default)")
	flags.IntVar(&opts.height, "height", 0, "Image height (0 = scene default)")
	flags.IntVar(&opts.samples, "samples", 0, "Samples per pixel (0 = scene default)")
	flags.IntVar(&opts.depth, "depth", 0, "Maximum bounces (0 = scene default)")
	flags.IntVar(&opts.workers, "workers", 0, "Worker goroutines (0 = one per CPU)")
	flags.Int64Var(&opts.seed, "seed", 0, "Base sampler seed (default from config)")
	flags.StringVar(&opts.integrator, "integrator", "", "Integrator: "+strings.Join(integrator.Names, ", "))
	flags.StringVarP(&opts.output, "output", "o", "", "Output file (default output/<scene>/render_<timestamp>.png)")

	return cmd
}

func newScenesCmd() *cobra.Command {
	var scenesDir string

	cmd := &cobra.Command{
		Use:   "scenes",
		Short: "List built-in scenes and description files",
		RunE: func(cmd *cobra.Command, args []string) error {
			scenes, err := scene.ListScenes(scenesDir)
			if err != nil {
				return err
			}
			return printScenes(cmd.OutOrStdout(), scenes)
		},
	}
	cmd.Flags().StringVar(&scenesDir, "scenes-dir", "scenes", "Directory of scene description files")
	return cmd
}

func newServeCmd() *cobra.Command {
	config := server.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve renders over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.Default()
			webServer := server.NewServer(config, logger)

			ctx := cmd.Context()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := webServer.Shutdown(shutdownCtx); err != nil {
					logger.Error("shutdown failed", "error", err)
				}
			}()

			return webServer.Start()
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&config.Port, "port", config.Port, "Port to serve on")
	flags.StringVar(&config.ScenesDir, "scenes-dir", config.ScenesDir, "Directory of scene description files")
	flags.IntVar(&config.Workers, "workers", 0, "Workers per render (0 = one per CPU)")
	flags.IntVar(&config.MaxPixels, "max-pixels", config.MaxPixels, "Largest image a request may ask for")
	flags.IntVar(&config.MaxSamples, "max-samples", config.MaxSamples, "Largest width*height*samples a request may trace")
	return cmd
}

// runRender loads the scene, resolves the render configuration and writes the image
func runRender(ctx context.Context, opts renderOptions, stdout io.Writer, logger *slog.Logger) error {
	sceneObj, err := loadScene(opts.scene, opts.scenesDir)
	if err != nil {
		return err
	}

	config, err := resolveConfig(sceneObj, opts)
	if err != nil {
		return err
	}

	// Keep the camera's aspect ratio in step with the image
	aspect := float64(config.Sampling.Width) / float64(config.Sampling.Height)
	if aspect != sceneObj.CameraConfig.AspectRatio {
		sceneObj.CameraConfig = geometry.MergeCameraConfig(sceneObj.CameraConfig, geometry.CameraConfig{AspectRatio: aspect})
		if err := sceneObj.Build(); err != nil {
			return err
		}
	}

	integ, err := integrator.New(config.Integrator, config.Sampling)
	if err != nil {
		return err
	}

	logger = logger.With("scene", sceneObj.Name)
	fb, stats, err := renderer.NewTileScheduler(sceneObj, integ, config, logger).Render(ctx)
	if err != nil {
		return err
	}

	if opts.output == "-" {
		return output.WritePPM(stdout, fb)
	}

	path := opts.output
	if path == "" {
		path = filepath.Join(createOutputDir(opts.scene), fmt.Sprintf("render_%s.png", time.Now().Format("20060102_150405")))
	}
	if err := output.WriteFile(path, fb); err != nil {
		return err
	}

	logger.Info("render saved", "path", path, "duration", stats.Duration.Round(time.Millisecond))
	return nil
}

// loadScene resolves a scene name, falling back to the scenes directory for bare file names
func loadScene(name, scenesDir string) (*scene.Scene, error) {
	sceneObj, err := scene.Load(name)
	if err == nil || !errors.Is(err, scene.ErrUnknownScene) {
		return sceneObj, err
	}
	if scenesDir != "" && scene.IsDescriptionFile(name) && !filepath.IsAbs(name) {
		candidate := filepath.Join(scenesDir, name)
		if _, statErr := os.Stat(candidate); statErr == nil {
			return scene.Load(candidate)
		}
	}
	return nil, err
}

// resolveConfig layers the scene's sampling, the config file and the flags
func resolveConfig(sceneObj *scene.Scene, opts renderOptions) (renderer.Config, error) {
	config := renderer.DefaultConfig()
	config.Sampling = renderer.MergeSamplingConfig(config.Sampling, sceneObj.SamplingConfig)

	if opts.config != "" {
		var err error
		if config, err = renderer.LoadConfigOver(opts.config, config); err != nil {
			return config, err
		}
	}

	config.Sampling = renderer.MergeSamplingConfig(config.Sampling, scene.SamplingConfig{
		Width:           opts.width,
		Height:          opts.height,
		SamplesPerPixel: opts.samples,
		MaxDepth:        opts.depth,
	})
	if opts.workers != 0 {
		config.Workers = opts.workers
	}
	if opts.seedSet {
		config.Seed = opts.seed
	}
	if opts.integrator != "" {
		config.Integrator = opts.integrator
	}

	return config, config.Validate()
}

// createOutputDir returns the output directory for a scene name or description path
func createOutputDir(sceneName string) string {
	base := sceneName
	if scene.IsDescriptionFile(sceneName) {
		base = strings.TrimSuffix(filepath.Base(sceneName), filepath.Ext(sceneName))
	}
	if base == "" {
		base = "default"
	}
	return filepath.Join("output", base)
}

func printScenes(w io.Writer, scenes []scene.SceneInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tNAME\tDESCRIPTION")
	for _, info := range scenes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.ID, info.Type, info.DisplayName, info.Description)
	}
	return tw.Flush()
}
