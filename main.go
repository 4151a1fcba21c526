package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"cropedit/internal/crop"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Send()
	}
}

func run() error {
	var args cliArgs
	cliCtx := kong.Parse(
		&args,
		kong.Name("cropedit"),
		kong.Description("Crop images interactively or in batches."),
		kong.UsageOnError(),
		kong.DefaultEnvars("CROPEDIT"),
	)
	if err := cliCtx.Run(); err != nil {
		return err
	}

	return nil
}

type cliArgs struct {
	Serve serveCmd `cmd:"" default:"withargs" help:"Serve the crop editor for a directory of images"`
	Apply applyCmd `cmd:"" help:"Execute saved crop operations"`
	Crop  cropCmd  `cmd:"" help:"Crop a single image"`
}

// EditorFlags configure every editor the commands create.
type EditorFlags struct {
	MinSize float64 `help:"Smallest width or height a crop region can be resized to" default:"20"`
	Leave   string  `help:"What happens to a drag when the pointer leaves the image" enum:"commit,rollback" default:"commit"`
	Verbose bool    `help:"Enable verbose logging" default:"false"`
}

func (f EditorFlags) options() ([]crop.Option, error) {
	policy, err := crop.ParseLeavePolicy(f.Leave)
	if err != nil {
		return nil, err
	}
	return []crop.Option{
		crop.WithMinSize(f.MinSize),
		crop.WithLeavePolicy(policy),
	}, nil
}

func setupLogging(verbose bool) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = log.Output(zerolog.NewConsoleWriter()).Level(level)
	zerolog.DefaultContextLogger = &log.Logger
}

type serveCmd struct {
	RootDir string `arg:"" help:"Root directory to serve files from" type:"existingdir"`
	Open    bool   `help:"Open the browser automatically when the server starts" default:"true" negatable:""`
	JSON    bool   `help:"Output operations in JSON format without executing"`
	Once    bool   `help:"Run the server once and exit after save" default:"true" negatable:""`

	EditorFlags `embed:""`
}

func (cmd *serveCmd) Run() error {
	setupLogging(cmd.Verbose)

	opts, err := cmd.options()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	ctx = log.Logger.WithContext(ctx)

	outputDir := filepath.Join(cmd.RootDir, "output")
	executor := &OperationExecutor{
		BaseDir:       cmd.RootDir,
		OutputDir:     outputDir,
		Cropper:       NewImagingCropper(),
		EditorOptions: opts,
	}

	app := NewWebApp(Config{
		RootDir:       cmd.RootDir,
		OutputDir:     outputDir,
		EditorOptions: opts,
		OnBeforeShutdown: func() {
			log.Ctx(ctx).Info().Msg("Shutting down web application...")
		},
		OnReady: func(addr string) {
			log.Ctx(ctx).Info().Msgf("Server started at %s", addr)
			if cmd.Open {
				if err := openBrowser(addr); err != nil {
					log.Error().Err(err).Msg("Failed to open browser")
				}
			}
		},
		OnSave: func(ops Operations) {
			if cmd.JSON {
				printJSONL(ops)
			} else {
				if err := executor.Exec(ctx, ops); err != nil {
					log.Ctx(ctx).Error().Err(err).Msg("Failed to execute operations")
				}
			}

			if cmd.Once {
				cancel()
			}
		},
	})

	if err := app.Run(ctx); err != nil {
		return err
	}

	return nil
}

type applyCmd struct {
	RootDir   string `arg:"" help:"Directory the operation filenames are relative to" type:"existingdir"`
	File      string `arg:"" help:"JSON array or JSON-lines file of operations" type:"existingfile"`
	OutputDir string `help:"Where cropped images are written (default: <root>/output)" type:"path"`

	EditorFlags `embed:""`
}

func (cmd *applyCmd) Run() error {
	setupLogging(cmd.Verbose)

	opts, err := cmd.options()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx = log.Logger.WithContext(ctx)

	f, err := os.Open(cmd.File)
	if err != nil {
		return fmt.Errorf("failed to open operations file: %w", err)
	}
	defer f.Close()
	ops, err := readOperations(f)
	if err != nil {
		return err
	}

	outputDir := cmd.OutputDir
	if outputDir == "" {
		outputDir = filepath.Join(cmd.RootDir, "output")
	}
	executor := &OperationExecutor{
		BaseDir:       cmd.RootDir,
		OutputDir:     outputDir,
		Cropper:       NewImagingCropper(),
		EditorOptions: opts,
	}
	log.Ctx(ctx).Info().Int("operations", len(ops)).Str("output", outputDir).Msg("applying operations")
	return executor.Exec(ctx, ops)
}

type cropCmd struct {
	Image           string  `arg:"" help:"Image to crop" type:"existingfile"`
	X               float64 `help:"Left edge of the crop region in display units" default:"50"`
	Y               float64 `help:"Top edge of the crop region in display units" default:"50"`
	Width           float64 `help:"Width of the crop region in display units" default:"200"`
	Height          float64 `help:"Height of the crop region in display units" default:"200"`
	ContainerWidth  float64 `help:"Width the image is displayed at (default: native width)"`
	ContainerHeight float64 `help:"Height the image is displayed at (default: native height)"`
	Shape           string  `help:"Crop shape" enum:"rectangle,square,circle" default:"rectangle"`
	Out             string  `help:"Output file (default: cropped-<shape>.png)" type:"path"`
	Verbose         bool    `help:"Enable verbose logging" default:"false"`
}

func (cmd *cropCmd) Run() error {
	setupLogging(cmd.Verbose)

	shape, err := crop.ParseShape(cmd.Shape)
	if err != nil {
		return err
	}

	cropper := NewImagingCropper()
	in, err := os.Open(cmd.Image)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer in.Close()
	src, err := cropper.Decode(in)
	if err != nil {
		return err
	}

	container := crop.Bounds{Width: cmd.ContainerWidth, Height: cmd.ContainerHeight}
	b := src.Bounds()
	if container.Width <= 0 {
		container.Width = float64(b.Dx())
	}
	if container.Height <= 0 {
		container.Height = float64(b.Dy())
	}
	region := crop.Region{X: cmd.X, Y: cmd.Y, Width: cmd.Width, Height: cmd.Height}
	if !region.Within(container) {
		return fmt.Errorf("%s does not fit in a %gx%g container", region, container.Width, container.Height)
	}

	out, err := crop.Export(src, region, shape, container)
	if err != nil {
		return err
	}

	outPath := cmd.Out
	if outPath == "" {
		outPath = crop.ExportFilename(shape)
	}
	if format, err := imaging.FormatFromFilename(outPath); err == nil {
		cropper.Format = format
	}
	wf, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outPath, err)
	}
	defer wf.Close()
	if err := cropper.Encode(wf, out); err != nil {
		return err
	}

	log.Info().
		Str("source", cmd.Image).
		Stringer("region", region).
		Stringer("shape", shape).
		Str("output", outPath).
		Msg("cropped")
	return nil
}

func printJSONL[T any](data []T) {
	enc := json.NewEncoder(os.Stdout)
	for _, item := range data {
		if err := enc.Encode(item); err != nil {
			log.Error().Err(err).Msg("Failed to encode item to JSON")
			continue
		}
	}
}
