package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/powderlines/lifttiles/internal/geojson"
	"github.com/powderlines/lifttiles/internal/pipeline"
	"github.com/powderlines/lifttiles/internal/raster"
	"github.com/powderlines/lifttiles/internal/style"
	"github.com/powderlines/lifttiles/internal/types"
	"github.com/powderlines/lifttiles/internal/worker"
)

var generateCmd = &cobra.Command{
	Use:   "generate <dataset-id>",
	Short: "Generate a tile pyramid for one dataset",
	Long: `Generate renders the lifts of one dataset into a slippy-map PNG pyramid.

The dataset's GeoJSON is read from {data-dir}/{dataset-id}.geojson unless
--input points elsewhere. Tiles land under {output-dir}/{dataset-id}/{z}/{x}/{y}.png.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().String("input", "", "GeoJSON input file (default {data-dir}/{dataset-id}.geojson)")
	generateCmd.Flags().Int("zoom-min", 10, "Minimum zoom level")
	generateCmd.Flags().Int("zoom-max", 16, "Maximum zoom level")
	generateCmd.Flags().Int("tile-size", 256, "Tile size in pixels")
	generateCmd.Flags().Float64("margin", raster.DefaultMargin, "Geodetic inclusion margin in degrees")
	generateCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")
	generateCmd.Flags().Bool("progress", true, "Show progress bar")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"generate.input", "input"},
		{"generate.zoom_min", "zoom-min"},
		{"generate.zoom_max", "zoom-max"},
		{"generate.tile_size", "tile-size"},
		{"generate.margin", "margin"},
		{"generate.workers", "workers"},
		{"generate.progress", "progress"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, generateCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	datasetID := args[0]
	input := viper.GetString("generate.input")
	zoomMin := viper.GetInt("generate.zoom_min")
	zoomMax := viper.GetInt("generate.zoom_max")
	tileSize := viper.GetInt("generate.tile_size")
	margin := viper.GetFloat64("generate.margin")
	workers := viper.GetInt("generate.workers")
	showProgress := viper.GetBool("generate.progress")
	outputDir := viper.GetString("output-dir")
	dataDir := viper.GetString("data-dir")

	if logger == nil {
		initLogging()
	}

	if input == "" {
		input = filepath.Join(dataDir, datasetID+".geojson")
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	cfg := pipeline.Config{
		DatasetID:  datasetID,
		OutputRoot: outputDir,
		ZoomMin:    zoomMin,
		ZoomMax:    zoomMax,
		TileSize:   tileSize,
		Margin:     margin,
		Workers:    workers,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	features, err := geojson.Load(input)
	if err != nil {
		return fmt.Errorf("failed to load lift data: %w", err)
	}

	logger.Info("Starting pyramid generation",
		"dataset", datasetID,
		"input", input,
		"features", len(features),
		"zoom_range", fmt.Sprintf("%d-%d", zoomMin, zoomMax),
		"tile_size", tileSize,
		"workers", workers,
	)

	gen, err := pipeline.NewGenerator(features, style.Default(), outputDir, datasetID, tileSize, margin, logger)
	if err != nil {
		return fmt.Errorf("failed to init generator: %w", err)
	}

	pyramid, err := pipeline.NewPyramid(cfg, features, gen, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Received interrupt signal, cancelling...")
		cancel()
	}()

	progress := worker.NewProgress(0, showProgress)
	summary, err := pyramid.Run(ctx, progress.Callback())
	progress.Done()
	if err != nil {
		return err
	}

	// Per-tile failures alone do not fail the run, except when nothing at
	// all was produced.
	if summary.Planned > 0 && summary.Generated == 0 {
		return fmt.Errorf("no tiles were produced (%d planned, %d failed)", summary.Planned, summary.Failed)
	}

	logger.Info("Tile URL template", "template", fmt.Sprintf("/tiles/%s/{z}/{x}/{y}.png", datasetID))
	return nil
}

// parseBBox parses "minLon,minLat,maxLon,maxLat" into a bounding box.
func parseBBox(s string) (types.BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return types.BoundingBox{}, fmt.Errorf("expected 4 comma-separated values, got %d", len(parts))
	}

	var vals [4]float64
	for i, part := range parts {
		val, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return types.BoundingBox{}, fmt.Errorf("invalid number at position %d: %w", i, err)
		}
		vals[i] = val
	}

	if vals[0] >= vals[2] {
		return types.BoundingBox{}, fmt.Errorf("minLon (%.4f) must be < maxLon (%.4f)", vals[0], vals[2])
	}
	if vals[1] >= vals[3] {
		return types.BoundingBox{}, fmt.Errorf("minLat (%.4f) must be < maxLat (%.4f)", vals[1], vals[3])
	}

	return types.BoundingBox{MinLon: vals[0], MinLat: vals[1], MaxLon: vals[2], MaxLat: vals[3]}, nil
}
