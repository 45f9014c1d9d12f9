// Package pipeline wires feature loading, rasterization, and tile output
// into a pyramid generation run.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/powderlines/lifttiles/internal/raster"
	"github.com/powderlines/lifttiles/internal/style"
	"github.com/powderlines/lifttiles/internal/tile"
	"github.com/powderlines/lifttiles/internal/types"
)

// writeRetries bounds how often a failing tile write is attempted before the
// failure is recorded and the run moves on.
const writeRetries = 3

// writeRetryDelay is the pause between write attempts.
const writeRetryDelay = 100 * time.Millisecond

// Generator renders and persists one tile at a time. It holds the feature
// set for the lifetime of a generation run and never mutates it.
type Generator struct {
	features []types.Feature
	styles   style.Table
	logger   *slog.Logger
	baseDir  string // {outputRoot}/{datasetId}
	tileSize int
	margin   float64
}

// NewGenerator prepares a generator writing tiles below
// {outputRoot}/{datasetId}.
func NewGenerator(features []types.Feature, styles style.Table, outputRoot, datasetID string, tileSize int, margin float64, logger *slog.Logger) (*Generator, error) {
	if tileSize <= 0 {
		return nil, fmt.Errorf("tile size must be positive, got %d", tileSize)
	}

	return &Generator{
		features: features,
		styles:   styles,
		baseDir:  filepath.Join(outputRoot, datasetID),
		tileSize: tileSize,
		margin:   margin,
		logger:   logger,
	}, nil
}

// Generate renders one tile and writes it to {base}/{z}/{x}/{y}.png.
// Regeneration fully overwrites; tiles are never read back or merged.
func (g *Generator) Generate(ctx context.Context, coords tile.Coords) (string, error) {
	r := raster.NewRenderer(coords, g.tileSize, g.margin, g.styles, g.logger)
	canvas := r.RenderTile(g.features)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return "", fmt.Errorf("failed to encode tile %s: %w", coords.String(), err)
	}

	dir := filepath.Join(g.baseDir, strconv.Itoa(int(coords.Z)), strconv.Itoa(int(coords.X)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create tile directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%d.png", coords.Y))
	if err := g.writeWithRetry(ctx, path, buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to write tile %s: %w", coords.String(), err)
	}

	return path, nil
}

// writeWithRetry persists one tile with a bounded retry policy, so a single
// slow or failing write cannot stall the run.
func (g *Generator) writeWithRetry(ctx context.Context, path string, data []byte) error {
	var lastErr error
	for attempt := 1; attempt <= writeRetries; attempt++ {
		lastErr = os.WriteFile(path, data, 0o644)
		if lastErr == nil {
			return nil
		}

		g.log().Warn("Tile write failed",
			"path", path, "attempt", attempt, "error", lastErr)

		if attempt == writeRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(writeRetryDelay):
		}
	}
	return lastErr
}

func (g *Generator) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return slog.Default()
}
