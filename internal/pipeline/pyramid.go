package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/powderlines/lifttiles/internal/tile"
	"github.com/powderlines/lifttiles/internal/types"
	"github.com/powderlines/lifttiles/internal/worker"
)

// Config holds the recognized options of a pyramid generation run.
type Config struct {
	DatasetID  string
	OutputRoot string
	ZoomMin    int
	ZoomMax    int
	TileSize   int
	Margin     float64
	Workers    int
}

// Validate rejects invalid configuration before any work is done.
func (c Config) Validate() error {
	if c.DatasetID == "" {
		return fmt.Errorf("dataset ID is required")
	}
	if c.ZoomMin < 0 || c.ZoomMax < 0 {
		return fmt.Errorf("zoom levels must be non-negative")
	}
	if c.ZoomMin > c.ZoomMax {
		return fmt.Errorf("zoom-min (%d) must be <= zoom-max (%d)", c.ZoomMin, c.ZoomMax)
	}
	if c.TileSize <= 0 {
		return fmt.Errorf("tile size must be positive, got %d", c.TileSize)
	}
	return nil
}

// Summary accumulates the outcome of one run.
type Summary struct {
	Planned      int         // tiles in all non-empty ranges
	Generated    int         // tiles written successfully
	Failed       int         // tiles that errored after retries
	SkippedZooms []int       // zooms whose tile range was empty after clamping
	PerZoom      map[int]int // generated tiles by zoom level
}

// String returns a one-line run summary.
func (s *Summary) String() string {
	return fmt.Sprintf("generated %d/%d tiles (%d failed, %d empty zoom levels)",
		s.Generated, s.Planned, s.Failed, len(s.SkippedZooms))
}

// Pyramid drives tile generation across a zoom range: bounds first, then one
// planned range per zoom, then the tiles of every range through the worker
// pool.
type Pyramid struct {
	cfg      Config
	features []types.Feature
	gen      *Generator
	logger   *slog.Logger
}

// NewPyramid validates the configuration and prepares a run.
func NewPyramid(cfg Config, features []types.Feature, gen *Generator, logger *slog.Logger) (*Pyramid, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &Pyramid{
		cfg:      cfg,
		features: features,
		gen:      gen,
		logger:   logger,
	}, nil
}

// Run generates the full pyramid. An empty feature collection surfaces as a
// "nothing to generate" error before any tile work; an empty range at one
// zoom is logged and skipped, never fatal. Per-tile failures end up in the
// summary only.
func (p *Pyramid) Run(ctx context.Context, onProgress worker.ProgressFunc) (*Summary, error) {
	bounds, err := types.BoundsOf(p.features)
	if err != nil {
		return nil, fmt.Errorf("nothing to generate: %w", err)
	}
	p.log().Info("Bounds computed", "bounds", bounds.String(), "features", len(p.features))

	summary := &Summary{PerZoom: make(map[int]int)}
	var tasks []worker.Task

	for zoom := p.cfg.ZoomMin; zoom <= p.cfg.ZoomMax; zoom++ {
		r, ok := tile.RangeForBounds(bounds, zoom)
		if !ok {
			p.log().Info("Tile range empty after clamping; skipping zoom", "zoom", zoom)
			summary.SkippedZooms = append(summary.SkippedZooms, zoom)
			continue
		}

		p.log().Info("Tile range planned", "range", r.String(), "tiles", r.Count())
		r.ForEach(func(c tile.Coords) {
			tasks = append(tasks, worker.Task{Coords: c})
		})
	}
	summary.Planned = len(tasks)

	pool := worker.New(worker.Config{
		Workers:    p.cfg.Workers,
		Generator:  p.gen,
		OnProgress: onProgress,
	})

	results := pool.Run(ctx, tasks)

	for _, res := range results {
		if res.Err != nil {
			summary.Failed++
			p.log().Error("Tile generation failed",
				"tile", res.Task.Coords.String(), "error", res.Err)
			continue
		}
		summary.Generated++
		summary.PerZoom[int(res.Task.Coords.Z)]++
	}

	for _, zoom := range sortedZooms(summary.PerZoom) {
		p.log().Info("Zoom level complete", "zoom", zoom, "tiles", summary.PerZoom[zoom])
	}
	p.log().Info("Pyramid run finished", "summary", summary.String())

	return summary, nil
}

func sortedZooms(perZoom map[int]int) []int {
	zooms := make([]int, 0, len(perZoom))
	for z := range perZoom {
		zooms = append(zooms, z)
	}
	sort.Ints(zooms)
	return zooms
}

func (p *Pyramid) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.Default()
}
