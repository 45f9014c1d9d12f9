package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powderlines/lifttiles/internal/style"
	"github.com/powderlines/lifttiles/internal/tile"
	"github.com/powderlines/lifttiles/internal/types"
)

func testFeatures() []types.Feature {
	return []types.Feature{
		{
			ID:       "1001",
			Name:     "Rainier Express",
			Type:     "chair_lift",
			Geometry: orb.LineString{{-121.474, 46.935}, {-121.470, 46.930}},
		},
		{
			ID:       "1002",
			Name:     "Mt. Rainier Gondola",
			Type:     "gondola",
			Geometry: orb.LineString{{-121.478, 46.933}, {-121.472, 46.928}},
		},
	}
}

func testConfig(outputRoot string) Config {
	return Config{
		DatasetID:  "crystal",
		OutputRoot: outputRoot,
		ZoomMin:    12,
		ZoomMax:    12,
		TileSize:   256,
		Margin:     0.01,
		Workers:    2,
	}
}

func runPyramid(t *testing.T, cfg Config, features []types.Feature) *Summary {
	t.Helper()

	gen, err := NewGenerator(features, style.Default(), cfg.OutputRoot, cfg.DatasetID, cfg.TileSize, cfg.Margin, nil)
	require.NoError(t, err)

	pyr, err := NewPyramid(cfg, features, gen, nil)
	require.NoError(t, err)

	summary, err := pyr.Run(context.Background(), nil)
	require.NoError(t, err)
	return summary
}

func collectTiles(t *testing.T, root string) map[string][]byte {
	t.Helper()

	tiles := make(map[string][]byte)
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		tiles[rel] = data
		return nil
	})
	require.NoError(t, err)
	return tiles
}

func TestPyramidEndToEnd(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(root)
	features := testFeatures()

	summary := runPyramid(t, cfg, features)

	bounds, err := types.BoundsOf(features)
	require.NoError(t, err)
	r, ok := tile.RangeForBounds(bounds, 12)
	require.True(t, ok)

	assert.Equal(t, r.Count(), summary.Planned)
	assert.Equal(t, r.Count(), summary.Generated)
	assert.Zero(t, summary.Failed)
	assert.Empty(t, summary.SkippedZooms)
	assert.Equal(t, r.Count(), summary.PerZoom[12])

	// Every planned tile exists at {root}/{dataset}/{z}/{x}/{y}.png and
	// nothing else was written.
	tiles := collectTiles(t, root)
	require.Len(t, tiles, r.Count())

	r.ForEach(func(c tile.Coords) {
		rel := filepath.Join("crystal", "12", fmt.Sprint(c.X), fmt.Sprintf("%d.png", c.Y))
		require.Contains(t, tiles, rel)
	})

	// Each tile is a decodable PNG of the configured size, and at least one
	// tile in the set carries lift pixels.
	painted := false
	for rel, data := range tiles {
		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err, "tile %s", rel)
		require.Equal(t, 256, img.Bounds().Dx(), "tile %s", rel)
		require.Equal(t, 256, img.Bounds().Dy(), "tile %s", rel)

		b := img.Bounds()
		for y := b.Min.Y; y < b.Max.Y && !painted; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				if _, _, _, a := img.At(x, y).RGBA(); a > 0 {
					painted = true
					break
				}
			}
		}
	}
	assert.True(t, painted, "no tile in the pyramid contains lift pixels")
}

func TestPyramidRegenerationIsIdempotent(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(root)
	features := testFeatures()

	runPyramid(t, cfg, features)
	first := collectTiles(t, root)

	runPyramid(t, cfg, features)
	second := collectTiles(t, root)

	require.Equal(t, len(first), len(second))
	for rel, data := range first {
		assert.Equal(t, data, second[rel], "tile %s changed between runs", rel)
	}
}

func TestPyramidWorkerCountDoesNotChangeOutput(t *testing.T) {
	features := testFeatures()

	rootSerial := t.TempDir()
	cfgSerial := testConfig(rootSerial)
	cfgSerial.Workers = 1
	runPyramid(t, cfgSerial, features)

	rootParallel := t.TempDir()
	cfgParallel := testConfig(rootParallel)
	cfgParallel.Workers = 4
	runPyramid(t, cfgParallel, features)

	serial := collectTiles(t, rootSerial)
	parallel := collectTiles(t, rootParallel)

	require.Equal(t, len(serial), len(parallel))
	for rel, data := range serial {
		assert.Equal(t, data, parallel[rel], "tile %s differs between 1 and 4 workers", rel)
	}
}

func TestPyramidEmptyFeatures(t *testing.T) {
	cfg := testConfig(t.TempDir())

	gen, err := NewGenerator(nil, style.Default(), cfg.OutputRoot, cfg.DatasetID, cfg.TileSize, cfg.Margin, nil)
	require.NoError(t, err)

	pyr, err := NewPyramid(cfg, nil, gen, nil)
	require.NoError(t, err)

	_, err = pyr.Run(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to generate")
}

func TestPyramidProgressReachesTotal(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(root)
	features := testFeatures()

	gen, err := NewGenerator(features, style.Default(), cfg.OutputRoot, cfg.DatasetID, cfg.TileSize, cfg.Margin, nil)
	require.NoError(t, err)

	pyr, err := NewPyramid(cfg, features, gen, nil)
	require.NoError(t, err)

	var lastCompleted, lastTotal int
	summary, err := pyr.Run(context.Background(), func(completed, total, failed int) {
		lastCompleted = completed
		lastTotal = total
	})
	require.NoError(t, err)

	assert.Equal(t, summary.Planned, lastTotal)
	assert.Equal(t, summary.Planned, lastCompleted)
}

func TestConfigValidate(t *testing.T) {
	valid := testConfig("/tmp/tiles")
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing dataset", func(c *Config) { c.DatasetID = "" }},
		{"negative zoom", func(c *Config) { c.ZoomMin = -1 }},
		{"inverted zoom range", func(c *Config) { c.ZoomMin = 14; c.ZoomMax = 10 }},
		{"zero tile size", func(c *Config) { c.TileSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig("/tmp/tiles")
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
