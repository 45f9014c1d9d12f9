package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/powderlines/lifttiles/internal/datasource"
	"github.com/powderlines/lifttiles/internal/geojson"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <dataset-id>",
	Short: "Fetch lift data from the Overpass API",
	Long: `Fetch queries OpenStreetMap's Overpass API for aerialway ways around a
resort center and writes them as {data-dir}/{dataset-id}.geojson.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().Float64("lat", 0, "Resort center latitude")
	fetchCmd.Flags().Float64("lon", 0, "Resort center longitude")
	fetchCmd.Flags().Int("radius", datasource.DefaultRadius, "Query radius in meters")
	fetchCmd.Flags().String("name", "", "Resort display name (default: dataset ID)")
	fetchCmd.Flags().String("endpoint", "", "Overpass API endpoint (default: public instance)")

	for _, required := range []string{"lat", "lon"} {
		if err := fetchCmd.MarkFlagRequired(required); err != nil {
			panic(fmt.Sprintf("failed to mark flag required: %v", err))
		}
	}
}

func runFetch(cmd *cobra.Command, args []string) error {
	datasetID := args[0]
	lat, _ := cmd.Flags().GetFloat64("lat")
	lon, _ := cmd.Flags().GetFloat64("lon")
	radius, _ := cmd.Flags().GetInt("radius")
	name, _ := cmd.Flags().GetString("name")
	endpoint, _ := cmd.Flags().GetString("endpoint")
	dataDir := viper.GetString("data-dir")

	if logger == nil {
		initLogging()
	}
	if name == "" {
		name = datasetID
	}

	logger.Info("Fetching lift data",
		"dataset", datasetID, "lat", lat, "lon", lon, "radius", radius)

	src := datasource.NewOverpassSource(endpoint)
	features, err := src.FetchLifts(context.Background(), lat, lon, radius)
	if err != nil {
		return fmt.Errorf("failed to fetch lifts: %w", err)
	}

	if len(features) == 0 {
		logger.Warn("No lifts found; nothing written", "dataset", datasetID)
		return nil
	}

	data, err := geojson.Marshal(datasetID, name, features)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	path := filepath.Join(dataDir, datasetID+".geojson")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write lift data: %w", err)
	}

	logger.Info("Lift data written", "dataset", datasetID, "lifts", len(features), "path", path)
	return nil
}
