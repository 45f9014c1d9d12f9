package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/powderlines/lifttiles/internal/datasource"
	"github.com/powderlines/lifttiles/internal/geojson"
)

var extractCmd = &cobra.Command{
	Use:   "extract <osm-file> <dataset-id>",
	Short: "Extract lift data from a bulk OSM XML file",
	Long: `Extract streams a (potentially very large) OSM XML extract, keeps the
aerialway ways that touch the given bounding box, and writes them as
{data-dir}/{dataset-id}.geojson.`,
	Args: cobra.ExactArgs(2),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().String("bbox", "", "Bounding box: minLon,minLat,maxLon,maxLat")
	extractCmd.Flags().String("name", "", "Resort display name (default: dataset ID)")

	if err := extractCmd.MarkFlagRequired("bbox"); err != nil {
		panic(fmt.Sprintf("failed to mark flag required: %v", err))
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	osmPath := args[0]
	datasetID := args[1]
	bboxStr, _ := cmd.Flags().GetString("bbox")
	name, _ := cmd.Flags().GetString("name")
	dataDir := viper.GetString("data-dir")

	if logger == nil {
		initLogging()
	}
	if name == "" {
		name = datasetID
	}

	bbox, err := parseBBox(bboxStr)
	if err != nil {
		return fmt.Errorf("invalid bbox: %w", err)
	}

	file, err := os.Open(osmPath)
	if err != nil {
		return fmt.Errorf("failed to open OSM extract: %w", err)
	}
	defer file.Close() // nolint:errcheck

	logger.Info("Extracting lifts from OSM file",
		"file", osmPath, "dataset", datasetID, "bbox", bbox.String())

	features, err := datasource.ExtractLiftsFromOSM(file, bbox)
	if err != nil {
		return err
	}

	if len(features) == 0 {
		logger.Warn("No lifts found in bounding box; nothing written", "dataset", datasetID)
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
