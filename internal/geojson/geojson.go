// Package geojson loads and writes lift feature collections.
package geojson

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/powderlines/lifttiles/internal/types"
)

// Load reads a GeoJSON FeatureCollection from disk and converts it to lift
// features. A missing or unreadable file is a fatal input error for the
// caller.
func Load(path string) ([]types.Feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feature collection: %w", err)
	}
	return Parse(data)
}

// Parse converts GeoJSON FeatureCollection bytes to lift features. Only
// LineString geometries are kept; other geometry types are ignored. Optional
// properties are resolved here, once, so rendering never touches raw
// property maps.
func Parse(data []byte) ([]types.Feature, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feature collection: %w", err)
	}

	features := make([]types.Feature, 0, len(fc.Features))
	for _, gf := range fc.Features {
		ls, ok := gf.Geometry.(orb.LineString)
		if !ok {
			continue
		}

		id := stringProp(gf.Properties, "id")
		name := stringProp(gf.Properties, "name")
		if name == "" {
			name = fmt.Sprintf("Lift %s", id)
		}
		liftType := stringProp(gf.Properties, "type")
		if liftType == "" {
			liftType = types.DefaultLiftType
		}

		features = append(features, types.Feature{
			ID:       id,
			Name:     name,
			Type:     liftType,
			Geometry: ls,
			Attrs: types.LiftAttrs{
				Occupancy: stringProp(gf.Properties, "occupancy"),
				Capacity:  stringProp(gf.Properties, "capacity"),
				Duration:  stringProp(gf.Properties, "duration"),
				Heating:   stringProp(gf.Properties, "heating"),
				Bubble:    stringProp(gf.Properties, "bubble"),
			},
		})
	}

	return features, nil
}

// Marshal converts lift features back to an indented GeoJSON
// FeatureCollection, carrying the dataset ID and lift count as
// collection-level properties.
func Marshal(datasetID, datasetName string, features []types.Feature) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	fc.ExtraMembers = map[string]interface{}{
		"properties": map[string]interface{}{
			"mountain_id":   datasetID,
			"mountain_name": datasetName,
			"lift_count":    len(features),
		},
	}

	for _, f := range features {
		gf := geojson.NewFeature(f.Geometry)
		gf.Properties = geojson.Properties{
			"id":   f.ID,
			"type": f.Type,
			"name": f.Name,
		}
		addProp(gf.Properties, "occupancy", f.Attrs.Occupancy)
		addProp(gf.Properties, "capacity", f.Attrs.Capacity)
		addProp(gf.Properties, "duration", f.Attrs.Duration)
		addProp(gf.Properties, "heating", f.Attrs.Heating)
		addProp(gf.Properties, "bubble", f.Attrs.Bubble)
		fc.Append(gf)
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal feature collection: %w", err)
	}
	return data, nil
}

func stringProp(props geojson.Properties, key string) string {
	v, _ := props[key].(string)
	return v
}

func addProp(props geojson.Properties, key, value string) {
	if value != "" {
		props[key] = value
	}
}
