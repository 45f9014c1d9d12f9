// Package datasource acquires lift features from OpenStreetMap sources.
package datasource

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/MeKo-Christian/go-overpass"
	"github.com/paulmach/orb"

	"github.com/powderlines/lifttiles/internal/types"
)

// DefaultRadius is the query radius in meters around a resort center.
const DefaultRadius = 5000

// skipTypes are aerialway values that are not rideable lifts and never
// become features.
var skipTypes = map[string]bool{
	"station":  true,
	"zip_line": true,
	"goods":    true,
	"pylon":    true,
}

// OverpassSource fetches aerialway ways from the Overpass API.
type OverpassSource struct {
	client overpass.Client
}

// NewOverpassSource creates an Overpass data source. An empty endpoint uses
// the public API.
func NewOverpassSource(endpoint string) *OverpassSource {
	if endpoint == "" {
		endpoint = "https://overpass-api.de/api/interpreter"
	}

	// Rate limited to 1 concurrent request (API etiquette).
	client := overpass.NewWithSettings(endpoint, 1, http.DefaultClient)

	return &OverpassSource{client: client}
}

// FetchLifts queries all aerialway ways within radius meters of a resort
// center and converts them to lift features.
func (s *OverpassSource) FetchLifts(ctx context.Context, lat, lon float64, radius int) ([]types.Feature, error) {
	if radius <= 0 {
		radius = DefaultRadius
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
[out:json][timeout:60];
way["aerialway"](around:%d,%.6f,%.6f);
out geom;
`, radius, lat, lon)

	result, err := s.client.Query(query)
	if err != nil {
		return nil, fmt.Errorf("overpass query failed: %w", err)
	}

	return ExtractLifts(&result), nil
}

// ExtractLifts converts an Overpass result to lift features. Station,
// zip-line, goods, and pylon ways are dropped. Output is ordered by way ID
// so repeated fetches produce identical files.
func ExtractLifts(result *overpass.Result) []types.Feature {
	if result == nil {
		return nil
	}

	ids := make([]int64, 0, len(result.Ways))
	for id := range result.Ways {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	features := make([]types.Feature, 0, len(ids))
	for _, id := range ids {
		way := result.Ways[id]
		if way == nil || len(way.Geometry) == 0 {
			continue
		}

		liftType := way.Tags["aerialway"]
		if liftType == "" || skipTypes[liftType] {
			continue
		}

		geometry := make(orb.LineString, len(way.Geometry))
		for i, pt := range way.Geometry {
			geometry[i] = orb.Point{pt.Lon, pt.Lat}
		}

		name := way.Tags["name"]
		if name == "" {
			name = fmt.Sprintf("Lift %d", id)
		}

		features = append(features, types.Feature{
			ID:       fmt.Sprintf("%d", id),
			Name:     name,
			Type:     liftType,
			Geometry: geometry,
			Attrs:    liftAttrs(way.Tags),
		})
	}

	return features
}

func liftAttrs(tags map[string]string) types.LiftAttrs {
	return types.LiftAttrs{
		Occupancy: tags["aerialway:occupancy"],
		Capacity:  tags["aerialway:capacity"],
		Duration:  tags["aerialway:duration"],
		Heating:   tags["aerialway:heating"],
		Bubble:    tags["aerialway:bubble"],
	}
}
