package datasource

import (
	"strings"
	"testing"

	"github.com/powderlines/lifttiles/internal/types"
)

const sampleOSM = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
  <node id="1" lat="46.935" lon="-121.474"/>
  <node id="2" lat="46.930" lon="-121.470"/>
  <node id="3" lat="46.933" lon="-121.478"/>
  <node id="4" lat="46.928" lon="-121.472"/>
  <node id="5" lat="47.900" lon="-120.500"/>
  <node id="6" lat="47.905" lon="-120.495"/>
  <way id="100">
    <nd ref="1"/>
    <nd ref="2"/>
    <tag k="aerialway" v="chair_lift"/>
    <tag k="name" v="Rainier Express"/>
    <tag k="aerialway:occupancy" v="6"/>
  </way>
  <way id="200">
    <nd ref="3"/>
    <nd ref="4"/>
    <tag k="aerialway" v="station"/>
  </way>
  <way id="300">
    <nd ref="5"/>
    <nd ref="6"/>
    <tag k="aerialway" v="gondola"/>
    <tag k="name" v="Far Away Gondola"/>
  </way>
  <way id="400">
    <nd ref="1"/>
    <nd ref="2"/>
    <tag k="highway" v="path"/>
  </way>
  <way id="500">
    <nd ref="1"/>
    <nd ref="999"/>
    <tag k="aerialway" v="drag_lift"/>
  </way>
</osm>
`

func crystalBBox() types.BoundingBox {
	return types.BoundingBox{
		MinLon: -121.50, MinLat: 46.90,
		MaxLon: -121.40, MaxLat: 46.95,
	}
}

func TestExtractLiftsFromOSM(t *testing.T) {
	features, err := ExtractLiftsFromOSM(strings.NewReader(sampleOSM), crystalBBox())
	if err != nil {
		t.Fatalf("ExtractLiftsFromOSM() error = %v", err)
	}

	// Way 100 is in the box; 200 is a station, 300 is outside the box, 400
	// is not an aerialway, and 500 survives on its one resolvable node.
	if len(features) != 2 {
		t.Fatalf("len(features) = %d, want 2", len(features))
	}

	chair := features[0]
	if chair.ID != "100" {
		t.Errorf("ID = %q, want 100", chair.ID)
	}
	if chair.Name != "Rainier Express" {
		t.Errorf("Name = %q, want Rainier Express", chair.Name)
	}
	if chair.Type != "chair_lift" {
		t.Errorf("Type = %q, want chair_lift", chair.Type)
	}
	if len(chair.Geometry) != 2 {
		t.Fatalf("len(Geometry) = %d, want 2", len(chair.Geometry))
	}
	if chair.Geometry[0][0] != -121.474 || chair.Geometry[0][1] != 46.935 {
		t.Errorf("Geometry[0] = %v, want (-121.474, 46.935)", chair.Geometry[0])
	}
	if chair.Attrs.Occupancy != "6" {
		t.Errorf("Attrs.Occupancy = %q, want 6", chair.Attrs.Occupancy)
	}

	drag := features[1]
	if drag.ID != "500" {
		t.Errorf("ID = %q, want 500", drag.ID)
	}
	if drag.Name != "Lift 500" {
		t.Errorf("Name = %q, want Lift 500", drag.Name)
	}
	if len(drag.Geometry) != 1 {
		t.Errorf("len(Geometry) = %d, want 1 (the unresolvable ref is dropped)", len(drag.Geometry))
	}
}

func TestExtractLiftsFromOSMEmptyBox(t *testing.T) {
	bbox := types.BoundingBox{MinLon: 0, MinLat: 0, MaxLon: 1, MaxLat: 1}

	features, err := ExtractLiftsFromOSM(strings.NewReader(sampleOSM), bbox)
	if err != nil {
		t.Fatalf("ExtractLiftsFromOSM() error = %v", err)
	}
	if len(features) != 0 {
		t.Errorf("len(features) = %d, want 0 for a disjoint bbox", len(features))
	}
}

func TestExtractLiftsFromOSMMalformed(t *testing.T) {
	_, err := ExtractLiftsFromOSM(strings.NewReader("<osm><way id="), crystalBBox())
	if err == nil {
		t.Fatal("expected an error for truncated XML")
	}
}
