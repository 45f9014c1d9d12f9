package datasource

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/paulmach/orb"

	"github.com/powderlines/lifttiles/internal/types"
)

// extractState tracks the streaming parser through the element stream:
// outside any way, or buffering the current way's node refs and tags until
// its end tag decides emit-or-discard.
type extractState int

const (
	awaitingWay extractState = iota
	accumulatingWay
)

// currentWay buffers one <way> element while it is being accumulated.
type currentWay struct {
	id       string
	nodeRefs []string
	tags     map[string]string
}

// ExtractLiftsFromOSM streams a (potentially very large) OSM XML extract and
// returns the aerialway ways that touch the given bounding box. Nodes are
// indexed as they stream by; ways are buffered one at a time, never the whole
// document.
func ExtractLiftsFromOSM(r io.Reader, bbox types.BoundingBox) ([]types.Feature, error) {
	decoder := xml.NewDecoder(r)

	nodes := make(map[string]orb.Point)
	var features []types.Feature

	state := awaitingWay
	var way currentWay

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse OSM extract: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "node":
				id, pt, ok := parseNode(t)
				if ok {
					nodes[id] = pt
				}
			case "way":
				state = accumulatingWay
				way = currentWay{
					id:   attr(t, "id"),
					tags: make(map[string]string),
				}
			case "nd":
				if state == accumulatingWay {
					way.nodeRefs = append(way.nodeRefs, attr(t, "ref"))
				}
			case "tag":
				if state == accumulatingWay {
					way.tags[attr(t, "k")] = attr(t, "v")
				}
			}

		case xml.EndElement:
			if t.Name.Local != "way" || state != accumulatingWay {
				continue
			}
			state = awaitingWay

			if f, ok := emitWay(way, nodes, bbox); ok {
				features = append(features, f)
			}
		}
	}

	return features, nil
}

// emitWay decides whether a buffered way becomes a lift feature: it must be
// a rideable aerialway and at least one of its nodes must fall inside bbox.
func emitWay(way currentWay, nodes map[string]orb.Point, bbox types.BoundingBox) (types.Feature, bool) {
	liftType := way.tags["aerialway"]
	if liftType == "" || skipTypes[liftType] {
		return types.Feature{}, false
	}

	geometry := make(orb.LineString, 0, len(way.nodeRefs))
	inBox := false
	for _, ref := range way.nodeRefs {
		pt, ok := nodes[ref]
		if !ok {
			continue
		}
		geometry = append(geometry, pt)
		if bbox.Contains(pt[0], pt[1]) {
			inBox = true
		}
	}

	if len(geometry) == 0 || !inBox {
		return types.Feature{}, false
	}

	name := way.tags["name"]
	if name == "" {
		name = fmt.Sprintf("Lift %s", way.id)
	}

	return types.Feature{
		ID:       way.id,
		Name:     name,
		Type:     liftType,
		Geometry: geometry,
		Attrs:    liftAttrs(way.tags),
	}, true
}

func parseNode(el xml.StartElement) (string, orb.Point, bool) {
	id := attr(el, "id")
	lat, latErr := strconv.ParseFloat(attr(el, "lat"), 64)
	lon, lonErr := strconv.ParseFloat(attr(el, "lon"), 64)
	if id == "" || latErr != nil || lonErr != nil {
		return "", orb.Point{}, false
	}
	return id, orb.Point{lon, lat}, true
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
