package types

import (
	"github.com/paulmach/orb"
)

// Feature is one ski lift: an ordered sequence of geodetic vertices plus
// the aerialway type used for styling. Features are immutable once loaded.
type Feature struct {
	ID       string         // source element ID (e.g. "way/12345")
	Name     string         // lift name, "Lift <id>" when the source has none
	Type     string         // aerialway type (e.g. "chair_lift", "gondola")
	Geometry orb.LineString // geodetic vertices as (lon, lat)
	Attrs    LiftAttrs
}

// LiftAttrs carries the optional aerialway:* tags of a lift. Fields are
// resolved once at load time and are empty strings when the source tag is
// absent.
type LiftAttrs struct {
	Occupancy string // seats per carrier (aerialway:occupancy)
	Capacity  string // persons per hour (aerialway:capacity)
	Duration  string // ride duration in minutes (aerialway:duration)
	Heating   string // "yes" for heated seats (aerialway:heating)
	Bubble    string // "yes" for bubble covers (aerialway:bubble)
}

// DefaultLiftType is assumed when a feature carries no type property.
const DefaultLiftType = "chair_lift"
