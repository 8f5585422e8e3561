package mapping

import (
	"github.com/paulmach/orb"

	"github.com/weedwatch/weedwatch/internal/model"
)

// View is shared by every map of one run.
type View struct {
	Center orb.Point // lon, lat
	Zoom   int
	Popup  string
}

type Marker struct {
	Latitude  float64
	Longitude float64
	Popup     string
}

// Map is one category's rendered content.
type Map struct {
	Category Category
	View     View
	Markers  []Marker
}

// PartitionStats counts rows that landed on no map.
type PartitionStats struct {
	Unmatched     int // name matched no category label
	NoCoordinates int // latitude or longitude was NULL
}

// Partition returns one Map per category, in category order, each holding a
// marker per point whose name equals the category label exactly.
func Partition(points []model.MapPoint, categories []Category, view View) ([]Map, PartitionStats) {
	maps := make([]Map, len(categories))
	index := make(map[string]int, len(categories))
	for i, c := range categories {
		maps[i] = Map{Category: c, View: view, Markers: []Marker{}}
		index[c.Label] = i
	}

	var stats PartitionStats
	for _, p := range points {
		if p.Name == nil {
			stats.Unmatched++
			continue
		}
		i, ok := index[*p.Name]
		if !ok {
			stats.Unmatched++
			continue
		}
		if p.Latitude == nil || p.Longitude == nil {
			stats.NoCoordinates++
			continue
		}
		maps[i].Markers = append(maps[i].Markers, Marker{
			Latitude:  *p.Latitude,
			Longitude: *p.Longitude,
			Popup:     view.Popup,
		})
	}
	return maps, stats
}
