package mapping

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

type Format string

const (
	FormatHTML    Format = "html"
	FormatGeoJSON Format = "geojson"
)

//go:embed templates/map.html.tmpl
var mapTemplateText string

var mapTemplate = template.Must(template.New("map").Parse(mapTemplateText))

// FeatureCollection returns one point feature per marker with a "popup"
// property.
func (m Map) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, mk := range m.Markers {
		f := geojson.NewFeature(orb.Point{mk.Longitude, mk.Latitude})
		f.Properties["popup"] = mk.Popup
		fc.Append(f)
	}
	return fc
}

// Renderer writes maps in a single output format.
type Renderer struct {
	format Format
}

func NewRenderer(format Format) (*Renderer, error) {
	switch format {
	case "", FormatHTML:
		return &Renderer{format: FormatHTML}, nil
	case FormatGeoJSON:
		return &Renderer{format: FormatGeoJSON}, nil
	default:
		return nil, fmt.Errorf("unsupported map format %q", format)
	}
}

func (r *Renderer) Format() Format { return r.format }

// FileName is the category's output file, with the extension swapped for
// GeoJSON output.
func (r *Renderer) FileName(c Category) string {
	if r.format != FormatGeoJSON {
		return c.File
	}
	return strings.TrimSuffix(c.File, filepath.Ext(c.File)) + ".geojson"
}

func (r *Renderer) Render(w io.Writer, m Map) error {
	fc := m.FeatureCollection()
	if r.format == FormatGeoJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(fc)
	}

	raw, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("marshal markers: %w", err)
	}
	return mapTemplate.Execute(w, struct {
		Title     string
		Latitude  float64
		Longitude float64
		Zoom      int
		Markers   template.JS
	}{
		Title:     m.Category.Label,
		Latitude:  m.View.Center.Lat(),
		Longitude: m.View.Center.Lon(),
		Zoom:      m.View.Zoom,
		Markers:   template.JS(raw),
	})
}
