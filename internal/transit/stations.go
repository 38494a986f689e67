// Package transit resolves the subway station nearest to a location and
// keeps the station list in sync with OpenStreetMap.
package transit

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"sort"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/sells-group/sitesales/internal/geospatial"
	"github.com/sells-group/sitesales/internal/model"
)

// Station is one row of the station file.
type Station struct {
	Name      string   `csv:"name"`
	Lat       float64  `csv:"lat"`
	Lon       float64  `csv:"lon"`
	Ridership *float64 `csv:"ridership,omitempty"`
	OSMID     int64    `csv:"osm_id,omitempty"`
}

// ReadCSV decodes stations from r (UTF-8, optional BOM).
func ReadCSV(r io.Reader) ([]Station, error) {
	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	cr.FieldsPerRecord = -1

	dec, err := csvutil.NewDecoder(cr)
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, eris.Wrap(err, "transit: read csv header")
	}

	var out []Station
	for {
		var s Station
		if err := dec.Decode(&s); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrapf(err, "transit: decode station %d", len(out)+1)
		}
		out = append(out, s)
	}
	return out, nil
}

// LoadFile reads the station file at path.
func LoadFile(path string) ([]Station, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "transit: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return ReadCSV(f)
}

// WriteCSV encodes stations with a header row.
func WriteCSV(w io.Writer, stations []Station) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if len(stations) == 0 {
		if err := enc.EncodeHeader(Station{}); err != nil {
			return eris.Wrap(err, "transit: encode header")
		}
	}
	for i := range stations {
		if err := enc.Encode(stations[i]); err != nil {
			return eris.Wrapf(err, "transit: encode station %q", stations[i].Name)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "transit: flush csv")
}

// WriteFile replaces the station file at path.
func WriteFile(path string, stations []Station) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return eris.Wrapf(err, "transit: create %s", tmp)
	}
	if err := WriteCSV(f, stations); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "transit: close %s", tmp)
	}
	return eris.Wrapf(os.Rename(tmp, path), "transit: rename %s", tmp)
}

// Index answers nearest-station queries. A nil or empty Index never finds
// a station. Safe for concurrent use.
type Index struct {
	stations []Station
	points   *geospatial.Index
}

// NewIndex indexes stations. The slice is copied.
func NewIndex(stations []Station) *Index {
	ix := &Index{stations: append([]Station(nil), stations...)}
	pts := make([]geospatial.Point, len(ix.stations))
	for i, s := range ix.stations {
		pts[i] = geospatial.Point{Lat: s.Lat, Lon: s.Lon}
	}
	ix.points = geospatial.NewIndex(pts)
	return ix
}

// Len returns the number of indexed stations.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.stations)
}

// Nearest returns the closest station to (lat, lon). Unknown ridership is
// reported as 0.
func (ix *Index) Nearest(lat, lon float64) (model.Transit, bool) {
	s, d, ok := ix.nearest(lat, lon)
	if !ok {
		return model.Transit{}, false
	}
	return model.Transit{Name: s.Name, DistanceM: d, Ridership: model.Value(s.Ridership)}, true
}

// FeatureInputs returns the nearest station's distance and ridership for
// feature assembly, NaN when unknown, plus the station for reporting.
func (ix *Index) FeatureInputs(lat, lon float64) (distanceM, ridership float64, t *model.Transit) {
	s, d, ok := ix.nearest(lat, lon)
	if !ok {
		return math.NaN(), math.NaN(), nil
	}
	ridership = math.NaN()
	if s.Ridership != nil {
		ridership = *s.Ridership
	}
	return d, ridership, &model.Transit{Name: s.Name, DistanceM: d, Ridership: model.Value(s.Ridership)}
}

func (ix *Index) nearest(lat, lon float64) (Station, float64, bool) {
	if ix.Len() == 0 {
		return Station{}, 0, false
	}
	hit, err := ix.points.Nearest(lat, lon)
	if err != nil {
		return Station{}, 0, false
	}
	return ix.stations[hit.Index], hit.DistanceM, true
}

// sortStations orders stations by name then OSM id for stable output.
func sortStations(stations []Station) {
	sort.SliceStable(stations, func(i, j int) bool {
		if stations[i].Name != stations[j].Name {
			return stations[i].Name < stations[j].Name
		}
		return stations[i].OSMID < stations[j].OSMID
	})
}
