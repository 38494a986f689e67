package transit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"github.com/serjvanilla/go-overpass"
	"go.uber.org/zap"

	"github.com/sells-group/sitesales/internal/resilience"
)

// DefaultOverpassURL is the public Overpass API interpreter.
const DefaultOverpassURL = "https://overpass-api.de/api/interpreter"

// Fetcher lists subway stations inside a named area.
type Fetcher interface {
	Stations(ctx context.Context, area string) ([]Station, error)
}

// OverpassFetcher queries an Overpass API endpoint.
type OverpassFetcher struct {
	client *overpass.Client
}

// NewOverpassFetcher returns a Fetcher for endpoint. An empty endpoint
// uses DefaultOverpassURL.
func NewOverpassFetcher(endpoint string, timeout time.Duration) *OverpassFetcher {
	if endpoint == "" {
		endpoint = DefaultOverpassURL
	}
	client := overpass.NewWithSettings(endpoint, 2, &http.Client{Timeout: timeout})
	return &OverpassFetcher{client: &client}
}

func stationQuery(area string) string {
	return fmt.Sprintf(`[out:json][timeout:60];
area["name"=%q]->.a;
(
	node["railway"="station"]["station"="subway"](area.a);
	node["public_transport"="station"]["subway"="yes"](area.a);
);
out body;`, area)
}

// Stations runs the station query. The client has no context support, so
// cancellation abandons the in-flight request.
func (f *OverpassFetcher) Stations(ctx context.Context, area string) ([]Station, error) {
	type reply struct {
		res overpass.Result
		err error
	}
	ch := make(chan reply, 1)
	go func() {
		res, err := f.client.Query(stationQuery(area))
		ch <- reply{res: res, err: err}
	}()

	var r reply
	select {
	case <-ctx.Done():
		return nil, eris.Wrap(ctx.Err(), "transit: overpass query")
	case r = <-ch:
	}
	if r.err != nil {
		return nil, eris.Wrap(r.err, "transit: overpass query")
	}

	out := make([]Station, 0, len(r.res.Nodes))
	for _, node := range r.res.Nodes {
		name := node.Tags["name"]
		if name == "" {
			continue
		}
		out = append(out, Station{Name: name, Lat: node.Lat, Lon: node.Lon, OSMID: node.ID})
	}
	sortStations(out)
	return out, nil
}

// Retrying retries a Fetcher on transient failures.
type Retrying struct {
	Fetcher Fetcher
	Policy  resilience.Policy
}

func (r Retrying) Stations(ctx context.Context, area string) ([]Station, error) {
	return resilience.Do(ctx, r.Policy, "overpass stations", func(ctx context.Context) ([]Station, error) {
		return r.Fetcher.Stations(ctx, area)
	})
}

// Sync fetches the current station list for area and carries ridership
// over from existing stations, matched by OSM id and then by name.
func Sync(ctx context.Context, f Fetcher, area string, existing []Station) ([]Station, error) {
	fetched, err := f.Stations(ctx, area)
	if err != nil {
		return nil, err
	}
	if len(fetched) == 0 {
		return nil, eris.Errorf("transit: overpass returned no stations for %q", area)
	}

	byID := make(map[int64]*float64, len(existing))
	byName := make(map[string]*float64, len(existing))
	for _, s := range existing {
		if s.Ridership == nil {
			continue
		}
		if s.OSMID != 0 {
			byID[s.OSMID] = s.Ridership
		}
		if _, ok := byName[s.Name]; !ok {
			byName[s.Name] = s.Ridership
		}
	}

	matched := 0
	out := make([]Station, len(fetched))
	for i, s := range fetched {
		if r, ok := byID[s.OSMID]; ok && s.OSMID != 0 {
			s.Ridership = r
		} else if r, ok := byName[s.Name]; ok {
			s.Ridership = r
		}
		if s.Ridership != nil {
			matched++
		}
		out[i] = s
	}
	sortStations(out)

	zap.L().Info("transit: synced stations",
		zap.String("area", area),
		zap.Int("stations", len(out)),
		zap.Int("with_ridership", matched),
	)
	return out, nil
}
