// internal/service/activities/importer.go

package activities

import (
	"context"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"

	"miniregion/internal/adapter/overpass"
	"miniregion/internal/domain/activity"
	"miniregion/internal/metrics"
)

// Source queries OpenStreetMap elements
type Source interface {
	Query(ctx context.Context, ql string) ([]overpass.Element, error)
}

// Store persists family activities keyed by OSM id
type Store interface {
	UpsertFamilyActivities(ctx context.Context, activities []activity.FamilyActivity) error
}

// Importer loads family-friendly places of the region into the store
type Importer struct {
	source Source
	store  Store
	bbox   [4]float64
	bound  orb.Bound
	log    zerolog.Logger
}

// NewImporter creates an importer for a south,west,north,east bounding box
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewImporter(source Source, store Store, bbox [4]float64, log zerolog.Logger) *Importer {
	return &Importer{
		source: source,
		store:  store,
		bbox:   bbox,
		bound: orb.Bound{
			Min: orb.Point{bbox[1], bbox[0]},
			Max: orb.Point{bbox[3], bbox[2]},
		},
		log: log,
	}
}

// Import queries the source and upserts every mappable element inside the
// region. On a query failure the store is not touched.
func (i *Importer) Import(ctx context.Context) (int, error) {
	elements, err := i.source.Query(ctx, overpass.FamilyQuery(i.bbox))
	if err != nil {
		metrics.RecordActivityImport(err)
		return 0, fmt.Errorf("error querying family activities: %w", err)
	}

	activities := make([]activity.FamilyActivity, 0, len(elements))
	seen := make(map[int64]int, len(elements))
	skipped := 0

	for _, e := range elements {
		a, ok := i.toActivity(e)
		if !ok {
			skipped++
			continue
		}
		if idx, dup := seen[a.OSMID]; dup {
			activities[idx] = a
			continue
		}
		seen[a.OSMID] = len(activities)
		activities = append(activities, a)
	}

	if err := i.store.UpsertFamilyActivities(ctx, activities); err != nil {
		metrics.RecordActivityImport(err)
		return 0, fmt.Errorf("error storing family activities: %w", err)
	}

	metrics.RecordActivityImport(nil)
	i.log.Info().
		Int("received", len(elements)).
		Int("stored", len(activities)).
		Int("skipped", skipped).
		Msg("family activities imported")

	return len(activities), nil
}

func (i *Importer) toActivity(e overpass.Element) (activity.FamilyActivity, bool) {
	if e.Type != "" && e.Type != "node" {
		return activity.FamilyActivity{}, false
	}
	if !i.bound.Contains(orb.Point{e.Lon, e.Lat}) {
		return activity.FamilyActivity{}, false
	}

	kind := e.Tag("leisure", "amenity", "tourism")
	if kind == "" {
		return activity.FamilyActivity{}, false
	}

	title := e.Tag("name")
	if title == "" {
		title = defaultTitle(kind)
	}

	return activity.FamilyActivity{
		OSMID:        e.ID,
		Kind:         kind,
		Title:        title,
		Location:     address(e),
		Description:  e.Tag("description", "note"),
		OpeningHours: e.Tag("opening_hours"),
		Lat:          e.Lat,
		Lng:          e.Lon,
	}, true
}

func defaultTitle(kind string) string {
	switch kind {
	case "playground":
		return "Unbekannter Spielplatz"
	case "museum":
		return "Museum"
	case "library":
		return "Bibliothek"
	case "swimming_pool":
		return "Schwimmbad"
	case "zoo":
		return "Zoo"
	default:
		return "Unbekannt"
	}
}

func address(e overpass.Element) string {
	street := strings.TrimSpace(e.Tag("addr:street") + " " + e.Tag("addr:housenumber"))
	city := e.Tag("addr:city", "destination")

	switch {
	case street != "" && city != "":
		return street + ", " + city
	case street != "":
		return street
	case city != "":
		return city
	default:
		return e.Tag("address")
	}
}
