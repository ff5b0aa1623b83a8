package repository

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/m2tx/kimap_agent/internal/geo"
	"github.com/m2tx/kimap_agent/internal/model"
)

// MemoryPlaceRepository implements PlaceRepository over in-memory slices with
// the same filter semantics as MongoPlaceRepository.
type MemoryPlaceRepository struct {
	mu      sync.Mutex
	places  []model.Place
	stats   []model.CityStat
	history []model.YearCount
	reports []model.Report
}

// NewMemoryPlaceRepository creates a MemoryPlaceRepository seeded with places.
func NewMemoryPlaceRepository(places []model.Place) *MemoryPlaceRepository {
	return &MemoryPlaceRepository{places: slices.Clone(places)}
}

// SetCityStats replaces the precomputed city stats.
func (r *MemoryPlaceRepository) SetCityStats(stats []model.CityStat) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = slices.Clone(stats)
}

// SetYearlyCounts replaces the stored yearly counts.
func (r *MemoryPlaceRepository) SetYearlyCounts(counts []model.YearCount) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = slices.Clone(counts)
}

// Reports returns the reports inserted so far.
func (r *MemoryPlaceRepository) Reports() []model.Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.reports)
}

func (r *MemoryPlaceRepository) Count(ctx context.Context, q PlaceQuery) (int64, error) {
	q.Limit = 0
	places, err := r.Find(ctx, q)
	return int64(len(places)), err
}

func (r *MemoryPlaceRepository) Find(_ context.Context, q PlaceQuery) ([]model.Place, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	found := []model.Place{}
	for _, p := range r.places {
		if matches(p, q) {
			found = append(found, p)
		}
	}

	switch q.SortBy {
	case "":
	case SortViews:
		sort.SliceStable(found, func(i, j int) bool { return found[i].Views > found[j].Views })
	case SortRating:
		sort.SliceStable(found, func(i, j int) bool { return found[i].Rating > found[j].Rating })
	default:
		return nil, fmt.Errorf("repository: unsupported sort field %q", q.SortBy)
	}

	if q.Limit > 0 && len(found) > q.Limit {
		found = found[:q.Limit]
	}

	return found, nil
}

func (r *MemoryPlaceRepository) TopCities(_ context.Context, limit int) ([]model.CityStat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := slices.Clone(r.stats)
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].AccessibleCount > stats[j].AccessibleCount })
	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}

	return stats, nil
}

func (r *MemoryPlaceRepository) YearlyCounts(_ context.Context, city string, fromYear, toYear int) ([]model.YearCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := []model.YearCount{}
	for _, c := range r.history {
		if c.City == city && c.Year >= fromYear && c.Year <= toYear {
			counts = append(counts, c)
		}
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Year < counts[j].Year })

	return counts, nil
}

func (r *MemoryPlaceRepository) InsertReport(_ context.Context, report model.Report) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reports = append(r.reports, report)
	return fmt.Sprintf("report-%d", len(r.reports)), nil
}

func matches(p model.Place, q PlaceQuery) bool {
	if q.City != "" && p.City != q.City {
		return false
	}
	if q.AccessibleOnly && p.Wheelchair != model.WheelchairYes {
		return false
	}
	if q.Category != "" && p.Category != q.Category {
		return false
	}
	for _, tag := range q.Tags {
		if !slices.Contains(p.Tags, tag) {
			return false
		}
	}
	if q.Box != nil && !q.Box.Contains(geo.Point{Lat: p.Latitude, Lng: p.Longitude}) {
		return false
	}
	if q.NamePrefix != "" && !strings.HasPrefix(strings.ToLower(p.Name), strings.ToLower(q.NamePrefix)) {
		return false
	}
	return true
}
