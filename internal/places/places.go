// Package places implements the accessibility queries the assistant can run
// over the place dataset: counts, nearby and text searches, rankings,
// per-category statistics, growth trends, user reports and routes.
package places

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/m2tx/kimap_agent/internal/geo"
	"github.com/m2tx/kimap_agent/internal/model"
	"github.com/m2tx/kimap_agent/internal/repository"
	"github.com/m2tx/kimap_agent/internal/route"
	"golang.org/x/sync/errgroup"
)

// Categories are the place categories tracked by the statistics queries.
var Categories = []string{"bar", "restaurant", "museum", "shop", "park"}

// Sorts accepted by TopPlaces.
var Sorts = []string{repository.SortViews, repository.SortRating}

const (
	DefaultNearRadiusKm  = 0.5
	DefaultNearLimit     = 5
	DefaultSearchLimit   = 10
	DefaultTopCities     = 5
	DefaultTopPlaces     = 10
	FeaturesLimit        = 20
	DefaultRouteCategory = "bar"
)

// ErrInvalidArgument is returned when a query argument is out of range.
var ErrInvalidArgument = errors.New("invalid argument")

func requireCity(city string) error {
	if strings.TrimSpace(city) == "" {
		return fmt.Errorf("places: %w: city is empty", ErrInvalidArgument)
	}
	return nil
}

// checkCategory accepts an empty category (no filter) or one of Categories.
func checkCategory(category string) error {
	if category != "" && !slices.Contains(Categories, category) {
		return fmt.Errorf("places: %w: category must be one of %v, got %q", ErrInvalidArgument, Categories, category)
	}
	return nil
}

// Service answers accessibility queries against a PlaceRepository.
type Service struct {
	repo   repository.PlaceRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a Service. A nil logger uses slog.Default().
func NewService(repo repository.PlaceRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		logger: logger.With("component", "places"),
		now:    time.Now,
	}
}

// Count is the result of an accessible place count.
type Count struct {
	Count int64 `json:"count"`
}

// CountAccessible counts accessible places in city, optionally restricted to
// one category.
func (s *Service) CountAccessible(ctx context.Context, city, category string) (Count, error) {
	if err := requireCity(city); err != nil {
		return Count{}, err
	}
	if err := checkCategory(category); err != nil {
		return Count{}, err
	}

	n, err := s.repo.Count(ctx, repository.PlaceQuery{
		City:           city,
		Category:       category,
		AccessibleOnly: true,
	})
	if err != nil {
		return Count{}, fmt.Errorf("places: count accessible in %q: %w", city, err)
	}

	return Count{Count: n}, nil
}

// NearQuery selects accessible places around a point.
type NearQuery struct {
	Category string
	Lat      float64
	Lng      float64
	RadiusKm float64
	Limit    int
}

// FindNear returns accessible places inside the bounding box of the radius
// around (Lat, Lng). Zero RadiusKm and Limit take their defaults.
func (s *Service) FindNear(ctx context.Context, q NearQuery) ([]model.Place, error) {
	if q.RadiusKm < 0 || q.Limit < 0 {
		return nil, fmt.Errorf("places: %w: radius and limit must not be negative", ErrInvalidArgument)
	}
	if err := checkCategory(q.Category); err != nil {
		return nil, err
	}
	if q.RadiusKm == 0 {
		q.RadiusKm = DefaultNearRadiusKm
	}
	if q.Limit == 0 {
		q.Limit = DefaultNearLimit
	}

	box := geo.BoundingBoxAround(geo.Point{Lat: q.Lat, Lng: q.Lng}, q.RadiusKm)
	found, err := s.repo.Find(ctx, repository.PlaceQuery{
		Category:       q.Category,
		AccessibleOnly: true,
		Box:            &box,
		Limit:          q.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("places: find near (%f, %f): %w", q.Lat, q.Lng, err)
	}

	return found, nil
}

// Search matches places whose name starts with text, ignoring case.
func (s *Service) Search(ctx context.Context, text string, limit int) ([]model.Place, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("places: %w: search text is empty", ErrInvalidArgument)
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	found, err := s.repo.Find(ctx, repository.PlaceQuery{NamePrefix: text, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("places: search %q: %w", text, err)
	}

	return found, nil
}

// TopCities returns the cities with the most accessible places.
func (s *Service) TopCities(ctx context.Context, limit int) ([]model.CityStat, error) {
	if limit <= 0 {
		limit = DefaultTopCities
	}

	stats, err := s.repo.TopCities(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("places: top cities: %w", err)
	}

	return stats, nil
}

// TopPlaces returns the places of city ranked by views or rating.
func (s *Service) TopPlaces(ctx context.Context, city, sortBy string, limit int) ([]model.Place, error) {
	if err := requireCity(city); err != nil {
		return nil, err
	}
	if sortBy == "" {
		sortBy = repository.SortViews
	}
	if !slices.Contains(Sorts, sortBy) {
		return nil, fmt.Errorf("places: %w: sort must be one of %v, got %q", ErrInvalidArgument, Sorts, sortBy)
	}
	if limit <= 0 {
		limit = DefaultTopPlaces
	}

	found, err := s.repo.Find(ctx, repository.PlaceQuery{City: city, SortBy: sortBy, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("places: top places in %q: %w", city, err)
	}

	return found, nil
}

// CompareCities counts accessible places of both cities concurrently. The
// result is keyed by city name.
func (s *Service) CompareCities(ctx context.Context, cityA, cityB string) (map[string]int64, error) {
	var a, b Count

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		a, err = s.CountAccessible(gctx, cityA, "")
		return err
	})
	g.Go(func() error {
		var err error
		b, err = s.CountAccessible(gctx, cityB, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return map[string]int64{cityA: a.Count, cityB: b.Count}, nil
}

// FilterByFeatures returns accessible places of city carrying every tag.
func (s *Service) FilterByFeatures(ctx context.Context, city string, tags []string) ([]model.Place, error) {
	if err := requireCity(city); err != nil {
		return nil, err
	}

	found, err := s.repo.Find(ctx, repository.PlaceQuery{
		City:           city,
		AccessibleOnly: true,
		Tags:           tags,
		Limit:          FeaturesLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("places: filter %q by %v: %w", city, tags, err)
	}

	return found, nil
}

// StatsByCategory counts accessible places of city for each of Categories,
// one concurrent count per category.
func (s *Service) StatsByCategory(ctx context.Context, city string) (map[string]int64, error) {
	if err := requireCity(city); err != nil {
		return nil, err
	}

	counts := make([]int64, len(Categories))

	g, gctx := errgroup.WithContext(ctx)
	for i, category := range Categories {
		g.Go(func() error {
			c, err := s.CountAccessible(gctx, city, category)
			counts[i] = c.Count
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := make(map[string]int64, len(Categories))
	for i, category := range Categories {
		stats[category] = counts[i]
	}

	return stats, nil
}

// Percentages is the share of each category over the accessible total.
type Percentages struct {
	Total      int64              `json:"total"`
	Percentage map[string]float64 `json:"percentage"`
}

// PercentageByCategory derives category shares from StatsByCategory. Shares
// are fractions in [0, 1]; every share is 0 when the total is 0.
func (s *Service) PercentageByCategory(ctx context.Context, city string) (Percentages, error) {
	stats, err := s.StatsByCategory(ctx, city)
	if err != nil {
		return Percentages{}, err
	}

	return percentages(stats), nil
}

func percentages(stats map[string]int64) Percentages {
	var total int64
	for _, n := range stats {
		total += n
	}

	pct := make(map[string]float64, len(stats))
	for category, n := range stats {
		if total == 0 {
			pct[category] = 0
			continue
		}
		pct[category] = float64(n) / float64(total)
	}

	return Percentages{Total: total, Percentage: pct}
}

// YearlyGrowth returns the yearly accessible counts of city between the two
// years, inclusive, ascending.
func (s *Service) YearlyGrowth(ctx context.Context, city string, fromYear, toYear int) ([]model.YearCount, error) {
	if err := requireCity(city); err != nil {
		return nil, err
	}
	if fromYear > toYear {
		return nil, fmt.Errorf("places: %w: from_year %d is after to_year %d", ErrInvalidArgument, fromYear, toYear)
	}

	counts, err := s.repo.YearlyCounts(ctx, city, fromYear, toYear)
	if err != nil {
		return nil, fmt.Errorf("places: yearly growth of %q: %w", city, err)
	}

	return counts, nil
}

// Receipt acknowledges a stored report.
type Receipt struct {
	OK       bool   `json:"ok"`
	ReportID string `json:"report_id"`
}

// SubmitReport stores a pending accessibility report about a place.
func (s *Service) SubmitReport(ctx context.Context, placeID, note, user string) (Receipt, error) {
	if strings.TrimSpace(placeID) == "" || strings.TrimSpace(note) == "" {
		return Receipt{}, fmt.Errorf("places: %w: place_id and note are required", ErrInvalidArgument)
	}

	id, err := s.repo.InsertReport(ctx, model.Report{
		PlaceID:   placeID,
		Note:      note,
		User:      user,
		CreatedAt: s.now().UTC(),
		Status:    model.ReportPending,
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("places: submit report: %w", err)
	}

	s.logger.Info("accessibility report stored", "place_id", placeID, "report_id", id)

	return Receipt{OK: true, ReportID: id}, nil
}

// RouteQuery describes an accessible route around a starting point.
type RouteQuery struct {
	StartLat float64
	StartLng float64
	City     string
	Category string
	Stops    int
	RadiusKm float64
}

// Route is an ordered list of stops.
type Route struct {
	Route []model.RouteStop `json:"route"`
}

// BuildRoute fetches up to route.CandidateLimit accessible places around the
// start and orders them with route.Build. Stops defaults to route.DefaultStops
// and is capped at route.MaxStops.
func (s *Service) BuildRoute(ctx context.Context, q RouteQuery) (Route, error) {
	if q.Stops < 0 || q.RadiusKm < 0 {
		return Route{}, fmt.Errorf("places: %w: stops and radius must not be negative", ErrInvalidArgument)
	}
	if q.Stops == 0 {
		q.Stops = route.DefaultStops
	}
	q.Stops = min(q.Stops, route.MaxStops)
	if q.RadiusKm == 0 {
		q.RadiusKm = route.DefaultRadiusKm
	}
	if q.Category == "" {
		q.Category = DefaultRouteCategory
	}

	candidates, err := s.FindNear(ctx, NearQuery{
		Category: q.Category,
		Lat:      q.StartLat,
		Lng:      q.StartLng,
		RadiusKm: q.RadiusKm,
		Limit:    route.CandidateLimit,
	})
	if err != nil {
		return Route{}, err
	}

	stops := route.Build(geo.Point{Lat: q.StartLat, Lng: q.StartLng}, candidates, q.Stops)
	s.logger.Debug("route built", "city", q.City, "candidates", len(candidates), "stops", len(stops))

	return Route{Route: stops}, nil
}
