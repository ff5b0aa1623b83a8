package places

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/m2tx/kimap_agent/internal/model"
	"github.com/m2tx/kimap_agent/internal/repository"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// stubRepository records queries and answers counts from a callback.
type stubRepository struct {
	repository.PlaceRepository

	mu      sync.Mutex
	queries []repository.PlaceQuery
	count   func(q repository.PlaceQuery) (int64, error)
}

func (s *stubRepository) Count(_ context.Context, q repository.PlaceQuery) (int64, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.mu.Unlock()
	return s.count(q)
}

func (s *stubRepository) Find(_ context.Context, q repository.PlaceQuery) ([]model.Place, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.mu.Unlock()
	return []model.Place{}, nil
}

func milanPlaces() []model.Place {
	return []model.Place{
		{ID: "1", Name: "Bar Magenta", City: "Milan", Category: "bar", Wheelchair: "yes", Latitude: 45.4642, Longitude: 9.1900, Tags: []string{"ramp", "adapted_toilet"}, Views: 10, Rating: 4.1},
		{ID: "2", Name: "Bar Basso", City: "Milan", Category: "bar", Wheelchair: "yes", Latitude: 45.4643, Longitude: 9.1901, Tags: []string{"ramp"}, Views: 30, Rating: 3.9},
		{ID: "3", Name: "Museo del Novecento", City: "Milan", Category: "museum", Wheelchair: "yes", Latitude: 45.4633, Longitude: 9.1895, Tags: []string{"ramp", "lift"}, Views: 20, Rating: 4.8},
		{ID: "4", Name: "Bar Stairs", City: "Milan", Category: "bar", Wheelchair: "no", Latitude: 45.4642, Longitude: 9.1900, Views: 99},
		{ID: "5", Name: "Trattoria Far", City: "Milan", Category: "restaurant", Wheelchair: "yes", Latitude: 45.50, Longitude: 9.25},
		{ID: "6", Name: "Pizzeria Roma", City: "Rome", Category: "restaurant", Wheelchair: "yes", Latitude: 41.9028, Longitude: 12.4964},
	}
}

func TestCountAccessible(t *testing.T) {
	repo := &stubRepository{count: func(repository.PlaceQuery) (int64, error) { return 42, nil }}
	svc := NewService(repo, discard)

	got, err := svc.CountAccessible(context.Background(), "Milan", "")
	if err != nil {
		t.Fatalf("CountAccessible: %v", err)
	}
	if got != (Count{Count: 42}) {
		t.Errorf("CountAccessible = %+v, want {Count:42}", got)
	}

	q := repo.queries[0]
	if q.City != "Milan" || !q.AccessibleOnly || q.Category != "" {
		t.Errorf("unexpected query: %+v", q)
	}

	if _, err := svc.CountAccessible(context.Background(), "Milan", "restaurant"); err != nil {
		t.Fatalf("CountAccessible with category: %v", err)
	}
	if q := repo.queries[1]; q.Category != "restaurant" || !q.AccessibleOnly {
		t.Errorf("category filter not applied: %+v", q)
	}
}

func TestCountAccessibleError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewService(&stubRepository{count: func(repository.PlaceQuery) (int64, error) { return 0, boom }}, discard)

	if _, err := svc.CountAccessible(context.Background(), "Milan", ""); !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped boom", err)
	}
}

func TestFindNear(t *testing.T) {
	svc := NewService(repository.NewMemoryPlaceRepository(milanPlaces()), discard)
	ctx := context.Background()

	got, err := svc.FindNear(ctx, NearQuery{Lat: 45.4642, Lng: 9.1900})
	if err != nil {
		t.Fatalf("FindNear: %v", err)
	}
	ids := placeIDs(got)
	if fmt.Sprint(ids) != "[1 2 3]" {
		t.Errorf("FindNear ids = %v, want accessible places inside 0.5km [1 2 3]", ids)
	}

	got, err = svc.FindNear(ctx, NearQuery{Category: "bar", Lat: 45.4642, Lng: 9.1900, Limit: 1})
	if err != nil {
		t.Fatalf("FindNear: %v", err)
	}
	if fmt.Sprint(placeIDs(got)) != "[1]" {
		t.Errorf("FindNear with category and limit = %v, want [1]", placeIDs(got))
	}

	if _, err := svc.FindNear(ctx, NearQuery{Lat: 45, Lng: 9, RadiusKm: -1}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("negative radius error = %v, want ErrInvalidArgument", err)
	}
}

func TestFindNearDefaults(t *testing.T) {
	repo := &stubRepository{}
	svc := NewService(repo, discard)

	if _, err := svc.FindNear(context.Background(), NearQuery{Lat: 45.4642, Lng: 9.19}); err != nil {
		t.Fatalf("FindNear: %v", err)
	}

	q := repo.queries[0]
	if q.Limit != DefaultNearLimit || !q.AccessibleOnly || q.Box == nil {
		t.Fatalf("unexpected query: %+v", q)
	}
	if dLat := q.Box.MaxLat - 45.4642; math.Abs(dLat-0.0044966) > 1e-6 {
		t.Errorf("box half height = %f, want the 0.5km default", dLat)
	}
}

func TestSearch(t *testing.T) {
	svc := NewService(repository.NewMemoryPlaceRepository(milanPlaces()), discard)

	got, err := svc.Search(context.Background(), "BAR", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if fmt.Sprint(placeIDs(got)) != "[1 2 4]" {
		t.Errorf("Search ids = %v, want [1 2 4]", placeIDs(got))
	}

	if _, err := svc.Search(context.Background(), "  ", 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty search error = %v, want ErrInvalidArgument", err)
	}
}

func TestTopCities(t *testing.T) {
	repo := repository.NewMemoryPlaceRepository(nil)
	repo.SetCityStats([]model.CityStat{
		{City: "Turin", AccessibleCount: 5},
		{City: "Milan", AccessibleCount: 50},
		{City: "Rome", AccessibleCount: 40},
	})
	svc := NewService(repo, discard)

	got, err := svc.TopCities(context.Background(), 2)
	if err != nil {
		t.Fatalf("TopCities: %v", err)
	}
	if len(got) != 2 || got[0].City != "Milan" || got[1].City != "Rome" {
		t.Errorf("TopCities = %+v, want Milan, Rome", got)
	}
}

func TestTopPlaces(t *testing.T) {
	svc := NewService(repository.NewMemoryPlaceRepository(milanPlaces()), discard)
	ctx := context.Background()

	tests := []struct {
		name    string
		sort    string
		limit   int
		want    string
		wantErr bool
	}{
		{name: "Default sort is views", sort: "", limit: 2, want: "[4 2]"},
		{name: "By rating", sort: "rating", limit: 1, want: "[3]"},
		{name: "Unknown sort", sort: "name", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.TopPlaces(ctx, "Milan", tt.sort, tt.limit)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Errorf("error = %v, want ErrInvalidArgument", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("TopPlaces: %v", err)
			}
			if fmt.Sprint(placeIDs(got)) != tt.want {
				t.Errorf("TopPlaces ids = %v, want %s", placeIDs(got), tt.want)
			}
		})
	}
}

func TestCompareCities(t *testing.T) {
	svc := NewService(repository.NewMemoryPlaceRepository(milanPlaces()), discard)

	got, err := svc.CompareCities(context.Background(), "Milan", "Rome")
	if err != nil {
		t.Fatalf("CompareCities: %v", err)
	}
	if got["Milan"] != 4 || got["Rome"] != 1 {
		t.Errorf("CompareCities = %v, want Milan:4 Rome:1", got)
	}
}

func TestFilterByFeatures(t *testing.T) {
	svc := NewService(repository.NewMemoryPlaceRepository(milanPlaces()), discard)

	got, err := svc.FilterByFeatures(context.Background(), "Milan", []string{"ramp", "lift"})
	if err != nil {
		t.Fatalf("FilterByFeatures: %v", err)
	}
	if fmt.Sprint(placeIDs(got)) != "[3]" {
		t.Errorf("FilterByFeatures ids = %v, want [3]", placeIDs(got))
	}
}

func TestStatsByCategory(t *testing.T) {
	svc := NewService(repository.NewMemoryPlaceRepository(milanPlaces()), discard)

	got, err := svc.StatsByCategory(context.Background(), "Milan")
	if err != nil {
		t.Fatalf("StatsByCategory: %v", err)
	}

	want := map[string]int64{"bar": 2, "restaurant": 1, "museum": 1, "shop": 0, "park": 0}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("StatsByCategory = %v, want %v", got, want)
	}
}

func TestStatsByCategoryError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewService(&stubRepository{count: func(q repository.PlaceQuery) (int64, error) {
		if q.Category == "museum" {
			return 0, boom
		}
		return 1, nil
	}}, discard)

	if _, err := svc.StatsByCategory(context.Background(), "Milan"); !errors.Is(err, boom) {
		t.Errorf("error = %v, want boom", err)
	}
}

func TestPercentageByCategory(t *testing.T) {
	t.Run("Sums to one", func(t *testing.T) {
		svc := NewService(repository.NewMemoryPlaceRepository(milanPlaces()), discard)

		got, err := svc.PercentageByCategory(context.Background(), "Milan")
		if err != nil {
			t.Fatalf("PercentageByCategory: %v", err)
		}
		if got.Total != 4 {
			t.Errorf("Total = %d, want 4", got.Total)
		}

		var sum float64
		for _, v := range got.Percentage {
			sum += v
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("sum of shares = %f, want 1", sum)
		}
		if got.Percentage["bar"] != 0.5 {
			t.Errorf("bar share = %f, want 0.5", got.Percentage["bar"])
		}
	})

	t.Run("Zero total", func(t *testing.T) {
		svc := NewService(repository.NewMemoryPlaceRepository(nil), discard)

		got, err := svc.PercentageByCategory(context.Background(), "Nowhere")
		if err != nil {
			t.Fatalf("PercentageByCategory: %v", err)
		}
		if got.Total != 0 || len(got.Percentage) != len(Categories) {
			t.Fatalf("unexpected result: %+v", got)
		}
		for category, v := range got.Percentage {
			if v != 0 || math.IsNaN(v) {
				t.Errorf("share of %s = %f, want 0", category, v)
			}
		}
	})
}

func TestYearlyGrowth(t *testing.T) {
	repo := repository.NewMemoryPlaceRepository(nil)
	repo.SetYearlyCounts([]model.YearCount{
		{City: "Florence", Year: 2024, Count: 420},
		{City: "Florence", Year: 2022, Count: 300},
		{City: "Florence", Year: 2020, Count: 100},
		{City: "Milan", Year: 2022, Count: 900},
	})
	svc := NewService(repo, discard)

	got, err := svc.YearlyGrowth(context.Background(), "Florence", 2021, 2024)
	if err != nil {
		t.Fatalf("YearlyGrowth: %v", err)
	}
	if len(got) != 2 || got[0].Year != 2022 || got[1].Year != 2024 {
		t.Errorf("YearlyGrowth = %+v, want 2022, 2024", got)
	}

	if _, err := svc.YearlyGrowth(context.Background(), "Florence", 2024, 2020); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("reversed range error = %v, want ErrInvalidArgument", err)
	}
}

func TestSubmitReport(t *testing.T) {
	repo := repository.NewMemoryPlaceRepository(nil)
	svc := NewService(repo, discard)

	got, err := svc.SubmitReport(context.Background(), "place-1", "The ramp is broken", "anna")
	if err != nil {
		t.Fatalf("SubmitReport: %v", err)
	}
	if !got.OK || got.ReportID == "" {
		t.Errorf("SubmitReport = %+v, want ok with an id", got)
	}

	reports := repo.Reports()
	if len(reports) != 1 || reports[0].Status != model.ReportPending || reports[0].CreatedAt.IsZero() {
		t.Errorf("stored reports = %+v", reports)
	}

	if _, err := svc.SubmitReport(context.Background(), "", "note", ""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("missing place id error = %v, want ErrInvalidArgument", err)
	}
}

func TestBuildRoute(t *testing.T) {
	svc := NewService(repository.NewMemoryPlaceRepository(milanPlaces()), discard)
	ctx := context.Background()

	got, err := svc.BuildRoute(ctx, RouteQuery{StartLat: 45.4641, StartLng: 9.1899, City: "Milan", Stops: 2})
	if err != nil {
		t.Fatalf("BuildRoute: %v", err)
	}
	if len(got.Route) != 2 || got.Route[0].ID != "1" || got.Route[1].ID != "2" {
		t.Errorf("BuildRoute = %+v, want bars 1 then 2", got.Route)
	}

	got, err = svc.BuildRoute(ctx, RouteQuery{StartLat: 10, StartLng: 10, City: "Nowhere"})
	if err != nil {
		t.Fatalf("BuildRoute: %v", err)
	}
	if got.Route == nil || len(got.Route) != 0 {
		t.Errorf("BuildRoute with no candidates = %#v, want empty route", got.Route)
	}

	if _, err := svc.BuildRoute(ctx, RouteQuery{Stops: -1}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("negative stops error = %v, want ErrInvalidArgument", err)
	}
}

func TestBuildRouteCapsStops(t *testing.T) {
	many := make([]model.Place, 10)
	for i := range many {
		many[i] = model.Place{
			ID:         fmt.Sprint(i),
			Category:   "bar",
			Wheelchair: "yes",
			Latitude:   45.4642 + float64(i)*0.0001,
			Longitude:  9.19 + float64(i)*0.0001,
		}
	}
	svc := NewService(repository.NewMemoryPlaceRepository(many), discard)

	got, err := svc.BuildRoute(context.Background(), RouteQuery{StartLat: 45.4641, StartLng: 9.1899, Stops: 50})
	if err != nil {
		t.Fatalf("BuildRoute: %v", err)
	}
	if len(got.Route) != 6 {
		t.Errorf("len(route) = %d, want cap of 6", len(got.Route))
	}
}

func TestCityScopedQueriesRejectBlankCity(t *testing.T) {
	repo := &stubRepository{count: func(repository.PlaceQuery) (int64, error) { return 1, nil }}
	svc := NewService(repo, discard)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{name: "CountAccessible", call: func() error { _, err := svc.CountAccessible(ctx, "", ""); return err }},
		{name: "CountAccessible blank", call: func() error { _, err := svc.CountAccessible(ctx, "   ", "bar"); return err }},
		{name: "CompareCities", call: func() error { _, err := svc.CompareCities(ctx, "Milan", ""); return err }},
		{name: "TopPlaces", call: func() error { _, err := svc.TopPlaces(ctx, "", "", 0); return err }},
		{name: "FilterByFeatures", call: func() error { _, err := svc.FilterByFeatures(ctx, "", []string{"ramp"}); return err }},
		{name: "StatsByCategory", call: func() error { _, err := svc.StatsByCategory(ctx, ""); return err }},
		{name: "PercentageByCategory", call: func() error { _, err := svc.PercentageByCategory(ctx, ""); return err }},
		{name: "YearlyGrowth", call: func() error { _, err := svc.YearlyGrowth(ctx, "", 2020, 2024); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("error = %v, want ErrInvalidArgument", err)
			}
		})
	}

	for _, q := range repo.queries {
		if q.City == "" && q.Box == nil {
			t.Errorf("query without a city reached the repository: %+v", q)
		}
	}
}

func TestUnknownCategory(t *testing.T) {
	repo := &stubRepository{count: func(repository.PlaceQuery) (int64, error) { return 1, nil }}
	svc := NewService(repo, discard)
	ctx := context.Background()

	if _, err := svc.CountAccessible(ctx, "Milan", "zoo"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("CountAccessible error = %v, want ErrInvalidArgument", err)
	}
	if _, err := svc.FindNear(ctx, NearQuery{Category: "zoo", Lat: 45.46, Lng: 9.19}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("FindNear error = %v, want ErrInvalidArgument", err)
	}
	if _, err := svc.BuildRoute(ctx, RouteQuery{Category: "zoo", StartLat: 45.46, StartLng: 9.19, City: "Milan"}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("BuildRoute error = %v, want ErrInvalidArgument", err)
	}
	if len(repo.queries) != 0 {
		t.Errorf("invalid categories reached the repository: %+v", repo.queries)
	}
}

func placeIDs(places []model.Place) []string {
	ids := make([]string, 0, len(places))
	for _, p := range places {
		ids = append(ids, p.ID)
	}
	return ids
}
