// Package functions declares the functions the assistant can call, in the
// order they are sent to the model.
package functions

import (
	"context"

	"github.com/m2tx/kimap_agent/internal/agent"
	"github.com/m2tx/kimap_agent/internal/geocoding"
	"github.com/m2tx/kimap_agent/internal/places"
)

const (
	CountAccessiblePlaces     = "count_accessible_places"
	FindAccessiblePlacesNear  = "find_accessible_places_near"
	SearchPlaces              = "search_places"
	TopCitiesByAccessibility  = "top_cities_by_accessibility"
	CompareCityCounts         = "compare_city_counts"
	TopPlaces                 = "top_places"
	FilterPlacesByFeatures    = "filter_places_by_features"
	SubmitAccessibilityReport = "submit_accessibility_report"
	BuildAccessibleRoute      = "build_accessible_route"
	StatsByCategory           = "stats_by_category"
	PercentageByCategory      = "percentage_by_category"
	YearlyGrowth              = "yearly_growth"
	GeocodePlaceName          = "geocode_place_name"
)

// Names lists every function name in declaration order.
var Names = []string{
	CountAccessiblePlaces,
	FindAccessiblePlacesNear,
	SearchPlaces,
	TopCitiesByAccessibility,
	CompareCityCounts,
	TopPlaces,
	FilterPlacesByFeatures,
	SubmitAccessibilityReport,
	BuildAccessibleRoute,
	StatsByCategory,
	PercentageByCategory,
	YearlyGrowth,
	GeocodePlaceName,
}

// Geocoder resolves a place name into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, text string) (*geocoding.Location, error)
}

// All returns every function declaration, in the order of Names.
func All(svc *places.Service, geocoder Geocoder) []*agent.FunctionDeclaration {
	return []*agent.FunctionDeclaration{
		CreateCountAccessibleFunctionDeclaration(svc),
		CreateFindNearFunctionDeclaration(svc),
		CreateSearchPlacesFunctionDeclaration(svc),
		CreateTopCitiesFunctionDeclaration(svc),
		CreateCompareCitiesFunctionDeclaration(svc),
		CreateTopPlacesFunctionDeclaration(svc),
		CreateFilterByFeaturesFunctionDeclaration(svc),
		CreateSubmitReportFunctionDeclaration(svc),
		CreateBuildRouteFunctionDeclaration(svc),
		CreateStatsByCategoryFunctionDeclaration(svc),
		CreatePercentageByCategoryFunctionDeclaration(svc),
		CreateYearlyGrowthFunctionDeclaration(svc),
		CreateGeocodeFunctionDeclaration(geocoder),
	}
}

// NewRegistry builds the registry of every function and checks that each
// name in Names has a handler.
func NewRegistry(svc *places.Service, geocoder Geocoder) (*agent.Registry, error) {
	registry, err := agent.NewRegistry(All(svc, geocoder)...)
	if err != nil {
		return nil, err
	}

	if err := registry.Require(Names...); err != nil {
		return nil, err
	}

	return registry, nil
}
