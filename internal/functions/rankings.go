package functions

import (
	"context"

	"github.com/m2tx/kimap_agent/internal/agent"
	"github.com/m2tx/kimap_agent/internal/places"
)

type topCitiesArgs struct {
	Limit int `json:"limit,omitempty" jsonschema:"default=5"`
}

func CreateTopCitiesFunctionDeclaration(svc *places.Service) *agent.FunctionDeclaration {
	return agent.NewFunction(
		TopCitiesByAccessibility,
		"Lists the cities with the most accessible places.",
		func(ctx context.Context, args topCitiesArgs) (any, error) {
			return svc.TopCities(ctx, args.Limit)
		},
	)
}

type compareCitiesArgs struct {
	CityA string `json:"cityA"`
	CityB string `json:"cityB"`
}

func CreateCompareCitiesFunctionDeclaration(svc *places.Service) *agent.FunctionDeclaration {
	return agent.NewFunction(
		CompareCityCounts,
		"Compares how many accessible places two cities have.",
		func(ctx context.Context, args compareCitiesArgs) (any, error) {
			return svc.CompareCities(ctx, args.CityA, args.CityB)
		},
	)
}

type topPlacesArgs struct {
	City  string `json:"city"`
	Sort  string `json:"sort,omitempty" jsonschema:"enum=views,enum=rating,default=views"`
	Limit int    `json:"limit,omitempty" jsonschema:"default=10"`
}

func CreateTopPlacesFunctionDeclaration(svc *places.Service) *agent.FunctionDeclaration {
	return agent.NewFunction(
		TopPlaces,
		"Returns the most popular places of a city, by views or rating.",
		func(ctx context.Context, args topPlacesArgs) (any, error) {
			return svc.TopPlaces(ctx, args.City, args.Sort, args.Limit)
		},
	)
}
