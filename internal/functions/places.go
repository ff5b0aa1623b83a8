package functions

import (
	"context"

	"github.com/m2tx/kimap_agent/internal/agent"
	"github.com/m2tx/kimap_agent/internal/places"
)

type countAccessibleArgs struct {
	City     string `json:"city" jsonschema_description:"City name, e.g. Milan."`
	Category string `json:"category,omitempty" jsonschema:"enum=bar,enum=restaurant,enum=museum,enum=shop,enum=park"`
}

func CreateCountAccessibleFunctionDeclaration(svc *places.Service) *agent.FunctionDeclaration {
	return agent.NewFunction(
		CountAccessiblePlaces,
		"Counts the wheelchair accessible places in a city, optionally restricted to one category (bar, restaurant, museum, shop, park).",
		func(ctx context.Context, args countAccessibleArgs) (any, error) {
			return svc.CountAccessible(ctx, args.City, args.Category)
		},
	)
}

type findNearArgs struct {
	Category string  `json:"category,omitempty" jsonschema:"enum=bar,enum=restaurant,enum=museum,enum=shop,enum=park"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	RadiusKm float64 `json:"radius_km,omitempty" jsonschema:"default=0.5" jsonschema_description:"Search radius in kilometres."`
	Limit    int     `json:"limit,omitempty" jsonschema:"default=5"`
}

func CreateFindNearFunctionDeclaration(svc *places.Service) *agent.FunctionDeclaration {
	return agent.NewFunction(
		FindAccessiblePlacesNear,
		"Returns accessible places of a category within a radius (km) of the given coordinates.",
		func(ctx context.Context, args findNearArgs) (any, error) {
			return svc.FindNear(ctx, places.NearQuery{
				Category: args.Category,
				Lat:      args.Lat,
				Lng:      args.Lng,
				RadiusKm: args.RadiusKm,
				Limit:    args.Limit,
			})
		},
	)
}

type searchPlacesArgs struct {
	Text  string `json:"text" jsonschema_description:"Beginning of the place name."`
	Limit int    `json:"limit,omitempty" jsonschema:"default=10"`
}

func CreateSearchPlacesFunctionDeclaration(svc *places.Service) *agent.FunctionDeclaration {
	return agent.NewFunction(
		SearchPlaces,
		"Case insensitive search on place names, at most 10 results by default.",
		func(ctx context.Context, args searchPlacesArgs) (any, error) {
			return svc.Search(ctx, args.Text, args.Limit)
		},
	)
}

type filterByFeaturesArgs struct {
	City string   `json:"city"`
	Tags []string `json:"tags" jsonschema_description:"Features every place must have, e.g. ramp or adapted_toilet."`
}

func CreateFilterByFeaturesFunctionDeclaration(svc *places.Service) *agent.FunctionDeclaration {
	return agent.NewFunction(
		FilterPlacesByFeatures,
		"Returns accessible places of a city that have all of the given feature tags.",
		func(ctx context.Context, args filterByFeaturesArgs) (any, error) {
			return svc.FilterByFeatures(ctx, args.City, args.Tags)
		},
	)
}
