package functions

import (
	"context"

	"github.com/m2tx/kimap_agent/internal/agent"
	"github.com/m2tx/kimap_agent/internal/places"
)

type buildRouteArgs struct {
	StartLat float64 `json:"start_lat"`
	StartLng float64 `json:"start_lng"`
	City     string  `json:"city"`
	Category string  `json:"category,omitempty" jsonschema:"enum=bar,enum=restaurant,enum=museum,enum=shop,enum=park,default=bar"`
	Stops    int     `json:"stops,omitempty" jsonschema:"default=5,maximum=6"`
	RadiusKm float64 `json:"radius_km,omitempty" jsonschema:"default=1"`
}

func CreateBuildRouteFunctionDeclaration(svc *places.Service) *agent.FunctionDeclaration {
	return agent.NewFunction(
		BuildAccessibleRoute,
		"Builds a short accessible itinerary (at most 6 stops) near a starting point.",
		func(ctx context.Context, args buildRouteArgs) (any, error) {
			return svc.BuildRoute(ctx, places.RouteQuery{
				StartLat: args.StartLat,
				StartLng: args.StartLng,
				City:     args.City,
				Category: args.Category,
				Stops:    args.Stops,
				RadiusKm: args.RadiusKm,
			})
		},
	)
}
