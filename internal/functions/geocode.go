package functions

import (
	"context"

	"github.com/m2tx/kimap_agent/internal/agent"
)

type geocodeArgs struct {
	Text string `json:"text" jsonschema_description:"Place name or address."`
}

func CreateGeocodeFunctionDeclaration(geocoder Geocoder) *agent.FunctionDeclaration {
	return agent.NewFunction(
		GeocodePlaceName,
		"Converts a place name into latitude and longitude. Returns null when the place is unknown.",
		func(ctx context.Context, args geocodeArgs) (any, error) {
			return geocoder.Geocode(ctx, args.Text)
		},
	)
}
