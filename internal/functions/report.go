package functions

import (
	"context"

	"github.com/m2tx/kimap_agent/internal/agent"
	"github.com/m2tx/kimap_agent/internal/places"
)

type submitReportArgs struct {
	PlaceID string `json:"place_id"`
	Note    string `json:"note" jsonschema_description:"What the user reports about the accessibility of the place."`
	User    string `json:"user,omitempty"`
}

func CreateSubmitReportFunctionDeclaration(svc *places.Service) *agent.FunctionDeclaration {
	return agent.NewFunction(
		SubmitAccessibilityReport,
		"Stores a user report or update about the accessibility of a place.",
		func(ctx context.Context, args submitReportArgs) (any, error) {
			return svc.SubmitReport(ctx, args.PlaceID, args.Note, args.User)
		},
	)
}
