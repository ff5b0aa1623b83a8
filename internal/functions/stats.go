package functions

import (
	"context"

	"github.com/m2tx/kimap_agent/internal/agent"
	"github.com/m2tx/kimap_agent/internal/places"
)

type cityArgs struct {
	City string `json:"city"`
}

func CreateStatsByCategoryFunctionDeclaration(svc *places.Service) *agent.FunctionDeclaration {
	return agent.NewFunction(
		StatsByCategory,
		"Returns the number of accessible places of each category in a city.",
		func(ctx context.Context, args cityArgs) (any, error) {
			return svc.StatsByCategory(ctx, args.City)
		},
	)
}

func CreatePercentageByCategoryFunctionDeclaration(svc *places.Service) *agent.FunctionDeclaration {
	return agent.NewFunction(
		PercentageByCategory,
		"Returns the share of bars, restaurants, museums, shops and parks over the accessible places of a city.",
		func(ctx context.Context, args cityArgs) (any, error) {
			return svc.PercentageByCategory(ctx, args.City)
		},
	)
}

type yearlyGrowthArgs struct {
	City     string `json:"city"`
	FromYear int    `json:"from_year"`
	ToYear   int    `json:"to_year"`
}

func CreateYearlyGrowthFunctionDeclaration(svc *places.Service) *agent.FunctionDeclaration {
	return agent.NewFunction(
		YearlyGrowth,
		"Shows the year over year number of accessible places in a city.",
		func(ctx context.Context, args yearlyGrowthArgs) (any, error) {
			return svc.YearlyGrowth(ctx, args.City, args.FromYear, args.ToYear)
		},
	)
}
