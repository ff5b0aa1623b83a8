// Package route builds short walking routes through nearby accessible places.
package route

import (
	"github.com/m2tx/kimap_agent/internal/geo"
	"github.com/m2tx/kimap_agent/internal/model"
)

const (
	DefaultStops    = 5
	MaxStops        = 6
	DefaultRadiusKm = 1.0
	// CandidateLimit bounds how many places are fetched before routing.
	CandidateLimit = 20
)

// Build orders up to stops candidates with the greedy nearest-neighbour
// heuristic: starting from start, it repeatedly visits the closest remaining
// candidate. Ties keep the first candidate in input order.
//
// Closeness is planar distance on degrees, valid only for small radii. The
// reported DistanceKm of each stop is the haversine length of its leg.
// candidates is not modified. The result is never nil.
func Build(start geo.Point, candidates []model.Place, stops int) []model.RouteStop {
	n := min(stops, len(candidates))
	if n <= 0 {
		return []model.RouteStop{}
	}

	remaining := make([]model.Place, len(candidates))
	copy(remaining, candidates)

	route := make([]model.RouteStop, 0, n)
	current := start

	for len(route) < n {
		best := 0
		bestDist := geo.PlanarDistance(current, pointOf(remaining[0]))
		for i := 1; i < len(remaining); i++ {
			if d := geo.PlanarDistance(current, pointOf(remaining[i])); d < bestDist {
				best, bestDist = i, d
			}
		}

		next := remaining[best]
		remaining = append(remaining[:best], remaining[best+1:]...)

		nextPoint := pointOf(next)
		route = append(route, model.RouteStop{
			ID:         next.ID,
			Name:       next.Name,
			Lat:        next.Latitude,
			Lng:        next.Longitude,
			DistanceKm: geo.HaversineKm(current, nextPoint),
		})
		current = nextPoint
	}

	return route
}

func pointOf(p model.Place) geo.Point {
	return geo.Point{Lat: p.Latitude, Lng: p.Longitude}
}
