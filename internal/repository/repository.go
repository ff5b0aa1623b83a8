package repository

import (
	"context"

	"github.com/m2tx/kimap_agent/internal/geo"
	"github.com/m2tx/kimap_agent/internal/model"
)

// SessionRepository defines persistence operations for conversation history.
type SessionRepository interface {
	// Save persists the full history for a given session.
	// Replaces any previously stored history for that sessionID.
	Save(ctx context.Context, sessionID string, history []model.Content) error

	// Load retrieves the stored history for a given session.
	// Returns nil, nil if the session does not exist.
	Load(ctx context.Context, sessionID string) ([]model.Content, error)

	// Delete removes the stored history for a given session.
	// Is a no-op if the session does not exist.
	Delete(ctx context.Context, sessionID string) error

	// List returns every stored session, most recently updated first.
	List(ctx context.Context) ([]model.Session, error)
}

// Sort fields accepted by PlaceQuery.SortBy.
const (
	SortViews  = "views"
	SortRating = "rating"
)

// PlaceQuery describes a read over the places collection. Zero values mean
// "no filter".
type PlaceQuery struct {
	City           string
	Category       string
	AccessibleOnly bool
	// Tags must all be present on a place.
	Tags []string
	Box  *geo.BoundingBox
	// NamePrefix is matched case-insensitively against the lowercase name.
	NamePrefix string
	// SortBy sorts descending on the named field.
	SortBy string
	Limit  int
}

// PlaceRepository is the read/write surface over the place dataset.
type PlaceRepository interface {
	Count(ctx context.Context, q PlaceQuery) (int64, error)
	Find(ctx context.Context, q PlaceQuery) ([]model.Place, error)

	// TopCities returns precomputed city stats by accessible count, descending.
	TopCities(ctx context.Context, limit int) ([]model.CityStat, error)

	// YearlyCounts returns the stored yearly counts of a city in
	// [fromYear, toYear], ascending by year.
	YearlyCounts(ctx context.Context, city string, fromYear, toYear int) ([]model.YearCount, error)

	// InsertReport stores a report and returns its generated id.
	InsertReport(ctx context.Context, report model.Report) (string, error)
}
