package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/m2tx/kimap_agent/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// prefixSentinel closes the half-open name range [prefix, prefix+sentinel).
const prefixSentinel = "\uf8ff"

// Collection names used by MongoPlaceRepository.
const (
	PlacesCollection        = "places"
	CityStatsCollection     = "city_stats"
	PlacesHistoryCollection = "places_history"
	ReportsCollection       = "reports"
)

// MongoPlaceRepository implements PlaceRepository using MongoDB.
type MongoPlaceRepository struct {
	places  *mongo.Collection
	stats   *mongo.Collection
	history *mongo.Collection
	reports *mongo.Collection
}

// NewMongoPlaceRepository creates a new MongoPlaceRepository over db.
func NewMongoPlaceRepository(db *mongo.Database) *MongoPlaceRepository {
	return &MongoPlaceRepository{
		places:  db.Collection(PlacesCollection),
		stats:   db.Collection(CityStatsCollection),
		history: db.Collection(PlacesHistoryCollection),
		reports: db.Collection(ReportsCollection),
	}
}

func (r *MongoPlaceRepository) Count(ctx context.Context, q PlaceQuery) (int64, error) {
	n, err := r.places.CountDocuments(ctx, placeFilter(q))
	if err != nil {
		return 0, fmt.Errorf("repository: count places: %w", err)
	}

	return n, nil
}

func (r *MongoPlaceRepository) Find(ctx context.Context, q PlaceQuery) ([]model.Place, error) {
	opts := options.Find()
	if q.SortBy != "" {
		opts.SetSort(bson.D{{Key: q.SortBy, Value: -1}})
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := r.places.Find(ctx, placeFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("repository: find places: %w", err)
	}

	places := []model.Place{}
	if err := cursor.All(ctx, &places); err != nil {
		return nil, fmt.Errorf("repository: decode places: %w", err)
	}

	return places, nil
}

func (r *MongoPlaceRepository) TopCities(ctx context.Context, limit int) ([]model.CityStat, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "accessible_count", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.stats.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("repository: find city stats: %w", err)
	}

	stats := []model.CityStat{}
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, fmt.Errorf("repository: decode city stats: %w", err)
	}

	return stats, nil
}

func (r *MongoPlaceRepository) YearlyCounts(ctx context.Context, city string, fromYear, toYear int) ([]model.YearCount, error) {
	filter := bson.D{
		{Key: "city", Value: city},
		{Key: "year", Value: bson.D{{Key: "$gte", Value: fromYear}, {Key: "$lte", Value: toYear}}},
	}
	opts := options.Find().SetSort(bson.D{{Key: "year", Value: 1}})

	cursor, err := r.history.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("repository: find yearly counts for %q: %w", city, err)
	}

	counts := []model.YearCount{}
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, fmt.Errorf("repository: decode yearly counts: %w", err)
	}

	return counts, nil
}

func (r *MongoPlaceRepository) InsertReport(ctx context.Context, report model.Report) (string, error) {
	res, err := r.reports.InsertOne(ctx, report)
	if err != nil {
		return "", fmt.Errorf("repository: insert report for place %q: %w", report.PlaceID, err)
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		return id.Hex(), nil
	}

	return fmt.Sprint(res.InsertedID), nil
}

// placeFilter translates a PlaceQuery into a MongoDB filter document.
func placeFilter(q PlaceQuery) bson.D {
	filter := bson.D{}

	if q.City != "" {
		filter = append(filter, bson.E{Key: "city", Value: q.City})
	}
	if q.AccessibleOnly {
		filter = append(filter, bson.E{Key: "wheelchair", Value: model.WheelchairYes})
	}
	if q.Category != "" {
		filter = append(filter, bson.E{Key: "category", Value: q.Category})
	}
	if len(q.Tags) > 0 {
		filter = append(filter, bson.E{Key: "tags", Value: bson.D{{Key: "$all", Value: q.Tags}}})
	}
	if q.Box != nil {
		filter = append(filter,
			bson.E{Key: "latitude", Value: bson.D{{Key: "$gte", Value: q.Box.MinLat}, {Key: "$lte", Value: q.Box.MaxLat}}},
			bson.E{Key: "longitude", Value: bson.D{{Key: "$gte", Value: q.Box.MinLng}, {Key: "$lte", Value: q.Box.MaxLng}}},
		)
	}
	if q.NamePrefix != "" {
		t := strings.ToLower(q.NamePrefix)
		filter = append(filter, bson.E{Key: "name_insensitive", Value: bson.D{{Key: "$gte", Value: t}, {Key: "$lt", Value: t + prefixSentinel}}})
	}

	return filter
}
