package repository

import (
	"reflect"
	"testing"

	"github.com/m2tx/kimap_agent/internal/geo"
	"go.mongodb.org/mongo-driver/bson"
)

func TestPlaceFilter(t *testing.T) {
	box := geo.BoundingBox{MinLat: 1, MaxLat: 2, MinLng: 3, MaxLng: 4}

	tests := []struct {
		name  string
		query PlaceQuery
		want  bson.D
	}{
		{
			name:  "Empty query",
			query: PlaceQuery{},
			want:  bson.D{},
		},
		{
			name:  "Accessible places in a city by category",
			query: PlaceQuery{City: "Milan", AccessibleOnly: true, Category: "bar"},
			want: bson.D{
				{Key: "city", Value: "Milan"},
				{Key: "wheelchair", Value: "yes"},
				{Key: "category", Value: "bar"},
			},
		},
		{
			name:  "All tags required",
			query: PlaceQuery{Tags: []string{"ramp", "adapted_toilet"}},
			want: bson.D{
				{Key: "tags", Value: bson.D{{Key: "$all", Value: []string{"ramp", "adapted_toilet"}}}},
			},
		},
		{
			name:  "Bounding box",
			query: PlaceQuery{Box: &box},
			want: bson.D{
				{Key: "latitude", Value: bson.D{{Key: "$gte", Value: 1.0}, {Key: "$lte", Value: 2.0}}},
				{Key: "longitude", Value: bson.D{{Key: "$gte", Value: 3.0}, {Key: "$lte", Value: 4.0}}},
			},
		},
		{
			name:  "Name prefix is lowercased and half-open",
			query: PlaceQuery{NamePrefix: "Caffè"},
			want: bson.D{
				{Key: "name_insensitive", Value: bson.D{{Key: "$gte", Value: "caffè"}, {Key: "$lt", Value: "caffè\uf8ff"}}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := placeFilter(tt.query)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("placeFilter(%+v) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}
