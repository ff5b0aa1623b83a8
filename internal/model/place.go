package model

import "time"

// Wheelchair accessibility values stored on places.
const (
	WheelchairYes     = "yes"
	WheelchairNo      = "no"
	WheelchairUnknown = "unknown"
)

// Place is a point of interest from the places collection.
type Place struct {
	ID         string   `json:"id" bson:"id"`
	Name       string   `json:"name" bson:"name"`
	Latitude   float64  `json:"latitude" bson:"latitude"`
	Longitude  float64  `json:"longitude" bson:"longitude"`
	Category   string   `json:"category,omitempty" bson:"category,omitempty"`
	Wheelchair string   `json:"wheelchair,omitempty" bson:"wheelchair,omitempty"`
	Tags       []string `json:"tags,omitempty" bson:"tags,omitempty"`
	City       string   `json:"city,omitempty" bson:"city,omitempty"`
	Address    string   `json:"full_address,omitempty" bson:"full_address,omitempty"`
	Views      int64    `json:"views,omitempty" bson:"views,omitempty"`
	Rating     float64  `json:"rating,omitempty" bson:"rating,omitempty"`
}

// RouteStop is one stop of an accessible route. DistanceKm is the length of
// the leg that reaches this stop.
type RouteStop struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	DistanceKm float64 `json:"distance_km,omitempty"`
}

// CityStat is a precomputed accessible place count for a city.
type CityStat struct {
	City            string `json:"city" bson:"city"`
	AccessibleCount int64  `json:"accessible_count" bson:"accessible_count"`
}

// YearCount is the accessible place count of a city for one year.
type YearCount struct {
	City  string `json:"city" bson:"city"`
	Year  int    `json:"year" bson:"year"`
	Count int64  `json:"count" bson:"count"`
}

// Report statuses.
const ReportPending = "pending"

// Report is a user submitted accessibility note about a place.
type Report struct {
	PlaceID   string    `json:"place_id" bson:"place_id"`
	Note      string    `json:"note" bson:"note"`
	User      string    `json:"user,omitempty" bson:"user,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	Status    string    `json:"status" bson:"status"`
}
