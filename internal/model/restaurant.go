package model

import "time"

// GeoPoint is a GeoJSON point; Coordinates are [longitude, latitude]
type GeoPoint struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
}

// NewGeoPoint builds a GeoJSON point from a Location
func NewGeoPoint(loc Location) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{loc.Longitude, loc.Latitude}}
}

type MenuItem struct {
	Name        string  `json:"name" bson:"name"`
	Price       float64 `json:"price" bson:"price"`
	Description string  `json:"description,omitempty" bson:"description,omitempty"`
	Category    string  `json:"category" bson:"category"`
}

// Restaurant is a catalog record that sessions vote on
type Restaurant struct {
	ID         string     `json:"id" bson:"_id"`
	Name       string     `json:"name" bson:"name"`
	Cuisine    string     `json:"cuisine" bson:"cuisine"`
	Address    string     `json:"address" bson:"address"`
	Rating     float64    `json:"rating" bson:"rating"`
	PriceRange string     `json:"priceRange" bson:"priceRange"` // "$" to "$$$$"
	Location   GeoPoint   `json:"location" bson:"location"`
	Menu       []MenuItem `json:"menu,omitempty" bson:"menu,omitempty"`
	CreatedAt  time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt" bson:"updatedAt"`
}
