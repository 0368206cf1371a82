package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Nutrition regroupe les valeurs nutritionnelles pour 100g/100ml
type Nutrition struct {
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
}

type Product struct {
	ID          gocql.UUID `json:"id" db:"product_id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	Price       float64    `json:"price" db:"price"`
	Unit        string     `json:"unit" db:"unit"` // "kg", "pièce", "litre", "botte"...
	Category    string     `json:"category" db:"category"`
	Subcategory string     `json:"subcategory" db:"subcategory"`
	Stock       int        `json:"stock" db:"stock"`
	ImageURL    string     `json:"image_url" db:"image_url"`
	Organic     bool       `json:"organic" db:"organic"`
	Local       bool       `json:"local" db:"local"`
	Seasonal    bool       `json:"seasonal" db:"seasonal"`
	Origin      string     `json:"origin,omitempty" db:"origin"`
	Nutrition   Nutrition  `json:"nutrition"`
	Tags        []string   `json:"tags" db:"tags"`
	CreatedAt   *time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at" db:"updated_at"`
}
