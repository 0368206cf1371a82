package models

import "time"

// Order est un instantané immuable du panier au moment du passage de
// commande, plus des métadonnées de cycle de vie mutables (statut,
// horodatages, note, instructions de livraison, évaluation).
type Order struct {
	ID                   string     `json:"id"`
	UserID               string     `json:"user_id"`
	Items                []CartItem `json:"items"`
	Total                float64    `json:"total"`
	Status               string     `json:"status"`
	PaymentMethod        string     `json:"payment_method"`
	Note                 string     `json:"note,omitempty"`
	DeliveryInstructions string     `json:"delivery_instructions,omitempty"`
	Rating               int        `json:"rating,omitempty"` // 1-5 une fois soumise
	CreatedAt            time.Time  `json:"created_at"`
	ProcessingAt         *time.Time `json:"processing_at,omitempty"`
	InTransitAt          *time.Time `json:"in_transit_at,omitempty"`
	DeliveredAt          *time.Time `json:"delivered_at,omitempty"`
	CancelledAt          *time.Time `json:"cancelled_at,omitempty"`
}
