package models

// CartItem est une ligne du panier : un instantané plat du produit plus une
// quantité. Invariant : au plus une ligne par product_id dans le panier.
type CartItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Unit      string  `json:"unit,omitempty"`
	ImageURL  string  `json:"image_url,omitempty"`
	Organic   bool    `json:"organic,omitempty"`
	Quantity  int     `json:"quantity"`
}
