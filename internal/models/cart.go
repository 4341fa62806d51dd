package models

import "time"

// CartItem est éphémère : converti en OrderItem au commit puis supprimé.
// Le prix affiché ici est indicatif, le prix courant est refigé au commit.
type CartItem struct {
	ProductID      string    `json:"product_id"`
	VendorID       string    `json:"vendor_id"`
	Name           string    `json:"name"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	Quantity       int       `json:"quantity"`
	ImageURL       string    `json:"image_url,omitempty"`
	AddedAt        time.Time `json:"added_at"`
}

// SkippedItem décrit un article d'une ancienne commande qu'on n'a pas pu
// remettre au panier (produit désactivé, rupture de stock).
type SkippedItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Reason    string `json:"reason"`
}
