package models

import "github.com/gocql/gocql"

// Address appartient au carnet d'adresses (collaborateur externe) ; le moteur
// de commande ne stocke que des identifiants et résout à la demande.
type Address struct {
	ID         gocql.UUID `json:"id"`
	UserID     string     `json:"user_id"`
	Line1      string     `json:"line1"`
	Line2      string     `json:"line2,omitempty"`
	City       string     `json:"city"`
	State      string     `json:"state,omitempty"`
	PostalCode string     `json:"postal_code"`
	Country    string     `json:"country"`
}
