package models

import "github.com/gocql/gocql"

// Vendor est le profil boutique d'un vendeur. StoreName est optionnel :
// les vues qui l'affichent doivent retomber sur Username quand il manque.
type Vendor struct {
	ID        gocql.UUID `json:"id"`
	Username  string     `json:"username"`
	StoreName *string    `json:"store_name,omitempty"`
	Email     string     `json:"email,omitempty"`
}

// DisplayName retourne le nom boutique, ou le username en secours.
func (v Vendor) DisplayName() string {
	if v.StoreName != nil && *v.StoreName != "" {
		return *v.StoreName
	}
	return v.Username
}
