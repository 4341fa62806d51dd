// Package cart gère le panier pré-commande : mutable, par propriétaire
// (client authentifié ou session invitée), converti en lignes de commande
// figées au moment du checkout.
package cart

import (
	"context"

	"github.com/Elisee98/markethub-sub001/internal/models"
)

// Store persiste le panier d'un propriétaire. ownerKey vaut "user:<id>" pour
// un client connecté ou "guest:<session>" pour une session anonyme — le
// panier n'est jamais de l'état global ambiant.
type Store interface {
	List(ctx context.Context, ownerKey string) ([]models.CartItem, error)
	Save(ctx context.Context, ownerKey string, items []models.CartItem) error
	Clear(ctx context.Context, ownerKey string) error
}

// UserKey construit la clé panier d'un client authentifié.
func UserKey(userID string) string { return "user:" + userID }

// GuestKey construit la clé panier d'une session anonyme.
func GuestKey(sessionID string) string { return "guest:" + sessionID }
