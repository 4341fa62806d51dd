// Package inventory est le seul endroit autorisé à toucher le stock : toute
// décrémentation passe par Reserve, toute remise en stock par Restore.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/Elisee98/markethub-sub001/internal/models"
)

var (
	// ErrProductNotFound : le produit n'existe pas dans le catalogue.
	ErrProductNotFound = errors.New("produit introuvable")

	// ErrStockConflict : la décrémentation conditionnelle a perdu la course
	// contre un autre checkout. Retentable.
	ErrStockConflict = errors.New("conflit concurrent sur le stock")
)

// InsufficientStockError identifie précisément l'article en rupture pour que
// l'UI puisse dire au client quel produit a échoué.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuffisant pour le produit %s (demandé %d, disponible %d)",
		e.ProductID, e.Requested, e.Available)
}

// Ledger expose le stock de façon transactionnelle : Reserve décrémente avec
// une garde compare-and-set (jamais de read-then-write), Restore est l'inverse
// exact utilisé à l'annulation.
type Ledger interface {
	// Product retourne la vue catalogue courante d'un produit.
	Product(ctx context.Context, productID string) (*models.ProductInfo, error)

	// Reserve décrémente le stock de qty si et seulement si le stock courant
	// le permet. Retourne *InsufficientStockError si le stock est trop bas,
	// ErrStockConflict si un checkout concurrent a gagné la course.
	Reserve(ctx context.Context, productID string, qty int, orderID string) error

	// Restore remet qty en stock (annulation de commande). Doit réussir même
	// sous contention : les conflits CAS sont réessayés en interne.
	Restore(ctx context.Context, productID string, qty int, orderID string) error

	// Adjust applique un restock/ajustement administrateur et retourne le
	// nouveau stock.
	Adjust(ctx context.Context, productID string, delta int, absolute bool, reason, actorID string) (int, error)

	// Movements retourne l'historique des mouvements, plus récent d'abord.
	Movements(ctx context.Context, productID string, limit int) ([]models.StockMovement, error)

	// OpenAlerts retourne les alertes de stock non résolues.
	OpenAlerts(ctx context.Context) ([]models.StockAlert, error)
}
