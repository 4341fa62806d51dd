package cart

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Elisee98/markethub-sub001/internal/inventory"
	"github.com/Elisee98/markethub-sub001/internal/models"
)

var (
	ErrItemNotInCart   = errors.New("article absent du panier")
	ErrProductInactive = errors.New("produit désactivé")
	ErrInvalidQuantity = errors.New("quantité invalide")
)

// Service applique les règles du panier : vérification de stock indicative à
// l'ajout (la vérification qui fait foi a lieu au commit), fusion du panier
// invité à la connexion, re-commande au prix courant.
type Service struct {
	store  Store
	ledger inventory.Ledger
}

func NewService(store Store, ledger inventory.Ledger) *Service {
	return &Service{store: store, ledger: ledger}
}

func (s *Service) List(ctx context.Context, ownerKey string) ([]models.CartItem, error) {
	return s.store.List(ctx, ownerKey)
}

// AddItem ajoute qty unités au panier. Le stock est vérifié sur la quantité
// cumulée (existant + ajouté) : indicatif seulement, le stock peut bouger
// entre l'ajout et le checkout.
func (s *Service) AddItem(ctx context.Context, ownerKey, productID string, qty int) ([]models.CartItem, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.ledger.Product(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, ErrProductInactive
	}

	items, err := s.store.List(ctx, ownerKey)
	if err != nil {
		return nil, err
	}

	requested := qty
	idx := -1
	for i := range items {
		if items[i].ProductID == productID {
			requested += items[i].Quantity
			idx = i
			break
		}
	}
	if requested > p.Stock {
		return nil, &inventory.InsufficientStockError{ProductID: productID, Requested: requested, Available: p.Stock}
	}

	if idx >= 0 {
		items[idx].Quantity = requested
		items[idx].AddedAt = time.Now()
	} else {
		items = append(items, models.CartItem{
			ProductID:      productID,
			VendorID:       p.VendorID.String(),
			Name:           p.Name,
			UnitPriceCents: p.PriceCents,
			Quantity:       qty,
			ImageURL:       p.ImageURL,
			AddedAt:        time.Now(),
		})
	}

	if err := s.store.Save(ctx, ownerKey, items); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateQty remplace la quantité d'un article déjà présent.
func (s *Service) UpdateQty(ctx context.Context, ownerKey, productID string, qty int) ([]models.CartItem, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.ledger.Product(ctx, productID)
	if err != nil {
		return nil, err
	}
	if qty > p.Stock {
		return nil, &inventory.InsufficientStockError{ProductID: productID, Requested: qty, Available: p.Stock}
	}

	items, err := s.store.List(ctx, ownerKey)
	if err != nil {
		return nil, err
	}

	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = qty
			items[i].AddedAt = time.Now()
			if err := s.store.Save(ctx, ownerKey, items); err != nil {
				return nil, err
			}
			return items, nil
		}
	}
	return nil, ErrItemNotInCart
}

func (s *Service) RemoveItem(ctx context.Context, ownerKey, productID string) ([]models.CartItem, error) {
	items, err := s.store.List(ctx, ownerKey)
	if err != nil {
		return nil, err
	}

	kept := items[:0]
	for _, item := range items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	if err := s.store.Save(ctx, ownerKey, kept); err != nil {
		return nil, err
	}
	return kept, nil
}

func (s *Service) Clear(ctx context.Context, ownerKey string) error {
	return s.store.Clear(ctx, ownerKey)
}

// Merge fusionne le panier d'une session invitée dans le panier du client qui
// vient de se connecter. Dernier écrivain gagnant par produit : l'article du
// panier invité remplace celui du panier client, les quantités ne sont jamais
// additionnées (pour éviter une sur-commande silencieuse).
func (s *Service) Merge(ctx context.Context, guestKey, userKey string) ([]models.CartItem, error) {
	guestItems, err := s.store.List(ctx, guestKey)
	if err != nil {
		return nil, err
	}
	userItems, err := s.store.List(ctx, userKey)
	if err != nil {
		return nil, err
	}

	byProduct := map[string]int{}
	for i, item := range userItems {
		byProduct[item.ProductID] = i
	}
	for _, item := range guestItems {
		if i, ok := byProduct[item.ProductID]; ok {
			userItems[i] = item
		} else {
			userItems = append(userItems, item)
		}
	}

	if err := s.store.Save(ctx, userKey, userItems); err != nil {
		return nil, err
	}
	if err := s.store.Clear(ctx, guestKey); err != nil {
		log.Printf("⚠️ Erreur suppression panier invité %s: %v", guestKey, err)
	}
	return userItems, nil
}

// Reorder remet au panier les articles d'une ancienne commande, au prix et à
// la disponibilité d'aujourd'hui — jamais au prix historique figé. Les
// articles désactivés ou en rupture sont signalés, pas ajoutés.
func (s *Service) Reorder(ctx context.Context, ownerKey string, order *models.Order) ([]models.CartItem, []models.SkippedItem, error) {
	var skipped []models.SkippedItem
	var items []models.CartItem
	var err error

	for _, line := range order.Items {
		productID := line.ProductID.String()
		p, perr := s.ledger.Product(ctx, productID)
		if perr != nil {
			skipped = append(skipped, models.SkippedItem{ProductID: productID, Name: line.Name, Reason: "produit introuvable"})
			continue
		}
		if !p.IsActive {
			skipped = append(skipped, models.SkippedItem{ProductID: productID, Name: p.Name, Reason: "produit désactivé"})
			continue
		}
		if p.Stock == 0 {
			skipped = append(skipped, models.SkippedItem{ProductID: productID, Name: p.Name, Reason: "rupture de stock"})
			continue
		}

		qty := line.Quantity
		if qty > p.Stock {
			qty = p.Stock
		}
		items, err = s.AddItem(ctx, ownerKey, productID, qty)
		if err != nil {
			skipped = append(skipped, models.SkippedItem{ProductID: productID, Name: p.Name, Reason: err.Error()})
		}
	}

	if items == nil {
		items, err = s.store.List(ctx, ownerKey)
		if err != nil {
			return nil, skipped, err
		}
	}
	return items, skipped, nil
}
