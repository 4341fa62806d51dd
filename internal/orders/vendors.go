package orders

import (
	"context"
	"errors"
	"sync"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"github.com/Elisee98/markethub-sub001/internal/database"
	"github.com/Elisee98/markethub-sub001/internal/models"
)

// VendorDirectory résout le profil boutique d'un vendeur. La composition de
// facture doit tolérer un profil incomplet ou introuvable sans échouer.
type VendorDirectory interface {
	Vendor(ctx context.Context, vendorID string) (*models.Vendor, error)
}

// ScyllaVendorDirectory lit les profils vendeurs dans le keyspace users.
type ScyllaVendorDirectory struct{}

func (d *ScyllaVendorDirectory) Vendor(ctx context.Context, vendorID string) (*models.Vendor, error) {
	session, err := database.GetUsersSession()
	if err != nil {
		return nil, err
	}

	vid, err := uuid.Parse(vendorID)
	if err != nil {
		return nil, err
	}

	var v models.Vendor
	err = session.Query(`SELECT user_id, username, store_name, email FROM vendors WHERE user_id = ?`,
		gocql.UUID(vid)).
		WithContext(ctx).
		Scan(&v.ID, &v.Username, &v.StoreName, &v.Email)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// MemoryVendorDirectory est l'annuaire en mémoire pour les tests.
type MemoryVendorDirectory struct {
	mu      sync.Mutex
	vendors map[string]models.Vendor
}

func NewMemoryVendorDirectory() *MemoryVendorDirectory {
	return &MemoryVendorDirectory{vendors: make(map[string]models.Vendor)}
}

func (d *MemoryVendorDirectory) Seed(v models.Vendor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.vendors[v.ID.String()] = v
}

func (d *MemoryVendorDirectory) Vendor(_ context.Context, vendorID string) (*models.Vendor, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.vendors[vendorID]
	if !ok {
		return nil, errors.New("vendeur introuvable")
	}
	cp := v
	return &cp, nil
}
