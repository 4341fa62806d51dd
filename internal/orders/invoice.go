package orders

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/Elisee98/markethub-sub001/internal/models"
	"github.com/Elisee98/markethub-sub001/internal/pricing"
)

// VendorGroup est la section facture d'un vendeur : ses lignes et son
// sous-total, qui doit valoir exactement la somme de ses lignes.
type VendorGroup struct {
	VendorID      string             `json:"vendor_id"`
	VendorName    string             `json:"vendor_name"`
	Items         []models.OrderItem `json:"items"`
	SubtotalCents int64              `json:"subtotal_cents"`
}

// Invoice est le document de facturation : lecture seule, composé à la
// demande depuis l'état persisté.
type Invoice struct {
	OrderID      string         `json:"order_id"`
	OrderNumber  string         `json:"order_number"`
	CustomerID   string         `json:"customer_id"`
	IssuedAt     time.Time      `json:"issued_at"`
	VendorGroups []VendorGroup  `json:"vendor_groups"`
	Totals       pricing.Totals `json:"totals"`
}

// ComposeInvoice groupe les lignes par vendeur et vérifie la cohérence des
// montants stockés : les totaux ne sont jamais repris aveuglément d'un champ
// potentiellement périmé, ni recalculés différemment selon la page.
func ComposeInvoice(ctx context.Context, order *models.Order, dir VendorDirectory) (*Invoice, error) {
	groupsByVendor := map[string]*VendorGroup{}
	var lineSum int64

	for _, item := range order.Items {
		vendorID := item.VendorID.String()
		g, ok := groupsByVendor[vendorID]
		if !ok {
			g = &VendorGroup{VendorID: vendorID}
			groupsByVendor[vendorID] = g
		}
		g.Items = append(g.Items, item)
		g.SubtotalCents += item.TotalPriceCents
		lineSum += item.TotalPriceCents
	}

	// revérification à la lecture des invariants financiers
	if lineSum != order.SubtotalCents {
		return nil, fmt.Errorf("incohérence des totaux pour %s: lignes %d ≠ sous-total %d",
			order.OrderNumber, lineSum, order.SubtotalCents)
	}
	if order.SubtotalCents+order.ShippingCents+order.TaxCents != order.TotalCents {
		return nil, fmt.Errorf("incohérence des totaux pour %s: %d + %d + %d ≠ %d",
			order.OrderNumber, order.SubtotalCents, order.ShippingCents, order.TaxCents, order.TotalCents)
	}

	groups := make([]VendorGroup, 0, len(groupsByVendor))
	for vendorID, g := range groupsByVendor {
		g.VendorName = vendorDisplayName(ctx, dir, vendorID)
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].VendorID < groups[j].VendorID })

	return &Invoice{
		OrderID:      order.ID.String(),
		OrderNumber:  order.OrderNumber,
		CustomerID:   order.CustomerID,
		IssuedAt:     order.CreatedAt,
		VendorGroups: groups,
		Totals: pricing.Totals{
			SubtotalCents: order.SubtotalCents,
			ShippingCents: order.ShippingCents,
			TaxCents:      order.TaxCents,
			TotalCents:    order.TotalCents,
		},
	}, nil
}

// vendorDisplayName ne fait jamais échouer la facture : nom de boutique,
// sinon username, sinon libellé de secours.
func vendorDisplayName(ctx context.Context, dir VendorDirectory, vendorID string) string {
	if dir == nil {
		return "Vendeur " + shortID(vendorID)
	}
	v, err := dir.Vendor(ctx, vendorID)
	if err != nil {
		log.Printf("⚠️ Profil vendeur %s indisponible: %v", vendorID, err)
		return "Vendeur " + shortID(vendorID)
	}
	return v.DisplayName()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
