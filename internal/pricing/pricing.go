// Package pricing est l'unique source de vérité pour les montants : checkout,
// facture et confirmation passent tous par ComputeTotals au lieu de recalculer
// chacun dans leur coin.
package pricing

// Line est une ligne de calcul : prix unitaire figé en centimes et quantité.
type Line struct {
	UnitPriceCents int64
	Quantity       int
	VendorID       string
}

func (l Line) TotalCents() int64 {
	return l.UnitPriceCents * int64(l.Quantity)
}

// Totals regroupe les montants d'une commande, tous en centimes.
type Totals struct {
	SubtotalCents int64 `json:"subtotal_cents"`
	ShippingCents int64 `json:"shipping_cents"`
	TaxCents      int64 `json:"tax_cents"`
	TotalCents    int64 `json:"total_cents"`
}

// ShippingRule calcule les frais de port pour un panier donné.
type ShippingRule interface {
	FeeCents(lines []Line, subtotalCents int64) int64
}

// FlatRate : frais fixes par commande (comportement par défaut).
type FlatRate struct {
	Cents int64
}

func (r FlatRate) FeeCents(_ []Line, _ int64) int64 { return r.Cents }

// FreeAboveThreshold : frais fixes, offerts au-dessus d'un seuil.
type FreeAboveThreshold struct {
	Cents          int64
	ThresholdCents int64
}

func (r FreeAboveThreshold) FeeCents(_ []Line, subtotalCents int64) int64 {
	if subtotalCents >= r.ThresholdCents {
		return 0
	}
	return r.Cents
}

// PerVendorFlat : frais fixes par vendeur distinct présent dans le panier.
type PerVendorFlat struct {
	CentsPerVendor int64
}

func (r PerVendorFlat) FeeCents(lines []Line, _ int64) int64 {
	vendors := map[string]struct{}{}
	for _, l := range lines {
		vendors[l.VendorID] = struct{}{}
	}
	return r.CentsPerVendor * int64(len(vendors))
}

// ComputeTotals calcule sous-total, port, TVA et total. Le taux de TVA est en
// points de base (1800 = 18%). L'arrondi (demi-centime vers le haut) est
// appliqué une seule fois sur la taxe, jamais ligne par ligne.
func ComputeTotals(lines []Line, rule ShippingRule, taxRateBps int64) Totals {
	var subtotal int64
	for _, l := range lines {
		subtotal += l.TotalCents()
	}

	shipping := rule.FeeCents(lines, subtotal)
	tax := (subtotal*taxRateBps + 5000) / 10000

	return Totals{
		SubtotalCents: subtotal,
		ShippingCents: shipping,
		TaxCents:      tax,
		TotalCents:    subtotal + shipping + tax,
	}
}
