// Package handlers expose le moteur de commandes en HTTP : panier, checkout,
// cycle de vie des commandes, suivi, factures et endpoints admin.
package handlers

import (
	"github.com/Elisee98/markethub-sub001/internal/cart"
	"github.com/Elisee98/markethub-sub001/internal/inventory"
	"github.com/Elisee98/markethub-sub001/internal/orders"
)

var (
	Carts  *cart.Service
	Orders *orders.Service
	Stock  inventory.Ledger
)

// Init branche les services construits au démarrage. À appeler avant
// d'enregistrer les routes.
func Init(carts *cart.Service, orderSvc *orders.Service, stock inventory.Ledger) {
	Carts = carts
	Orders = orderSvc
	Stock = stock
}
