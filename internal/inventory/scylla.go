package inventory

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"github.com/Elisee98/markethub-sub001/internal/database"
	"github.com/Elisee98/markethub-sub001/internal/models"
)

// ScyllaLedger implémente Ledger sur le keyspace products. La décrémentation
// utilise une LWT (`IF stock = ?`) : la garde conditionnelle remplace le
// read-then-write qui perdait des mises à jour sous checkouts concurrents.
type ScyllaLedger struct {
	LowStockThreshold int
}

func NewScyllaLedger() *ScyllaLedger {
	return &ScyllaLedger{LowStockThreshold: 10}
}

func (l *ScyllaLedger) Product(ctx context.Context, productID string) (*models.ProductInfo, error) {
	session, err := database.GetProductsSession()
	if err != nil {
		return nil, err
	}

	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, ErrProductNotFound
	}

	var p models.ProductInfo
	var imageURLs []string
	err = session.Query(`SELECT product_id, vendor_id, name, price_cents, stock, is_active, image_urls
	                     FROM products WHERE product_id = ?`, gocql.UUID(pid)).
		WithContext(ctx).
		Scan(&p.ID, &p.VendorID, &p.Name, &p.PriceCents, &p.Stock, &p.IsActive, &imageURLs)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if len(imageURLs) > 0 {
		p.ImageURL = imageURLs[0]
	}
	return &p, nil
}

func (l *ScyllaLedger) Reserve(ctx context.Context, productID string, qty int, orderID string) error {
	session, err := database.GetProductsSession()
	if err != nil {
		return err
	}

	p, err := l.Product(ctx, productID)
	if err != nil {
		return err
	}
	if p.Stock < qty {
		return &InsufficientStockError{ProductID: productID, Requested: qty, Available: p.Stock}
	}

	// Décrément conditionnel : si le stock a bougé entre la lecture et ici,
	// la LWT n'est pas appliquée et on remonte un conflit retentable.
	applied, err := session.Query(`UPDATE products SET stock = ? WHERE product_id = ? IF stock = ?`,
		p.Stock-qty, p.ID, p.Stock).
		WithContext(ctx).
		ScanCAS(nil)
	if err != nil {
		return err
	}
	if !applied {
		return ErrStockConflict
	}

	l.recordMovement(ctx, p, "sale", -qty, p.Stock, p.Stock-qty, "commande "+orderID, orderID, "")
	l.checkLowStock(ctx, p, p.Stock-qty)
	return nil
}

func (l *ScyllaLedger) Restore(ctx context.Context, productID string, qty int, orderID string) error {
	session, err := database.GetProductsSession()
	if err != nil {
		return err
	}

	// Le restock doit aboutir : on réessaie la CAS quelques fois si un autre
	// checkout touche le même produit au même moment.
	for attempt := 0; attempt < 5; attempt++ {
		p, err := l.Product(ctx, productID)
		if err != nil {
			return err
		}

		applied, err := session.Query(`UPDATE products SET stock = ? WHERE product_id = ? IF stock = ?`,
			p.Stock+qty, p.ID, p.Stock).
			WithContext(ctx).
			ScanCAS(nil)
		if err != nil {
			return err
		}
		if applied {
			l.recordMovement(ctx, p, "return", qty, p.Stock, p.Stock+qty, "annulation commande "+orderID, orderID, "")
			return nil
		}
		time.Sleep(time.Duration(attempt+1) * 10 * time.Millisecond)
	}
	return ErrStockConflict
}

func (l *ScyllaLedger) Adjust(ctx context.Context, productID string, delta int, absolute bool, reason, actorID string) (int, error) {
	session, err := database.GetProductsSession()
	if err != nil {
		return 0, err
	}

	for attempt := 0; attempt < 5; attempt++ {
		p, err := l.Product(ctx, productID)
		if err != nil {
			return 0, err
		}

		newStock := p.Stock + delta
		movementType := "restock"
		if absolute {
			newStock = delta
			movementType = "adjustment"
		}
		if newStock < 0 {
			return 0, fmt.Errorf("le stock ne peut pas être négatif")
		}

		applied, err := session.Query(`UPDATE products SET stock = ? WHERE product_id = ? IF stock = ?`,
			newStock, p.ID, p.Stock).
			WithContext(ctx).
			ScanCAS(nil)
		if err != nil {
			return 0, err
		}
		if applied {
			l.recordMovement(ctx, p, movementType, newStock-p.Stock, p.Stock, newStock, reason, "", actorID)
			l.checkLowStock(ctx, p, newStock)
			return newStock, nil
		}
	}
	return 0, ErrStockConflict
}

func (l *ScyllaLedger) Movements(ctx context.Context, productID string, limit int) ([]models.StockMovement, error) {
	session, err := database.GetProductsSession()
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, ErrProductNotFound
	}

	iter := session.Query(`SELECT id, product_id, type, quantity, prev_stock, new_stock, reason, order_id, actor_id, created_at
	                       FROM stock_movements WHERE product_id = ? LIMIT ?`, gocql.UUID(pid), limit).
		WithContext(ctx).Iter()
	defer iter.Close()

	var movements []models.StockMovement
	var m models.StockMovement
	for iter.Scan(&m.ID, &m.ProductID, &m.Type, &m.Quantity, &m.PrevStock, &m.NewStock,
		&m.Reason, &m.OrderID, &m.ActorID, &m.CreatedAt) {
		movements = append(movements, m)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return movements, nil
}

// OpenAlerts liste les alertes non résolues pour le tableau de bord admin.
func (l *ScyllaLedger) OpenAlerts(ctx context.Context) ([]models.StockAlert, error) {
	session, err := database.GetProductsSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT id, product_id, product_name, current_stock, threshold_stock, alert_type, is_resolved, created_at
	                       FROM stock_alerts WHERE is_resolved = false ALLOW FILTERING`).
		WithContext(ctx).Iter()

	var alerts []models.StockAlert
	var a models.StockAlert
	for iter.Scan(&a.ID, &a.ProductID, &a.ProductName, &a.CurrentStock, &a.ThresholdStock, &a.AlertType, &a.IsResolved, &a.CreatedAt) {
		alerts = append(alerts, a)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return alerts, nil
}

func (l *ScyllaLedger) recordMovement(ctx context.Context, p *models.ProductInfo, movementType string,
	qty, prevStock, newStock int, reason, orderID, actorID string) {

	session, err := database.GetProductsSession()
	if err != nil {
		return
	}

	var orderUUID *gocql.UUID
	if orderID != "" {
		if oid, err := uuid.Parse(orderID); err == nil {
			u := gocql.UUID(oid)
			orderUUID = &u
		}
	}

	if err := session.Query(`INSERT INTO stock_movements (id, product_id, type, quantity, prev_stock, new_stock, reason, order_id, actor_id, created_at)
	                         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		gocql.TimeUUID(), p.ID, movementType, qty, prevStock, newStock, reason, orderUUID, actorID, time.Now()).
		WithContext(ctx).Exec(); err != nil {
		log.Printf("⚠️ Erreur enregistrement mouvement stock: %v", err)
	}
}

// checkLowStock crée une alerte quand un produit passe sous le seuil, sans
// dupliquer une alerte déjà ouverte.
func (l *ScyllaLedger) checkLowStock(ctx context.Context, p *models.ProductInfo, newStock int) {
	threshold := l.LowStockThreshold
	var alertType string
	switch {
	case newStock == 0:
		alertType = "out_of_stock"
	case newStock <= threshold:
		alertType = "low_stock"
	default:
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		return
	}

	var existing gocql.UUID
	if err := session.Query(`SELECT id FROM stock_alerts WHERE product_id = ? AND is_resolved = false LIMIT 1 ALLOW FILTERING`, p.ID).
		WithContext(ctx).Scan(&existing); err == nil {
		return
	}

	if err := session.Query(`INSERT INTO stock_alerts (id, product_id, product_name, current_stock, threshold_stock, alert_type, is_resolved, created_at)
	                         VALUES (?, ?, ?, ?, ?, ?, false, ?)`,
		gocql.TimeUUID(), p.ID, p.Name, newStock, threshold, alertType, time.Now()).
		WithContext(ctx).Exec(); err != nil {
		log.Printf("⚠️ Erreur création alerte stock: %v", err)
	} else {
		log.Printf("🚨 Alerte stock créée pour %s: %s", p.Name, alertType)
	}
}
