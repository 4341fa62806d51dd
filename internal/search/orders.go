// Package search indexe les commandes dans Elasticsearch pour la recherche
// admin (numéro, client, statut). L'index est une projection : la vérité
// reste dans ScyllaDB.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/Elisee98/markethub-sub001/internal/database"
	"github.com/Elisee98/markethub-sub001/internal/models"
)

const ordersIndex = "orders"

type orderDocument struct {
	OrderID       string    `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	CustomerID    string    `json:"customer_id"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	TotalCents    int64     `json:"total_cents"`
	ItemCount     int       `json:"item_count"`
	VendorIDs     []string  `json:"vendor_ids"`
	CreatedAt     time.Time `json:"created_at"`
}

// IndexOrder pousse une projection de la commande dans Elasticsearch.
// Best-effort : une indexation ratée se retente au prochain changement de statut.
func IndexOrder(order *models.Order) {
	if database.Elastic == nil {
		log.Println("⚠️ Elastic non initialisé, impossible d'indexer:", order.OrderNumber)
		return
	}

	vendorSet := map[string]struct{}{}
	for _, item := range order.Items {
		vendorSet[item.VendorID.String()] = struct{}{}
	}
	vendorIDs := make([]string, 0, len(vendorSet))
	for id := range vendorSet {
		vendorIDs = append(vendorIDs, id)
	}

	doc := orderDocument{
		OrderID:       order.ID.String(),
		OrderNumber:   order.OrderNumber,
		CustomerID:    order.CustomerID,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		TotalCents:    order.TotalCents,
		ItemCount:     len(order.Items),
		VendorIDs:     vendorIDs,
		CreatedAt:     order.CreatedAt,
	}

	data, _ := json.Marshal(doc)
	req := esapi.IndexRequest{
		Index:      ordersIndex,
		DocumentID: doc.OrderID,
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}

	res, err := req.Do(context.Background(), database.Elastic)
	if err != nil {
		log.Println("❌ Erreur envoi Elastic:", err)
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Printf("⚠️ Elastic a renvoyé une erreur pour %s: %s", order.OrderNumber, res.String())
	} else {
		log.Printf("✅ Commande indexée dans Elasticsearch: %s", order.OrderNumber)
	}
}

// SearchOrders recherche les commandes par numéro ou identifiant client,
// avec filtre optionnel sur le statut.
func SearchOrders(query, status string) ([]map[string]interface{}, error) {
	if database.Elastic == nil {
		return nil, errors.New("client Elasticsearch non initialisé")
	}

	must := []map[string]interface{}{}
	if query != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"order_number", "customer_id", "vendor_ids"},
			},
		})
	}
	if status != "" {
		must = append(must, map[string]interface{}{
			"term": map[string]interface{}{"status": status},
		})
	}

	var buf bytes.Buffer
	q := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"must": must},
		},
		"sort": []map[string]interface{}{
			{"created_at": map[string]interface{}{"order": "desc"}},
		},
	}
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("erreur encodage requête: %v", err)
	}

	req := esapi.SearchRequest{
		Index: []string{ordersIndex},
		Body:  &buf,
	}
	res, err := req.Do(context.Background(), database.Elastic)
	if err != nil {
		return nil, fmt.Errorf("erreur requête Elastic: %v", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		json.NewDecoder(res.Body).Decode(&e)
		log.Printf("❌ Elasticsearch erreur: %+v", e)
		return nil, errors.New("index non trouvé ou vide")
	}

	var r map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("erreur décodage JSON: %v", err)
	}

	hitsData, ok := r["hits"].(map[string]interface{})
	if !ok {
		return nil, errors.New("réponse Elastic invalide (pas de hits)")
	}

	hitsArray, ok := hitsData["hits"].([]interface{})
	if !ok {
		return nil, errors.New("aucun résultat trouvé")
	}

	results := make([]map[string]interface{}, 0, len(hitsArray))
	for _, hit := range hitsArray {
		hitMap, _ := hit.(map[string]interface{})
		if source, ok := hitMap["_source"].(map[string]interface{}); ok {
			results = append(results, source)
		}
	}

	return results, nil
}
