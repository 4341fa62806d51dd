// Package events publie les événements métier du cycle de commande. Le cœur
// n'envoie jamais d'email et ne formate rien : il émet, les collaborateurs
// (notifications, indexation, websocket) consomment.
package events

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type Type string

const (
	OrderPlaced        Type = "order_placed"
	OrderCancelled     Type = "order_cancelled"
	OrderStatusChanged Type = "order_status_changed"
	PaymentCompleted   Type = "payment_completed"
	PaymentFailed      Type = "payment_failed"
)

// Event transporte le minimum nécessaire aux consommateurs ; ceux qui veulent
// le détail rechargent la commande.
type Event struct {
	Type        Type      `json:"type"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CustomerID  string    `json:"customer_id"`
	Status      string    `json:"status,omitempty"`
	TotalCents  int64     `json:"total_cents,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

const Channel = "markethub:order-events"

// RedisPublisher publie en pub/sub Redis, fire-and-forget : une notification
// perdue ne doit jamais faire échouer un commit.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, Channel, data).Err(); err != nil {
		log.Printf("⚠️ Erreur publication événement %s: %v", ev.Type, err)
		return err
	}
	return nil
}

// Subscribe consomme le canal d'événements et appelle handler pour chacun.
// Bloque jusqu'à annulation du contexte ; à lancer dans une goroutine.
func Subscribe(ctx context.Context, client *redis.Client, handler func(Event)) {
	sub := client.Subscribe(ctx, Channel)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("⚠️ Événement illisible: %v", err)
				continue
			}
			handler(ev)
		}
	}
}

// Recorder garde les événements en mémoire, pour les tests. Sûr pour des
// publications concurrentes.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, ev)
	return nil
}

// ByType retourne les événements enregistrés d'un type donné.
func (r *Recorder) ByType(t Type) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.Events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}
