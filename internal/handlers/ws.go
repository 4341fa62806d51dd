package handlers

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Elisee98/markethub-sub001/internal/events"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Autoriser toutes les origines (à ajuster en production)
		return true
	},
}

// wsClient sérialise les écritures sur une connexion : gorilla/websocket
// interdit les écrivains concurrents.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) send(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// hub garde les connexions WebSocket ouvertes, par client.
var hub = struct {
	mu    sync.Mutex
	conns map[string][]*wsClient
}{conns: make(map[string][]*wsClient)}

// OrderEventsWebSocket pousse les changements de statut des commandes du
// client en temps réel.
func OrderEventsWebSocket(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ Erreur upgrade WebSocket: %v", err)
		return
	}

	client := &wsClient{conn: conn}
	hub.mu.Lock()
	hub.conns[userID] = append(hub.conns[userID], client)
	hub.mu.Unlock()
	defer dropConn(userID, client)

	client.send(map[string]interface{}{
		"type":    "connected",
		"message": "Suivi de commandes activé",
	})

	// La boucle de lecture ne sert qu'à détecter la déconnexion ; les
	// messages partent depuis BroadcastOrderEvent.
	conn.SetReadDeadline(time.Now().Add(24 * time.Hour))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// BroadcastOrderEvent pousse un événement de commande vers les connexions du
// client concerné.
func BroadcastOrderEvent(ev events.Event) {
	hub.mu.Lock()
	clients := append([]*wsClient(nil), hub.conns[ev.CustomerID]...)
	hub.mu.Unlock()

	for _, client := range clients {
		if err := client.send(map[string]interface{}{
			"type":         string(ev.Type),
			"order_id":     ev.OrderID,
			"order_number": ev.OrderNumber,
			"status":       ev.Status,
			"occurred_at":  ev.OccurredAt,
		}); err != nil {
			log.Printf("❌ Erreur envoi WebSocket: %v", err)
			dropConn(ev.CustomerID, client)
		}
	}
}

func dropConn(userID string, client *wsClient) {
	client.conn.Close()
	hub.mu.Lock()
	defer hub.mu.Unlock()

	kept := hub.conns[userID][:0]
	for _, c := range hub.conns[userID] {
		if c != client {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		delete(hub.conns, userID)
	} else {
		hub.conns[userID] = kept
	}
}
