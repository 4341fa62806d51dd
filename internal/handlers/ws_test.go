package handlers

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Elisee98/markethub-sub001/internal/events"
)

// Les diffusions partent dès l'enregistrement dans le hub, pendant que le
// message d'accueil est encore en vol : toutes les écritures doivent passer
// par le même verrou de connexion.
func TestWebSocketGreetingAndBroadcastsAreSerialized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/orders", func(c *gin.Context) {
		c.Set("user_id", "u-ws")
		OrderEventsWebSocket(c)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/orders"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.conns["u-ws"]) == 1
	}, time.Second, time.Millisecond)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			BroadcastOrderEvent(events.Event{
				Type:       events.OrderStatusChanged,
				OrderID:    "o1",
				CustomerID: "u-ws",
				Status:     "shipped",
				OccurredAt: time.Now(),
			})
		}()
	}

	// accueil + n diffusions, chaque trame intacte
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var greetings, broadcasts int
	for i := 0; i < n+1; i++ {
		var msg map[string]interface{}
		require.NoError(t, conn.ReadJSON(&msg))
		if msg["type"] == "connected" {
			greetings++
		} else {
			broadcasts++
		}
	}
	wg.Wait()

	assert.Equal(t, 1, greetings)
	assert.Equal(t, n, broadcasts)
}
