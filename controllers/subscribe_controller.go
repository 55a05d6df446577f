package controllers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Rajvansh-1/starbucks-rewards-api/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is token-authenticated; cross-origin browser clients are
	// expected.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 45 * time.Second
)

// SubscribeOrder handles GET /api/v1/ws/orders/:id - streams lifecycle
// events for one order. The owning customer and staff/admin may subscribe.
func SubscribeOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	// Authorization mirrors reads: looking the order up also confirms it
	// exists before the connection is upgraded.
	if _, err := services.GetOrderService().GetOrder(orderID, actorFor(user)); err != nil {
		respondOrderError(c, err)
		return
	}

	streamChannel(c, services.OrderChannel(orderID))
}

// SubscribeStore handles GET /api/v1/ws/stores/:id - streams every order
// event for a store. Staff and admin only.
func SubscribeStore(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if !user.IsStaff() {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only staff can subscribe to store events",
			},
		})
		return
	}

	storeID, ok := orderIDParam(c)
	if !ok {
		return
	}

	streamChannel(c, services.StoreChannel(storeID))
}

// SubscribeNotifications handles GET /api/v1/ws/notifications - streams the
// authenticated customer's own notification channel.
func SubscribeNotifications(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	streamChannel(c, services.NotificationsChannel(user.ID))
}

// streamChannel upgrades the connection and pumps broadcaster events to the
// client until either side disconnects. Events missed while offline are not
// replayed; clients reconcile with a fresh read on reconnect.
func streamChannel(c *gin.Context, channel string) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade websocket on %s: %v", channel, err)
		return
	}

	sub := services.GetBroadcaster().Subscribe(channel)

	// Reader: we never expect client messages, but the read loop surfaces
	// close frames and pong responses.
	go func() {
		defer sub.Close()
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.Close()
		_ = conn.Close()
	}()

	for {
		select {
		case event, open := <-sub.C:
			if !open {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				log.Printf("Dropping subscriber on %s: %v", channel, err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
