package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/softex1/tably-paket1/hub"
	"github.com/softex1/tably-paket1/middlewares"
	"github.com/softex1/tably-paket1/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// FeedController streams hub events to admin dashboards over websocket.
type FeedController struct {
	Hub      *hub.Hub
	Upgrader websocket.Upgrader
}

func NewFeedController(h *hub.Hub, origins []string) *FeedController {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &FeedController{
		Hub: h,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin] || len(allowed) == 0
			},
		},
	}
}

// Serve -> GET /api/admin/ws
func (fc *FeedController) Serve(c *gin.Context) {
	conn, err := fc.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Errorf("websocket upgrade failed: %v", err)
		return
	}

	sub := fc.Hub.Subscribe(c.GetString(middlewares.ContextUsername))
	done := make(chan struct{})
	go fc.writePump(conn, sub, done)

	// reads only keep the pong deadline fresh and notice disconnects
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	close(done)
	fc.Hub.Unsubscribe(sub)
}

func (fc *FeedController) writePump(conn *websocket.Conn, sub *hub.Subscriber, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case <-done:
			return
		case msg, ok := <-sub.C():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				utils.ErrorLogger.Errorf("websocket write failed: %v", err)
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
