// internal/service/live/interfaces/ws_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"paddock/internal/pkg/logger"
	"paddock/internal/service/live/application"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool { // 简化处理，允许所有跨域
		return true
	},
}

// Hub 维护所有活跃的连接，按场次分组，并负责榜单广播。
// 它实现了 application.Broadcaster。
type Hub struct {
	lock       sync.RWMutex
	sessions   map[string]map[*Client]struct{} // sessionID -> 订阅该场次的连接
	register   chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run 处理连接的注册与注销，应在独立的 goroutine 中运行。
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.lock.Lock()
			if h.sessions[client.sessionID] == nil {
				h.sessions[client.sessionID] = make(map[*Client]struct{})
			}
			h.sessions[client.sessionID][client] = struct{}{}
			h.lock.Unlock()
			logger.Logger.Info().
				Str("session_id", client.sessionID).
				Str("user_id", client.userID).
				Msg("live client subscribed")
		case client := <-h.unregister:
			h.lock.Lock()
			if clients, ok := h.sessions[client.sessionID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.sessions, client.sessionID)
					}
				}
			}
			h.lock.Unlock()
			logger.Logger.Info().
				Str("session_id", client.sessionID).
				Str("user_id", client.userID).
				Msg("live client unsubscribed")
		}
	}
}

// Broadcast 向一个场次的所有订阅者推送消息。
// 发送缓冲已满的慢客户端直接丢弃本条消息，不阻塞其他订阅者。
func (h *Hub) Broadcast(sessionID string, payload []byte) {
	h.lock.RLock()
	defer h.lock.RUnlock()
	for client := range h.sessions[sessionID] {
		select {
		case client.send <- payload:
		default:
		}
	}
}

// Client 是一个 WebSocket 连接的代表。
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
	userID    string
	onClose   func()
}

// writePump 把 send channel 中的消息写入连接，并周期性发送心跳。
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 消费客户端消息（仅心跳），连接断开时触发注销。
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
		if c.onClose != nil {
			c.onClose()
		}
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// SessionRegistry 维护用户与网关节点的映射，连接建立时登记、断开时清理。
type SessionRegistry interface {
	SetUserGateway(ctx context.Context, userID, nodeID string) error
	ClearUserGateway(ctx context.Context, userID string) error
}

// LiveHandler 处理 WebSocket 升级与会话登记。
type LiveHandler struct {
	hub        *Hub
	service    *application.LiveService
	sessionMgr SessionRegistry
	nodeID     string
}

func NewLiveHandler(hub *Hub, service *application.LiveService, sessionMgr SessionRegistry, nodeID string) *LiveHandler {
	return &LiveHandler{hub: hub, service: service, sessionMgr: sessionMgr, nodeID: nodeID}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *LiveHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.HandleFunc("/ws", h.serveWs)
	mux.HandleFunc("/leaderboard", h.handleLeaderboard)
}

func (h *LiveHandler) serveWs(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	userID := r.URL.Query().Get("userId")
	if sessionID == "" || userID == "" {
		http.Error(w, "sessionId and userId are required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	// 先在 Redis 中登记会话位置再进 Hub。
	// 登记失败时连接还未被任何人引用，直接关掉即可；
	// 反过来的顺序会在 Hub 里留下一个永远不会注销的死客户端。
	if err := h.sessionMgr.SetUserGateway(r.Context(), userID, h.nodeID); err != nil {
		logger.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to register session location")
		conn.Close()
		return
	}

	client := &Client{hub: h.hub, conn: conn, send: make(chan []byte, 256), sessionID: sessionID, userID: userID}
	client.onClose = func() {
		if err := h.sessionMgr.ClearUserGateway(context.Background(), userID); err != nil {
			logger.Logger.Warn().Err(err).Str("user_id", userID).Msg("failed to clear session location")
		}
	}
	h.hub.register <- client

	go client.writePump()
	go client.readPump()

	// 新订阅者立刻收到当前榜单，而不是等下一次更新
	if snapshot, err := h.service.Snapshot(context.Background(), sessionID); err == nil {
		if payload, err := json.Marshal(snapshot); err == nil {
			select {
			case client.send <- payload:
			default:
			}
		}
	}
}

// handleLeaderboard 是 HTTP 拉取口径，给不方便保持长连接的客户端用。
func (h *LiveHandler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "sessionId is required", http.StatusBadRequest)
		return
	}

	snapshot, err := h.service.Snapshot(r.Context(), sessionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshot)
}
