package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"kindergarten_server/pkg/constants"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Client 一条 WebSocket 连接
type Client struct {
	Conn     *websocket.Conn
	UserID   uint
	SendBack chan []byte // 待推送给前端的消息
	hub      *Hub
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 2048,
	// 前后端分离部署时跨域，Origin 校验交给网关
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub 维护在线连接
// 登录登出通过 channel 交给 Start 循环串行处理，Push 只读
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]map[*Client]struct{}

	login  chan *Client
	logout chan *Client
	done   chan struct{}
	once   sync.Once
}

// NewHub 创建推送网关
func NewHub() *Hub {
	return &Hub{
		clients: make(map[uint]map[*Client]struct{}),
		login:   make(chan *Client),
		logout:  make(chan *Client),
		done:    make(chan struct{}),
	}
}

// Start 处理登录登出，阻塞直到 ctx 取消或 Close
func (h *Hub) Start(ctx context.Context) {
	for {
		select {
		case c := <-h.login:
			h.mu.Lock()
			set, ok := h.clients[c.UserID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[c.UserID] = set
			}
			set[c] = struct{}{}
			h.mu.Unlock()
			zap.L().Debug("ws client login", zap.Uint("user_id", c.UserID))
		case c := <-h.logout:
			h.remove(c)
		case <-ctx.Done():
			h.closeAll()
			return
		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// remove 从在线表删除并关闭发送通道
// 在持有写锁时关闭，Push 持读锁发送，不会向已关闭的通道写入
func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
	close(c.SendBack)
	zap.L().Debug("ws client logout", zap.Uint("user_id", c.UserID))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for uid, set := range h.clients {
		for c := range set {
			close(c.SendBack)
		}
		delete(h.clients, uid)
	}
}

// Close 停止网关并断开全部连接
func (h *Hub) Close() {
	h.once.Do(func() { close(h.done) })
}

// Push 非阻塞写入用户全部连接的发送通道，通道满的连接丢弃本条消息
func (h *Hub) Push(userID uint, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := false
	for c := range h.clients[userID] {
		select {
		case c.SendBack <- payload:
			delivered = true
		default:
			zap.L().Warn("ws send buffer full, message dropped", zap.Uint("user_id", userID))
		}
	}
	return delivered
}

// Online 用户是否有在线连接
func (h *Hub) Online(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// ServeWS 升级连接并登记，userID 由 JWT 中间件解析
func (h *Hub) ServeWS(c *gin.Context, userID uint) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Error("ws upgrade failed", zap.Error(err))
		return
	}
	client := &Client{
		Conn:     conn,
		UserID:   userID,
		SendBack: make(chan []byte, constants.CHANNEL_SIZE),
		hub:      h,
	}
	select {
	case h.login <- client:
	case <-h.done:
		_ = conn.Close()
		return
	}
	go client.Write()
	go client.Read()
	zap.L().Info("ws连接成功", zap.Uint("user_id", userID))
}

// Read 前端只发送心跳，读到错误即登出
func (c *Client) Read() {
	defer func() {
		select {
		case c.hub.logout <- c:
		case <-c.hub.done:
		}
		_ = c.Conn.Close()
	}()
	c.Conn.SetReadLimit(512)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Warn("ws read error", zap.Error(err))
			}
			return
		}
	}
}

// Write 把 SendBack 中的消息写给前端，定时发送 ping
func (c *Client) Write() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.SendBack:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				zap.L().Error("ws write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
