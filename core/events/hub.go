package events

import (
	"encoding/json"
	"sync"
	"time"

	"tunebox/logger"
)

// EventType 曲库变更事件类型
type EventType string

const (
	SongAdded       EventType = "song_added"
	SongUpdated     EventType = "song_updated"
	SongDeleted     EventType = "song_deleted"
	FavoriteChanged EventType = "favorite_changed"
)

// Event tells subscribers the library changed; they refetch the list.
type Event struct {
	Type      EventType `json:"type"`
	SongID    int64     `json:"songId"`
	Timestamp int64     `json:"timestamp"`
}

// Hub 曲库变更的 WebSocket 广播中心
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu   sync.RWMutex
	done chan struct{}
	once sync.Once
}

// NewHub 创建 Hub，需要调用 Run 启动主循环
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Run 启动 Hub 主循环，Stop 后返回
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			logger.Debug("[Hub] client registered", logger.String("identity", client.Identity))

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeClient(client)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.fanOut(msg)

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				h.removeClient(client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop 停止 Hub 并关闭所有客户端发送通道
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.done) })
}

// removeClient 需要持有写锁
func (h *Hub) removeClient(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.Send)
		logger.Debug("[Hub] client unregistered", logger.String("identity", client.Identity))
	}
}

func (h *Hub) fanOut(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.Send <- msg:
		default:
			// 发送缓冲区满，丢弃慢客户端
			h.removeClient(client)
		}
	}
}

// Register adds a client. It blocks until the hub loop accepts it.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Unregister removes a client; safe to call more than once.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish 广播事件，从不阻塞调用方
func (h *Hub) Publish(e Event) {
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().UnixMilli()
	}
	data, err := json.Marshal(e)
	if err != nil {
		logger.Warn("[Hub] failed to encode event", logger.ErrorField(err))
		return
	}
	select {
	case h.broadcast <- data:
	case <-h.done:
	default:
		logger.Warn("[Hub] broadcast queue full, event dropped", logger.String("type", string(e.Type)))
	}
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
