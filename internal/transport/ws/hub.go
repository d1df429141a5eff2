package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/cwrk-planet/fleet-service/internal/domain"

	"github.com/google/uuid"
)

type Conn interface {
	Send(msg Message) error
	SendRaw(data []byte) error
	IsOpen() bool
	Close() error
}

// entry — запись о живом соединении. Роль и userID пустые до auth
// и выставляются ровно один раз.
type entry struct {
	conn       Conn
	role       domain.Role
	userID     string
	identified bool
}

// Hub — реестр соединений + диспетчер рассылки по ролям.
// Создаётся один раз на процесс и передаётся явно, без глобального состояния.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*entry
	order []string // порядок регистрации
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]*entry)}
}

// Register заводит запись для нового соединения и возвращает её id.
func (h *Hub) Register(c Conn) string {
	id := uuid.New().String()

	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[id] = &entry{conn: c}
	h.order = append(h.order, id)
	return id
}

// Identify выставляет роль и userID один раз. Неизвестный id (соединение
// уже закрыто) и повторный вызов молча игнорируются.
func (h *Hub) Identify(id string, role domain.Role, userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.conns[id]
	if !ok || e.identified {
		return false
	}
	e.role = role
	e.userID = userID
	e.identified = true
	return true
}

// Identity возвращает роль и userID соединения.
func (h *Hub) Identity(id string) (domain.Role, string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	e, ok := h.conns[id]
	if !ok || !e.identified {
		return "", "", false
	}
	return e.role, e.userID, true
}

// Remove удаляет запись. Идемпотентно.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[id]; !ok {
		return
	}
	delete(h.conns, id)
	for i, oid := range h.order {
		if oid == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// ForEachOfRole обходит идентифицированные соединения роли в порядке
// регистрации на момент вызова.
func (h *Hub) ForEachOfRole(role domain.Role, fn func(c Conn)) {
	for _, c := range h.snapshot(role) {
		fn(c)
	}
}

// Broadcast сериализует msg один раз и пишет кадр каждому открытому
// соединению роли. Закрытые пропускаются (их убирает close-handler),
// ошибка записи одному получателю не прерывает рассылку остальным.
func (h *Hub) Broadcast(role domain.Role, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("ws marshal broadcast failed", "type", msg.Type, "err", err)
		return
	}

	for _, c := range h.snapshot(role) {
		if !c.IsOpen() {
			continue
		}
		if err := c.SendRaw(data); err != nil {
			slog.Debug("ws broadcast send failed", "type", msg.Type, "err", err)
		}
	}
}

func (h *Hub) snapshot(role domain.Role) []Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Conn, 0, len(h.order))
	for _, id := range h.order {
		e := h.conns[id]
		if e.identified && e.role == role {
			out = append(out, e.conn)
		}
	}
	return out
}
