package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/cwrk-planet/fleet-service/internal/domain"

	"github.com/gorilla/websocket"
)

type SnapshotSvc interface {
	ActiveBuses(ctx context.Context) ([]domain.Bus, error)
	BusForDriver(ctx context.Context, driverID string) (*domain.Bus, error)
}

type LocationSvc interface {
	UpdateLocation(ctx context.Context, driverID string, loc domain.Location) (busID string, err error)
}

type Server struct {
	upgrader    websocket.Upgrader
	hub         *Hub
	snapshotSvc SnapshotSvc
	locationSvc LocationSvc

	pingEvery time.Duration
}

func NewServer(hub *Hub, snapshot SnapshotSvc, location LocationSvc) *Server {
	return &Server{
		hub:         hub,
		snapshotSvc: snapshot,
		locationSvc: location,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
}

func (s *Server) SetPingInterval(d time.Duration) {
	if d > 0 {
		s.pingEvery = d
	}
}

// WS endpoint: GET /ws. Апгрейд без авторизации: идентичность приходит
// первым auth-кадром уже внутри канала.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWsConn(conn)
	id := s.hub.Register(c)

	go s.writeLoop(r.Context(), c)
	s.readLoop(r.Context(), c, id)

	// запись уходит из реестра сразу после выхода read loop,
	// до этого Broadcast пропускает соединение по IsOpen
	s.hub.Remove(id)

	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "conn", id, "err", err)
	}
}

// NotifyAdmins рассылает созданный инцидент всем admin-соединениям.
// Вызывается REST-путём после durable-записи; best-effort.
func (s *Server) NotifyAdmins(inc *domain.IncidentDetails) {
	s.hub.Broadcast(domain.RoleAdmin, Message{Type: TypeNewIncident, Data: incidentItem(inc)})
}

func (s *Server) readLoop(ctx context.Context, c *wsConn, id string) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 20)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			slog.Debug("ws bad frame", "conn", id, "err", err)
			continue
		}

		switch f.Type {
		case TypeAuth:
			s.handleAuth(ctx, c, id, f)
		case TypeUpdateLocation:
			s.handleUpdateLocation(ctx, id, f)
		default:
			slog.Debug("ws unknown event type", "conn", id, "type", f.Type)
		}
	}
}

// handleAuth: Unauthenticated -> Identified, ровно один раз.
// Кривой кадр оставляет соединение неидентифицированным, повторный auth — no-op.
func (s *Server) handleAuth(ctx context.Context, c *wsConn, id string, f frame) {
	if _, _, ok := s.hub.Identity(id); ok {
		return
	}

	role, ok := domain.ParseRole(f.Role)
	if !ok {
		slog.Debug("ws auth with bad role", "conn", id, "role", f.Role)
		return
	}
	userID, ok := normalizeUserID(f.UserID)
	if !ok {
		slog.Debug("ws auth without userId", "conn", id)
		return
	}

	if !s.hub.Identify(id, role, userID) {
		return
	}

	if err := s.sendSnapshot(ctx, c, role, userID); err != nil {
		slog.Warn("ws send snapshot failed", "conn", id, "role", role, "err", err)
	}
}

func (s *Server) sendSnapshot(ctx context.Context, c *wsConn, role domain.Role, userID string) error {
	switch role {
	case domain.RolePassenger:
		buses, err := s.snapshotSvc.ActiveBuses(ctx)
		if err != nil {
			return err
		}
		items := make([]BusItem, 0, len(buses))
		for i := range buses {
			items = append(items, busItem(&buses[i]))
		}
		return c.Send(Message{Type: TypeBusLocations, Data: items})

	case domain.RoleDriver:
		bus, err := s.snapshotSvc.BusForDriver(ctx, userID)
		if err != nil {
			return err
		}
		if bus == nil {
			// водитель без автобуса: снапшот не отправляется вовсе
			return nil
		}
		return c.Send(Message{Type: TypeBusRoute, Data: busItem(bus)})
	}

	// админам снапшот не положен, только newIncident
	return nil
}

// handleUpdateLocation: телеметрия от водителя, fire-and-forget.
// Любой сбой деградирует к «отбросить событие», частичных записей нет.
func (s *Server) handleUpdateLocation(ctx context.Context, id string, f frame) {
	role, userID, ok := s.hub.Identity(id)
	if !ok || role != domain.RoleDriver {
		return
	}

	if f.Location == nil || f.Location.Lat == nil || f.Location.Lng == nil {
		slog.Debug("ws updateLocation with bad payload", "conn", id)
		return
	}
	loc := domain.Location{Lat: *f.Location.Lat, Lng: *f.Location.Lng}

	busID, err := s.locationSvc.UpdateLocation(ctx, userID, loc)
	if err != nil {
		slog.Warn("ws update location failed", "conn", id, "driver", userID, "err", err)
		return
	}
	if busID == "" {
		// за водителем не закреплён автобус
		return
	}

	s.hub.Broadcast(domain.RolePassenger, Message{
		Type: TypeBusLocationUpdate,
		Data: BusLocationUpdatePayload{BusID: busID, Location: loc},
	})
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}

// --- wsConn ---

type wsConn struct {
	conn   *websocket.Conn
	sendMu chan struct{}
	closed chan struct{}
}

func newWsConn(c *websocket.Conn) *wsConn {
	return &wsConn{
		conn:   c,
		sendMu: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) Send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.SendRaw(data)
}

func (c *wsConn) SendRaw(data []byte) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) IsOpen() bool {
	select {
	case <-c.closed:
		return false
	default:
		return true
	}
}

func (c *wsConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}

	return c.conn.Close()
}
