package ws

import (
	"encoding/json"

	"github.com/cwrk-planet/fleet-service/internal/domain"
)

// Типы событий, которые поступают в WS
const (
	TypeAuth           = "auth"           // декларация идентичности (role + userId)
	TypeUpdateLocation = "updateLocation" // координаты от водителя
)

// Типы исходящих событий
const (
	TypeBusLocations      = "busLocations"      // снапшот пассажиру после auth
	TypeBusRoute          = "busRoute"          // снапшот водителю после auth
	TypeBusLocationUpdate = "busLocationUpdate" // fan-out координат пассажирам
	TypeNewIncident       = "newIncident"       // fan-out инцидента админам
)

type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// frame — входящий кадр; поля auth и updateLocation лежат на верхнем уровне.
// UserID остаётся сырым токеном: клиенты шлют его и строкой, и числом,
// и числовые id не должны терять точность на float64.
type frame struct {
	Type string `json:"type"`

	UserID json.RawMessage `json:"userId,omitempty"`
	Role   string          `json:"role,omitempty"`

	Location *LocationPayload `json:"location,omitempty"`
}

// LocationPayload — указатели, чтобы отличить отсутствующее поле от нуля.
type LocationPayload struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type BusLocationUpdatePayload struct {
	BusID    string          `json:"busId"`
	Location domain.Location `json:"location"`
}

type StopItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Position int     `json:"position"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

type RouteItem struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Stops []StopItem `json:"stops"`
}

type BusItem struct {
	ID          string           `json:"id"`
	PlateNumber string           `json:"plateNumber"`
	Status      string           `json:"status"`
	Location    *domain.Location `json:"location,omitempty"`
	Route       *RouteItem       `json:"route,omitempty"`
}

type IncidentItem struct {
	ID          string        `json:"id"`
	BusID       string        `json:"busId"`
	Type        string        `json:"type"`
	Description string        `json:"description"`
	Severity    string        `json:"severity"`
	Status      string        `json:"status"`
	CreatedAt   int64         `json:"createdAtUnix"`
	Bus         *BusItem      `json:"bus,omitempty"`
	Reporter    *ReporterItem `json:"reporter,omitempty"`
}

type ReporterItem struct {
	ID          string  `json:"id"`
	DisplayName *string `json:"displayName,omitempty"`
}

func busItem(b *domain.Bus) BusItem {
	item := BusItem{
		ID:          b.ID,
		PlateNumber: b.PlateNumber,
		Status:      b.Status,
		Location:    b.CurrentLocation,
	}
	if b.Route != nil {
		rt := RouteItem{
			ID:    b.Route.ID,
			Name:  b.Route.Name,
			Stops: make([]StopItem, 0, len(b.Route.Stops)),
		}
		for _, s := range b.Route.Stops {
			rt.Stops = append(rt.Stops, StopItem{
				ID:       s.ID,
				Name:     s.Name,
				Position: s.Position,
				Lat:      s.Location.Lat,
				Lng:      s.Location.Lng,
			})
		}
		item.Route = &rt
	}
	return item
}

func incidentItem(inc *domain.IncidentDetails) IncidentItem {
	item := IncidentItem{
		ID:          inc.ID,
		BusID:       inc.BusID,
		Type:        inc.Type,
		Description: inc.Description,
		Severity:    inc.Severity,
		Status:      inc.Status,
		CreatedAt:   inc.CreatedAt.Unix(),
	}
	if inc.Bus != nil {
		b := busItem(inc.Bus)
		item.Bus = &b
	}
	if inc.Reporter != nil {
		item.Reporter = &ReporterItem{
			ID:          inc.Reporter.ID,
			DisplayName: inc.Reporter.DisplayName,
		}
	}
	return item
}

// normalizeUserID приводит userId из auth-кадра к каноничной строке.
// Числа разбираются как json.Number, чтобы id больше 2^53 не плыли.
func normalizeUserID(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return "", false
		}
		return s, true
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}

	return "", false
}
