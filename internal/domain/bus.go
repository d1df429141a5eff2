package domain

import "time"

// Статусы автобуса в БД
const (
	BusStatusActive      = "active"
	BusStatusInactive    = "inactive"
	BusStatusMaintenance = "maintenance"
)

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Stop struct {
	ID       string   `db:"id"`
	RouteID  string   `db:"route_id"`
	Name     string   `db:"name"`
	Position int      `db:"position"`
	Location Location `db:"-"`
}

type Route struct {
	ID   string `db:"id"`
	Name string `db:"name"`

	// отсортированы по position ASC
	Stops []Stop `db:"-"`
}

type Bus struct {
	ID          string    `db:"id"`
	PlateNumber string    `db:"plate_number"`
	DriverID    string    `db:"driver_id"`
	RouteID     string    `db:"route_id"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`

	// nil, пока водитель ни разу не отправил координаты
	CurrentLocation *Location `db:"-"`

	Route *Route `db:"-"`
}
