package domain

import "time"

const (
	IncidentStatusOpen     = "open"
	IncidentStatusResolved = "resolved"
)

type Incident struct {
	ID          string    `db:"id"`
	BusID       string    `db:"bus_id"`
	ReportedBy  string    `db:"reported_by"`
	Type        string    `db:"type"`
	Description string    `db:"description"`
	Severity    string    `db:"severity"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
}

type Reporter struct {
	ID          string  `db:"id"`
	DisplayName *string `db:"display_name"`
}

// IncidentDetails — инцидент вместе с автобусом и автором;
// именно в таком виде запись уходит админам по WS.
type IncidentDetails struct {
	Incident
	Bus      *Bus      `db:"-"`
	Reporter *Reporter `db:"-"`
}
