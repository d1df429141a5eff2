package http

import "time"

type ErrorResponse struct {
	Error string `json:"error"`
}

type CreateIncidentRequest struct {
	BusID       string `json:"busId" validate:"required,uuid4"`
	Type        string `json:"type" validate:"required,oneof=accident breakdown delay other"`
	Description string `json:"description" validate:"required,max=2000"`
	Severity    string `json:"severity" validate:"required,oneof=low medium high critical"`
}

type IncidentItem struct {
	ID          string    `json:"id"`
	BusID       string    `json:"busId"`
	ReportedBy  string    `json:"reportedBy"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

type IncidentsListResponse struct {
	Items      []IncidentItem `json:"items"`
	NextCursor string         `json:"nextCursor,omitempty"`
}
