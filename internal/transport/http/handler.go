package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cwrk-planet/fleet-service/internal/domain"
	"github.com/cwrk-planet/fleet-service/internal/postgres"
	httpmw "github.com/cwrk-planet/fleet-service/internal/transport/http/middleware"

	"github.com/go-playground/validator/v10"
)

type IncidentSvc interface {
	Report(ctx context.Context, inc *domain.Incident) (*domain.IncidentDetails, error)
	History(ctx context.Context, limit int, cursor string) ([]domain.Incident, string, error)
}

type Handler struct {
	incidentSvc IncidentSvc
	validate    *validator.Validate
}

func NewHandler(incident IncidentSvc) *Handler {
	return &Handler{
		incidentSvc: incident,
		validate:    validator.New(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// POST /incidents — durable-запись, ответ 201, fan-out админам внутри сервиса.
func (h *Handler) CreateIncident(w http.ResponseWriter, r *http.Request) {
	var req CreateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("handler.CreateIncident.Decode:", slog.Any("err", err))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	userID := httpmw.UserIDFromCtx(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing user id"})
		return
	}

	inc := &domain.Incident{
		BusID:       req.BusID,
		ReportedBy:  userID,
		Type:        req.Type,
		Description: req.Description,
		Severity:    req.Severity,
	}
	det, err := h.incidentSvc.Report(r.Context(), inc)
	if err != nil {
		if errors.Is(err, domain.ErrBusNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "bus not found"})
			return
		}
		slog.Error("handler.CreateIncident:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, incidentItem(det.Incident))
}

// GET /incidents?limit=&cursor=
func (h *Handler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}
	cursor := r.URL.Query().Get("cursor")

	items, next, err := h.incidentSvc.History(r.Context(), limit, cursor)
	if err != nil {
		if errors.Is(err, postgres.ErrInvalidCursor) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_cursor"})
			return
		}
		slog.Error("handler.ListIncidents:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	resp := IncidentsListResponse{Items: make([]IncidentItem, 0, len(items)), NextCursor: next}
	for _, inc := range items {
		resp.Items = append(resp.Items, incidentItem(inc))
	}

	writeJSON(w, http.StatusOK, resp)
}

func incidentItem(inc domain.Incident) IncidentItem {
	return IncidentItem{
		ID:          inc.ID,
		BusID:       inc.BusID,
		ReportedBy:  inc.ReportedBy,
		Type:        inc.Type,
		Description: inc.Description,
		Severity:    inc.Severity,
		Status:      inc.Status,
		CreatedAt:   inc.CreatedAt,
	}
}
