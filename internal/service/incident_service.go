package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cwrk-planet/fleet-service/internal/domain"
	"github.com/cwrk-planet/fleet-service/internal/postgres"
)

// AdminNotifier рассылает созданный инцидент админским соединениям.
// Доставка best-effort, подтверждение не ожидается.
type AdminNotifier interface {
	NotifyAdmins(inc *domain.IncidentDetails)
}

type IncidentService struct {
	incidentRepo *postgres.IncidentRepository
	notifier     AdminNotifier
}

func NewIncidentService(incidentRepo *postgres.IncidentRepository, notifier AdminNotifier) *IncidentService {
	return &IncidentService{
		incidentRepo: incidentRepo,
		notifier:     notifier,
	}
}

// Report durable-сохраняет инцидент и после этого рассылает его админам.
func (s *IncidentService) Report(ctx context.Context, inc *domain.Incident) (*domain.IncidentDetails, error) {
	if err := s.incidentRepo.Create(ctx, inc); err != nil {
		return nil, fmt.Errorf("incidentRepo.Create: %w", err)
	}

	det, err := s.incidentRepo.GetDetailed(ctx, inc.ID)
	if err != nil {
		return nil, fmt.Errorf("incidentRepo.GetDetailed: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyAdmins(det)
	}
	return det, nil
}

// History возвращает инциденты с курсорной пагинацией.
func (s *IncidentService) History(ctx context.Context, limit int, cursor string) ([]domain.Incident, string, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	items, next, err := s.incidentRepo.List(ctx, limit, cursor)
	if err != nil {
		slog.Error("incidentRepo.List:", slog.Any("err", err))
		return nil, "", err
	}
	return items, next, nil
}
