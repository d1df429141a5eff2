package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/cwrk-planet/fleet-service/internal/domain"
	"github.com/cwrk-planet/fleet-service/internal/postgres"
)

type FleetService struct {
	fleetRepo *postgres.FleetRepository
}

func NewFleetService(fleetRepo *postgres.FleetRepository) *FleetService {
	return &FleetService{fleetRepo: fleetRepo}
}

// ActiveBuses — снапшот для пассажира: активные автобусы с маршрутом и остановками.
func (s *FleetService) ActiveBuses(ctx context.Context) ([]domain.Bus, error) {
	buses, err := s.fleetRepo.ListActiveBuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("fleetRepo.ListActiveBuses: %w", err)
	}
	return buses, nil
}

// BusForDriver — снапшот для водителя. Отсутствие автобуса — не ошибка:
// возвращается (nil, nil), снапшот в этом случае не отправляется.
func (s *FleetService) BusForDriver(ctx context.Context, driverID string) (*domain.Bus, error) {
	bus, err := s.fleetRepo.GetBusByDriver(ctx, driverID)
	if err != nil {
		if errors.Is(err, domain.ErrBusNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fleetRepo.GetBusByDriver: %w", err)
	}
	return bus, nil
}

// UpdateLocation сохраняет координаты на автобусе водителя и возвращает его id.
// Пустой id означает, что за водителем не закреплён автобус — событие
// отбрасывается без записи.
func (s *FleetService) UpdateLocation(ctx context.Context, driverID string, loc domain.Location) (string, error) {
	bus, err := s.fleetRepo.GetBusByDriver(ctx, driverID)
	if err != nil {
		if errors.Is(err, domain.ErrBusNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("fleetRepo.GetBusByDriver: %w", err)
	}

	if err := s.fleetRepo.UpdateBusLocation(ctx, bus.ID, loc); err != nil {
		return "", fmt.Errorf("fleetRepo.UpdateBusLocation: %w", err)
	}
	return bus.ID, nil
}
