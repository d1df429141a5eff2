package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cwrk-planet/fleet-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FleetRepository struct {
	db *pgxpool.Pool
}

func NewFleetRepository(db *pgxpool.Pool) *FleetRepository {
	return &FleetRepository{db: db}
}

const busColumns = `
	b.id, b.plate_number, b.driver_id, b.route_id, b.status, b.created_at,
	b.current_lat, b.current_lng,
	r.id, r.name`

func scanBus(row pgx.Row) (*domain.Bus, error) {
	var (
		b        domain.Bus
		rt       domain.Route
		lat, lng *float64
	)
	if err := row.Scan(
		&b.ID, &b.PlateNumber, &b.DriverID, &b.RouteID, &b.Status, &b.CreatedAt,
		&lat, &lng,
		&rt.ID, &rt.Name,
	); err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		b.CurrentLocation = &domain.Location{Lat: *lat, Lng: *lng}
	}
	b.Route = &rt
	return &b, nil
}

// ListActiveBuses возвращает активные автобусы вместе с маршрутом и
// остановками (position ASC).
func (r *FleetRepository) ListActiveBuses(ctx context.Context) ([]domain.Bus, error) {
	query := `
		SELECT ` + busColumns + `
		FROM buses b
		JOIN routes r ON r.id = b.route_id
		WHERE b.status = $1
		ORDER BY b.created_at ASC, b.id ASC`

	rows, err := r.db.Query(ctx, query, domain.BusStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buses []domain.Bus
	for rows.Next() {
		b, err := scanBus(rows)
		if err != nil {
			return nil, err
		}
		buses = append(buses, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachStops(ctx, buses); err != nil {
		return nil, err
	}
	return buses, nil
}

// GetBusByDriver возвращает автобус, закреплённый за водителем.
// Отсутствие закрепления — domain.ErrBusNotFound.
func (r *FleetRepository) GetBusByDriver(ctx context.Context, driverID string) (*domain.Bus, error) {
	query := `
		SELECT ` + busColumns + `
		FROM buses b
		JOIN routes r ON r.id = b.route_id
		WHERE b.driver_id = $1`

	b, err := scanBus(r.db.QueryRow(ctx, query, driverID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBusNotFound
		}
		return nil, err
	}

	buses := []domain.Bus{*b}
	if err := r.attachStops(ctx, buses); err != nil {
		return nil, err
	}
	return &buses[0], nil
}

// UpdateBusLocation записывает текущие координаты автобуса.
func (r *FleetRepository) UpdateBusLocation(ctx context.Context, busID string, loc domain.Location) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE buses SET current_lat=$2, current_lng=$3, location_updated_at=now() WHERE id=$1`,
		busID, loc.Lat, loc.Lng)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrBusNotFound
	}
	return nil
}

func (r *FleetRepository) attachStops(ctx context.Context, buses []domain.Bus) error {
	if len(buses) == 0 {
		return nil
	}

	routeIDs := make([]string, 0, len(buses))
	seen := make(map[string]struct{}, len(buses))
	for _, b := range buses {
		if _, ok := seen[b.RouteID]; ok {
			continue
		}
		seen[b.RouteID] = struct{}{}
		routeIDs = append(routeIDs, b.RouteID)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, route_id, name, position, lat, lng
		FROM stops
		WHERE route_id = ANY($1)
		ORDER BY route_id, position ASC`, routeIDs)
	if err != nil {
		return fmt.Errorf("load stops: %w", err)
	}
	defer rows.Close()

	byRoute := make(map[string][]domain.Stop, len(routeIDs))
	for rows.Next() {
		var s domain.Stop
		if err := rows.Scan(&s.ID, &s.RouteID, &s.Name, &s.Position, &s.Location.Lat, &s.Location.Lng); err != nil {
			return err
		}
		byRoute[s.RouteID] = append(byRoute[s.RouteID], s)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range buses {
		if buses[i].Route != nil {
			buses[i].Route.Stops = byRoute[buses[i].RouteID]
		}
	}
	return nil
}
