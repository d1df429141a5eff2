package postgres

import (
	"context"
	"errors"

	"github.com/cwrk-planet/fleet-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type IncidentRepository struct {
	db *pgxpool.Pool
}

func NewIncidentRepository(db *pgxpool.Pool) *IncidentRepository {
	return &IncidentRepository{db: db}
}

func (r *IncidentRepository) Create(ctx context.Context, inc *domain.Incident) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO incidents (bus_id, reported_by, type, description, severity, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, inc.BusID, inc.ReportedBy, inc.Type, inc.Description, inc.Severity, domain.IncidentStatusOpen)

	if err := row.Scan(&inc.ID, &inc.CreatedAt); err != nil {
		// несуществующий bus_id приходит из БД как FK violation
		return mapPgError(err)
	}
	inc.Status = domain.IncidentStatusOpen
	return nil
}

// GetDetailed возвращает инцидент вместе с автобусом и автором.
func (r *IncidentRepository) GetDetailed(ctx context.Context, id string) (*domain.IncidentDetails, error) {
	query := `
		SELECT i.id, i.bus_id, i.reported_by, i.type, i.description, i.severity, i.status, i.created_at,
		       b.id, b.plate_number, b.driver_id, b.route_id, b.status, b.created_at,
		       u.id, u.display_name
		FROM incidents i
		JOIN buses b ON b.id = i.bus_id
		JOIN users u ON u.id = i.reported_by
		WHERE i.id = $1`

	var (
		det domain.IncidentDetails
		bus domain.Bus
		rep domain.Reporter
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&det.ID, &det.BusID, &det.ReportedBy, &det.Type, &det.Description, &det.Severity, &det.Status, &det.CreatedAt,
		&bus.ID, &bus.PlateNumber, &bus.DriverID, &bus.RouteID, &bus.Status, &bus.CreatedAt,
		&rep.ID, &rep.DisplayName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIncidentNotFound
		}
		return nil, err
	}

	det.Bus = &bus
	det.Reporter = &rep
	return &det, nil
}

// List — история инцидентов с курсорной пагинацией (created_at,id DESC).
func (r *IncidentRepository) List(ctx context.Context, limit int, cursorStr string) ([]domain.Incident, string, error) {
	cur, err := DecodeCursor(cursorStr)
	if err != nil {
		return nil, "", err
	}

	query := `
		SELECT id, bus_id, reported_by, type, description, severity, status, created_at
		FROM incidents
		WHERE ($1::timestamptz IS NULL OR created_at < $1
		       OR (created_at = $1 AND id < $2))
		ORDER BY created_at DESC, id DESC
		LIMIT $3`

	var createdAt any
	var id any
	if cur != nil {
		createdAt = cur.CreatedAt
		id = cur.ID
	}

	rows, err := r.db.Query(ctx, query, createdAt, id, limit)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var items []domain.Incident
	for rows.Next() {
		var inc domain.Incident
		if err := rows.Scan(&inc.ID, &inc.BusID, &inc.ReportedBy, &inc.Type,
			&inc.Description, &inc.Severity, &inc.Status, &inc.CreatedAt); err != nil {
			return nil, "", err
		}
		items = append(items, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	var nextCursor string
	if len(items) == limit {
		last := items[len(items)-1]
		cur := Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
		nextCursor, _ = EncodeCursor(cur)
	}

	return items, nextCursor, nil
}
