package postgres

import (
	"errors"
	"strings"

	"github.com/cwrk-planet/fleet-service/internal/domain"

	pgconn "github.com/jackc/pgx/v5/pgconn"
)

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23503 - foreign key violation
		if pgErr.Code == "23503" && strings.Contains(pgErr.ConstraintName, "bus_id") {
			return domain.ErrBusNotFound
		}
		// todo: добавить маппинг для других кодов
	}

	return err
}
