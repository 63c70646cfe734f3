package service

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/njprem/travelswipe/internal/domain"
)

const (
	pgUndefinedTable        = "42P01"
	pgInsufficientPrivilege = "42501"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUndefinedTable(err error) bool {
	return pgCode(err) == pgUndefinedTable
}

func isInsufficientPrivilege(err error) bool {
	return pgCode(err) == pgInsufficientPrivilege
}

// classifyRemote maps a remote likes failure onto the closed error kinds.
func classifyRemote(err error) error {
	if err == nil {
		return nil
	}
	if domain.KindOf(err) != 0 {
		return err
	}
	switch {
	case isUndefinedTable(err):
		return domain.RemoteUnavailableError("likes table missing", err)
	case isInsufficientPrivilege(err):
		return domain.RemoteUnavailableError("permission denied", err)
	default:
		return domain.TransportError("remote likes", err)
	}
}
