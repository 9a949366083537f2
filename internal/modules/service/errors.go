package service

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Classified errors surfaced to callers. Wrapped with %w so errors.Is works
// through the human-readable message.
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrSessionNotFound  = errors.New("session not found")

	// ErrTableMissing means the documents table does not exist -- a
	// deployment/config error, not a data error.
	ErrTableMissing = errors.New("documents table does not exist")

	ErrConstraintViolation = errors.New("constraint violation")
	ErrStorageFailed       = errors.New("object storage operation failed")
)

const (
	pgUndefinedTable  = "42P01"
	pgIntegrityErrors = "23" // class 23: integrity constraint violations
)

// classifyDBError maps a relational store error onto the service taxonomy.
// Anything unrecognized passes through unchanged (the "unknown" class).
func classifyDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrDocumentNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUndefinedTable:
			return fmt.Errorf("%w: %s", ErrTableMissing, pgErr.Message)
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == pgIntegrityErrors:
			return fmt.Errorf("%w: %s", ErrConstraintViolation, pgErr.Message)
		}
	}
	return err
}
