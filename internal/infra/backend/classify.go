// Package backend adapts the remote Supabase/Postgres RPC surface to
// domain.Backend. Raw driver errors are classified here, once, into the
// closed domain.ErrorKind set.
package backend

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gemral/gem/internal/domain"
)

// SQLSTATE codes meaning "this function, table or column is not deployed".
var notSupportedCodes = map[string]bool{
	"42883": true, // undefined_function
	"42P01": true, // undefined_table
	"42703": true, // undefined_column
	"42704": true, // undefined_object
	"0A000": true, // feature_not_supported
}

// Classify maps a raw error to its ErrorKind.
// Already-classified errors keep their kind.
func Classify(err error) domain.ErrorKind {
	if err == nil {
		return domain.KindNone
	}

	var be *domain.BackendError
	if errors.As(err, &be) {
		return be.Kind
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case notSupportedCodes[pgErr.Code]:
			return domain.KindNotSupported
		case strings.HasPrefix(pgErr.Code, "22"), pgErr.Code == "23514":
			// data_exception class, check_violation
			return domain.KindValidation
		}
		return domain.KindTransient
	}

	return domain.KindOf(err)
}

// wrap classifies err and tags it with the remote operation name.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var be *domain.BackendError
	if errors.As(err, &be) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.NewBackendError(op, domain.KindTransient, err)
	}
	return domain.NewBackendError(op, Classify(err), err)
}
