package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/messagely/apiserver/internal/apperr"
)

// translate maps driver errors onto the application taxonomy.
// notFound is the message used when the query matched no row.
func translate(err error, notFound string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Wrap(apperr.CodeNotFound, notFound, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			return apperr.Wrap(apperr.CodeConflict, "already exists", err)
		case "foreign_key_violation":
			return apperr.Wrap(apperr.CodeNotFound, "referenced user not found", err)
		case "not_null_violation":
			return apperr.Wrap(apperr.CodeValidation, fmt.Sprintf("%s is required", pqErr.Column), err)
		}
	}

	return apperr.Wrap(apperr.CodeInternal, "database error", err)
}
