package database

import (
	"strings"

	"github.com/lib/pq"
	"github.com/zlagoda/zlagoda-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL constraint or concurrency error into an
// AppError. Returns nil for any other error.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	case "23505": // unique_violation
		return errors.InvalidProduct(formatUniqueMessage(pqErr))

	case "23503": // foreign_key_violation
		return errors.InvalidProduct(formatForeignKeyMessage(pqErr))

	case "23514": // check_violation
		return errors.InvalidProduct("data constraint violated: " + pqErr.Constraint)

	case "23502": // not_null_violation
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.InvalidParameter(col, "must not be empty")

	case "22P02", "22003": // invalid_text_representation, numeric_value_out_of_range
		col := pqErr.Column
		if col == "" {
			col = "value"
		}
		return errors.InvalidParameter(col, "malformed or out of range")

	case "40001", "40P01": // serialization_failure, deadlock_detected
		return errors.Conflict("the record was changed concurrently, retry the request")

	default:
		return nil
	}
}

func formatUniqueMessage(pqErr *pq.Error) string {
	switch {
	case strings.Contains(pqErr.Constraint, "store_product"):
		return "a store product with this UPC already exists or was retired"
	case strings.Contains(pqErr.Constraint, "employee"):
		return "an employee with this id already exists"
	default:
		return "a record with these values already exists"
	}
}

func formatForeignKeyMessage(pqErr *pq.Error) string {
	switch {
	case strings.HasPrefix(pqErr.Message, "update or delete"):
		return "record is still referenced"
	case strings.Contains(pqErr.Constraint, "id_product"):
		return "referenced product does not exist"
	case strings.Contains(pqErr.Constraint, "category"):
		return "referenced category does not exist"
	case strings.Contains(pqErr.Constraint, "upc"):
		return "referenced store product does not exist"
	default:
		return "referenced record does not exist"
	}
}
