// Package inquiry persists completed customer inquiries. The log is
// append-only: records are never updated or deleted.
package inquiry

import (
	"context"
	"time"
)

// Record is one completed inquiry.
type Record struct {
	Date    string `json:"date" db:"date"`
	Name    string `json:"name" db:"name"`
	Phone   string `json:"phone" db:"phone"`
	Email   string `json:"email" db:"email"`
	Message string `json:"message" db:"message"`
	UserID  int64  `json:"user_id" db:"user_id"`
}

// DateLayout is ISO-8601 with microseconds and no zone, local time.
const DateLayout = "2006-01-02T15:04:05.000000"

// FormatDate renders t the way Record.Date is stored.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Store is an append-only inquiry log.
type Store interface {
	// Append durably stores r before returning. A failed append leaves no trace.
	Append(ctx context.Context, r Record) error
	// List returns every stored record in append order.
	List(ctx context.Context) ([]Record, error)
	Close() error
}

// PersistError reports a failed durable write or read.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return "inquiry " + e.Op + ": " + e.Err.Error()
}

func (e *PersistError) Unwrap() error { return e.Err }

// Code is logged as err_code by the router.
func (e *PersistError) Code() string { return "PERSISTENCE_FAILURE" }

func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistError{Op: op, Err: err}
}
