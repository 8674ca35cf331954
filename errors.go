package mapper

import "errors"

// ErrEmptyTable is returned when a Definition has no table name.
var ErrEmptyTable = errors.New("empty table name")

// ErrNoFields is returned when a Definition declares no fields, and by Insert
// when the record carries no value for any table column.
var ErrNoFields = errors.New("no fields")

// ErrDuplicatePrimaryKey is returned when more than one field is flagged primary.
var ErrDuplicatePrimaryKey = errors.New("more than one primary key field")

// ErrNoPrimaryKey is returned by primary-key operations on a mapper without one.
var ErrNoPrimaryKey = errors.New("mapper has no primary key field")

// ErrUnknownMapper is returned when a mapper identifier is not registered.
var ErrUnknownMapper = errors.New("unknown mapper")

// ErrNotFound is returned when First() or Get() finds no matching row.
var ErrNotFound = errors.New("record not found")

// ErrValidation is wrapped by ValidationError.
var ErrValidation = errors.New("validation error")

// ErrPrepare is returned when the adapter cannot prepare a statement.
var ErrPrepare = errors.New("unable to prepare statement")

// ErrExecute is returned when the adapter refuses to execute a prepared statement.
var ErrExecute = errors.New("statement execution refused")

// ErrNoChanges is returned by Update when no modified field is a table column.
var ErrNoChanges = errors.New("no modified fields to update")

// ErrNoTxSupport is returned by Registry.Tx() when the adapter does not implement TxAdapter.
var ErrNoTxSupport = errors.New("transaction not supported")

// ValidationError carries the messages collected by Validate.
type ValidationError struct {
	Table    string
	Messages []string
}

func (e *ValidationError) Error() string {
	msg := ErrValidation.Error() + " on " + e.Table
	for i, m := range e.Messages {
		if i == 0 {
			msg += ": " + m
		} else {
			msg += "; " + m
		}
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// opError attaches detail to a sentinel while keeping errors.Is working.
type opError struct {
	err    error
	detail string
}

func (e *opError) Error() string { return e.err.Error() + ": " + e.detail }

func (e *opError) Unwrap() error { return e.err }

func wrap(err error, detail string) error {
	return &opError{err: err, detail: detail}
}
