package mapper

import "errors"

// TxBoundAdapter is an adapter whose statements run inside one open
// transaction.
type TxBoundAdapter interface {
	Adapter
	Commit() error
	Rollback() error
}

// TxAdapter is implemented by adapters able to open a transaction.
type TxAdapter interface {
	Adapter
	BeginTx() (TxBoundAdapter, error)
}

// Tx runs fn against a copy of the registry bound to a new transaction.
// Mappers taken from that copy share the transaction, so a whole save
// cascade commits when fn returns nil and rolls back otherwise. A failed
// rollback is joined to fn's error.
func (r *Registry) Tx(fn func(tx *Registry) error) error {
	opener, ok := r.adapter.(TxAdapter)
	if !ok {
		return ErrNoTxSupport
	}
	bound, err := opener.BeginTx()
	if err != nil {
		return err
	}

	if err := fn(r.withAdapter(bound)); err != nil {
		if rbErr := bound.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return bound.Commit()
}
