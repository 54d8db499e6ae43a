package experiments

import "context"

// Store is the persistence boundary for experiment records. Inserting an
// existing experiment id is an error; records are immutable once written.
type Store interface {
	Insert(ctx context.Context, record *Record) error
	Get(ctx context.Context, experimentID string) (*Record, error)
	List(ctx context.Context, limit int) ([]Summary, error)
	Close()
}
