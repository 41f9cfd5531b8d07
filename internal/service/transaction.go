package service

import "context"

// TransactionManager runs a function inside a single unit of work against
// the store.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
