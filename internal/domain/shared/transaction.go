package shared

import "context"

// TransactionManager runs a function inside one storage transaction.
// Repository calls made with the context passed to fn share that
// transaction; any error rolls back every write made within it.
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
