package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/loyalty/backend/internal/domain/shared"
)

type txKey struct{}

// conn returns the transaction handle carried by the context, or the
// base connection. Repositories route every statement through it so a
// service-level transaction spans repository boundaries.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// gormTransactionManager implements shared.TransactionManager using GORM
type gormTransactionManager struct {
	db *gorm.DB
}

// NewTransactionManager creates a transaction manager on the given connection
func NewTransactionManager(db *gorm.DB) shared.TransactionManager {
	return &gormTransactionManager{db: db}
}

// Do runs fn inside one transaction. The handle travels in the context,
// so repositories called from fn join the transaction transparently.
func (m *gormTransactionManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

var _ shared.TransactionManager = (*gormTransactionManager)(nil)
