package persistence

import (
	"context"

	"gorm.io/gorm"

	appshop "github.com/werkbank-erp/backend/internal/application/shop"
	"github.com/werkbank-erp/backend/internal/domain/inventory"
	"github.com/werkbank-erp/backend/internal/domain/shop"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Everything an order's processing touches runs against one database
// transaction, so line items, the movement log and the aggregate stock
// levels commit or roll back together.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appshop.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides repositories bound to one transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Orders returns the external order repository scoped to the transaction
func (r *gormTransactionalRepositories) Orders() shop.ExternalOrderRepository {
	return NewGormExternalOrderRepository(r.tx)
}

// LineItems returns the line item repository scoped to the transaction
func (r *gormTransactionalRepositories) LineItems() shop.OrderLineItemRepository {
	return NewGormOrderLineItemRepository(r.tx)
}

// VariantMappings returns the variant mapping repository scoped to the transaction
func (r *gormTransactionalRepositories) VariantMappings() shop.VariantMappingRepository {
	return NewGormVariantMappingRepository(r.tx)
}

// PropertyMappings returns the property mapping repository scoped to the transaction
func (r *gormTransactionalRepositories) PropertyMappings() shop.PropertyMappingRepository {
	return NewGormPropertyMappingRepository(r.tx)
}

// IdentityEdges returns the identity edge repository scoped to the transaction
func (r *gormTransactionalRepositories) IdentityEdges() shop.VariantIdentityEdgeRepository {
	return NewGormVariantIdentityEdgeRepository(r.tx)
}

// StockLevels returns the stock level repository scoped to the transaction
func (r *gormTransactionalRepositories) StockLevels() inventory.StockLevelRepository {
	return NewGormStockLevelRepository(r.tx)
}

// StockMovements returns the movement repository scoped to the transaction
func (r *gormTransactionalRepositories) StockMovements() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appshop.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appshop.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
