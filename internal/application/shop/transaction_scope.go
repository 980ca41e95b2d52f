package shop

import (
	"context"

	"github.com/werkbank-erp/backend/internal/domain/inventory"
	"github.com/werkbank-erp/backend/internal/domain/shop"
)

// TransactionScope provides transactional access to the repositories one
// order's processing touches. Everything executed within a scope commits or
// rolls back atomically, so a crash mid-order never desynchronizes line
// items, the movement log and the aggregate stock levels.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories participating
// in order processing. All repositories returned share the same underlying
// database transaction.
type TransactionalRepositories interface {
	// Orders returns the external order repository scoped to the transaction
	Orders() shop.ExternalOrderRepository
	// LineItems returns the line item repository scoped to the transaction
	LineItems() shop.OrderLineItemRepository
	// VariantMappings returns the variant mapping repository scoped to the transaction
	VariantMappings() shop.VariantMappingRepository
	// PropertyMappings returns the property mapping repository scoped to the transaction
	PropertyMappings() shop.PropertyMappingRepository
	// IdentityEdges returns the identity edge repository scoped to the transaction
	IdentityEdges() shop.VariantIdentityEdgeRepository
	// StockLevels returns the stock level repository scoped to the transaction
	StockLevels() inventory.StockLevelRepository
	// StockMovements returns the movement repository scoped to the transaction
	StockMovements() inventory.StockMovementRepository
}

// NoOpTransactionScope executes functions without an actual transaction.
// Useful for tests and for callers that compose their own unit of work.
type NoOpTransactionScope struct {
	repos TransactionalRepositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over fixed repositories
func NewNoOpTransactionScope(repos TransactionalRepositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs fn against the fixed repositories without transaction semantics
func (s *NoOpTransactionScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s.repos)
}

// StaticRepositories is a TransactionalRepositories implementation backed by
// explicitly provided repositories.
type StaticRepositories struct {
	OrderRepo           shop.ExternalOrderRepository
	LineItemRepo        shop.OrderLineItemRepository
	VariantMappingRepo  shop.VariantMappingRepository
	PropertyMappingRepo shop.PropertyMappingRepository
	IdentityEdgeRepo    shop.VariantIdentityEdgeRepository
	StockLevelRepo      inventory.StockLevelRepository
	StockMovementRepo   inventory.StockMovementRepository
}

// Orders returns the external order repository
func (r *StaticRepositories) Orders() shop.ExternalOrderRepository { return r.OrderRepo }

// LineItems returns the line item repository
func (r *StaticRepositories) LineItems() shop.OrderLineItemRepository { return r.LineItemRepo }

// VariantMappings returns the variant mapping repository
func (r *StaticRepositories) VariantMappings() shop.VariantMappingRepository {
	return r.VariantMappingRepo
}

// PropertyMappings returns the property mapping repository
func (r *StaticRepositories) PropertyMappings() shop.PropertyMappingRepository {
	return r.PropertyMappingRepo
}

// IdentityEdges returns the identity edge repository
func (r *StaticRepositories) IdentityEdges() shop.VariantIdentityEdgeRepository {
	return r.IdentityEdgeRepo
}

// StockLevels returns the stock level repository
func (r *StaticRepositories) StockLevels() inventory.StockLevelRepository { return r.StockLevelRepo }

// StockMovements returns the movement repository
func (r *StaticRepositories) StockMovements() inventory.StockMovementRepository {
	return r.StockMovementRepo
}

// Ensure StaticRepositories implements TransactionalRepositories
var _ TransactionalRepositories = (*StaticRepositories)(nil)
