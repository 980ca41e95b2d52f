package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	appshop "github.com/werkbank-erp/backend/internal/application/shop"
	"github.com/werkbank-erp/backend/internal/domain/inventory"
	"github.com/werkbank-erp/backend/internal/domain/shared"
	"github.com/werkbank-erp/backend/internal/domain/shop"
	"github.com/werkbank-erp/backend/internal/interfaces/http/middleware"
	"github.com/werkbank-erp/backend/internal/interfaces/http/router"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// setupRouter mounts the given registrars the way the server does
func setupRouter(registrars ...router.RouteRegistrar) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID())
	r := router.NewRouter(engine)
	for _, registrar := range registrars {
		r.Register(registrar)
	}
	r.Setup()
	return engine
}

func perform(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

// MockStockLevelRepository is a mock implementation of inventory.StockLevelRepository
type MockStockLevelRepository struct {
	mock.Mock
}

func (m *MockStockLevelRepository) FindByVariant(ctx context.Context, variantID uuid.UUID) (*inventory.StockLevel, error) {
	args := m.Called(ctx, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockLevel), args.Error(1)
}

func (m *MockStockLevelRepository) FindByVariants(ctx context.Context, variantIDs []uuid.UUID) ([]inventory.StockLevel, error) {
	args := m.Called(ctx, variantIDs)
	return args.Get(0).([]inventory.StockLevel), args.Error(1)
}

func (m *MockStockLevelRepository) AdjustQuantity(ctx context.Context, variantID uuid.UUID, delta decimal.Decimal) error {
	args := m.Called(ctx, variantID, delta)
	return args.Error(0)
}

func (m *MockStockLevelRepository) Save(ctx context.Context, level *inventory.StockLevel) error {
	args := m.Called(ctx, level)
	return args.Error(0)
}

// MockStockMovementRepository is a mock implementation of inventory.StockMovementRepository
type MockStockMovementRepository struct {
	mock.Mock
}

func (m *MockStockMovementRepository) Append(ctx context.Context, movement *inventory.StockMovement) error {
	args := m.Called(ctx, movement)
	return args.Error(0)
}

func (m *MockStockMovementRepository) FindByVariant(ctx context.Context, variantID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, error) {
	args := m.Called(ctx, variantID, filter)
	return args.Get(0).([]inventory.StockMovement), args.Error(1)
}

func (m *MockStockMovementRepository) SumByVariant(ctx context.Context, variantID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, variantID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockExternalOrderRepository is a mock implementation of shop.ExternalOrderRepository
type MockExternalOrderRepository struct {
	mock.Mock
}

func (m *MockExternalOrderRepository) FindByExternalID(ctx context.Context, externalOrderID string) (*shop.ExternalOrder, error) {
	args := m.Called(ctx, externalOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shop.ExternalOrder), args.Error(1)
}

func (m *MockExternalOrderRepository) Upsert(ctx context.Context, order *shop.ExternalOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockExternalOrderRepository) Save(ctx context.Context, order *shop.ExternalOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockExternalOrderRepository) MarkProcessed(ctx context.Context, externalOrderID string, at time.Time) (bool, error) {
	args := m.Called(ctx, externalOrderID, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockExternalOrderRepository) UpdateErrorMessage(ctx context.Context, externalOrderID string, msg string) error {
	args := m.Called(ctx, externalOrderID, msg)
	return args.Error(0)
}

// MockOrderLineItemRepository is a mock implementation of shop.OrderLineItemRepository
type MockOrderLineItemRepository struct {
	mock.Mock
}

func (m *MockOrderLineItemRepository) SaveBatch(ctx context.Context, items []*shop.OrderLineItem) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *MockOrderLineItemRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]shop.OrderLineItem, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]shop.OrderLineItem), args.Error(1)
}

// MockVariantMappingRepository is a mock implementation of shop.VariantMappingRepository
type MockVariantMappingRepository struct {
	mock.Mock
}

func (m *MockVariantMappingRepository) FindActiveByExternalVariant(ctx context.Context, externalVariantID string) ([]shop.VariantMapping, error) {
	args := m.Called(ctx, externalVariantID)
	return args.Get(0).([]shop.VariantMapping), args.Error(1)
}

func (m *MockVariantMappingRepository) FindAll(ctx context.Context) ([]shop.VariantMapping, error) {
	args := m.Called(ctx)
	return args.Get(0).([]shop.VariantMapping), args.Error(1)
}

func (m *MockVariantMappingRepository) CountActiveByExternalVariant(ctx context.Context, externalVariantID string) (int64, error) {
	args := m.Called(ctx, externalVariantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVariantMappingRepository) ReassignExternalVariant(ctx context.Context, oldID, newID string) (int64, error) {
	args := m.Called(ctx, oldID, newID)
	return args.Get(0).(int64), args.Error(1)
}

// MockPropertyMappingRepository is a mock implementation of shop.PropertyMappingRepository
type MockPropertyMappingRepository struct {
	mock.Mock
}

func (m *MockPropertyMappingRepository) FindActiveByExternalVariant(ctx context.Context, externalVariantID string) ([]shop.PropertyMapping, error) {
	args := m.Called(ctx, externalVariantID)
	return args.Get(0).([]shop.PropertyMapping), args.Error(1)
}

func (m *MockPropertyMappingRepository) FindAll(ctx context.Context) ([]shop.PropertyMapping, error) {
	args := m.Called(ctx)
	return args.Get(0).([]shop.PropertyMapping), args.Error(1)
}

func (m *MockPropertyMappingRepository) CountActiveByExternalVariant(ctx context.Context, externalVariantID string) (int64, error) {
	args := m.Called(ctx, externalVariantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPropertyMappingRepository) ReassignExternalVariant(ctx context.Context, oldID, newID string) (int64, error) {
	args := m.Called(ctx, oldID, newID)
	return args.Get(0).(int64), args.Error(1)
}

// MockIdentityEdgeRepository is a mock implementation of shop.VariantIdentityEdgeRepository
type MockIdentityEdgeRepository struct {
	mock.Mock
}

func (m *MockIdentityEdgeRepository) FindByProductAndOldVariant(ctx context.Context, externalProductID, oldVariantID string) (*shop.VariantIdentityEdge, error) {
	args := m.Called(ctx, externalProductID, oldVariantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shop.VariantIdentityEdge), args.Error(1)
}

func (m *MockIdentityEdgeRepository) FindByProduct(ctx context.Context, externalProductID string) ([]shop.VariantIdentityEdge, error) {
	args := m.Called(ctx, externalProductID)
	return args.Get(0).([]shop.VariantIdentityEdge), args.Error(1)
}

func (m *MockIdentityEdgeRepository) Save(ctx context.Context, edge *shop.VariantIdentityEdge) error {
	args := m.Called(ctx, edge)
	return args.Error(0)
}

// MockWebhookEventRepository is a mock implementation of shop.WebhookEventRepository
type MockWebhookEventRepository struct {
	mock.Mock
}

func (m *MockWebhookEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*shop.WebhookEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shop.WebhookEvent), args.Error(1)
}

func (m *MockWebhookEventRepository) Save(ctx context.Context, event *shop.WebhookEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockWebhookEventRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status shop.WebhookEventStatus, errorMessage string) error {
	args := m.Called(ctx, id, status, errorMessage)
	return args.Error(0)
}

func (m *MockWebhookEventRepository) FindRecentByExternalOrder(ctx context.Context, externalOrderID string, limit int) ([]shop.WebhookEvent, error) {
	args := m.Called(ctx, externalOrderID, limit)
	return args.Get(0).([]shop.WebhookEvent), args.Error(1)
}

// mockRepoSet bundles the repository mocks behind a no-op transaction scope
type mockRepoSet struct {
	orders           *MockExternalOrderRepository
	lineItems        *MockOrderLineItemRepository
	variantMappings  *MockVariantMappingRepository
	propertyMappings *MockPropertyMappingRepository
	identityEdges    *MockIdentityEdgeRepository
	stockLevels      *MockStockLevelRepository
	stockMovements   *MockStockMovementRepository
	scope            appshop.TransactionScope
}

func newMockRepoSet() *mockRepoSet {
	set := &mockRepoSet{
		orders:           new(MockExternalOrderRepository),
		lineItems:        new(MockOrderLineItemRepository),
		variantMappings:  new(MockVariantMappingRepository),
		propertyMappings: new(MockPropertyMappingRepository),
		identityEdges:    new(MockIdentityEdgeRepository),
		stockLevels:      new(MockStockLevelRepository),
		stockMovements:   new(MockStockMovementRepository),
	}
	set.scope = appshop.NewNoOpTransactionScope(&appshop.StaticRepositories{
		OrderRepo:           set.orders,
		LineItemRepo:        set.lineItems,
		VariantMappingRepo:  set.variantMappings,
		PropertyMappingRepo: set.propertyMappings,
		IdentityEdgeRepo:    set.identityEdges,
		StockLevelRepo:      set.stockLevels,
		StockMovementRepo:   set.stockMovements,
	})
	return set
}
