package shop

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/werkbank-erp/backend/internal/domain/inventory"
	"github.com/werkbank-erp/backend/internal/domain/shared"
	"github.com/werkbank-erp/backend/internal/domain/shop"
)

// In-memory repository fakes. The processor flows are stateful (upsert then
// reload, CAS then deduct), so the tests use real storage semantics instead
// of per-call expectations.

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*shop.ExternalOrder
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*shop.ExternalOrder)}
}

func (r *fakeOrderRepo) FindByExternalID(_ context.Context, externalOrderID string) (*shop.ExternalOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[externalOrderID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return order, nil
}

func (r *fakeOrderRepo) Upsert(_ context.Context, order *shop.ExternalOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.orders[order.ExternalOrderID]
	if !ok {
		clone := *order
		r.orders[order.ExternalOrderID] = &clone
		return nil
	}
	existing.OrderNumber = order.OrderNumber
	existing.PlatformStatus = order.PlatformStatus
	existing.TotalAmount = order.TotalAmount
	existing.RawPayload = order.RawPayload
	return nil
}

func (r *fakeOrderRepo) Save(_ context.Context, order *shop.ExternalOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ExternalOrderID] = order
	return nil
}

func (r *fakeOrderRepo) MarkProcessed(_ context.Context, externalOrderID string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[externalOrderID]
	if !ok || order.ProcessedAt != nil {
		return false, nil
	}
	order.ProcessedAt = &at
	return true, nil
}

func (r *fakeOrderRepo) UpdateErrorMessage(_ context.Context, externalOrderID string, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order, ok := r.orders[externalOrderID]; ok {
		order.ErrorMessage = msg
	}
	return nil
}

type fakeLineItemRepo struct {
	mu    sync.Mutex
	items []*shop.OrderLineItem
}

func (r *fakeLineItemRepo) SaveBatch(_ context.Context, items []*shop.OrderLineItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, items...)
	return nil
}

func (r *fakeLineItemRepo) FindByOrder(_ context.Context, orderID uuid.UUID) ([]shop.OrderLineItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]shop.OrderLineItem, 0)
	for _, item := range r.items {
		if item.OrderID == orderID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (r *fakeLineItemRepo) byStatus(status shop.MappingStatus) []*shop.OrderLineItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*shop.OrderLineItem, 0)
	for _, item := range r.items {
		if item.MappingStatus == status {
			out = append(out, item)
		}
	}
	return out
}

type fakeVariantMappingRepo struct {
	mu   sync.Mutex
	rows []shop.VariantMapping
}

func (r *fakeVariantMappingRepo) add(m *shop.VariantMapping) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *m)
}

func (r *fakeVariantMappingRepo) FindActiveByExternalVariant(_ context.Context, externalVariantID string) ([]shop.VariantMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]shop.VariantMapping, 0)
	for _, row := range r.rows {
		if row.ExternalVariantID == externalVariantID && row.IsActive() {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakeVariantMappingRepo) FindAll(_ context.Context) ([]shop.VariantMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]shop.VariantMapping(nil), r.rows...), nil
}

func (r *fakeVariantMappingRepo) CountActiveByExternalVariant(_ context.Context, externalVariantID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, row := range r.rows {
		if row.ExternalVariantID == externalVariantID && row.IsActive() {
			n++
		}
	}
	return n, nil
}

func (r *fakeVariantMappingRepo) ReassignExternalVariant(_ context.Context, oldID, newID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.rows {
		if r.rows[i].ExternalVariantID == oldID && r.rows[i].IsActive() {
			r.rows[i].ExternalVariantID = newID
			n++
		}
	}
	return n, nil
}

type fakePropertyMappingRepo struct {
	mu   sync.Mutex
	rows []shop.PropertyMapping
}

func (r *fakePropertyMappingRepo) add(m *shop.PropertyMapping) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *m)
}

func (r *fakePropertyMappingRepo) FindActiveByExternalVariant(_ context.Context, externalVariantID string) ([]shop.PropertyMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]shop.PropertyMapping, 0)
	for _, row := range r.rows {
		if row.ExternalVariantID == externalVariantID && row.IsActive() {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakePropertyMappingRepo) FindAll(_ context.Context) ([]shop.PropertyMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]shop.PropertyMapping(nil), r.rows...), nil
}

func (r *fakePropertyMappingRepo) CountActiveByExternalVariant(_ context.Context, externalVariantID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, row := range r.rows {
		if row.ExternalVariantID == externalVariantID && row.IsActive() {
			n++
		}
	}
	return n, nil
}

func (r *fakePropertyMappingRepo) ReassignExternalVariant(_ context.Context, oldID, newID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.rows {
		if r.rows[i].ExternalVariantID == oldID && r.rows[i].IsActive() {
			r.rows[i].ExternalVariantID = newID
			n++
		}
	}
	return n, nil
}

type fakeIdentityEdgeRepo struct {
	mu    sync.Mutex
	edges map[string]*shop.VariantIdentityEdge
}

func newFakeIdentityEdgeRepo() *fakeIdentityEdgeRepo {
	return &fakeIdentityEdgeRepo{edges: make(map[string]*shop.VariantIdentityEdge)}
}

func edgeKey(productID, oldVariantID string) string {
	return productID + "|" + oldVariantID
}

func (r *fakeIdentityEdgeRepo) FindByProductAndOldVariant(_ context.Context, externalProductID, oldVariantID string) (*shop.VariantIdentityEdge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	edge, ok := r.edges[edgeKey(externalProductID, oldVariantID)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return edge, nil
}

func (r *fakeIdentityEdgeRepo) FindByProduct(_ context.Context, externalProductID string) ([]shop.VariantIdentityEdge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]shop.VariantIdentityEdge, 0)
	for _, edge := range r.edges {
		if edge.ExternalProductID == externalProductID {
			out = append(out, *edge)
		}
	}
	return out, nil
}

func (r *fakeIdentityEdgeRepo) Save(_ context.Context, edge *shop.VariantIdentityEdge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edges[edgeKey(edge.ExternalProductID, edge.OldVariantID)] = edge
	return nil
}

type fakeStockLevelRepo struct {
	mu     sync.Mutex
	onHand map[uuid.UUID]decimal.Decimal
	// findErr, when set, makes FindByVariants fail
	findErr error
}

func newFakeStockLevelRepo() *fakeStockLevelRepo {
	return &fakeStockLevelRepo{onHand: make(map[uuid.UUID]decimal.Decimal)}
}

func (r *fakeStockLevelRepo) set(variantID uuid.UUID, qty decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onHand[variantID] = qty
}

func (r *fakeStockLevelRepo) quantity(variantID uuid.UUID) decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.onHand[variantID]
}

func (r *fakeStockLevelRepo) FindByVariant(_ context.Context, variantID uuid.UUID) (*inventory.StockLevel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	qty, ok := r.onHand[variantID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &inventory.StockLevel{VariantID: variantID, QuantityOnHand: qty}, nil
}

func (r *fakeStockLevelRepo) FindByVariants(_ context.Context, variantIDs []uuid.UUID) ([]inventory.StockLevel, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]inventory.StockLevel, 0)
	for _, id := range variantIDs {
		if qty, ok := r.onHand[id]; ok {
			out = append(out, inventory.StockLevel{VariantID: id, QuantityOnHand: qty})
		}
	}
	return out, nil
}

func (r *fakeStockLevelRepo) AdjustQuantity(_ context.Context, variantID uuid.UUID, delta decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onHand[variantID] = r.onHand[variantID].Add(delta)
	return nil
}

func (r *fakeStockLevelRepo) Save(_ context.Context, level *inventory.StockLevel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onHand[level.VariantID] = level.QuantityOnHand
	return nil
}

type fakeStockMovementRepo struct {
	mu        sync.Mutex
	movements []inventory.StockMovement
}

func (r *fakeStockMovementRepo) Append(_ context.Context, movement *inventory.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, *movement)
	return nil
}

func (r *fakeStockMovementRepo) FindByVariant(_ context.Context, variantID uuid.UUID, _ shared.Filter) ([]inventory.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]inventory.StockMovement, 0)
	for _, m := range r.movements {
		if m.VariantID == variantID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeStockMovementRepo) SumByVariant(_ context.Context, variantID uuid.UUID) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := decimal.Zero
	for _, m := range r.movements {
		if m.VariantID == variantID {
			sum = sum.Add(m.Quantity)
		}
	}
	return sum, nil
}

func (r *fakeStockMovementRepo) byVariant(variantID uuid.UUID) []inventory.StockMovement {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]inventory.StockMovement, 0)
	for _, m := range r.movements {
		if m.VariantID == variantID {
			out = append(out, m)
		}
	}
	return out
}

type fakeWebhookEventRepo struct {
	mu     sync.Mutex
	events map[uuid.UUID]*shop.WebhookEvent
	// saveErr, when set, makes Save fail
	saveErr error
	// updateErr, when set, makes UpdateStatus fail
	updateErr error
}

func newFakeWebhookEventRepo() *fakeWebhookEventRepo {
	return &fakeWebhookEventRepo{events: make(map[uuid.UUID]*shop.WebhookEvent)}
}

func (r *fakeWebhookEventRepo) FindByID(_ context.Context, id uuid.UUID) (*shop.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return nil, shop.ErrWebhookEventNotFound
	}
	return event, nil
}

func (r *fakeWebhookEventRepo) Save(_ context.Context, event *shop.WebhookEvent) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[event.GetID()] = event
	return nil
}

func (r *fakeWebhookEventRepo) UpdateStatus(_ context.Context, id uuid.UUID, status shop.WebhookEventStatus, errorMessage string) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return shop.ErrWebhookEventNotFound
	}
	event.Status = status
	event.ErrorMessage = errorMessage
	return nil
}

func (r *fakeWebhookEventRepo) FindRecentByExternalOrder(_ context.Context, externalOrderID string, limit int) ([]shop.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]shop.WebhookEvent, 0)
	for _, event := range r.events {
		if event.ExternalOrderID == externalOrderID {
			out = append(out, *event)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeWebhookEventRepo) only() *shop.WebhookEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, event := range r.events {
		return event
	}
	return nil
}

// fakeIdempotencyStore remembers delivery IDs in memory and can be forced
// into a failing state.
type fakeIdempotencyStore struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{seen: make(map[string]bool)}
}

func (s *fakeIdempotencyStore) MarkProcessed(_ context.Context, deliveryID string, _ time.Duration) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[deliveryID] {
		return false, nil
	}
	s.seen[deliveryID] = true
	return true, nil
}

func (s *fakeIdempotencyStore) IsProcessed(_ context.Context, deliveryID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[deliveryID], nil
}

func (s *fakeIdempotencyStore) Close() error { return nil }

// testEnv bundles the fakes behind a no-op transaction scope
type testEnv struct {
	orders           *fakeOrderRepo
	lineItems        *fakeLineItemRepo
	variantMappings  *fakeVariantMappingRepo
	propertyMappings *fakePropertyMappingRepo
	identityEdges    *fakeIdentityEdgeRepo
	stockLevels      *fakeStockLevelRepo
	stockMovements   *fakeStockMovementRepo
	webhookEvents    *fakeWebhookEventRepo
	scope            TransactionScope
}

func newTestEnv() *testEnv {
	env := &testEnv{
		orders:           newFakeOrderRepo(),
		lineItems:        &fakeLineItemRepo{},
		variantMappings:  &fakeVariantMappingRepo{},
		propertyMappings: &fakePropertyMappingRepo{},
		identityEdges:    newFakeIdentityEdgeRepo(),
		stockLevels:      newFakeStockLevelRepo(),
		stockMovements:   &fakeStockMovementRepo{},
		webhookEvents:    newFakeWebhookEventRepo(),
	}
	env.scope = NewNoOpTransactionScope(&StaticRepositories{
		OrderRepo:           env.orders,
		LineItemRepo:        env.lineItems,
		VariantMappingRepo:  env.variantMappings,
		PropertyMappingRepo: env.propertyMappings,
		IdentityEdgeRepo:    env.identityEdges,
		StockLevelRepo:      env.stockLevels,
		StockMovementRepo:   env.stockMovements,
	})
	return env
}
