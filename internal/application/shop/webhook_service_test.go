package shop

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinventory "github.com/werkbank-erp/backend/internal/application/inventory"
	"github.com/werkbank-erp/backend/internal/domain/shared"
	"github.com/werkbank-erp/backend/internal/domain/shop"
)

func newIntake(env *testEnv, store shared.IdempotencyStore, enabled bool) *WebhookIntakeService {
	processor := NewOrderProcessorService(env.scope, env.webhookEvents, appinventory.NewLedgerService())
	return NewWebhookIntakeService(env.webhookEvents, processor, store, shared.IdempotencyConfig{
		TTL:     time.Hour,
		Enabled: enabled,
	})
}

func TestWebhookIntake_ProcessesDelivery(t *testing.T) {
	env := newTestEnv()
	internal := uuid.New()
	addVariantMapping(t, env, "v-100", internal, 1)
	env.stockLevels.set(internal, decimal.NewFromInt(10))

	result, err := newIntake(env, newFakeIdempotencyStore(), true).
		HandleOrderWebhook(context.Background(), "orders/paid", "delivery-1", orderPayload("9001", "v-100", 2))

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, env.stockLevels.quantity(internal).Equal(decimal.NewFromInt(8)))

	event := env.webhookEvents.only()
	require.NotNil(t, event)
	assert.Equal(t, "orders/paid", event.Topic)
	assert.Equal(t, "9001", event.ExternalOrderID)
	assert.Equal(t, shop.WebhookEventStatusProcessed, event.Status)
}

func TestWebhookIntake_DuplicateDeliveryShortCircuits(t *testing.T) {
	env := newTestEnv()
	internal := uuid.New()
	addVariantMapping(t, env, "v-100", internal, 1)
	env.stockLevels.set(internal, decimal.NewFromInt(10))
	intake := newIntake(env, newFakeIdempotencyStore(), true)
	raw := orderPayload("9001", "v-100", 2)

	first, err := intake.HandleOrderWebhook(context.Background(), "orders/paid", "delivery-1", raw)
	require.NoError(t, err)
	require.True(t, first.Success)

	second, err := intake.HandleOrderWebhook(context.Background(), "orders/paid", "delivery-1", raw)
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Equal(t, "9001", second.ExternalOrderID)

	// The short circuit skipped the processor entirely
	assert.True(t, env.stockLevels.quantity(internal).Equal(decimal.NewFromInt(8)))
	assert.Len(t, env.stockMovements.byVariant(internal), 1)
}

func TestWebhookIntake_RedeliveryWithNewDeliveryIDStillOneDeduction(t *testing.T) {
	env := newTestEnv()
	internal := uuid.New()
	addVariantMapping(t, env, "v-100", internal, 1)
	env.stockLevels.set(internal, decimal.NewFromInt(10))
	intake := newIntake(env, newFakeIdempotencyStore(), true)
	raw := orderPayload("9001", "v-100", 2)

	_, err := intake.HandleOrderWebhook(context.Background(), "orders/paid", "delivery-1", raw)
	require.NoError(t, err)

	// Same order, different delivery ID: the fast path misses, the
	// processor's gate still skips.
	second, err := intake.HandleOrderWebhook(context.Background(), "orders/paid", "delivery-2", raw)
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Len(t, env.stockMovements.byVariant(internal), 1)
}

func TestWebhookIntake_FailedDeliveryStaysRetryableUnderSameID(t *testing.T) {
	env := newTestEnv()
	internal := uuid.New()
	addVariantMapping(t, env, "v-100", internal, 1)
	env.stockLevels.set(internal, decimal.NewFromInt(10))
	intake := newIntake(env, newFakeIdempotencyStore(), true)
	raw := orderPayload("9001", "v-100", 2)

	// First delivery hits a transient database error mid-processing.
	env.stockLevels.findErr = fmt.Errorf("connection reset")
	_, err := intake.HandleOrderWebhook(context.Background(), "orders/paid", "delivery-1", raw)
	require.Error(t, err)
	order, err := env.orders.FindByExternalID(context.Background(), "9001")
	require.NoError(t, err)
	require.False(t, order.IsProcessed())

	// The platform redelivers with the same delivery ID. The failed attempt
	// must not have poisoned the dedup store.
	env.stockLevels.findErr = nil
	second, err := intake.HandleOrderWebhook(context.Background(), "orders/paid", "delivery-1", raw)
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.False(t, second.Skipped)
	assert.True(t, env.stockLevels.quantity(internal).Equal(decimal.NewFromInt(8)))
	assert.Len(t, env.stockMovements.byVariant(internal), 1)
}

func TestWebhookIntake_UnprocessedOrderStaysRetryableUnderSameID(t *testing.T) {
	env := newTestEnv()
	internal := uuid.New()
	env.stockLevels.set(internal, decimal.NewFromInt(10))
	intake := newIntake(env, newFakeIdempotencyStore(), true)
	raw := orderPayload("9001", "v-100", 2)

	// No mapping yet: the order is stored but stays unprocessed.
	first, err := intake.HandleOrderWebhook(context.Background(), "orders/paid", "delivery-1", raw)
	require.NoError(t, err)
	assert.Equal(t, 0, first.ProcessedItemCount)

	// After the mapping is fixed, a redelivery under the same ID deducts.
	addVariantMapping(t, env, "v-100", internal, 1)
	second, err := intake.HandleOrderWebhook(context.Background(), "orders/paid", "delivery-1", raw)
	require.NoError(t, err)
	assert.False(t, second.Skipped)
	assert.Equal(t, 1, second.ProcessedItemCount)
	assert.True(t, env.stockLevels.quantity(internal).Equal(decimal.NewFromInt(8)))
}

func TestWebhookIntake_StoreFailureFallsThroughToProcessor(t *testing.T) {
	env := newTestEnv()
	internal := uuid.New()
	addVariantMapping(t, env, "v-100", internal, 1)
	env.stockLevels.set(internal, decimal.NewFromInt(10))

	store := newFakeIdempotencyStore()
	store.err = fmt.Errorf("connection refused")

	result, err := newIntake(env, store, true).
		HandleOrderWebhook(context.Background(), "orders/paid", "delivery-1", orderPayload("9001", "v-100", 2))

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, env.stockLevels.quantity(internal).Equal(decimal.NewFromInt(8)))
}

func TestWebhookIntake_EmptyDeliveryIDSkipsFastPath(t *testing.T) {
	env := newTestEnv()
	internal := uuid.New()
	addVariantMapping(t, env, "v-100", internal, 1)
	env.stockLevels.set(internal, decimal.NewFromInt(10))
	intake := newIntake(env, newFakeIdempotencyStore(), true)
	raw := orderPayload("9001", "v-100", 2)

	first, err := intake.HandleOrderWebhook(context.Background(), "orders/paid", "", raw)
	require.NoError(t, err)
	assert.True(t, first.Success)

	second, err := intake.HandleOrderWebhook(context.Background(), "orders/paid", "", raw)
	require.NoError(t, err)
	assert.True(t, second.Skipped)
}

func TestWebhookIntake_NilStoreDisablesFastPath(t *testing.T) {
	env := newTestEnv()
	internal := uuid.New()
	addVariantMapping(t, env, "v-100", internal, 1)
	env.stockLevels.set(internal, decimal.NewFromInt(10))

	result, err := newIntake(env, nil, true).
		HandleOrderWebhook(context.Background(), "orders/paid", "delivery-1", orderPayload("9001", "v-100", 1))

	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestWebhookIntake_UnparseableDeliveryIsLogged(t *testing.T) {
	env := newTestEnv()

	_, err := newIntake(env, newFakeIdempotencyStore(), true).
		HandleOrderWebhook(context.Background(), "orders/paid", "delivery-1", []byte("not json"))

	require.Error(t, err)

	event := env.webhookEvents.only()
	require.NotNil(t, event)
	assert.Empty(t, event.ExternalOrderID)
	assert.Equal(t, shop.WebhookEventStatusFailed, event.Status)
}

func TestWebhookIntake_SaveFailureAbortsDelivery(t *testing.T) {
	env := newTestEnv()
	env.webhookEvents.saveErr = fmt.Errorf("log table unavailable")

	_, err := newIntake(env, newFakeIdempotencyStore(), true).
		HandleOrderWebhook(context.Background(), "orders/paid", "delivery-1", orderPayload("9001", "v-100", 1))

	assert.Error(t, err)
}

func TestPeekExternalOrderID(t *testing.T) {
	assert.Equal(t, "9001", peekExternalOrderID([]byte(`{"id": "9001"}`)))
	assert.Empty(t, peekExternalOrderID([]byte(`{}`)))
	assert.Empty(t, peekExternalOrderID([]byte(`not json`)))
}
