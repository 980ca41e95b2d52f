package shop

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/werkbank-erp/backend/internal/domain/shop"
)

func newResolver(env *testEnv) *VariantResolverService {
	return NewVariantResolverService(env.identityEdges, env.variantMappings, env.propertyMappings, env.scope)
}

func saveEdge(t *testing.T, env *testEnv, productID, oldID, newID string) {
	t.Helper()
	edge, err := shop.NewVariantIdentityEdge(productID, oldID, newID, "")
	require.NoError(t, err)
	require.NoError(t, env.identityEdges.Save(context.Background(), edge))
}

func TestVariantResolver_Resolve(t *testing.T) {
	t.Run("unknown ID resolves to itself", func(t *testing.T) {
		env := newTestEnv()
		got, err := newResolver(env).Resolve(context.Background(), "p-77", "v-1")
		require.NoError(t, err)
		assert.Equal(t, "v-1", got)
	})

	t.Run("follows a chain to the final ID", func(t *testing.T) {
		env := newTestEnv()
		saveEdge(t, env, "p-77", "v-a", "v-b")
		saveEdge(t, env, "p-77", "v-b", "v-c")

		got, err := newResolver(env).Resolve(context.Background(), "p-77", "v-a")
		require.NoError(t, err)
		assert.Equal(t, "v-c", got)
	})

	t.Run("edges are scoped per product", func(t *testing.T) {
		env := newTestEnv()
		saveEdge(t, env, "p-77", "v-a", "v-b")

		got, err := newResolver(env).Resolve(context.Background(), "p-88", "v-a")
		require.NoError(t, err)
		assert.Equal(t, "v-a", got)
	})

	t.Run("cycle is detected", func(t *testing.T) {
		env := newTestEnv()
		saveEdge(t, env, "p-77", "v-a", "v-b")
		saveEdge(t, env, "p-77", "v-b", "v-c")
		saveEdge(t, env, "p-77", "v-c", "v-a")

		_, err := newResolver(env).Resolve(context.Background(), "p-77", "v-a")
		assert.ErrorIs(t, err, shop.ErrResolutionCycle)
	})

	t.Run("empty inputs are rejected", func(t *testing.T) {
		env := newTestEnv()
		resolver := newResolver(env)

		_, err := resolver.Resolve(context.Background(), "", "v-1")
		assert.ErrorIs(t, err, shop.ErrIdentityInvalidProductID)

		_, err = resolver.Resolve(context.Background(), "p-77", "")
		assert.ErrorIs(t, err, shop.ErrIdentityInvalidVariantID)
	})
}

func TestVariantResolver_RecordIdentityChange(t *testing.T) {
	ctx := context.Background()

	t.Run("migrates active mappings to the new ID", func(t *testing.T) {
		env := newTestEnv()
		internal := uuid.New()
		m, err := shop.NewVariantMapping("v-old", internal, decimal.NewFromInt(1))
		require.NoError(t, err)
		env.variantMappings.add(m)
		prop, err := shop.NewPropertyMapping("v-old",
			shop.PropertyRuleSet{{Name: "Farbe", Value: "Rot"}}, internal, decimal.NewFromInt(1))
		require.NoError(t, err)
		env.propertyMappings.add(prop)

		result, err := newResolver(env).RecordIdentityChange(ctx, "p-77", "v-old", "v-new", "relaunch")
		require.NoError(t, err)
		assert.False(t, result.Skipped)
		assert.Equal(t, int64(1), result.UpdatedMappings)
		assert.Equal(t, int64(1), result.UpdatedPropertyMappings)

		// The edge makes old orders resolve to the new ID
		resolved, err := newResolver(env).Resolve(ctx, "p-77", "v-old")
		require.NoError(t, err)
		assert.Equal(t, "v-new", resolved)

		// Mappings now live on the new ID
		rows, err := env.variantMappings.FindActiveByExternalVariant(ctx, "v-new")
		require.NoError(t, err)
		assert.Len(t, rows, 1)
		rows, err = env.variantMappings.FindActiveByExternalVariant(ctx, "v-old")
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("skips migration when the new ID already has mappings", func(t *testing.T) {
		env := newTestEnv()
		internal := uuid.New()
		oldMapping, err := shop.NewVariantMapping("v-old", internal, decimal.NewFromInt(1))
		require.NoError(t, err)
		env.variantMappings.add(oldMapping)
		newMapping, err := shop.NewVariantMapping("v-new", uuid.New(), decimal.NewFromInt(1))
		require.NoError(t, err)
		env.variantMappings.add(newMapping)

		result, err := newResolver(env).RecordIdentityChange(ctx, "p-77", "v-old", "v-new", "")
		require.NoError(t, err)
		assert.True(t, result.Skipped)
		assert.Contains(t, result.SkippedReason, shop.ErrMappingConflict.Error())
		assert.Zero(t, result.UpdatedMappings)

		// Old mappings stay untouched, the edge is still recorded
		rows, err := env.variantMappings.FindActiveByExternalVariant(ctx, "v-old")
		require.NoError(t, err)
		assert.Len(t, rows, 1)
		resolved, err := newResolver(env).Resolve(ctx, "p-77", "v-old")
		require.NoError(t, err)
		assert.Equal(t, "v-new", resolved)
	})

	t.Run("skips migration when the old ID has no mappings", func(t *testing.T) {
		env := newTestEnv()

		result, err := newResolver(env).RecordIdentityChange(ctx, "p-77", "v-old", "v-new", "")
		require.NoError(t, err)
		assert.True(t, result.Skipped)
		assert.Contains(t, result.SkippedReason, "no active mappings")
	})

	t.Run("refuses an edge that would close a loop", func(t *testing.T) {
		env := newTestEnv()
		saveEdge(t, env, "p-77", "v-b", "v-a")

		_, err := newResolver(env).RecordIdentityChange(ctx, "p-77", "v-a", "v-b", "")
		assert.ErrorIs(t, err, shop.ErrResolutionCycle)

		// Nothing was recorded
		_, findErr := env.identityEdges.FindByProductAndOldVariant(ctx, "p-77", "v-a")
		assert.Error(t, findErr)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		env := newTestEnv()
		resolver := newResolver(env)

		_, err := resolver.RecordIdentityChange(ctx, "p-77", "v-1", "v-1", "")
		assert.ErrorIs(t, err, shop.ErrIdentitySameVariantID)

		_, err = resolver.RecordIdentityChange(ctx, "", "v-1", "v-2", "")
		assert.ErrorIs(t, err, shop.ErrIdentityInvalidProductID)
	})
}
