package shop

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/werkbank-erp/backend/internal/domain/shared"
	"github.com/werkbank-erp/backend/internal/domain/shop"
	"github.com/werkbank-erp/backend/internal/infrastructure/logger"
)

// resolveVariantChain walks the identity-edge graph from the given variant ID
// until no further edge exists, returning the final ID and the set of IDs
// visited along the way. A repeated ID aborts with shop.ErrResolutionCycle;
// nothing is mutated. An unknown ID resolves to itself.
func resolveVariantChain(ctx context.Context, edges shop.VariantIdentityEdgeRepository, externalProductID, variantID string) (string, map[string]bool, error) {
	visited := map[string]bool{variantID: true}
	current := variantID

	for {
		edge, err := edges.FindByProductAndOldVariant(ctx, externalProductID, current)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return current, visited, nil
			}
			return "", nil, fmt.Errorf("looking up identity edge for variant %s: %w", current, err)
		}

		if visited[edge.NewVariantID] {
			return "", nil, fmt.Errorf("%w: product %s, variant %s revisits %s",
				shop.ErrResolutionCycle, externalProductID, variantID, edge.NewVariantID)
		}
		visited[edge.NewVariantID] = true
		current = edge.NewVariantID
	}
}

// VariantResolverService resolves historical external variant IDs to their
// current ones and records identity changes, migrating active mappings to the
// new ID where that is safe.
type VariantResolverService struct {
	edges            shop.VariantIdentityEdgeRepository
	variantMappings  shop.VariantMappingRepository
	propertyMappings shop.PropertyMappingRepository
	scope            TransactionScope
}

// NewVariantResolverService creates a new VariantResolverService
func NewVariantResolverService(
	edges shop.VariantIdentityEdgeRepository,
	variantMappings shop.VariantMappingRepository,
	propertyMappings shop.PropertyMappingRepository,
	scope TransactionScope,
) *VariantResolverService {
	return &VariantResolverService{
		edges:            edges,
		variantMappings:  variantMappings,
		propertyMappings: propertyMappings,
		scope:            scope,
	}
}

// Resolve returns the current external variant ID for a possibly historical
// one. An ID with no recorded replacement resolves to itself. A cycle in the
// identity chain returns shop.ErrResolutionCycle without mutating anything.
func (s *VariantResolverService) Resolve(ctx context.Context, externalProductID, variantID string) (string, error) {
	if externalProductID == "" {
		return "", shop.ErrIdentityInvalidProductID
	}
	if variantID == "" {
		return "", shop.ErrIdentityInvalidVariantID
	}
	finalID, _, err := resolveVariantChain(ctx, s.edges, externalProductID, variantID)
	return finalID, err
}

// RecordIdentityChange records that the shop replaced oldVariantID with
// newVariantID for the given product. When the new ID has no active mappings
// of its own (no conflict) and the old ID has any, all active variant and
// property mappings are rewritten from old to new atomically. In every other
// case the edge is still recorded for historical completeness and the result
// carries a skip reason instead of an error.
func (s *VariantResolverService) RecordIdentityChange(ctx context.Context, externalProductID, oldVariantID, newVariantID, note string) (*IdentityChangeResult, error) {
	log := logger.FromContext(ctx)

	edge, err := shop.NewVariantIdentityEdge(externalProductID, oldVariantID, newVariantID, note)
	if err != nil {
		return nil, err
	}

	// Dry-run resolution from the new ID. If the walk fails or leads back to
	// the old ID, inserting this edge would make resolution non-terminating.
	_, visited, err := resolveVariantChain(ctx, s.edges, externalProductID, newVariantID)
	if err != nil {
		return nil, err
	}
	if visited[oldVariantID] {
		return nil, fmt.Errorf("%w: recording %s -> %s would close a loop",
			shop.ErrResolutionCycle, oldVariantID, newVariantID)
	}

	newActive, err := s.countActiveMappings(ctx, s.variantMappings, s.propertyMappings, newVariantID)
	if err != nil {
		return nil, err
	}
	oldActive, err := s.countActiveMappings(ctx, s.variantMappings, s.propertyMappings, oldVariantID)
	if err != nil {
		return nil, err
	}

	result := &IdentityChangeResult{}
	switch {
	case newActive > 0:
		result.Skipped = true
		result.SkippedReason = fmt.Sprintf("%v: %s already has %d active mapping(s); mappings for %s left untouched",
			shop.ErrMappingConflict, newVariantID, newActive, oldVariantID)
	case oldActive == 0:
		result.Skipped = true
		result.SkippedReason = fmt.Sprintf("variant %s has no active mappings to migrate", oldVariantID)
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.IdentityEdges().Save(ctx, edge); err != nil {
			return fmt.Errorf("saving identity edge: %w", err)
		}
		if result.Skipped {
			return nil
		}

		updated, err := repos.VariantMappings().ReassignExternalVariant(ctx, oldVariantID, newVariantID)
		if err != nil {
			return fmt.Errorf("reassigning variant mappings: %w", err)
		}
		result.UpdatedMappings = updated

		updatedProps, err := repos.PropertyMappings().ReassignExternalVariant(ctx, oldVariantID, newVariantID)
		if err != nil {
			return fmt.Errorf("reassigning property mappings: %w", err)
		}
		result.UpdatedPropertyMappings = updatedProps
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("recorded variant identity change",
		zap.String("product_id", externalProductID),
		zap.String("old_variant_id", oldVariantID),
		zap.String("new_variant_id", newVariantID),
		zap.Int64("updated_mappings", result.UpdatedMappings),
		zap.Int64("updated_property_mappings", result.UpdatedPropertyMappings),
		zap.Bool("skipped", result.Skipped))

	return result, nil
}

// countActiveMappings counts active variant and property mappings for one
// external variant ID.
func (s *VariantResolverService) countActiveMappings(
	ctx context.Context,
	variantMappings shop.VariantMappingRepository,
	propertyMappings shop.PropertyMappingRepository,
	externalVariantID string,
) (int64, error) {
	count, err := variantMappings.CountActiveByExternalVariant(ctx, externalVariantID)
	if err != nil {
		return 0, err
	}
	propCount, err := propertyMappings.CountActiveByExternalVariant(ctx, externalVariantID)
	if err != nil {
		return 0, err
	}
	return count + propCount, nil
}
