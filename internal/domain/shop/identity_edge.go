package shop

import (
	"context"

	"github.com/werkbank-erp/backend/internal/domain/shared"
)

// VariantIdentityEdge records that the shop replaced one variant ID with
// another for the same product. Edges form a functional graph keyed by
// (product ID, old variant ID): at most one outgoing edge per key. The graph
// must stay acyclic for resolution to terminate; RecordIdentityChange dry-runs
// a resolve before inserting an edge.
type VariantIdentityEdge struct {
	shared.BaseEntity
	// ExternalProductID scopes the edge to one shop product
	ExternalProductID string `gorm:"not null;uniqueIndex:idx_identity_edge_product_old,priority:1"`
	// OldVariantID is the replaced variant ID
	OldVariantID string `gorm:"not null;uniqueIndex:idx_identity_edge_product_old,priority:2"`
	// NewVariantID is the replacement variant ID
	NewVariantID string `gorm:"not null"`
	// Note is a free-text explanation of why the ID changed
	Note string
}

// TableName returns the table name for GORM
func (VariantIdentityEdge) TableName() string {
	return "variant_identity_edges"
}

// NewVariantIdentityEdge creates a new identity edge after basic validation
func NewVariantIdentityEdge(externalProductID, oldVariantID, newVariantID, note string) (*VariantIdentityEdge, error) {
	if externalProductID == "" {
		return nil, ErrIdentityInvalidProductID
	}
	if oldVariantID == "" || newVariantID == "" {
		return nil, ErrIdentityInvalidVariantID
	}
	if oldVariantID == newVariantID {
		return nil, ErrIdentitySameVariantID
	}
	return &VariantIdentityEdge{
		BaseEntity:        shared.NewBaseEntity(),
		ExternalProductID: externalProductID,
		OldVariantID:      oldVariantID,
		NewVariantID:      newVariantID,
		Note:              note,
	}, nil
}

// VariantIdentityEdgeRepository defines persistence for identity edges
type VariantIdentityEdgeRepository interface {
	// FindByProductAndOldVariant returns the outgoing edge for the key, or
	// shared.ErrNotFound when no replacement was recorded.
	FindByProductAndOldVariant(ctx context.Context, externalProductID, oldVariantID string) (*VariantIdentityEdge, error)

	// FindByProduct returns all edges recorded for one product
	FindByProduct(ctx context.Context, externalProductID string) ([]VariantIdentityEdge, error)

	// Save inserts a new identity edge
	Save(ctx context.Context, edge *VariantIdentityEdge) error
}
