// Package shop contains the domain model for the external webshop channel:
// incoming sales orders and the mapping layer that ties the shop's drifting
// product/variant identifiers to internal stock-keeping variants.
//
// Key concepts:
//   - ExternalOrder / OrderLineItem: a sales order as delivered by the shop,
//     with one line-item row per resolved internal component.
//   - VariantMapping: a fixed bundle composition for one external variant.
//   - PropertyMapping: a conditional mapping keyed by line-item properties,
//     used for customizable products.
//   - VariantIdentityEdge: a recorded replacement of one external variant id
//     by another, kept resolvable after the shop reassigns ids.
//   - WebhookEvent: a log of webhook deliveries for observability; the
//     durable duplicate guard is ExternalOrder.ProcessedAt.
package shop
