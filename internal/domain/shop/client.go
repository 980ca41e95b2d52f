package shop

import (
	"context"
	"time"
)

// OrderPage is one page of the shop's historical orders query
type OrderPage struct {
	// Orders are the payloads on this page
	Orders []OrderPayload
	// NextPageToken requests the following page; empty on the last page
	NextPageToken string
}

// Client is the port to the shop platform's API. The transport (auth,
// pagination mechanics, rate limiting, retries) lives with the caller; this
// core only consumes the contract. Webhook delivery is the primary order
// source, the historical query exists for backfills.
type Client interface {
	// FetchOrders returns one page of orders created in [since, until)
	FetchOrders(ctx context.Context, since, until time.Time, pageToken string) (*OrderPage, error)

	// FetchOrder returns a single order by its shop-assigned ID
	FetchOrder(ctx context.Context, externalOrderID string) (*OrderPayload, error)
}
