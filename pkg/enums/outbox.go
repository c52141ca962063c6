package enums

import "fmt"

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateListing     OutboxAggregateType = "listing"
	AggregateTransaction OutboxAggregateType = "transaction"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateListing,
	AggregateTransaction,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType names a domain event emitted by the market.
type OutboxEventType string

const (
	EventListingCreated           OutboxEventType = "listing_created"
	EventListingUpdated           OutboxEventType = "listing_updated"
	EventBidPlaced                OutboxEventType = "bid_placed"
	EventListingSold              OutboxEventType = "listing_sold"
	EventAuctionClosed            OutboxEventType = "auction_closed"
	EventListingRemoved           OutboxEventType = "listing_removed"
	EventTransactionStatusChanged OutboxEventType = "transaction_status_changed"
)

var validEventTypes = []OutboxEventType{
	EventListingCreated,
	EventListingUpdated,
	EventBidPlaced,
	EventListingSold,
	EventAuctionClosed,
	EventListingRemoved,
	EventTransactionStatusChanged,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
