package enums

import (
	"fmt"
	"strings"
)

// TransactionStatus tracks a purchase from sale to delivery.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusShipped   TransactionStatus = "SHIPPED"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusCanceled  TransactionStatus = "CANCELED"
)

var validTransactionStatuses = []TransactionStatus{
	TransactionStatusPending,
	TransactionStatusShipped,
	TransactionStatusCompleted,
	TransactionStatusCanceled,
}

func (s TransactionStatus) String() string { return string(s) }

func (s TransactionStatus) IsValid() bool {
	for _, candidate := range validTransactionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseTransactionStatus converts raw input (any case) into a TransactionStatus.
func ParseTransactionStatus(value string) (TransactionStatus, error) {
	normalized := TransactionStatus(strings.ToUpper(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid transaction status %q", value)
}
