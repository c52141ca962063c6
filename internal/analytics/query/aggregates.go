// Package query holds the SQL aggregates behind the dashboards. Every query
// runs in the database; nothing loads whole tables into memory.
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/rpg-market/internal/analytics/types"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	topTradersSQL = `
SELECT %[1]s_id AS user_id, %[1]s_username AS username, COUNT(*) AS trades, COALESCE(SUM(amount), 0) AS volume
FROM transactions
WHERE status IN ?
GROUP BY %[1]s_id, %[1]s_username
ORDER BY trades DESC, volume DESC, username ASC
LIMIT ?
`

	volumeSQL = `
SELECT COALESCE(SUM(amount), 0) AS total, COUNT(*) AS trades
FROM transactions
WHERE status IN ?
  AND created_at >= ?
`

	categoryCountsSQL = `
SELECT category AS label, COUNT(*) AS value
FROM listings
WHERE status IN ?
GROUP BY category
ORDER BY value DESC, label ASC
`
)

// Side picks which participant of a transaction a ranking groups by.
type Side string

const (
	Sellers Side = "seller"
	Buyers  Side = "buyer"
)

// SettledStatuses are the ledger states that count as trade volume.
var SettledStatuses = []enums.TransactionStatus{
	enums.TransactionStatusPending,
	enums.TransactionStatusShipped,
	enums.TransactionStatusCompleted,
}

// Aggregates runs the dashboard SQL.
type Aggregates struct {
	db *gorm.DB
}

func NewAggregates(db *gorm.DB) *Aggregates {
	return &Aggregates{db: db}
}

type traderRow struct {
	UserID   uuid.UUID
	Username string
	Trades   int64
	Volume   decimal.Decimal
}

// TopTraders ranks sellers or buyers by trade count, then volume.
func (a *Aggregates) TopTraders(ctx context.Context, side Side, statuses []enums.TransactionStatus, limit int) ([]types.Trader, error) {
	if side != Sellers && side != Buyers {
		return nil, fmt.Errorf("unknown ranking side %q", side)
	}
	var rows []traderRow
	if err := a.db.WithContext(ctx).
		Raw(fmt.Sprintf(topTradersSQL, side), statuses, limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]types.Trader, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.Trader{UserID: r.UserID, Username: r.Username, Count: r.Trades, Volume: r.Volume})
	}
	return out, nil
}

// Volume sums the settled trade amounts created at or after since.
func (a *Aggregates) Volume(ctx context.Context, since time.Time) (decimal.Decimal, int64, error) {
	var row struct {
		Total  decimal.Decimal
		Trades int64
	}
	if err := a.db.WithContext(ctx).
		Raw(volumeSQL, SettledStatuses, since.UTC()).
		Scan(&row).Error; err != nil {
		return decimal.Zero, 0, err
	}
	return row.Total, row.Trades, nil
}

// CategoryCounts counts listings per category among the given statuses.
func (a *Aggregates) CategoryCounts(ctx context.Context, statuses []enums.ListingStatus) ([]types.LabelValue, error) {
	var rows []types.LabelValue
	if err := a.db.WithContext(ctx).
		Raw(categoryCountsSQL, statuses).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountListings counts listings, optionally restricted to statuses.
func (a *Aggregates) CountListings(ctx context.Context, statuses ...enums.ListingStatus) (int64, error) {
	var total int64
	q := a.db.WithContext(ctx).Table("listings")
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	if err := q.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// CountTransactions counts ledger rows created at or after since. A zero
// since counts everything.
func (a *Aggregates) CountTransactions(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	q := a.db.WithContext(ctx).Table("transactions")
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since.UTC())
	}
	if err := q.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
