package metrics

import "github.com/prometheus/client_golang/prometheus"

// MarketMetrics counts lifecycle outcomes of listings, bids and wallets.
type MarketMetrics struct {
	listingsCreated *prometheus.CounterVec
	bidsPlaced      prometheus.Counter
	bidsRejected    *prometheus.CounterVec
	listingsSold    *prometheus.CounterVec
	auctionsClosed  *prometheus.CounterVec
	listingsRemoved *prometheus.CounterVec
	retries         *prometheus.CounterVec
	goldVolume      prometheus.Counter
}

// NewMarketMetrics registers the market metrics on the provided registerer.
func NewMarketMetrics(reg prometheus.Registerer) *MarketMetrics {
	if reg == nil {
		return &MarketMetrics{}
	}
	m := &MarketMetrics{
		listingsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rpgmarket_listings_created_total",
			Help: "Listings created by sale type.",
		}, []string{"type"}),
		bidsPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rpgmarket_bids_placed_total",
			Help: "Bids accepted into the ledger.",
		}),
		bidsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rpgmarket_bids_rejected_total",
			Help: "Bids rejected by error code.",
		}, []string{"code"}),
		listingsSold: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rpgmarket_listings_sold_total",
			Help: "Buy-now purchases by sale type.",
		}, []string{"type"}),
		auctionsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rpgmarket_auctions_closed_total",
			Help: "Auctions closed by outcome (won, unsold).",
		}, []string{"outcome"}),
		listingsRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rpgmarket_listings_removed_total",
			Help: "Listings removed by actor kind (owner, moderator).",
		}, []string{"actor"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rpgmarket_optimistic_retries_total",
			Help: "Transactions retried after a stale row version.",
		}, []string{"operation"}),
		goldVolume: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rpgmarket_gold_volume_total",
			Help: "Gold moved from buyers to sellers.",
		}),
	}
	reg.MustRegister(m.listingsCreated, m.bidsPlaced, m.bidsRejected, m.listingsSold,
		m.auctionsClosed, m.listingsRemoved, m.retries, m.goldVolume)
	return m
}

func (m *MarketMetrics) ListingCreated(listingType string) {
	if m == nil || m.listingsCreated == nil {
		return
	}
	m.listingsCreated.WithLabelValues(normalizeLabel(listingType)).Inc()
}

func (m *MarketMetrics) BidPlaced() {
	if m == nil || m.bidsPlaced == nil {
		return
	}
	m.bidsPlaced.Inc()
}

func (m *MarketMetrics) BidRejected(code string) {
	if m == nil || m.bidsRejected == nil {
		return
	}
	m.bidsRejected.WithLabelValues(normalizeLabel(code)).Inc()
}

func (m *MarketMetrics) ListingSold(listingType string, amount float64) {
	if m == nil || m.listingsSold == nil {
		return
	}
	m.listingsSold.WithLabelValues(normalizeLabel(listingType)).Inc()
	m.goldVolume.Add(amount)
}

func (m *MarketMetrics) AuctionClosed(outcome string, amount float64) {
	if m == nil || m.auctionsClosed == nil {
		return
	}
	m.auctionsClosed.WithLabelValues(normalizeLabel(outcome)).Inc()
	if amount > 0 {
		m.goldVolume.Add(amount)
	}
}

func (m *MarketMetrics) ListingRemoved(actor string) {
	if m == nil || m.listingsRemoved == nil {
		return
	}
	m.listingsRemoved.WithLabelValues(normalizeLabel(actor)).Inc()
}

func (m *MarketMetrics) Retry(operation string) {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.WithLabelValues(normalizeLabel(operation)).Inc()
}
