package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceStats summarizes one condition segment of a price guide.
type PriceStats struct {
	Lots        int             `json:"lots"`
	Quantity    int             `json:"quantity"`
	MinPrice    decimal.Decimal `json:"min_price"`
	AvgPrice    decimal.Decimal `json:"avg_price"`
	QtyAvgPrice decimal.Decimal `json:"qty_avg_price"`
	MaxPrice    decimal.Decimal `json:"max_price"`
}

// PriceGuide holds the four price guide segments. Absent segments are nil.
type PriceGuide struct {
	OrderedNew    *PriceStats `json:"ordered_new,omitempty"`
	OrderedUsed   *PriceStats `json:"ordered_used,omitempty"`
	InventoryNew  *PriceStats `json:"inventory_new,omitempty"`
	InventoryUsed *PriceStats `json:"inventory_used,omitempty"`
}

// Empty reports whether no segment is populated.
func (g PriceGuide) Empty() bool {
	return g.OrderedNew == nil && g.OrderedUsed == nil && g.InventoryNew == nil && g.InventoryUsed == nil
}

// PriceRecord is the cached price guide for one assembly.
type PriceRecord struct {
	Data    PriceGuide `json:"data"`
	Updated Timestamp  `json:"updated"`
}

// NewPriceRecord stamps a guide with the given update time.
func NewPriceRecord(guide PriceGuide, updated time.Time) PriceRecord {
	return PriceRecord{Data: guide, Updated: Timestamp{Time: updated.UTC()}}
}

// MarketValue returns the six-month sold average in used condition, falling
// back to new condition when used is absent or zero.
func (r PriceRecord) MarketValue() (decimal.Decimal, bool) {
	if s := r.Data.OrderedUsed; s != nil && !s.AvgPrice.IsZero() {
		return s.AvgPrice, true
	}
	if s := r.Data.OrderedNew; s != nil && !s.AvgPrice.IsZero() {
		return s.AvgPrice, true
	}
	return decimal.Zero, false
}

// SixMonthAverages returns the sold averages for new and used condition.
func (r PriceRecord) SixMonthAverages() (newAvg, usedAvg *decimal.Decimal) {
	if s := r.Data.OrderedNew; s != nil {
		v := s.AvgPrice
		newAvg = &v
	}
	if s := r.Data.OrderedUsed; s != nil {
		v := s.AvgPrice
		usedAvg = &v
	}
	return newAvg, usedAvg
}

// Age returns how long ago the record was refreshed. Zero timestamps report
// ok=false.
func (r PriceRecord) Age(now time.Time) (time.Duration, bool) {
	if r.Updated.IsZero() {
		return 0, false
	}
	return now.Sub(r.Updated.Time), true
}
