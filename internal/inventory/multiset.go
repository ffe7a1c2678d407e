package inventory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"figfinder/internal/partkey"
)

// Item types accepted from inventory exports.
const (
	ItemTypePart    = "P"
	ItemTypeMinifig = "M"
	defaultItemType = ItemTypePart
)

// LineItem is one raw inventory row before aggregation.
type LineItem struct {
	PartID    string
	ColorID   int
	Quantity  int
	ItemType  string
	Condition string
	UnitPrice decimal.Decimal
	Remarks   string
}

// Detail carries the informational fields kept for a key: the first
// non-empty remarks and the first non-zero unit price.
type Detail struct {
	ItemType  string          `json:"item_type"`
	Condition string          `json:"condition,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Remarks   string          `json:"remarks,omitempty"`
}

// Summary describes a loaded inventory.
type Summary struct {
	UniqueParts   int `json:"unique_parts"`
	TotalQuantity int `json:"total_quantity"`
	// Skipped counts line items whose item type is neither part nor minifigure.
	Skipped int `json:"skipped"`
}

// Multiset maps part keys to available quantities. It is read-only once built.
type Multiset struct {
	quantities map[partkey.Key]int
	details    map[partkey.Key]Detail
	skipped    int
}

// Available returns the quantity on hand for key, zero when absent.
func (m *Multiset) Available(key partkey.Key) int {
	if m == nil {
		return 0
	}
	return m.quantities[key]
}

// Detail returns the informational fields recorded for key.
func (m *Multiset) Detail(key partkey.Key) (Detail, bool) {
	if m == nil {
		return Detail{}, false
	}
	d, ok := m.details[key]
	return d, ok
}

// Keys returns every key in stable order.
func (m *Multiset) Keys() []partkey.Key {
	if m == nil {
		return nil
	}
	keys := make([]partkey.Key, 0, len(m.quantities))
	for key := range m.quantities {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return partkey.Less(keys[i], keys[j]) })
	return keys
}

// Len returns the number of distinct keys.
func (m *Multiset) Len() int {
	if m == nil {
		return 0
	}
	return len(m.quantities)
}

// Summary returns unique key and total quantity counts.
func (m *Multiset) Summary() Summary {
	if m == nil {
		return Summary{}
	}
	total := 0
	for _, qty := range m.quantities {
		total += qty
	}
	return Summary{UniqueParts: len(m.quantities), TotalQuantity: total, Skipped: m.skipped}
}

// Builder accumulates line items into a Multiset.
type Builder struct {
	quantities map[partkey.Key]int
	details    map[partkey.Key]Detail
	skipped    int
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		quantities: make(map[partkey.Key]int),
		details:    make(map[partkey.Key]Detail),
	}
}

// Add normalizes the item's identity and sums its quantity into the builder.
// Items of other types are counted as skipped and otherwise ignored.
func (b *Builder) Add(item LineItem) error {
	itemType := strings.ToUpper(strings.TrimSpace(item.ItemType))
	if itemType == "" {
		itemType = defaultItemType
	}
	if itemType != ItemTypePart && itemType != ItemTypeMinifig {
		b.skipped++
		return nil
	}
	if strings.TrimSpace(item.PartID) == "" {
		return fmt.Errorf("part id is required")
	}
	if item.Quantity < 0 {
		return fmt.Errorf("quantity %d is negative", item.Quantity)
	}
	if item.ColorID < 0 {
		return fmt.Errorf("color id %d is negative", item.ColorID)
	}

	key := partkey.Normalize(item.PartID, item.ColorID)
	b.quantities[key] += item.Quantity

	detail, seen := b.details[key]
	if !seen {
		detail.ItemType = itemType
		detail.Condition = strings.ToUpper(strings.TrimSpace(item.Condition))
	}
	if detail.Remarks == "" {
		detail.Remarks = strings.TrimSpace(item.Remarks)
	}
	if detail.UnitPrice.IsZero() && !item.UnitPrice.IsZero() {
		detail.UnitPrice = item.UnitPrice
	}
	b.details[key] = detail
	return nil
}

// Skip records a line item that was not added.
func (b *Builder) Skip() {
	b.skipped++
}

// Build returns a Multiset holding a copy of the accumulated state.
func (b *Builder) Build() *Multiset {
	quantities := make(map[partkey.Key]int, len(b.quantities))
	for key, qty := range b.quantities {
		quantities[key] = qty
	}
	details := make(map[partkey.Key]Detail, len(b.details))
	for key, detail := range b.details {
		details[key] = detail
	}
	return &Multiset{quantities: quantities, details: details, skipped: b.skipped}
}
