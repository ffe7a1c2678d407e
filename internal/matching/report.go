package matching

import (
	"github.com/shopspring/decimal"
)

// MissingPart describes a participating part the inventory cannot cover.
type MissingPart struct {
	PartID    string          `json:"part_id"`
	PartName  string          `json:"part_name"`
	ColorID   int             `json:"color_id"`
	ColorName string          `json:"color_name"`
	Needed    int             `json:"needed"`
	Available int             `json:"available"`
	ShortBy   int             `json:"short_by"`
	UnitPrice decimal.Decimal `json:"price"`
	Remarks   string          `json:"remarks"`
}

// MatchedPart describes the inventory contribution toward one requirement.
type MatchedPart struct {
	PartID     string          `json:"part_id"`
	PartName   string          `json:"part_name"`
	ColorID    int             `json:"color_id"`
	ColorName  string          `json:"color_name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"price"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Remarks    string          `json:"remarks"`
}

// PriceSummary holds the six-month sold averages for an assembly.
type PriceSummary struct {
	NewCondition  *decimal.Decimal `json:"new_condition,omitempty"`
	UsedCondition *decimal.Decimal `json:"used_condition,omitempty"`
}

// Report is the outcome of matching one assembly.
//
// MatchedParts is the sum of min(available, needed) over participating
// parts, so it never exceeds TotalParts. CanBuild holds exactly when Missing
// is empty.
type Report struct {
	ID              string           `json:"minifig_id"`
	Name            string           `json:"minifig_name"`
	YearReleased    *int             `json:"year_released"`
	CategoryName    string           `json:"category_name"`
	MatchedParts    int              `json:"matched_parts"`
	TotalParts      int              `json:"total_parts"`
	MissingParts    int              `json:"missing_parts"`
	MatchPercentage float64          `json:"match_percentage"`
	CanBuild        bool             `json:"can_build"`
	BuildableCount  int              `json:"buildable_count"`
	EstimatedValue  *decimal.Decimal `json:"estimated_value"`
	PartsValue      decimal.Decimal  `json:"parts_value"`
	Profit          *decimal.Decimal `json:"profit"`
	Prices          *PriceSummary    `json:"prices_6month_average"`
	Missing         []MissingPart    `json:"missing_details"`
	AllParts        []MatchedPart    `json:"all_parts"`
}
