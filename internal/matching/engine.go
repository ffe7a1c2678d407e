package matching

import (
	"time"

	"github.com/shopspring/decimal"

	"figfinder/internal/catalog"
	"figfinder/internal/inventory"
)

// Engine matches assemblies against an inventory. The zero value is ready to use.
type Engine struct {
	// Clock stamps batch results. Defaults to time.Now.
	Clock func() time.Time
}

// NewEngine returns an Engine using the wall clock.
func NewEngine() *Engine {
	return &Engine{Clock: time.Now}
}

func (e *Engine) now() time.Time {
	if e == nil || e.Clock == nil {
		return time.Now().UTC()
	}
	return e.Clock().UTC()
}

// Match compares one assembly with the inventory. price may be nil.
//
// An assembly with no participating parts reports CanBuild true with a 0%
// match.
func (e *Engine) Match(assembly catalog.Assembly, inv *inventory.Multiset, price *catalog.PriceRecord) Report {
	report := Report{
		ID:           assembly.ID,
		Name:         assembly.Name,
		CategoryName: assembly.Category,
		Missing:      []MissingPart{},
		AllParts:     []MatchedPart{},
		PartsValue:   decimal.Zero,
	}
	if assembly.YearReleased > 0 {
		year := assembly.YearReleased
		report.YearReleased = &year
	}

	buildable := -1
	for _, req := range assembly.Requirements() {
		available := inv.Available(req.Key)
		detail, _ := inv.Detail(req.Key)
		contribution := min(available, req.Quantity)

		report.TotalParts += req.Quantity
		report.MatchedParts += contribution

		if available < req.Quantity {
			remarks := ""
			if available > 0 {
				remarks = detail.Remarks
			}
			report.Missing = append(report.Missing, MissingPart{
				PartID:    req.Key.PartID,
				PartName:  req.PartName,
				ColorID:   req.Key.ColorID,
				ColorName: req.ColorName,
				Needed:    req.Quantity,
				Available: available,
				ShortBy:   req.Quantity - available,
				UnitPrice: detail.UnitPrice,
				Remarks:   remarks,
			})
		}

		if contribution > 0 {
			total := detail.UnitPrice.Mul(decimal.NewFromInt(int64(contribution)))
			report.AllParts = append(report.AllParts, MatchedPart{
				PartID:     req.Key.PartID,
				PartName:   req.PartName,
				ColorID:    req.Key.ColorID,
				ColorName:  req.ColorName,
				Quantity:   contribution,
				UnitPrice:  detail.UnitPrice,
				TotalPrice: total,
				Remarks:    detail.Remarks,
			})
			report.PartsValue = report.PartsValue.Add(total)
		}

		if sets := available / req.Quantity; buildable < 0 || sets < buildable {
			buildable = sets
		}
	}

	report.MissingParts = report.TotalParts - report.MatchedParts
	report.CanBuild = len(report.Missing) == 0
	if report.TotalParts > 0 {
		report.MatchPercentage = float64(report.MatchedParts) / float64(report.TotalParts) * 100
	}
	if buildable > 0 {
		report.BuildableCount = buildable
	}

	if price != nil {
		if value, ok := price.MarketValue(); ok {
			profit := value.Sub(report.PartsValue)
			report.EstimatedValue = &value
			report.Profit = &profit
		}
		newAvg, usedAvg := price.SixMonthAverages()
		if newAvg != nil || usedAvg != nil {
			report.Prices = &PriceSummary{NewCondition: newAvg, UsedCondition: usedAvg}
		}
	}
	return report
}
