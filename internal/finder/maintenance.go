package finder

import (
	"context"
	"errors"
	"fmt"

	"figfinder/internal/cachestore"
	"figfinder/internal/logging"
)

// Failure records one id a maintenance operation could not process.
type Failure struct {
	ID     string `json:"minifig_id"`
	Reason string `json:"reason"`
}

// RefreshSummary reports the outcome of RefreshPrices.
type RefreshSummary struct {
	Requested int       `json:"requested"`
	Updated   int       `json:"updated"`
	Failed    int       `json:"failed"`
	Cleared   bool      `json:"cleared"`
	Failures  []Failure `json:"failures"`
}

// RefreshPrices fetches fresh price records for ids, overwriting cached ones.
// Empty ids refreshes every cached assembly. clearFirst empties the price
// namespace before fetching.
func (f *Finder) RefreshPrices(ctx context.Context, ids []string, clearFirst bool) (RefreshSummary, error) {
	if f.prices == nil {
		return RefreshSummary{}, fmt.Errorf("prices: %w", ErrNoSource)
	}
	summary := RefreshSummary{Failures: []Failure{}}
	if clearFirst {
		if err := f.store.Prices.Clear(); err != nil {
			return summary, fmt.Errorf("clear price cache: %w", err)
		}
		summary.Cleared = true
		f.logger.Info("price cache cleared")
	}

	ids = normalizeIDs(ids)
	if len(ids) == 0 {
		ids = f.store.Assemblies.Keys()
	}
	summary.Requested = len(ids)

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("price refresh interrupted: %w", err)
		}
		if _, err := f.store.Prices.GetOrFetch(ctx, id, cachestore.ForceRefresh, f.fetchPrice); err != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, Failure{ID: id, Reason: omissionReason(err)})
			f.logger.Debug("price refresh failed", logging.String(logging.FieldAssemblyID, id), logging.Error(err))
			continue
		}
		summary.Updated++
		f.logger.Debug("price refreshed",
			logging.String(logging.FieldAssemblyID, id),
			logging.Int("position", i+1),
			logging.Int("total", len(ids)))
	}

	if summary.Failed > 0 {
		logging.WarnWithContext(f.logger, "some prices could not be refreshed",
			"price_refresh_partial",
			logging.Int("failed", summary.Failed),
			logging.Int("updated", summary.Updated),
			logging.String(logging.FieldErrorHint, "rerun prices refresh with --ids for the failed entries"),
			logging.String(logging.FieldImpact, "failed entries keep their previous price, if any"),
		)
	}
	f.logger.Info("price refresh complete",
		logging.Int("requested", summary.Requested),
		logging.Int("updated", summary.Updated),
		logging.Int("failed", summary.Failed))
	return summary, nil
}

// ImportSummary reports the outcome of Import.
type ImportSummary struct {
	Requested     int       `json:"requested"`
	Fetched       int       `json:"fetched"`
	AlreadyCached int       `json:"already_cached"`
	Failed        int       `json:"failed"`
	Failures      []Failure `json:"failures"`
}

// Import populates the assemblies namespace from the assembly source. Empty
// ids imports everything the source can list.
func (f *Finder) Import(ctx context.Context, ids []string, policy cachestore.FetchPolicy) (ImportSummary, error) {
	if f.assemblies == nil {
		return ImportSummary{}, fmt.Errorf("assemblies: %w", ErrNoSource)
	}
	ids = normalizeIDs(ids)
	if len(ids) == 0 {
		lister, ok := f.assemblies.(IDLister)
		if !ok {
			return ImportSummary{}, errors.New("assembly source cannot list ids; pass an id list")
		}
		listed, err := lister.IDs()
		if err != nil {
			return ImportSummary{}, err
		}
		ids = normalizeIDs(listed)
	}
	if policy == cachestore.CacheOnly {
		return ImportSummary{}, errors.New("import needs a fetching policy, not cache-only")
	}

	summary := ImportSummary{Requested: len(ids), Failures: []Failure{}}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("import interrupted: %w", err)
		}
		if policy == cachestore.FetchIfAbsent && f.store.Assemblies.Has(id) {
			summary.AlreadyCached++
			continue
		}
		if _, err := f.store.Assemblies.GetOrFetch(ctx, id, policy, f.fetchAssembly); err != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, Failure{ID: id, Reason: omissionReason(err)})
			f.logger.Debug("import failed", logging.String(logging.FieldAssemblyID, id), logging.Error(err))
			continue
		}
		summary.Fetched++
	}

	f.logger.Info("assembly import complete",
		logging.Int("requested", summary.Requested),
		logging.Int("fetched", summary.Fetched),
		logging.Int("already_cached", summary.AlreadyCached),
		logging.Int("failed", summary.Failed))
	return summary, nil
}
