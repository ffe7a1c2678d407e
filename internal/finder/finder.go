package finder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/google/uuid"

	"figfinder/internal/cachestore"
	"figfinder/internal/catalog"
	"figfinder/internal/inventory"
	"figfinder/internal/logging"
	"figfinder/internal/matching"
	"figfinder/internal/partkey"
)

// ErrNoSource is returned when a fetch is needed but no provider is configured.
var ErrNoSource = errors.New("no source configured")

// AssemblySource fetches an assembly definition on a cache miss.
type AssemblySource interface {
	FetchAssembly(ctx context.Context, id string) (catalog.Assembly, error)
}

// IDLister is implemented by sources that can enumerate their assemblies.
type IDLister interface {
	IDs() ([]string, error)
}

// PriceSource fetches a price record on a cache miss or refresh.
type PriceSource interface {
	FetchPrice(ctx context.Context, id string) (catalog.PriceRecord, error)
}

// Recorder receives per-run match counts.
type Recorder interface {
	ObserveMatches(complete, incomplete, omitted int)
}

// Finder coordinates the cache store, providers and matching engine.
type Finder struct {
	store      *cachestore.Store
	engine     *matching.Engine
	assemblies AssemblySource
	prices     PriceSource
	logger     *slog.Logger
	metrics    Recorder
	newRunID   func() string
}

// Option configures a Finder.
type Option func(*Finder)

// WithAssemblySource sets the provider used for assembly cache misses.
func WithAssemblySource(source AssemblySource) Option {
	return func(f *Finder) { f.assemblies = source }
}

// WithPriceSource sets the provider used for price cache misses.
func WithPriceSource(source PriceSource) Option {
	return func(f *Finder) { f.prices = source }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Finder) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithMetrics attaches a match outcome recorder.
func WithMetrics(recorder Recorder) Option {
	return func(f *Finder) { f.metrics = recorder }
}

// WithRunIDGenerator overrides run id generation.
func WithRunIDGenerator(gen func() string) Option {
	return func(f *Finder) {
		if gen != nil {
			f.newRunID = gen
		}
	}
}

// New constructs a Finder over store. A nil engine uses matching.NewEngine.
func New(store *cachestore.Store, engine *matching.Engine, opts ...Option) (*Finder, error) {
	if store == nil {
		return nil, errors.New("finder requires a cache store")
	}
	if engine == nil {
		engine = matching.NewEngine()
	}
	f := &Finder{
		store:    store,
		engine:   engine,
		logger:   logging.NewNop(),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	f.logger = logging.NewComponentLogger(f.logger, "finder")
	return f, nil
}

// Request describes one analysis run.
type Request struct {
	// IDs limits the run to these assemblies. Empty means every cached assembly.
	IDs         []string
	Policy      cachestore.FetchPolicy
	PricePolicy cachestore.FetchPolicy
	Inventory   *inventory.Multiset
}

// Run resolves every requested assembly and matches it against the inventory.
func (f *Finder) Run(ctx context.Context, req Request) (matching.Result, error) {
	if req.Inventory == nil {
		return matching.Result{}, errors.New("analysis requires an inventory")
	}

	runID := f.newRunID()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, f.logger)

	ids := normalizeIDs(req.IDs)
	if len(ids) == 0 {
		ids = f.store.Assemblies.Keys()
	}
	pricePolicy := req.PricePolicy
	if f.prices == nil {
		pricePolicy = cachestore.CacheOnly
	}

	logger.Info("analysis started",
		logging.Int("assemblies", len(ids)),
		logging.String("policy", req.Policy.String()),
		logging.String("price_policy", pricePolicy.String()),
		logging.Int("inventory_parts", req.Inventory.Len()))

	candidates := make([]matching.Candidate, 0, len(ids))
	var omissions []matching.Omission
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return matching.Result{}, fmt.Errorf("analysis interrupted: %w", err)
		}

		assembly, err := f.store.Assemblies.GetOrFetch(ctx, id, req.Policy, f.fetchAssembly)
		if err != nil {
			reason := omissionReason(err)
			omissions = append(omissions, matching.Omission{ID: id, Reason: reason})
			if errors.Is(err, cachestore.ErrNotCached) {
				logger.Debug("assembly not cached; skipping", logging.String(logging.FieldAssemblyID, id))
			} else {
				logging.WarnWithContext(logger, "assembly lookup failed; skipping",
					"assembly_fetch_failed",
					logging.String(logging.FieldAssemblyID, id),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check the export directory or rerun with --policy cache-only"),
					logging.String(logging.FieldImpact, "assembly omitted from this run"),
				)
			}
			continue
		}

		candidate := matching.Candidate{Assembly: assembly}
		price, err := f.store.Prices.GetOrFetch(ctx, id, pricePolicy, f.fetchPrice)
		switch {
		case err == nil:
			candidate.Price = &price
		case errors.Is(err, cachestore.ErrNotCached):
			logger.Debug("no cached price", logging.String(logging.FieldAssemblyID, id))
		default:
			logging.WarnWithContext(logger, "price lookup failed; continuing without value",
				"price_fetch_failed",
				logging.String(logging.FieldAssemblyID, id),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run figfinder prices refresh later"),
				logging.String(logging.FieldImpact, "estimated value and profit unavailable for this assembly"),
			)
		}
		candidates = append(candidates, candidate)
	}

	result := f.engine.MatchAll(candidates, req.Inventory)
	result.RunID = runID
	for _, omission := range omissions {
		result.AddOmission(omission.ID, omission.Reason)
	}
	if f.metrics != nil {
		f.metrics.ObserveMatches(result.Summary.CompleteMatches, result.Summary.IncompleteMatches, result.Summary.Omitted)
	}

	logger.Info("analysis complete",
		logging.Int("checked", result.Summary.TotalChecked),
		logging.Int("complete", result.Summary.CompleteMatches),
		logging.Int("incomplete", result.Summary.IncompleteMatches),
		logging.Int("omitted", result.Summary.Omitted))
	return result, nil
}

func (f *Finder) fetchAssembly(ctx context.Context, id string) (catalog.Assembly, error) {
	if f.assemblies == nil {
		return catalog.Assembly{}, fmt.Errorf("assemblies: %w", ErrNoSource)
	}
	assembly, err := f.assemblies.FetchAssembly(ctx, id)
	if err != nil {
		return catalog.Assembly{}, err
	}
	assembly.ID = id
	return assembly, nil
}

func (f *Finder) fetchPrice(ctx context.Context, id string) (catalog.PriceRecord, error) {
	if f.prices == nil {
		return catalog.PriceRecord{}, fmt.Errorf("prices: %w", ErrNoSource)
	}
	return f.prices.FetchPrice(ctx, id)
}

func omissionReason(err error) string {
	switch {
	case errors.Is(err, cachestore.ErrNotCached):
		return "not cached"
	case errors.Is(err, ErrNoSource):
		return "no assembly source configured"
	case errors.Is(err, fs.ErrNotExist):
		return "no export available"
	default:
		var fetchErr *cachestore.FetchError
		if errors.As(err, &fetchErr) {
			return "fetch failed: " + fetchErr.Err.Error()
		}
		return err.Error()
	}
}

func normalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = partkey.NormalizeID(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
