package finder_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"figfinder/internal/cachestore"
	"figfinder/internal/catalog"
	"figfinder/internal/finder"
	"figfinder/internal/inventory"
	"figfinder/internal/partkey"
)

type fakeAssemblies struct {
	mu    sync.Mutex
	defs  map[string]catalog.Assembly
	calls map[string]int
}

func (f *fakeAssemblies) FetchAssembly(_ context.Context, id string) (catalog.Assembly, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[id]++
	def, ok := f.defs[id]
	if !ok {
		return catalog.Assembly{}, fmt.Errorf("unknown minifigure %s", id)
	}
	return def, nil
}

func (f *fakeAssemblies) IDs() ([]string, error) {
	ids := make([]string, 0, len(f.defs))
	for id := range f.defs {
		ids = append(ids, id)
	}
	return ids, nil
}

type fakePrices struct {
	values map[string]string
	err    error
}

func (f *fakePrices) FetchPrice(_ context.Context, id string) (catalog.PriceRecord, error) {
	if f.err != nil {
		return catalog.PriceRecord{}, f.err
	}
	v, ok := f.values[id]
	if !ok {
		return catalog.PriceRecord{}, errors.New("no listing")
	}
	guide := catalog.PriceGuide{OrderedUsed: &catalog.PriceStats{AvgPrice: decimal.RequireFromString(v)}}
	return catalog.NewPriceRecord(guide, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)), nil
}

type countingRecorder struct {
	complete, incomplete, omitted int
}

func (r *countingRecorder) ObserveMatches(complete, incomplete, omitted int) {
	r.complete += complete
	r.incomplete += incomplete
	r.omitted += omitted
}

func assembly(id string, parts ...catalog.PartEntry) catalog.Assembly {
	return catalog.Assembly{ID: id, Name: "fig " + id, Parts: parts}
}

func part(id string, color, qty int) catalog.PartEntry {
	return catalog.PartEntry{Key: partkey.Normalize(id, color), Quantity: qty, Flag: catalog.FlagRequired}
}

func testInventory(t *testing.T) *inventory.Multiset {
	t.Helper()
	b := inventory.NewBuilder()
	for _, item := range []inventory.LineItem{
		{PartID: "3626", ColorID: 3, Quantity: 1},
		{PartID: "973", ColorID: 4, Quantity: 1},
	} {
		if err := b.Add(item); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	return b.Build()
}

func newStore(t *testing.T) *cachestore.Store {
	t.Helper()
	store, err := cachestore.Open(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return store
}

func TestRunFetchesCachesAndRecordsOmissions(t *testing.T) {
	store := newStore(t)
	source := &fakeAssemblies{defs: map[string]catalog.Assembly{
		"CTY0001": assembly("CTY0001", part("3626", 3, 1), part("973", 4, 1)),
		"CTY0002": assembly("CTY0002", part("3626", 3, 1), part("970", 7, 1)),
	}}
	prices := &fakePrices{values: map[string]string{"CTY0001": "6.00"}}
	recorder := &countingRecorder{}

	f, err := finder.New(store, nil,
		finder.WithAssemblySource(source),
		finder.WithPriceSource(prices),
		finder.WithMetrics(recorder),
		finder.WithRunIDGenerator(func() string { return "run-test" }),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req := finder.Request{
		IDs:         []string{"cty0001", "CTY0002", "cty0003", "cty0001"},
		Policy:      cachestore.FetchIfAbsent,
		PricePolicy: cachestore.FetchIfAbsent,
		Inventory:   testInventory(t),
	}
	result, err := f.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.RunID != "run-test" {
		t.Fatalf("unexpected run id %q", result.RunID)
	}
	if result.Summary.TotalChecked != 2 || result.Summary.CompleteMatches != 1 || result.Summary.Omitted != 1 {
		t.Fatalf("unexpected summary %+v", result.Summary)
	}
	if len(result.Omissions) != 1 || result.Omissions[0].ID != "CTY0003" {
		t.Fatalf("unexpected omissions %+v", result.Omissions)
	}
	complete := result.Complete[0]
	if complete.ID != "CTY0001" || complete.EstimatedValue == nil || !complete.EstimatedValue.Equal(decimal.RequireFromString("6")) {
		t.Fatalf("unexpected complete report %+v", complete)
	}
	if recorder.complete != 1 || recorder.incomplete != 1 || recorder.omitted != 1 {
		t.Fatalf("unexpected recorder counts %+v", recorder)
	}

	// Second run is served from the cache.
	if _, err := f.Run(context.Background(), req); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if source.calls["CTY0001"] != 1 || source.calls["CTY0002"] != 1 {
		t.Fatalf("expected one fetch per assembly, got %v", source.calls)
	}
	if !store.Assemblies.Has("CTY0002") || !store.Prices.Has("CTY0001") {
		t.Fatal("expected fetched entries to be cached")
	}
}

func TestRunCacheOnlyWithoutSource(t *testing.T) {
	store := newStore(t)
	if err := store.Assemblies.Put("CTY0001", assembly("CTY0001", part("3626", 3, 1))); err != nil {
		t.Fatalf("Put: %v", err)
	}
	f, err := finder.New(store, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := f.Run(context.Background(), finder.Request{
		Policy:    cachestore.CacheOnly,
		Inventory: testInventory(t),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Summary.TotalChecked != 1 || result.Summary.CompleteMatches != 1 {
		t.Fatalf("expected cached assembly to be checked, got %+v", result.Summary)
	}

	result, err = f.Run(context.Background(), finder.Request{
		IDs:       []string{"CTY0009"},
		Policy:    cachestore.FetchIfAbsent,
		Inventory: testInventory(t),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Omissions) != 1 || result.Omissions[0].Reason != "no assembly source configured" {
		t.Fatalf("unexpected omissions %+v", result.Omissions)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	store := newStore(t)
	f, err := finder.New(store, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Run(ctx, finder.Request{IDs: []string{"A"}, Inventory: testInventory(t)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRefreshPrices(t *testing.T) {
	store := newStore(t)
	for _, id := range []string{"CTY0001", "CTY0002"} {
		if err := store.Assemblies.Put(id, assembly(id)); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	stale := catalog.NewPriceRecord(catalog.PriceGuide{}, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	if err := store.Prices.Put("CTY0003", stale); err != nil {
		t.Fatalf("Put price: %v", err)
	}

	prices := &fakePrices{values: map[string]string{"CTY0001": "3.00"}}
	f, err := finder.New(store, nil, finder.WithPriceSource(prices))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	summary, err := f.RefreshPrices(context.Background(), nil, true)
	if err != nil {
		t.Fatalf("RefreshPrices: %v", err)
	}
	if summary.Requested != 2 || summary.Updated != 1 || summary.Failed != 1 || !summary.Cleared {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if store.Prices.Has("CTY0003") {
		t.Fatal("clear should drop existing price records")
	}
	if !store.Prices.Has("CTY0001") {
		t.Fatal("expected refreshed price")
	}

	noSource, err := finder.New(store, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := noSource.RefreshPrices(context.Background(), nil, false); !errors.Is(err, finder.ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
}

func TestImportListsSourceIDs(t *testing.T) {
	store := newStore(t)
	source := &fakeAssemblies{defs: map[string]catalog.Assembly{
		"SW0001A": assembly("SW0001A", part("30375", 2, 1)),
		"SW0002":  assembly("SW0002", part("30375", 2, 1)),
	}}
	if err := store.Assemblies.Put("SW0002", assembly("SW0002")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	f, err := finder.New(store, nil, finder.WithAssemblySource(source))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	summary, err := f.Import(context.Background(), nil, cachestore.FetchIfAbsent)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if summary.Requested != 2 || summary.Fetched != 1 || summary.AlreadyCached != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if _, err := f.Import(context.Background(), nil, cachestore.CacheOnly); err == nil {
		t.Fatal("expected cache-only import to be rejected")
	}
}
