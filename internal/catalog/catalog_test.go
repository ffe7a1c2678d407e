package catalog_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"figfinder/internal/catalog"
	"figfinder/internal/partkey"
)

const legacyAssembly = `{
  "item_data": {"no": "sw0001a", "name": "Battle Droid", "category_name": "Star Wars", "year_released": 1999},
  "parts": [
    {"part_id": "30375", "part_name": "Torso", "color_id": 2, "color_name": "Tan", "quantity": 1,
     "is_alternate": false, "is_counterpart": false, "is_extra": false, "is_spare": false},
    {"part_id": "30376", "part_name": "Arm", "color_id": 2, "color_name": "Tan", "quantity": 2,
     "is_alternate": false, "is_counterpart": false, "is_extra": false, "is_spare": false},
    {"part_id": "30377", "part_name": "Arm alt", "color_id": 2, "color_name": "Tan", "quantity": 2,
     "is_alternate": true, "is_counterpart": false, "is_extra": false, "is_spare": false},
    {"part_id": "4073", "part_name": "Plate round", "color_id": 11, "color_name": "Black", "quantity": 1,
     "is_alternate": false, "is_counterpart": false, "is_extra": true, "is_spare": false},
    {"part_id": "30376", "part_name": "Arm", "color_id": 2, "color_name": "Tan", "quantity": 1,
     "is_alternate": false, "is_counterpart": false, "is_extra": false, "is_spare": false}
  ]
}`

func TestAssemblyReadsLegacyLayout(t *testing.T) {
	var a catalog.Assembly
	if err := json.Unmarshal([]byte(legacyAssembly), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if a.ID != "SW0001A" {
		t.Fatalf("expected normalized id, got %q", a.ID)
	}
	if a.YearReleased != 1999 || a.Category != "Star Wars" {
		t.Fatalf("unexpected identity: %+v", a)
	}
	if len(a.Parts) != 5 {
		t.Fatalf("expected 5 parts, got %d", len(a.Parts))
	}
	if a.Parts[2].Flag != catalog.FlagAlternate {
		t.Fatalf("expected alternate flag, got %q", a.Parts[2].Flag)
	}
	if a.Parts[3].Flag != catalog.FlagExtra {
		t.Fatalf("expected extra flag, got %q", a.Parts[3].Flag)
	}

	reqs := a.Requirements()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 merged requirements, got %d: %+v", len(reqs), reqs)
	}
	if reqs[1].Key != partkey.Normalize("30376", 2) || reqs[1].Quantity != 3 {
		t.Fatalf("expected merged arm quantity 3, got %+v", reqs[1])
	}
}

func TestAssemblyRoundTripPreservesSelection(t *testing.T) {
	in := catalog.Assembly{
		ID:           "COL001",
		Name:         "Caveman",
		YearReleased: 2010,
		FetchedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Parts: []catalog.PartEntry{
			{Key: partkey.Normalize("3626", 3), Quantity: 1, Flag: catalog.FlagRequired},
			{Key: partkey.Normalize("3626b", 3), Quantity: 1, Flag: catalog.FlagAlternate, MatchNo: 1, Selected: true},
		},
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out catalog.Assembly
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.FetchedAt.Equal(in.FetchedAt) {
		t.Fatalf("fetched_at mismatch: %v vs %v", out.FetchedAt, in.FetchedAt)
	}
	if !out.Parts[1].Selected || out.Parts[1].MatchNo != 1 {
		t.Fatalf("selection lost: %+v", out.Parts[1])
	}
	if got := len(out.Requirements()); got != 2 {
		t.Fatalf("selected alternate should participate, got %d requirements", got)
	}
}

func TestParticipates(t *testing.T) {
	tests := []struct {
		entry catalog.PartEntry
		want  bool
	}{
		{catalog.PartEntry{Flag: catalog.FlagRequired, Quantity: 1}, true},
		{catalog.PartEntry{Flag: catalog.FlagRequired, Quantity: 0}, false},
		{catalog.PartEntry{Flag: catalog.FlagAlternate, Quantity: 1}, false},
		{catalog.PartEntry{Flag: catalog.FlagAlternate, Quantity: 1, Selected: true}, true},
		{catalog.PartEntry{Flag: catalog.FlagCounterpart, Quantity: 1}, false},
		{catalog.PartEntry{Flag: catalog.FlagExtra, Quantity: 1}, false},
		{catalog.PartEntry{Flag: catalog.FlagSpare, Quantity: 1}, false},
	}
	for _, tt := range tests {
		if got := tt.entry.Participates(); got != tt.want {
			t.Errorf("Participates(%+v) = %v, want %v", tt.entry, got, tt.want)
		}
	}
}

func TestPriceRecordReadsZonelessTimestamp(t *testing.T) {
	raw := `{"data": {"ordered_new": {"lots": 3, "quantity": 4, "min_price": 1.5, "avg_price": 2.25, "qty_avg_price": 2.1, "max_price": 3},
	          "ordered_used": {"lots": 1, "quantity": 1, "min_price": 0, "avg_price": 0, "qty_avg_price": 0, "max_price": 0}},
	         "updated": "2025-03-04T10:11:12.123456"}`
	var rec catalog.PriceRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.Updated.Year() != 2025 || rec.Updated.Month() != time.March {
		t.Fatalf("unexpected timestamp %v", rec.Updated)
	}
	value, ok := rec.MarketValue()
	if !ok {
		t.Fatal("expected market value")
	}
	if !value.Equal(decimal.RequireFromString("2.25")) {
		t.Fatalf("expected fallback to new average 2.25, got %s", value)
	}
}

func TestPriceRecordWithoutSegmentsHasNoValue(t *testing.T) {
	var rec catalog.PriceRecord
	if err := json.Unmarshal([]byte(`{"data": {}, "updated": null}`), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !rec.Data.Empty() {
		t.Fatal("expected empty guide")
	}
	if _, ok := rec.MarketValue(); ok {
		t.Fatal("expected no market value")
	}
	if _, ok := rec.Age(time.Now()); ok {
		t.Fatal("expected unknown age")
	}
}

func TestParseIDList(t *testing.T) {
	input := "# star wars\nsw0001a\n\n  sw0002 \nSW0001A\n#sw9999\ncol001\n"
	ids, err := catalog.ParseIDList(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseIDList: %v", err)
	}
	want := []string{"SW0001A", "SW0002", "COL001"}
	if strings.Join(ids, ",") != strings.Join(want, ",") {
		t.Fatalf("got %v want %v", ids, want)
	}
}

func TestParsePartFlag(t *testing.T) {
	if f, err := catalog.ParsePartFlag("Spare"); err != nil || f != catalog.FlagSpare {
		t.Fatalf("unexpected result %q %v", f, err)
	}
	if f, err := catalog.ParsePartFlag(""); err != nil || f != catalog.FlagRequired {
		t.Fatalf("empty flag should default to required, got %q %v", f, err)
	}
	if _, err := catalog.ParsePartFlag("bogus"); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}
