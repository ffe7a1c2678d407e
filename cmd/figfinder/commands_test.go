package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"figfinder/internal/cachestore"
	"figfinder/internal/finder"
	"figfinder/internal/matching"
)

const (
	torsoAndHeadExport = `{
  "minifig_id": "sw0001",
  "minifig_name": "Battle Droid",
  "category": "Star Wars",
  "year_released": 1999,
  "parts": [
    {"part_id": "30375", "part_name": "Droid Torso", "color_id": 2, "color_name": "Tan", "quantity": 1},
    {"part_id": "30376", "part_name": "Droid Head", "color_id": 2, "color_name": "Tan", "quantity": 1},
    {"part_id": "30377", "part_name": "Droid Arm", "color_id": 2, "color_name": "Tan", "quantity": 2, "is_extra": true}
  ]
}`
	doubleTorsoExport = `{
  "minifig_id": "sw0002",
  "minifig_name": "Droid Pair",
  "parts": [
    {"part_id": "30375", "part_name": "Droid Torso", "color_id": 2, "color_name": "Tan", "quantity": 2},
    {"part_id": "30376", "part_name": "Droid Head", "color_id": 2, "color_name": "Tan", "quantity": 2}
  ]
}`
	droidInventory = `<INVENTORY>
  <ITEM><ITEMTYPE>P</ITEMTYPE><ITEMID>30375</ITEMID><COLOR>2</COLOR><QTY>1</QTY><REMARKS>Bin 4</REMARKS></ITEM>
  <ITEM><ITEMTYPE>P</ITEMTYPE><ITEMID>30376</ITEMID><COLOR>2</COLOR><QTY>1</QTY></ITEM>
  <ITEM><ITEMTYPE>S</ITEMTYPE><ITEMID>7101</ITEMID><COLOR>0</COLOR><QTY>1</QTY></ITEM>
</INVENTORY>`
)

func TestConfigInitWritesSample(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "new", "config.toml")

	stdout, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, stdout, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config already exists")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, stdout, env.configPath)
	requireContains(t, stdout, "Configuration valid")

	stdout, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, stdout, "cache_dir")
	requireContains(t, stdout, env.cacheDir)
}

func TestConfigValidateRejectsBadPolicy(t *testing.T) {
	env := setupCLITestEnv(t)
	bad := env.writeFile(t, "bad.toml", "[analysis]\nfetch_policy = \"sometimes\"\n")

	_, _, err := runCLI(t, []string{"config", "validate"}, bad)
	if err == nil {
		t.Fatal("expected validation error")
	}
	requireContains(t, err.Error(), "fetch_policy")
}

func TestLogLevelFlagRejectsUnknownLevel(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"--log-level", "loud", "cache", "status"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for unknown log level")
	}
	requireContains(t, err.Error(), "--log-level")
}

func TestAnalyzeEndToEndJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeExport(t, "sw0001", torsoAndHeadExport)
	env.writeExport(t, "sw0002", doubleTorsoExport)
	inventoryPath := env.writeFile(t, "inventory.xml", droidInventory)
	idsPath := env.writeFile(t, "ids.txt", "# droids\nsw0001\nsw0002\nsw9999\n")
	reportPath := filepath.Join(env.baseDir, "out", "report.json")
	metricsPath := filepath.Join(env.baseDir, "metrics", "figfinder.prom")

	stdout, _, err := runCLI(t, []string{
		"analyze", "--json",
		"--inventory", inventoryPath,
		"--ids", idsPath,
		"--output", reportPath,
		"--metrics-file", metricsPath,
	}, env.configPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	var result matching.Result
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("decode analyze output: %v\n%s", err, stdout)
	}
	if result.Summary.TotalChecked != 2 || result.Summary.CompleteMatches != 1 || result.Summary.IncompleteMatches != 1 {
		t.Fatalf("unexpected summary: %+v", result.Summary)
	}
	if len(result.Complete) != 1 || result.Complete[0].ID != "SW0001" {
		t.Fatalf("unexpected complete reports: %+v", result.Complete)
	}
	if result.Complete[0].TotalParts != 2 {
		t.Fatalf("extras must not count toward total parts, got %d", result.Complete[0].TotalParts)
	}
	if len(result.Incomplete) != 1 || result.Incomplete[0].MatchPercentage != 50 {
		t.Fatalf("unexpected incomplete reports: %+v", result.Incomplete)
	}
	missing := result.Incomplete[0].Missing
	if len(missing) != 2 || missing[0].ShortBy != 1 {
		t.Fatalf("unexpected missing details: %+v", missing)
	}
	if len(result.Omissions) != 1 || result.Omissions[0].ID != "SW9999" {
		t.Fatalf("unexpected omissions: %+v", result.Omissions)
	}

	if _, err := os.Stat(reportPath); err != nil {
		t.Fatalf("expected report file: %v", err)
	}
	metrics, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("read metrics textfile: %v", err)
	}
	requireContains(t, string(metrics), `figfinder_match_reports_total{outcome="complete"} 1`)

	store, err := cachestore.Open(env.cacheDir)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	if got := store.Assemblies.Keys(); strings.Join(got, ",") != "SW0001,SW0002" {
		t.Fatalf("expected fetched assemblies to be cached, got %v", got)
	}
}

func TestAnalyzeCacheOnlyReportsOmissions(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeExport(t, "sw0001", torsoAndHeadExport)
	inventoryPath := env.writeFile(t, "inventory.xml", droidInventory)

	stdout, _, err := runCLI(t, []string{
		"analyze", "--json",
		"--inventory", inventoryPath,
		"--id", "sw0001",
		"--policy", "cache-only",
	}, env.configPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var result matching.Result
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("decode analyze output: %v", err)
	}
	if len(result.Omissions) != 1 || result.Omissions[0].Reason != "not cached" {
		t.Fatalf("expected a not cached omission, got %+v", result.Omissions)
	}
}

func TestAnalyzeTableOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeExport(t, "sw0001", torsoAndHeadExport)
	env.writeExport(t, "sw0002", doubleTorsoExport)
	inventoryPath := env.writeFile(t, "inventory.xml", droidInventory)

	stdout, _, err := runCLI(t, []string{
		"analyze",
		"--inventory", inventoryPath,
		"--id", "sw0001,sw0002",
		"--missing",
	}, env.configPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	requireContains(t, stdout, "Buildable minifigures")
	requireContains(t, stdout, "Battle Droid")
	requireContains(t, stdout, "50.0%")
	requireContains(t, stdout, "Missing for SW0002")
	// Footer cells are upper-cased by the table style.
	requireContains(t, strings.ToUpper(stdout), "SUM OF VALUES (INDEPENDENT)")
	if strings.Contains(strings.ToUpper(stdout), "IF ALL BUILT") {
		t.Fatalf("footer still claims a combined build total:\n%s", stdout)
	}
}

func TestAnalyzeRejectsMalformedInventory(t *testing.T) {
	env := setupCLITestEnv(t)
	inventoryPath := env.writeFile(t, "broken.xml", "<INVENTORY><ITEM><ITEMID>3001</ITEMID><COLOR>x</COLOR><QTY>1</QTY></ITEM></INVENTORY>")

	_, _, err := runCLI(t, []string{"analyze", "--inventory", inventoryPath}, env.configPath)
	if err == nil {
		t.Fatal("expected malformed inventory error")
	}
}

func TestCacheImportListShowRemoveClear(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeExport(t, "sw0001", torsoAndHeadExport)
	env.writeExport(t, "sw0002", doubleTorsoExport)

	stdout, _, err := runCLI(t, []string{"cache", "import", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("cache import: %v", err)
	}
	var summary finder.ImportSummary
	if err := json.Unmarshal([]byte(stdout), &summary); err != nil {
		t.Fatalf("decode import summary: %v", err)
	}
	if summary.Requested != 2 || summary.Fetched != 2 {
		t.Fatalf("unexpected import summary: %+v", summary)
	}

	stdout, _, err = runCLI(t, []string{"cache", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	var keys []string
	if err := json.Unmarshal([]byte(stdout), &keys); err != nil {
		t.Fatalf("decode keys: %v", err)
	}
	if strings.Join(keys, ",") != "SW0001,SW0002" {
		t.Fatalf("unexpected keys: %v", keys)
	}

	stdout, _, err = runCLI(t, []string{"cache", "show", "sw0001"}, env.configPath)
	if err != nil {
		t.Fatalf("cache show: %v", err)
	}
	requireContains(t, stdout, "Battle Droid")
	requireContains(t, stdout, "Droid Torso")

	if _, _, err := runCLI(t, []string{"cache", "show", "sw0404"}, env.configPath); err == nil {
		t.Fatal("expected error for missing entry")
	}

	stdout, _, err = runCLI(t, []string{"cache", "remove", "sw0002"}, env.configPath)
	if err != nil {
		t.Fatalf("cache remove: %v", err)
	}
	requireContains(t, stdout, "Removed sw0002")

	stdout, _, err = runCLI(t, []string{"cache", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, stdout, "Cleared 1 entries from assemblies cache")
	requireContains(t, stdout, "Cleared 0 entries from prices cache")

	stdout, _, err = runCLI(t, []string{"cache", "status", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("cache status: %v", err)
	}
	var stats []cachestore.Stats
	if err := json.Unmarshal([]byte(stdout), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	for _, s := range stats {
		if s.Count != 0 {
			t.Fatalf("expected empty namespace after clear, got %+v", s)
		}
	}
}

func TestCacheListFiltersAssemblies(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeExport(t, "sw0001", torsoAndHeadExport)
	env.writeExport(t, "sw0002", doubleTorsoExport)
	if _, _, err := runCLI(t, []string{"cache", "import"}, env.configPath); err != nil {
		t.Fatalf("cache import: %v", err)
	}

	listKeys := func(args ...string) []string {
		t.Helper()
		stdout, _, err := runCLI(t, append([]string{"cache", "list", "--json"}, args...), env.configPath)
		if err != nil {
			t.Fatalf("cache list %v: %v", args, err)
		}
		var keys []string
		if err := json.Unmarshal([]byte(stdout), &keys); err != nil {
			t.Fatalf("decode keys: %v", err)
		}
		return keys
	}

	cases := []struct {
		args []string
		want string
	}{
		{[]string{"--query", "DROID"}, "SW0001,SW0002"},
		{[]string{"--query", "battle"}, "SW0001"},
		{[]string{"--query", "sw0002"}, "SW0002"},
		{[]string{"--query", "wars"}, "SW0001"},
		{[]string{"--category", "star wars"}, "SW0001"},
		{[]string{"--category", "star"}, ""},
		{[]string{"--category", "Star Wars", "--query", "pair"}, ""},
	}
	for _, tc := range cases {
		if got := strings.Join(listKeys(tc.args...), ","); got != tc.want {
			t.Fatalf("cache list %v = %q, want %q", tc.args, got, tc.want)
		}
	}

	stdout, _, err := runCLI(t, []string{"cache", "list", "--query", "pirate"}, env.configPath)
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	requireContains(t, stdout, "No entries in assemblies match the filter")

	if _, _, err := runCLI(t, []string{"cache", "list", "--namespace", "prices", "--query", "droid"}, env.configPath); err == nil {
		t.Fatal("expected error when filtering the prices namespace")
	}
}

func TestCacheListRejectsUnknownNamespace(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"cache", "list", "--namespace", "sets"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown namespace")
	}
}

func TestPricesRefreshRequiresPriceGuide(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"prices", "refresh"}, env.configPath)
	if err == nil {
		t.Fatal("expected error when price guide is disabled")
	}
	requireContains(t, err.Error(), "no source configured")
}

func TestInventorySummary(t *testing.T) {
	env := setupCLITestEnv(t)
	inventoryPath := env.writeFile(t, "inventory.xml", droidInventory)

	stdout, _, err := runCLI(t, []string{"inventory", "summary", "--json", "--parts", "--inventory", inventoryPath}, env.configPath)
	if err != nil {
		t.Fatalf("inventory summary: %v", err)
	}
	var report inventoryReport
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if report.Summary.UniqueParts != 2 || report.Summary.TotalQuantity != 2 || report.Summary.Skipped != 1 {
		t.Fatalf("unexpected summary: %+v", report.Summary)
	}
	if len(report.Parts) != 2 || report.Parts[0].PartID != "30375" || report.Parts[0].Remarks != "Bin 4" {
		t.Fatalf("unexpected parts: %+v", report.Parts)
	}
}

func TestCheckCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"check", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	var report checkReport
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("decode check report: %v", err)
	}
	if !report.Passed || len(report.Checks) < 2 {
		t.Fatalf("unexpected check report: %+v", report)
	}
	if len(report.Caches) != 2 {
		t.Fatalf("expected both namespaces in report, got %+v", report.Caches)
	}
}

func TestCheckCommandFailsOnMissingExportDir(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.RemoveAll(env.exportDir); err != nil {
		t.Fatalf("remove export dir: %v", err)
	}

	stdout, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err == nil {
		t.Fatal("expected check failure")
	}
	requireContains(t, stdout, "[ERROR]")
	requireContains(t, stdout, "Export directory")
}

func TestInventorySummaryPartLookup(t *testing.T) {
	env := setupCLITestEnv(t)
	inventoryPath := env.writeFile(t, "inventory.xml", droidInventory)

	stdout, _, err := runCLI(t, []string{"inventory", "summary", "--json", "--inventory", inventoryPath, "--part", "30376/2,3001/5"}, env.configPath)
	if err != nil {
		t.Fatalf("inventory summary: %v", err)
	}
	var report inventoryReport
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if len(report.Parts) != 2 || report.Parts[0].Quantity != 1 || report.Parts[1].Quantity != 0 {
		t.Fatalf("unexpected lookups: %+v", report.Parts)
	}

	if _, _, err := runCLI(t, []string{"inventory", "summary", "--inventory", inventoryPath, "--part", "3001/x"}, env.configPath); err == nil {
		t.Fatal("expected error for malformed part key")
	}
}
