package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"figfinder/internal/cachestore"
	"figfinder/internal/catalog"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the minifigure and price caches",
	}

	cacheCmd.AddCommand(newCacheStatusCommand(ctx))
	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheShowCommand(ctx))
	cacheCmd.AddCommand(newCacheRemoveCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	cacheCmd.AddCommand(newCacheImportCommand(ctx))

	return cacheCmd
}

func newCacheStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show entry counts for each cache namespace",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			stats := make([]cachestore.Stats, 0, 2)
			for _, handle := range store.Namespaces() {
				stats = append(stats, handle.Stats())
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, stats)
			}
			rows := make([][]string, 0, len(stats))
			for _, s := range stats {
				rows = append(rows, []string{s.Name, strconv.Itoa(s.Count), yesNo(s.Corrupt), s.Path})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]column{left("Namespace"), right("Entries"), left("Corrupt"), left("File")},
				rows,
				nil,
			))
			return nil
		},
	}
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var (
		namespace string
		filter    assemblyFilter
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached keys",
		Long: `List cached keys. In the assemblies namespace --query matches the id,
name, or category as a case-insensitive substring and --category selects
one theme exactly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			handle, err := store.Namespace(namespace)
			if err != nil {
				return err
			}
			keys := handle.Keys()
			if filter.active() {
				if handle.Name() != cachestore.AssembliesNamespace {
					return fmt.Errorf("--query and --category only apply to the %s namespace", cachestore.AssembliesNamespace)
				}
				keys = filter.apply(store.Assemblies, keys)
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, keys)
			}
			out := cmd.OutOrStdout()
			if len(keys) == 0 {
				if filter.active() {
					fmt.Fprintf(out, "No entries in %s match the filter\n", handle.Name())
					return nil
				}
				fmt.Fprintf(out, "No entries in %s\n", handle.Name())
				return nil
			}
			if handle.Name() == cachestore.AssembliesNamespace {
				renderAssemblyList(out, store, keys)
				return nil
			}
			for _, key := range keys {
				fmt.Fprintln(out, key)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "n", cachestore.AssembliesNamespace, "Namespace to list (assemblies or prices)")
	cmd.Flags().StringVarP(&filter.query, "query", "q", "", "Only list minifigures whose id, name, or category contains this text")
	cmd.Flags().StringVar(&filter.category, "category", "", "Only list minifigures in this category")
	return cmd
}

// assemblyFilter narrows cached minifigures by free text and category.
// Both comparisons ignore case.
type assemblyFilter struct {
	query    string
	category string
}

func (f assemblyFilter) active() bool {
	return strings.TrimSpace(f.query) != "" || strings.TrimSpace(f.category) != ""
}

func (f assemblyFilter) matches(assembly catalog.Assembly) bool {
	if category := strings.TrimSpace(f.category); category != "" && !strings.EqualFold(strings.TrimSpace(assembly.Category), category) {
		return false
	}
	query := strings.ToLower(strings.TrimSpace(f.query))
	if query == "" {
		return true
	}
	for _, field := range []string{assembly.ID, assembly.Name, assembly.Category} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

func (f assemblyFilter) apply(assemblies *cachestore.Namespace[catalog.Assembly], keys []string) []string {
	matched := make([]string, 0, len(keys))
	for _, key := range keys {
		assembly, ok := assemblies.Get(key)
		if !ok || !f.matches(assembly) {
			continue
		}
		matched = append(matched, key)
	}
	return matched
}

func renderAssemblyList(out io.Writer, store *cachestore.Store, keys []string) {
	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		assembly, ok := store.Assemblies.Get(key)
		if !ok {
			continue
		}
		priced := store.Prices.Has(key)
		rows = append(rows, []string{
			key,
			assembly.Name,
			assembly.Category,
			strconv.Itoa(len(assembly.Requirements())),
			yesNo(priced),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]column{left("ID"), left("Name"), left("Category"), right("Parts"), left("Priced")},
		rows,
		nil,
	))
}

func newCacheShowCommand(ctx *commandContext) *cobra.Command {
	var namespace string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one cached entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			handle, err := store.Namespace(namespace)
			if err != nil {
				return err
			}
			value, ok := handle.Value(args[0])
			if !ok {
				return fmt.Errorf("%s not found in %s cache", strings.TrimSpace(args[0]), handle.Name())
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, value)
			}
			out := cmd.OutOrStdout()
			switch v := value.(type) {
			case catalog.Assembly:
				renderAssembly(out, v)
			case catalog.PriceRecord:
				renderPriceRecord(out, args[0], v)
			default:
				return writeJSON(cmd, value)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "n", cachestore.AssembliesNamespace, "Namespace to read (assemblies or prices)")
	return cmd
}

func renderAssembly(out io.Writer, assembly catalog.Assembly) {
	fmt.Fprintf(out, "%s  %s\n", assembly.ID, assembly.Name)
	if assembly.Category != "" {
		fmt.Fprintf(out, "Category: %s\n", assembly.Category)
	}
	if assembly.YearReleased > 0 {
		fmt.Fprintf(out, "Released: %d\n", assembly.YearReleased)
	}
	rows := make([][]string, 0, len(assembly.Parts))
	for _, part := range assembly.Parts {
		rows = append(rows, []string{
			part.Key.PartID,
			part.PartName,
			part.ColorName,
			strconv.Itoa(part.Quantity),
			string(part.Flag),
			yesNo(part.Participates()),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]column{left("Part"), left("Name"), left("Color"), right("Qty"), left("Type"), left("Counted")},
		rows,
		nil,
	))
}

func renderPriceRecord(out io.Writer, id string, record catalog.PriceRecord) {
	fmt.Fprintf(out, "%s  updated %s\n", strings.ToUpper(strings.TrimSpace(id)), record.Updated.Format("2006-01-02 15:04"))
	guide := record.Data
	rows := [][]string{
		priceRow("Sold new (6 mo)", guide.OrderedNew),
		priceRow("Sold used (6 mo)", guide.OrderedUsed),
		priceRow("For sale new", guide.InventoryNew),
		priceRow("For sale used", guide.InventoryUsed),
	}
	fmt.Fprintln(out, renderTable(
		[]column{left("Guide"), right("Lots"), right("Qty"), right("Min"), right("Avg"), right("Max")},
		rows,
		nil,
	))
	if value, ok := record.MarketValue(); ok {
		fmt.Fprintf(out, "Market value: %s\n", formatMoney(&value))
	}
}

func priceRow(label string, stats *catalog.PriceStats) []string {
	if stats == nil {
		return []string{label, "-", "-", "-", "-", "-"}
	}
	return []string{
		label,
		strconv.Itoa(stats.Lots),
		strconv.Itoa(stats.Quantity),
		formatMoney(&stats.MinPrice),
		formatMoney(&stats.AvgPrice),
		formatMoney(&stats.MaxPrice),
	}
}

func newCacheRemoveCommand(ctx *commandContext) *cobra.Command {
	var namespace string
	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove one cached entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			handle, err := store.Namespace(namespace)
			if err != nil {
				return err
			}
			if err := handle.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %s cache\n", strings.TrimSpace(args[0]), handle.Name())
			return nil
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "n", cachestore.AssembliesNamespace, "Namespace to modify (assemblies or prices)")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var namespace string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every entry from a namespace (all namespaces when --namespace is omitted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			handles := store.Namespaces()
			if strings.TrimSpace(namespace) != "" {
				handle, err := store.Namespace(namespace)
				if err != nil {
					return err
				}
				handles = []cachestore.Handle{handle}
			}
			out := cmd.OutOrStdout()
			for _, handle := range handles {
				count := handle.Stats().Count
				if err := handle.Clear(); err != nil {
					return err
				}
				fmt.Fprintf(out, "Cleared %d entries from %s cache\n", count, handle.Name())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "Namespace to clear (assemblies or prices)")
	return cmd
}

func newCacheImportCommand(ctx *commandContext) *cobra.Command {
	var idsPath string
	var ids []string
	var policyValue string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load minifigure inventories from the export directory into the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := cachestore.ParseFetchPolicy(policyValue)
			if err != nil {
				return fmt.Errorf("--policy: %w", err)
			}
			requested, err := resolveIDs(idsPath, ids)
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			f, err := ctx.newFinder(store)
			if err != nil {
				return err
			}
			summary, err := f.Import(cmd.Context(), requested, policy)
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, summary)
			}
			p := newStatusPrinter(cmd.OutOrStdout())
			p.count("Requested", summary.Requested, false)
			p.line("Fetched", statusOK, strconv.Itoa(summary.Fetched))
			p.count("Already cached", summary.AlreadyCached, false)
			p.count("Failed", summary.Failed, true)
			for _, failure := range summary.Failures {
				p.line(failure.ID, statusWarn, failure.Reason)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&idsPath, "ids", "", "File listing minifigure ids to import (defaults to every export)")
	cmd.Flags().StringSliceVar(&ids, "id", nil, "Minifigure id to import (repeatable, comma separated)")
	cmd.Flags().StringVar(&policyValue, "policy", cachestore.FetchIfAbsent.String(), "fetch-if-absent or force-refresh")
	return cmd
}
