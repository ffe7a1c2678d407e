package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

func newPricesCommand(ctx *commandContext) *cobra.Command {
	pricesCmd := &cobra.Command{
		Use:   "prices",
		Short: "Manage cached price guide data",
	}
	pricesCmd.AddCommand(newPricesRefreshCommand(ctx))
	return pricesCmd
}

func newPricesRefreshCommand(ctx *commandContext) *cobra.Command {
	var idsPath string
	var ids []string
	var clearFirst bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch fresh price guide data, overwriting cached prices",
		Long: `Fetch the price guide summary for each minifigure and overwrite the cached
record. With no ids, every cached minifigure is refreshed. Requires
price_guide.enabled = true.`,
		RunE: func(cmd *cobra.Command, args []string) error {
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
			summary, err := f.RefreshPrices(cmd.Context(), requested, clearFirst)
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, summary)
			}
			p := newStatusPrinter(cmd.OutOrStdout())
			if summary.Cleared {
				p.line("Price cache", statusInfo, "cleared")
			}
			p.count("Requested", summary.Requested, false)
			p.line("Updated", statusOK, strconv.Itoa(summary.Updated))
			p.count("Failed", summary.Failed, true)
			for _, failure := range summary.Failures {
				p.line(failure.ID, statusWarn, failure.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&idsPath, "ids", "", "File listing minifigure ids to refresh")
	cmd.Flags().StringSliceVar(&ids, "id", nil, "Minifigure id to refresh (repeatable, comma separated)")
	cmd.Flags().BoolVar(&clearFirst, "clear", false, "Empty the price cache before refreshing")
	return cmd
}
