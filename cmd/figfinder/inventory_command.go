package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"figfinder/internal/config"
	"figfinder/internal/inventory"
	"figfinder/internal/partkey"
)

func newInventoryCommand(ctx *commandContext) *cobra.Command {
	inventoryCmd := &cobra.Command{
		Use:   "inventory",
		Short: "Inspect BrickLink inventory exports",
	}
	inventoryCmd.AddCommand(newInventorySummaryCommand(ctx))
	return inventoryCmd
}

type inventoryPart struct {
	PartID   string `json:"part_id"`
	ColorID  int    `json:"color_id"`
	Quantity int    `json:"quantity"`
	Remarks  string `json:"remarks,omitempty"`
}

type inventoryReport struct {
	Path    string            `json:"path"`
	Summary inventory.Summary `json:"summary"`
	Parts   []inventoryPart   `json:"parts,omitempty"`
}

func newInventoryPart(inv *inventory.Multiset, key partkey.Key) inventoryPart {
	detail, _ := inv.Detail(key)
	return inventoryPart{
		PartID:   key.PartID,
		ColorID:  key.ColorID,
		Quantity: inv.Available(key),
		Remarks:  detail.Remarks,
	}
}

func newInventorySummaryCommand(ctx *commandContext) *cobra.Command {
	var inventoryPath string
	var showParts bool
	var lookups []string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize an inventory file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(inventoryPath)
			if err != nil {
				return fmt.Errorf("resolve inventory path: %w", err)
			}
			inv, err := inventory.LoadFile(path)
			if err != nil {
				return err
			}
			report := inventoryReport{Path: path, Summary: inv.Summary()}
			switch {
			case len(lookups) > 0:
				for _, value := range splitIDs(lookups) {
					key, err := partkey.Parse(value)
					if err != nil {
						return err
					}
					report.Parts = append(report.Parts, newInventoryPart(inv, key))
				}
				showParts = true
			case showParts:
				for _, key := range inv.Keys() {
					report.Parts = append(report.Parts, newInventoryPart(inv, key))
				}
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, report)
			}

			out := cmd.OutOrStdout()
			p := newStatusPrinter(out)
			p.line("Inventory", statusInfo, path)
			p.count("Unique parts", report.Summary.UniqueParts, false)
			p.count("Total quantity", report.Summary.TotalQuantity, false)
			p.count("Skipped lines", report.Summary.Skipped, true)
			if showParts && len(report.Parts) > 0 {
				rows := make([][]string, 0, len(report.Parts))
				for _, part := range report.Parts {
					rows = append(rows, []string{part.PartID, strconv.Itoa(part.ColorID), strconv.Itoa(part.Quantity), part.Remarks})
				}
				fmt.Fprintln(out, renderTable(
					[]column{left("Part"), right("Color"), right("Qty"), left("Remarks")},
					rows,
					nil,
				))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inventoryPath, "inventory", "i", "", "BrickLink inventory file (.xml, .bsx or .csv)")
	cmd.Flags().BoolVar(&showParts, "parts", false, "List every part and color in the inventory")
	cmd.Flags().StringSliceVar(&lookups, "part", nil, "Show the quantity held of PARTID/COLOR (repeatable)")
	_ = cmd.MarkFlagRequired("inventory")
	return cmd
}
