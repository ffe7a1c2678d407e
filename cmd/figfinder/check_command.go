package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"figfinder/internal/cachestore"
	"figfinder/internal/preflight"
)

type checkReport struct {
	Checks []preflight.Result `json:"checks"`
	Caches []cachestore.Stats `json:"caches"`
	Passed bool               `json:"passed"`
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify directories, cache files and the price guide endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report := checkReport{Checks: preflight.RunAll(cmd.Context(), cfg)}
			report.Passed = preflight.AllPassed(report.Checks)

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			for _, handle := range store.Namespaces() {
				report.Caches = append(report.Caches, handle.Stats())
			}

			if ctx.JSONMode() {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				renderCheckReport(cmd, report)
			}
			if !report.Passed {
				return errors.New("preflight checks failed")
			}
			return nil
		},
	}
}

func renderCheckReport(cmd *cobra.Command, report checkReport) {
	p := newStatusPrinter(cmd.OutOrStdout())

	p.section("Preflight")
	for _, result := range report.Checks {
		kind := statusOK
		if !result.Passed {
			kind = statusError
		}
		p.line(result.Name, kind, result.Detail)
	}

	p.blank()
	p.section("Caches")
	for _, stats := range report.Caches {
		if stats.Corrupt {
			p.line(stats.Name, statusWarn, "file is corrupt; treated as empty ("+stats.Path+")")
			continue
		}
		p.line(stats.Name, statusOK, fmt.Sprintf("%d entries", stats.Count))
	}
}
