package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"archgraph/internal/envelope"
	"archgraph/internal/errors"
	"archgraph/internal/paths"
	"archgraph/internal/storage"
)

func newHistoryCmd(g *globalOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [run]",
		Short: "Show recorded scan runs",
		Long: `List recent scan runs from the store's history database, or show one run
with its warnings.

Examples:
  archgraph history
  archgraph history -n 5
  archgraph history 42`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return g.fail(cmd, err)
			}
			defer a.close()

			if !a.layout.Exists() {
				return a.emit(envelope.Operational([]storage.ScanRun{}))
			}
			h, err := storage.OpenHistory(a.layout.File(paths.HistoryFile), a.logger)
			if err != nil {
				return a.emit(envelope.Failure(err))
			}
			defer h.Close()

			if len(args) == 1 {
				id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
				if err != nil {
					return a.emit(envelope.Failure(errors.Newf(errors.InvalidArgument, "invalid run id %q", args[0])))
				}
				run, err := h.Run(cmd.Context(), id)
				if err != nil {
					return a.emit(envelope.Failure(err))
				}
				if run == nil {
					return a.emit(envelope.Failure(errors.Newf(errors.InvalidArgument, "scan run #%d not found", id)))
				}
				return a.emit(envelope.Operational(run))
			}

			runs, err := h.ListRuns(cmd.Context(), limit)
			if err != nil {
				return a.emit(envelope.Failure(err))
			}
			if runs == nil {
				runs = []storage.ScanRun{}
			}
			return a.emit(envelope.Operational(runs))
		},
	}
	cmd.Flags().IntVarP(&limit, "lines", "n", 20, "Number of runs to show")
	return cmd
}
