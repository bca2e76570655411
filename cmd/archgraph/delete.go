package main

import (
	"github.com/spf13/cobra"

	"archgraph/internal/envelope"
)

// deleteResult is the delete command's data
type deleteResult struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

func newDeleteCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove a component or connection record from the store",
		Long: `Remove a stored record by ID. Scans never delete records, so this is how
stale components and connections are retired. Derived artifacts are rebuilt
afterwards. A later scan re-creates the record if its evidence is still
present.`,
	}
	cmd.AddCommand(
		newDeleteRecordCmd(g, "component"),
		newDeleteRecordCmd(g, "connection"),
	)
	return cmd
}

func newDeleteRecordCmd(g *globalOptions, kind string) *cobra.Command {
	return &cobra.Command{
		Use:   kind + " <id>",
		Short: "Delete a " + kind,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return g.fail(cmd, err)
			}
			defer a.close()

			store := a.store()
			id := args[0]
			if kind == "component" {
				err = store.DeleteComponent(id)
			} else {
				err = store.DeleteConnection(id)
			}
			if err != nil {
				return a.emit(envelope.Failure(err))
			}
			if err := a.rebuildDerived(cmd.Context(), store); err != nil {
				return a.emit(envelope.Failure(err))
			}
			return a.emit(envelope.Operational(deleteResult{Kind: kind, ID: id}))
		},
	}
}
