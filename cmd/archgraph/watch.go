package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"archgraph/internal/envelope"
	"archgraph/internal/watcher"
)

func newWatchCmd(g *globalOptions) *cobra.Command {
	var debounce int
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-scan incrementally whenever project files change",
		Long: `Run an initial scan, then watch the project tree and run an incremental
scan after each burst of changes. Changes that arrive while a scan is
running are batched into the next one. Stop with Ctrl+C.

Examples:
  archgraph watch
  archgraph watch --debounce 2000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return g.fail(cmd, err)
			}
			defer a.close()
			if debounce <= 0 {
				debounce = a.cfg.Watch.DebounceMs
			}
			return runWatch(cmd.Context(), a, debounce)
		},
	}
	cmd.Flags().IntVar(&debounce, "debounce", 0, "Quiet period in milliseconds before a re-scan (default from config)")
	return cmd
}

func runWatch(ctx context.Context, a *app, debounceMs int) error {
	scanner, err := a.scanner()
	if err != nil {
		return a.emit(envelope.Failure(err))
	}
	res, err := scanner.Scan(ctx, false)
	if err != nil {
		return a.emit(envelope.Failure(err))
	}
	fmt.Fprintf(a.errOut, "Initial scan: %d components, %d connections (%s)\n", res.Components, res.Connections, res.Mode)

	w, err := watcher.New(a.root, watcher.Config{
		DebounceMs: debounceMs,
		StoreDir:   a.layout.Root,
		Excludes:   a.cfg.Scan.Excludes,
	}, a.logger, func(ctx context.Context, changed []watcher.Event) error {
		res, err := scanner.Scan(ctx, false)
		if err != nil {
			return err
		}
		names := make([]string, 0, len(changed))
		for _, ev := range changed {
			names = append(names, ev.Type.String()+" "+ev.Path)
		}
		a.logger.Debug("Changes scanned", "events", strings.Join(names, ", "))
		fmt.Fprintf(a.errOut, "Re-scanned %d change(s): %d components, %d connections, %d records written\n",
			len(changed), res.Components, res.Connections, res.Written())
		return nil
	})
	if err != nil {
		return a.emit(envelope.Failure(err))
	}
	fmt.Fprintf(a.errOut, "Watching %s (Ctrl+C to stop)\n", a.root)

	err = w.Run(ctx)
	if err != nil && !stderrors.Is(err, context.Canceled) {
		return a.emit(envelope.Failure(err))
	}
	return nil
}
