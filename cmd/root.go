// Package cmd implements the canvas command-line interface: scanning chat
// messages into artifacts, browsing and editing them, and resolving sync
// conflicts. Commands are thin I/O glue; all semantics live in the
// internal packages.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koopa0/canvas/internal/config"
	"github.com/koopa0/canvas/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "canvas",
	Short: "Canvas - artifact extraction and sync for AI chat conversations",
	Long: `Canvas extracts structured artifacts (code, HTML, SVG, JSON, CSV,
diagrams, documents) from AI chat responses and keeps them consistent
across any number of backend instances sharing one store.

Run 'canvas scan' to extract artifacts from a message, then list, show,
edit, reorder, and reconcile them.`,
	SilenceUsage: true,
}

// Execute loads configuration, wires the application, and runs the root
// command.
func Execute() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	logger := log.New(log.Config{Level: cfg.Level(), JSON: cfg.LogJSON})

	app, err := newApp(cfg, logger)
	if err != nil {
		return fmt.Errorf("wiring application: %w", err)
	}
	defer app.Close()

	rootCmd.AddCommand(
		NewScanCmd(app),
		NewListCmd(app),
		NewShowCmd(app),
		NewEditCmd(app),
		NewDeleteCmd(app),
		NewReorderCmd(app),
		NewReconcileCmd(app),
		NewHealthCmd(app),
		NewVersionCmd(cfg),
	)
	return rootCmd.Execute()
}
